package scan

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

const listingHTML = `
<html><body>
  <div class="projectCard">
    <span class="styles__projectId__a99146">Project 100</span>
    <h3>Riverside Medical Center Expansion</h3>
    <p>Closes in 12 days. Estimated value $4.2M</p>
    <span class="tradeTag">Electrical</span>
    <span class="tradeTag">Plumbing</span>
  </div>
  <div class="projectCard">
    <span class="styles__projectId__a99146">Project 200</span>
    <h3>Harbor Bridge Deck Replacement</h3>
    <p>Deadline: 15 Oct 2026</p>
  </div>
  <div class="projectCard">
    <span class="styles__projectId__a99146">Project 300</span>
  </div>
</body></html>`

func TestScanPrimarySelector(t *testing.T) {
	d := NewDetector(`span[class*="styles__projectId"]`)
	entries := d.Scan(docFrom(t, listingHTML))

	ids := entryIDs(entries)
	want := []string{"100", "200", "300"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected ids in DOM order %v, got %v", want, ids)
		}
	}
}

func TestScanMetadataExtraction(t *testing.T) {
	d := NewDetector(`span[class*="styles__projectId"]`)
	entries := d.Scan(docFrom(t, listingHTML))
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Title != "Riverside Medical Center Expansion" {
		t.Errorf("unexpected title: %q", first.Title)
	}
	if first.Deadline != "12 days" {
		t.Errorf("unexpected deadline: %q", first.Deadline)
	}
	if first.Value != "$4.2M" {
		t.Errorf("unexpected value: %q", first.Value)
	}
	if first.TradeCount != 2 {
		t.Errorf("unexpected trade count: %d", first.TradeCount)
	}

	second := entries[1]
	if second.Deadline != "15 Oct 2026" {
		t.Errorf("unexpected parsed deadline: %q", second.Deadline)
	}

	bare := entries[2]
	if bare.Title != UnknownTitle || bare.Deadline != UnknownDeadline || bare.Value != UnknownValue {
		t.Errorf("expected sentinel metadata for bare entry, got %+v", bare)
	}
}

func TestScanFallsBackToAttributePattern(t *testing.T) {
	html := `
<html><body>
  <div class="card"><div data-project-id="4711"><h4>North Quay Fitout</h4></div></div>
  <div class="card"><div data-project-id="4712"><h4>Depot Reroof</h4></div></div>
</body></html>`

	// Primary selector matches nothing after a site markup change.
	d := NewDetector(`span.styles__projectId__deadbeef`)
	entries := d.Scan(docFrom(t, html))

	ids := entryIDs(entries)
	if len(ids) != 2 || ids[0] != "4711" || ids[1] != "4712" {
		t.Fatalf("attribute fallback failed: %v", ids)
	}
}

func TestScanFallsBackToTextHeuristic(t *testing.T) {
	html := `
<html><body>
  <ul>
    <li><strong>Project #9001</strong> Community pool refurbishment</li>
    <li><strong>Tender no. 9002</strong> Roadworks stage 2</li>
  </ul>
</body></html>`

	d := NewDetector("")
	entries := d.Scan(docFrom(t, html))

	ids := entryIDs(entries)
	if len(ids) != 2 || ids[0] != "9001" || ids[1] != "9002" {
		t.Fatalf("text heuristic fallback failed: %v", ids)
	}
}

func TestScanDeduplicatesByID(t *testing.T) {
	html := `
<html><body>
  <div class="card"><span class="projectId">Project 100</span><h3>First render</h3></div>
  <div class="card"><span class="projectId">Project 100</span><h3>Duplicate render</h3></div>
</body></html>`

	d := NewDetector(`span[class*="projectId"]`)
	entries := d.Scan(docFrom(t, html))

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after dedupe, got %d", len(entries))
	}
	if entries[0].Title != "First render" {
		t.Errorf("first match must win, got %q", entries[0].Title)
	}
}

func TestScanIsDeterministic(t *testing.T) {
	d := NewDetector(`span[class*="styles__projectId"]`)
	doc := docFrom(t, listingHTML)

	first := entryIDs(d.Scan(doc))
	second := entryIDs(d.Scan(doc))

	if len(first) != len(second) {
		t.Fatalf("scan count changed between runs: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("scan order changed between runs: %v vs %v", first, second)
		}
	}
}

func TestScanEmptyAndMalformedPages(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"empty page", `<html><body></body></html>`},
		{"unrelated content", `<html><body><p>Nothing to see</p></body></html>`},
		{"truncated markup", `<div class="projectCard"><span class="projectId">Pro`},
	}

	d := NewDetector(`span[class*="projectId"]`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Must not panic, must return zero entries or a partial result.
			_ = d.Scan(docFrom(t, tt.html))
		})
	}
}

func TestScanInvalidProfileSelectorDegrades(t *testing.T) {
	d := NewDetector(`span[class*=`) // broken selector from a bad site profile
	entries := d.Scan(docFrom(t, listingHTML))

	// Fallback locators still find the rows.
	if len(entries) != 3 {
		t.Fatalf("expected fallback to recover from invalid selector, got %d entries", len(entries))
	}
}

func TestScanDetail(t *testing.T) {
	html := `
<html><body>
  <div class="projectCard"><span class="projectId">Project 100</span></div>
  <div class="detailViewOverlay" role="dialog">
    <span class="projectId">Project 555</span>
    <h3>Detail view</h3>
  </div>
</body></html>`

	d := NewDetector(`span[class*="projectId"]`)
	doc := docFrom(t, html)

	id, ok := d.ScanDetail(doc)
	if !ok || id != "555" {
		t.Fatalf("expected detail id 555, got %q ok=%v", id, ok)
	}

	// Listing detection is unaffected by an open detail view.
	entries := d.Scan(doc)
	if len(entries) != 2 {
		t.Fatalf("listing scan should still see both ids, got %d", len(entries))
	}
}

func TestScanDetailAbsent(t *testing.T) {
	d := NewDetector(`span[class*="projectId"]`)
	if id, ok := d.ScanDetail(docFrom(t, listingHTML)); ok {
		t.Fatalf("no detail view present but got id %q", id)
	}
}

func entryIDs(entries []ProjectEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
