package scan

import (
	"log"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Detector finds project entries in a page snapshot by trying an ordered
// list of locator strategies until one yields results. Given the same
// snapshot it always returns the same ids in the same order: DOM order,
// deduplicated by id with the first match winning.
type Detector struct {
	locators []Locator
	policy   *bluemonday.Policy
}

// NewDetector builds a detector for a tracked site. primarySelector is the
// site profile's CSS selector for id elements; when it stops matching
// (the site ships hashed class names that change per release) detection
// falls back to attribute patterns and finally to a text heuristic.
func NewDetector(primarySelector string) *Detector {
	return &Detector{
		locators: []Locator{
			&SelectorLocator{Selector: primarySelector},
			&AttributeLocator{},
			&TextLocator{},
		},
		policy: bluemonday.StrictPolicy(),
	}
}

// Scan returns the entries detected in doc, in the order they appear on
// the page. A page with no recognizable rows yields an empty result, not
// an error.
func (d *Detector) Scan(doc *goquery.Document) []ProjectEntry {
	if doc == nil {
		return nil
	}

	for _, loc := range d.locators {
		cands := loc.Locate(doc)
		if len(cands) == 0 {
			continue
		}

		entries := d.buildEntries(cands)
		if len(entries) > 0 {
			log.Printf("[scan] %s matched %d entries", loc.Name(), len(entries))
			return entries
		}
	}

	log.Printf("[scan] no entries found with any locator")
	return nil
}

func (d *Detector) buildEntries(cands []Candidate) []ProjectEntry {
	seen := make(map[string]struct{}, len(cands))
	entries := make([]ProjectEntry, 0, len(cands))

	for _, c := range cands {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}

		container := closestContainer(c.Node)
		entry := ProjectEntry{
			ID:       c.ID,
			Index:    len(entries),
			Ref:      container,
			Title:    UnknownTitle,
			Deadline: UnknownDeadline,
			Value:    UnknownValue,
		}
		d.extractInfo(&entry, container)
		entries = append(entries, entry)
	}

	return entries
}

// ScanDetail probes for an open single-project detail view (the site
// renders those as a modal/popup over the listing). Detail mode and the
// listing flow coexist: a detail id is reported alongside whatever the
// listing locators find, it never replaces the selection set.
func (d *Detector) ScanDetail(doc *goquery.Document) (string, bool) {
	if doc == nil {
		return "", false
	}

	containers := safeFind(doc.Selection, `[class*="popup"], [class*="modal"], [class*="detailView"], [role="dialog"]`)
	var found string
	containers.EachWithBreak(func(i int, s *goquery.Selection) bool {
		for _, loc := range d.locators {
			// Scope each locator to the detail container.
			sub := goquery.NewDocumentFromNode(s.Nodes[0])
			if cands := loc.Locate(sub); len(cands) > 0 {
				found = cands[0].ID
				return false
			}
		}
		return true
	})

	return found, found != ""
}
