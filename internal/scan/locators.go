package scan

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// idPattern matches the first run of digits in a node's text, the same
// extraction rule the tracked site's rows have always supported.
var idPattern = regexp.MustCompile(`(\d+)`)

// textIDPattern is the last-resort heuristic: an explicit project/tender
// label followed by a numeric id.
var textIDPattern = regexp.MustCompile(`(?i)(?:project|tender)\s*(?:id|no\.?|#)?\s*[:#]?\s*(\d{3,})`)

// SelectorLocator is the primary strategy: a site-profile CSS selector
// pointing straight at the id element.
type SelectorLocator struct {
	Selector string
}

func (l *SelectorLocator) Name() string { return "primary-selector" }

func (l *SelectorLocator) Locate(doc *goquery.Document) []Candidate {
	if strings.TrimSpace(l.Selector) == "" {
		return nil
	}
	var out []Candidate
	safeFind(doc.Selection, l.Selector).Each(func(i int, s *goquery.Selection) {
		if m := idPattern.FindString(strings.TrimSpace(s.Text())); m != "" {
			out = append(out, Candidate{ID: m, Node: s})
		}
	})
	return out
}

// AttributeLocator matches id carriers by attribute shape rather than the
// exact hashed class names the site generates per release.
type AttributeLocator struct{}

func (l *AttributeLocator) Name() string { return "attribute-pattern" }

func (l *AttributeLocator) Locate(doc *goquery.Document) []Candidate {
	var out []Candidate

	safeFind(doc.Selection, "[data-project-id]").Each(func(i int, s *goquery.Selection) {
		if id := idPattern.FindString(s.AttrOr("data-project-id", "")); id != "" {
			out = append(out, Candidate{ID: id, Node: s})
		}
	})

	safeFind(doc.Selection, `span[class*="projectId"], div[class*="projectId"], [id^="project-"]`).Each(func(i int, s *goquery.Selection) {
		id := idPattern.FindString(strings.TrimSpace(s.Text()))
		if id == "" {
			id = idPattern.FindString(s.AttrOr("id", ""))
		}
		if id != "" {
			out = append(out, Candidate{ID: id, Node: s})
		}
	})

	return out
}

// TextLocator scans likely leaf elements for "Project #1234"-style labels.
// Weakest signal, only consulted when everything else came up empty.
type TextLocator struct{}

func (l *TextLocator) Name() string { return "text-heuristic" }

func (l *TextLocator) Locate(doc *goquery.Document) []Candidate {
	var out []Candidate
	safeFind(doc.Selection, "span, strong, td, h3, h4, h5, p").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		// Long text means we are looking at a container, not a label.
		if text == "" || len(text) > 80 {
			return
		}
		if m := textIDPattern.FindStringSubmatch(text); m != nil {
			out = append(out, Candidate{ID: m[1], Node: s})
		}
	})
	return out
}
