package scan

import (
	"github.com/PuerkitoBio/goquery"
)

// Sentinel values used when heuristic extraction finds nothing. They are
// informational only; identity always comes from the numeric id.
const (
	UnknownTitle    = "Unknown Project"
	UnknownDeadline = "No deadline"
	UnknownValue    = "No value"
)

// ProjectEntry is one detected listing row in the current page snapshot.
// Ref points into the snapshot's parse tree and is only valid until the
// next scan; it is never persisted.
type ProjectEntry struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Deadline   string `json:"deadline"`
	Value      string `json:"value"`
	TradeCount int    `json:"trade_count"`
	Index      int    `json:"index"`

	Ref *goquery.Selection `json:"-"`
}

// Candidate is a located id node before metadata extraction.
type Candidate struct {
	ID   string
	Node *goquery.Selection
}

// Locator is one detection strategy. Locators must degrade to an empty
// result on unexpected markup, never panic.
type Locator interface {
	Name() string
	Locate(doc *goquery.Document) []Candidate
}
