package scan

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes shortens s to at most n runes, appending an ellipsis when
// anything was cut.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// cleanText strips any markup from scraped text and normalizes whitespace.
// The tracked site's markup is untrusted input.
func cleanText(policy *bluemonday.Policy, s string) string {
	return normalizeSpace(html.UnescapeString(policy.Sanitize(s)))
}

// safeFind runs a CSS query and recovers from invalid selector panics,
// returning an empty selection instead. Site profiles are config-provided
// and a bad selector must degrade to "zero entries found".
func safeFind(root *goquery.Selection, selector string) (sel *goquery.Selection) {
	defer func() {
		if r := recover(); r != nil {
			sel = root.FilterFunction(func(int, *goquery.Selection) bool { return false })
		}
	}()
	return root.Find(selector)
}
