package scan

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var (
	closesInPattern = regexp.MustCompile(`(?i)closes?\s+in\s+(\d+\s+days?)`)
	deadlinePattern = regexp.MustCompile(`(?i)deadline[:\s]*([^,\n]+)`)
	valuePattern    = regexp.MustCompile(`(?i)\$[\d,.]+(M|K)?`)
)

var titleSelectors = []string{
	"h3", "h4", "h5",
	`[class*="title"]`,
	`[class*="name"]`,
	".project-title",
}

// closestContainer walks up from an id node to the element that visually
// wraps the whole listing row.
func closestContainer(node *goquery.Selection) *goquery.Selection {
	if node == nil {
		return nil
	}
	// Start from the parent so the id element itself (its class usually
	// contains "projectId") cannot self-match the container patterns.
	container := node.Parent().Closest(`[class*="project"], .card, [class*="item"]`)
	if container.Length() > 0 {
		return container
	}
	parent := node.Parent().Parent()
	if parent.Length() > 0 {
		return parent
	}
	return node
}

// extractInfo fills the entry's descriptive fields from its container via
// best-effort text matching. Failures leave the sentinel defaults in
// place; identity never depends on any of this.
func (d *Detector) extractInfo(entry *ProjectEntry, container *goquery.Selection) {
	if container == nil || container.Length() == 0 {
		return
	}

	for _, sel := range titleSelectors {
		title := cleanText(d.policy, safeFind(container, sel).First().Text())
		if title != "" {
			entry.Title = truncateRunes(title, 50)
			break
		}
	}

	text := container.Text()

	if m := closesInPattern.FindStringSubmatch(text); m != nil {
		entry.Deadline = normalizeSpace(m[1])
	} else if m := deadlinePattern.FindStringSubmatch(text); m != nil {
		entry.Deadline = cleanText(d.policy, m[1])
	}

	if m := valuePattern.FindString(text); m != "" {
		entry.Value = m
	}

	entry.TradeCount = safeFind(container, `[class*="trade"], [class*="category"]`).Length()
}
