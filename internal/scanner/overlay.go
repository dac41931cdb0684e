package scanner

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// ShowOverlay activates the selection surface. Rendering is pull-based:
// the trigger UI asks for RenderOverlay whenever it repaints.
func (s *Scanner) ShowOverlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = true
}

func (s *Scanner) HideOverlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = false
}

func (s *Scanner) OverlayActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay
}

// RenderOverlay renders the header controls and one annotated row per
// detected entry, in page order, with the current selection marks.
func (s *Scanner) RenderOverlay() string {
	s.mu.Lock()
	entries := make([]scanEntryView, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, scanEntryView{
			id:       e.ID,
			title:    e.Title,
			value:    e.Value,
			deadline: e.Deadline,
			trades:   e.TradeCount,
			selected: s.mirror.Has(e.ID),
		})
	}
	selected := s.mirror.Len()
	active := s.overlay
	s.mu.Unlock()

	if !active {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Select Projects to Scrape — %d selected\n", selected)
	b.WriteString("[a] select all   [n] clear all   [enter] confirm   [q] cancel\n")

	t := table.NewWriter()
	t.AppendHeader(table.Row{"", "ID", "Title", "Value", "Deadline", "Trades"})
	for _, e := range entries {
		mark := "[ ]"
		if e.selected {
			mark = "[x]"
		}
		t.AppendRow(table.Row{mark, e.id, e.title, e.value, e.deadline, e.trades})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

type scanEntryView struct {
	id, title, value, deadline string
	trades                     int
	selected                   bool
}
