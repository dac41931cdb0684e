package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rafael/tender-picker/internal/scan"
	"github.com/rafael/tender-picker/internal/scanner"
)

var (
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// picker is the selection overlay: enter toggles rows, the last row
// confirms. Every toggle persists through the scanner immediately, so a
// crash mid-pick loses nothing.
type picker struct {
	ctx     context.Context
	scanner *scanner.Scanner
	entries []scan.ProjectEntry
	cursor  int

	confirmed bool
	done      bool
}

func newPicker(ctx context.Context, s *scanner.Scanner) picker {
	return picker{ctx: ctx, scanner: s, entries: s.Entries()}
}

func (p picker) Init() tea.Cmd { return nil }

func (p picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			p.done = true
			return p, tea.Quit
		case "up", "k":
			if p.cursor > 0 {
				p.cursor--
			}
		case "down", "j":
			if p.cursor < len(p.entries) {
				p.cursor++
			}
		case "enter", " ":
			if p.cursor == len(p.entries) {
				p.confirmed = true
				p.done = true
				return p, tea.Quit
			}
			p.scanner.Toggle(p.ctx, p.entries[p.cursor].ID)
		case "a":
			p.scanner.SelectAll(p.ctx)
		case "n":
			p.scanner.ClearAll(p.ctx)
		}
	}
	return p, nil
}

func (p picker) View() string {
	var b strings.Builder

	count := len(p.scanner.Selection())
	fmt.Fprintf(&b, "  Select projects to scrape (%d selected)\n", count)
	b.WriteString(dimStyle.Render("  enter/space: toggle · a: select all · n: clear all · q: cancel"))
	b.WriteString("\n\n")

	for i, e := range p.entries {
		cursor := "  "
		if p.cursor == i {
			cursor = cursorStyle.Render("> ")
		}
		check := "[ ]"
		line := fmt.Sprintf("%s %s  %s · %s · %s", check, e.ID, e.Title, e.Value, e.Deadline)
		if p.scanner.Selected(e.ID) {
			check = "[x]"
			line = selectedStyle.Render(fmt.Sprintf("%s %s  %s · %s · %s", check, e.ID, e.Title, e.Value, e.Deadline))
		}
		b.WriteString(cursor + line + "\n")
	}

	cursor := "  "
	if p.cursor == len(p.entries) {
		cursor = cursorStyle.Render("> ")
	}
	fmt.Fprintf(&b, "\n%s[ Confirm (%d) ]\n", cursor, count)

	return b.String()
}
