package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SortHeader is a clickable column heading. It holds no state of its own:
// the active column and direction come from the list filter.
type SortHeader struct {
	Column string
	Label  string // shown instead of Column when set
}

var (
	headerStyle        = lipgloss.NewStyle().Faint(true)
	headerActiveStyle  = lipgloss.NewStyle().Bold(true)
	headerFocusedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
)

// Indicator is the direction glyph when h is the active column, else "".
func (h SortHeader) Indicator(active string, ascending bool) string {
	if h.Column != active {
		return ""
	}
	if ascending {
		return Current().SortAsc
	}
	return Current().SortDesc
}

// Text is the heading: label (or column name) plus the indicator, if any.
func (h SortHeader) Text(active string, ascending bool) string {
	label := h.Label
	if label == "" {
		label = h.Column
	}
	if ind := h.Indicator(active, ascending); ind != "" {
		return label + " " + ind
	}
	return label
}

// Activate asks for this column through change.
func (h SortHeader) Activate(change func(column string) tea.Cmd) tea.Cmd {
	return change(h.Column)
}

// Render styles Text for the interactive header row.
func (h SortHeader) Render(active string, ascending, focused bool) string {
	txt := h.Text(active, ascending)
	switch {
	case focused:
		return headerFocusedStyle.Render(txt)
	case h.Column == active:
		return headerActiveStyle.Render(txt)
	default:
		return headerStyle.Render(txt)
	}
}

// Plain renders Text through the ANSI theme helpers for static output.
func (h SortHeader) Plain(active string, ascending bool) string {
	txt := h.Text(active, ascending)
	if h.Column == active {
		return C(Current().Accent, txt)
	}
	return C(Current().Muted, txt)
}
