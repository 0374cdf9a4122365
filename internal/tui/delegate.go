package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// listItem adapts model.Item to bubbles/list.Item
type listItem struct {
	item    model.Item
	overdue bool
}

// FilterValue satisfies list.Item.
func (i listItem) FilterValue() string { return i.item.Description }

const descWidth = 40

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()

	box := mutedStyle.Render(t.BoxUnchecked)
	text := ui.Pad(truncate(it.item.Description, descWidth), descWidth)
	if it.item.IsDone {
		box = successStyle.Render(t.BoxChecked)
		text = doneStyle.Render(text)
	}
	due := mutedStyle.Render(it.item.DueDate)
	if it.overdue && !it.item.IsDone {
		due = overdueStyle.Render(it.item.DueDate + " !")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprint(w, prefix+box+" "+text+"  "+due)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
