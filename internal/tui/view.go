package tui

import (
	"fmt"
	"strings"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// chrome the list does not own: frame, title, header row, footer box
const (
	chromeRows      = 6
	inputChromeRows = 4
)

func (m *modelTUI) resize() {
	h := m.height - chromeRows
	if m.inputActive() {
		h -= inputChromeRows
	}
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
}

func (m modelTUI) inputActive() bool {
	return m.mode != modeBrowse && m.mode != modeConfirmClear
}

func (m modelTUI) View() string {
	m.resize()

	if err := m.ctrl.Alert(); err != nil {
		body := errorStyle.Render("Request failed") + "\n\n" + err.Error()
		if n := len(m.ctrl.Alerts()); n > 1 {
			body += "\n\n" + mutedStyle.Render(fmt.Sprintf("%d more", n-1))
		}
		body += "\n\n" + helpStyle.Render("enter: dismiss")
		return frameStyle.Render(alertStyle.Width(m.modalWidth()).Render(body))
	}

	parts := []string{m.titleLine(), m.headerLine(), m.list.View()}

	switch {
	case m.mode == modeConfirmClear:
		done, _ := model.Stats(m.ctrl.Items())
		body := fmt.Sprintf("Remove %d completed item(s)?", done) + "\n" + helpStyle.Render("y: remove   n/esc: cancel")
		parts = append(parts, frameStyle.Render(body))
	case m.inputActive():
		title := m.inputTitle()
		if m.inputErr != "" {
			title += "  " + errorStyle.Render(m.inputErr)
		}
		parts = append(parts, frameStyle.Render(title+"\n"+m.ti.View()))
	}
	return frameStyle.Render(strings.Join(parts, "\n"))
}

func (m modelTUI) modalWidth() int {
	w := m.width - 8
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m modelTUI) inputTitle() string {
	switch m.mode {
	case modeFilter:
		return "Filter"
	case modeAddDescription:
		return "Add new item"
	case modeAddDue:
		return "Add new item: " + m.draft
	case modeEditDescription:
		return "Edit item"
	case modeEditDue:
		return "Edit due date"
	}
	return ""
}

// titleLine shows live counts, the active text filter and the loading flag.
func (m modelTUI) titleLine() string {
	items := m.ctrl.Items()
	dn, pn := model.Stats(items)
	t := ui.Current()
	line := fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render(t.SymDone), dn,
		pendingStyle.Render(t.SymUnchecked), pn,
		accentStyle.Render("Total"), len(items),
	)
	if ft := m.ctrl.Filter().FilterText; ft != "" && m.mode != modeFilter {
		line += "  " + mutedStyle.Render("/ "+ft)
	}
	if m.ctrl.Loading() {
		line += "  " + pendingStyle.Render("loading…")
	}
	return line
}

func (m modelTUI) headerLine() string {
	f := m.ctrl.Filter()
	cells := make([]string, 0, len(Headers))
	for i, h := range Headers {
		cells = append(cells, h.Render(f.ColumnName, f.SortAscending, i == m.focus))
	}
	return "  " + strings.Join(cells, "   ")
}
