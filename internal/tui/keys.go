package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	Filter      key.Binding
	SortDesc    key.Binding
	SortDue     key.Binding
	SortDone    key.Binding
	NextHeader  key.Binding
	PrevHeader  key.Binding
	Activate    key.Binding
	Direction   key.Binding
	ToggleDone  key.Binding
	Add         key.Binding
	Edit        key.Binding
	EditDue     key.Binding
	ClearDone   key.Binding
	Refresh     key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
	ConfirmYes  key.Binding
	ConfirmNo   key.Binding
	DismissNote key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		SortDesc:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "sort description")),
		SortDue:     key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "sort due")),
		SortDone:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "sort done")),
		NextHeader:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next column")),
		PrevHeader:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev column")),
		Activate:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sort by column")),
		Direction:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "flip order")),
		ToggleDone:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "done")),
		Add:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		EditDue:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "due date")),
		ClearDone:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear done")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Confirm:     key.NewBinding(key.WithKeys("enter")),
		Cancel:      key.NewBinding(key.WithKeys("esc")),
		ConfirmYes:  key.NewBinding(key.WithKeys("y", "Y")),
		ConfirmNo:   key.NewBinding(key.WithKeys("n", "N", "esc")),
		DismissNote: key.NewBinding(key.WithKeys("enter", "esc", " ")),
	}
}

// shortHelp extends the list's own help line.
func (k keyMap) shortHelp() []key.Binding {
	return []key.Binding{k.Filter, k.ToggleDone, k.Add, k.Edit, k.ClearDone}
}

func (k keyMap) fullHelp() []key.Binding {
	return []key.Binding{
		k.Filter, k.SortDesc, k.SortDue, k.SortDone, k.NextHeader, k.Direction,
		k.ToggleDone, k.Add, k.Edit, k.EditDue, k.ClearDone, k.Refresh,
	}
}
