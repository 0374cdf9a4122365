// Package tui is the interactive list view. It binds to a controller and
// forwards service results to it from the Bubble Tea loop.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modeAddDescription
	modeAddDue
	modeEditDescription
	modeEditDue
	modeConfirmClear
)

// Headers are the sortable columns, in display order.
var Headers = []ui.SortHeader{
	{Column: model.ColumnDescription, Label: "Description"},
	{Column: model.ColumnDueDate, Label: "Due"},
	{Column: model.ColumnIsDone, Label: "Done"},
}

type modelTUI struct {
	ctrl *controller.Controller
	keys keyMap

	list  list.Model
	focus int // focused header, -1 when none

	mode      mode
	ti        textinput.Model // shared by filter, add and edit
	editID    int // item being edited
	draft     string // description typed in the first add step
	inputErr  string

	width, height int
}

func newModel(ctrl *controller.Controller) modelTUI {
	k := defaultKeys()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false) // the server filters
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.KeyMap.Quit = k.Quit
	l.AdditionalShortHelpKeys = k.shortHelp
	l.AdditionalFullHelpKeys = k.fullHelp

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200
	ti.Cursor.SetMode(cursor.CursorStatic)

	m := modelTUI{
		ctrl:   ctrl,
		keys:   k,
		list:   l,
		focus:  -1,
		ti:     ti,
		width:  80,
		height: 24,
	}
	m.sync()
	return m
}

func (m modelTUI) Init() tea.Cmd { return m.ctrl.Init() }

// sync rebuilds the list rows from the controller's collection.
func (m *modelTUI) sync() {
	items := m.ctrl.Items()
	rows := make([]list.Item, 0, len(items))
	for _, it := range items {
		rows = append(rows, listItem{item: it, overdue: m.ctrl.Overdue(it)})
	}
	m.list.SetItems(rows)
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if controller.Handles(msg) {
		cmd := m.ctrl.Update(msg)
		m.sync()
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		// alerts block everything until dismissed
		if m.ctrl.Alert() != nil {
			if key.Matches(msg, m.keys.DismissNote) {
				m.ctrl.DismissAlert()
			}
			return m, nil
		}
		switch m.mode {
		case modeConfirmClear:
			return m.updateConfirm(msg)
		case modeFilter:
			return m.updateFilter(msg)
		case modeAddDescription, modeAddDue, modeEditDescription, modeEditDue:
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		m.ti.Placeholder = "Filter..."
		m.ti.SetValue(m.ctrl.Filter().FilterText)
		m.ti.CursorEnd()
		cmd := m.ti.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.SortDesc):
		return m, m.activate(0)
	case key.Matches(msg, m.keys.SortDue):
		return m, m.activate(1)
	case key.Matches(msg, m.keys.SortDone):
		return m, m.activate(2)
	case key.Matches(msg, m.keys.NextHeader):
		m.focus = (m.focus + 1) % len(Headers)
		return m, nil
	case key.Matches(msg, m.keys.PrevHeader):
		if m.focus <= 0 {
			m.focus = len(Headers) - 1
		} else {
			m.focus--
		}
		return m, nil
	case key.Matches(msg, m.keys.Activate) && m.focus >= 0:
		return m, m.activate(m.focus)
	case key.Matches(msg, m.keys.Direction):
		return m, m.ctrl.ToggleDirection()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.ctrl.Refresh()
	case key.Matches(msg, m.keys.ToggleDone):
		i := m.list.Index()
		cmd := m.ctrl.ToggleDone(i)
		m.sync()
		m.list.Select(i)
		return m, cmd
	case key.Matches(msg, m.keys.Add):
		m.startInput(modeAddDescription, "", "New item description...")
		cmd := m.ti.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.EditDue):
		sel, ok := m.list.SelectedItem().(listItem)
		if !ok {
			return m, nil
		}
		m.editID = sel.item.Id
		if key.Matches(msg, m.keys.Edit) {
			m.startInput(modeEditDescription, sel.item.Description, "Edit description...")
		} else {
			m.startInput(modeEditDue, sel.item.DueDate, "YYYY-MM-DD")
		}
		cmd := m.ti.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.ClearDone):
		if m.ctrl.NoCompleted() {
			return m, nil
		}
		m.mode = modeConfirmClear
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) activate(i int) tea.Cmd {
	return Headers[i].Activate(m.ctrl.ChangeColumn)
}

func (m *modelTUI) startInput(md mode, value, placeholder string) {
	m.mode = md
	m.inputErr = ""
	m.ti.Placeholder = placeholder
	m.ti.SetValue(value)
	m.ti.CursorEnd()
}

func (m *modelTUI) stopInput() {
	m.mode = modeBrowse
	m.inputErr = ""
	m.draft = ""
	m.ti.SetValue("")
	m.ti.Blur()
}

func (m modelTUI) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ConfirmYes):
		m.mode = modeBrowse
		return m, m.ctrl.RemoveCompleted(true)
	case key.Matches(msg, m.keys.ConfirmNo):
		m.mode = modeBrowse
		return m, m.ctrl.RemoveCompleted(false)
	}
	return m, nil
}

// updateFilter refreshes on every change of the filter text.
func (m modelTUI) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Confirm) || key.Matches(msg, m.keys.Cancel) {
		m.mode = modeBrowse
		m.ti.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, tea.Batch(cmd, m.ctrl.SetFilterText(m.ti.Value()))
}

func (m modelTUI) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.stopInput()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		value := strings.TrimSpace(m.ti.Value())
		switch m.mode {
		case modeAddDescription:
			if value == "" {
				m.inputErr = "Description cannot be empty"
				return m, nil
			}
			m.draft = value
			m.startInput(modeAddDue, "", "Due date (YYYY-MM-DD), optional")
			return m, nil
		case modeAddDue:
			if value != "" && !validDate(value) {
				m.inputErr = "Not a date: " + value
				return m, nil
			}
			cmd := m.ctrl.Add(m.draft, value)
			m.stopInput()
			return m, cmd
		case modeEditDescription:
			if value == "" {
				m.inputErr = "Description cannot be empty"
				return m, nil
			}
			idx, ok := m.editTarget()
			if !ok {
				return m, nil
			}
			cmd := m.ctrl.Edit(idx, func(it *model.Item) { it.Description = value })
			m.stopInput()
			m.sync()
			return m, cmd
		case modeEditDue:
			if value != "" && !validDate(value) {
				m.inputErr = "Not a date: " + value
				return m, nil
			}
			idx, ok := m.editTarget()
			if !ok {
				return m, nil
			}
			cmd := m.ctrl.Edit(idx, func(it *model.Item) { it.DueDate = value })
			m.stopInput()
			m.sync()
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

// editTarget finds the edited item in the current collection, which a refresh
// may have reordered or emptied since the edit started.
func (m *modelTUI) editTarget() (int, bool) {
	_, idx, ok := m.ctrl.Find(m.editID)
	if !ok {
		m.inputErr = "Item no longer listed (esc to cancel)"
	}
	return idx, ok
}

func validDate(s string) bool {
	_, ok := model.Item{DueDate: s}.Due()
	return ok
}

// Run starts the interactive list over ctrl.
func Run(ctrl *controller.Controller) error {
	p := tea.NewProgram(newModel(ctrl), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
