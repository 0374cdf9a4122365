package controller

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
)

type listedMsg struct {
	items []model.Item
	err   error
}

type savedMsg struct {
	item    model.Item
	err     error
	refresh bool
}

type removedMsg struct {
	batch int
	item  model.Item
	err   error
}

// Init issues the refresh a freshly built list starts with.
func (c *Controller) Init() tea.Cmd { return c.Refresh() }

// Refresh fetches the items for the current filter. Overlapping refreshes
// are neither sequenced nor cancelled: whichever response lands last wins.
func (c *Controller) Refresh() tea.Cmd {
	c.loading = true
	f := c.filter
	c.logger.Debug("refresh", "filter", f.FilterText, "column", f.ColumnName, "asc", f.SortAscending)
	return func() tea.Msg {
		items, err := c.svc.List(c.ctx, f)
		return listedMsg{items: items, err: err}
	}
}

// SetFilterText changes the text filter and refreshes when it differs.
func (c *Controller) SetFilterText(text string) tea.Cmd {
	if text == c.filter.FilterText {
		return nil
	}
	c.filter.FilterText = text
	return c.Refresh()
}

// ChangeColumn sorts by name. Picking the current column flips the
// direction instead; picking another keeps the direction.
func (c *Controller) ChangeColumn(name string) tea.Cmd {
	if name == c.filter.ColumnName {
		c.filter.SortAscending = !c.filter.SortAscending
	} else {
		c.filter.ColumnName = name
	}
	return c.Refresh()
}

// ToggleDirection flips the sort direction.
func (c *Controller) ToggleDirection() tea.Cmd {
	c.filter.SortAscending = !c.filter.SortAscending
	return c.Refresh()
}

// Save upserts it. The collection is not patched with the acknowledgement.
func (c *Controller) Save(it model.Item) tea.Cmd {
	return c.save(it, false)
}

// Add creates a new item and refreshes once the server accepted it.
func (c *Controller) Add(description, dueDate string) tea.Cmd {
	return c.save(model.Item{Description: description, DueDate: dueDate}, true)
}

// Edit applies change to the bound item at index, then saves it.
func (c *Controller) Edit(index int, change func(*model.Item)) tea.Cmd {
	if index < 0 || index >= len(c.items) {
		return nil
	}
	change(&c.items[index])
	return c.Save(c.items[index])
}

// ToggleDone flips the done flag of the item at index and saves it.
func (c *Controller) ToggleDone(index int) tea.Cmd {
	return c.Edit(index, func(it *model.Item) { it.IsDone = !it.IsDone })
}

func (c *Controller) save(it model.Item, refresh bool) tea.Cmd {
	c.loading = true
	c.logger.Debug("save", "id", it.Id)
	return func() tea.Msg {
		ack, err := c.svc.Save(c.ctx, it)
		return savedMsg{item: ack, err: err, refresh: refresh}
	}
}

// RemoveCompleted deletes every done item, then refreshes once all deletes
// have settled. It does nothing unless the user confirmed.
func (c *Controller) RemoveCompleted(confirmed bool) tea.Cmd {
	if !confirmed {
		return nil
	}
	var done []model.Item
	for _, it := range c.items {
		if it.IsDone {
			done = append(done, it)
		}
	}
	return c.remove(done)
}

// Remove deletes a single item, then refreshes.
func (c *Controller) Remove(it model.Item) tea.Cmd {
	return c.remove([]model.Item{it})
}

func (c *Controller) remove(items []model.Item) tea.Cmd {
	if len(items) == 0 {
		return nil
	}
	c.loading = true
	c.nextBatch++
	batch := c.nextBatch
	c.pending[batch] = &removal{left: len(items)}
	c.logger.Debug("remove", "batch", batch, "count", len(items))

	cmds := make([]tea.Cmd, 0, len(items))
	for _, it := range items {
		cmds = append(cmds, func() tea.Msg {
			err := c.svc.Remove(c.ctx, it)
			return removedMsg{batch: batch, item: it, err: err}
		})
	}
	return tea.Batch(cmds...)
}

// Update applies the result of a service call and returns any follow-up.
// Messages it does not know are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case listedMsg:
		c.loading = false
		if msg.err != nil {
			c.alert(msg.err)
			return nil
		}
		c.items = msg.items
		return nil

	case savedMsg:
		c.loading = false
		if msg.err != nil {
			c.alert(msg.err)
			return nil
		}
		if msg.refresh {
			return c.Refresh()
		}
		return nil

	case removedMsg:
		r, ok := c.pending[msg.batch]
		if msg.err != nil {
			c.alert(msg.err, "id", msg.item.Id)
			if ok {
				r.failed = append(r.failed, msg.item)
			}
		}
		if !ok {
			return nil
		}
		r.left--
		if r.left > 0 {
			return nil
		}
		delete(c.pending, msg.batch)
		c.failedRemovals = r.failed
		return c.Refresh()
	}
	return nil
}

// Handles reports whether msg is a controller result.
func Handles(msg tea.Msg) bool {
	switch msg.(type) {
	case listedMsg, savedMsg, removedMsg:
		return true
	}
	return false
}
