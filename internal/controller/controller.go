// Package controller holds the to-do list view state: the filter, the last
// fetched items, the loading flag and pending user notifications.
//
// Operations return tea.Cmds. Their results come back as messages through
// Update, which must only be called from one goroutine (the Bubble Tea loop,
// or Settle).
package controller

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/model"
)

// Controller is the list view-model.
type Controller struct {
	svc    api.Service
	ctx    context.Context
	now    func() time.Time
	logger *log.Logger

	filter  model.Filter
	items   []model.Item
	loading bool
	alerts  []error

	pending        map[int]*removal
	nextBatch      int
	failedRemovals []model.Item
}

// removal tracks one batch of deletes until every one has settled.
type removal struct {
	left   int
	failed []model.Item
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now for Overdue.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithFilter sets the starting filter.
func WithFilter(f model.Filter) Option {
	return func(c *Controller) { c.filter = f }
}

// WithContext sets the context every service call runs under.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.ctx = ctx }
}

// New returns a controller over svc. Call Init to issue the first refresh.
func New(svc api.Service, opts ...Option) *Controller {
	c := &Controller{
		svc:     svc,
		ctx:     context.Background(),
		now:     time.Now,
		logger:  log.New(io.Discard),
		filter:  model.DefaultFilter(),
		items:   []model.Item{},
		pending: make(map[int]*removal),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ------- bindable state -------

func (c *Controller) Filter() model.Filter { return c.filter }

// Items returns the current collection. Callers must not keep it across a refresh.
func (c *Controller) Items() []model.Item { return c.items }

func (c *Controller) Loading() bool { return c.loading }

// Alert returns the oldest undismissed failure, or nil.
func (c *Controller) Alert() error {
	if len(c.alerts) == 0 {
		return nil
	}
	return c.alerts[0]
}

// Alerts returns every undismissed failure, oldest first.
func (c *Controller) Alerts() []error { return append([]error(nil), c.alerts...) }

// DismissAlert drops the oldest failure.
func (c *Controller) DismissAlert() {
	if len(c.alerts) > 0 {
		c.alerts = c.alerts[1:]
	}
}

// Find returns the item with id from the current collection.
func (c *Controller) Find(id int) (model.Item, int, bool) {
	for i, it := range c.items {
		if it.Id == id {
			return it, i, true
		}
	}
	return model.Item{}, -1, false
}

// FailedRemovals returns the items whose delete failed in the most recently
// settled removal batch.
func (c *Controller) FailedRemovals() []model.Item { return c.failedRemovals }

// ------- predicates -------

// Overdue reports whether now is strictly after the item's due date.
// Items without a parseable date are never overdue.
func (c *Controller) Overdue(it model.Item) bool {
	due, ok := it.Due()
	if !ok {
		return false
	}
	return c.now().After(due)
}

// NoCompleted reports whether no item in the collection is done.
func (c *Controller) NoCompleted() bool {
	for _, it := range c.items {
		if it.IsDone {
			return false
		}
	}
	return true
}

func (c *Controller) alert(err error, keyvals ...any) {
	c.logger.Error("request failed", append([]any{"err", err}, keyvals...)...)
	c.alerts = append(c.alerts, err)
}
