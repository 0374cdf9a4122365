package controller

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/apitest"
	"github.com/Makepad-fr/tada/internal/model"
)

// fakeService records calls and answers from canned data.
type fakeService struct {
	mu        sync.Mutex
	lists     []model.Filter
	saves     []model.Item
	removes   []model.Item
	items     []model.Item
	listErr   error
	saveErr   error
	removeErr map[int]error
}

func (f *fakeService) List(_ context.Context, flt model.Filter) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, flt)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Item(nil), f.items...), nil
}

func (f *fakeService) Save(_ context.Context, it model.Item) (model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, it)
	if f.saveErr != nil {
		return model.Item{}, f.saveErr
	}
	return it, nil
}

func (f *fakeService) Remove(_ context.Context, it model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, it)
	return f.removeErr[it.Id]
}

// expand runs cmd and flattens batches into their messages.
func expand(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, sub := range batch {
			out = append(out, expand(t, sub)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestInitRefreshesWithDefaultFilter(t *testing.T) {
	svc := &fakeService{items: []model.Item{{Id: 1, Description: "a", DueDate: "2020-01-01"}}}
	c := New(svc)

	cmd := c.Init()
	if !c.Loading() {
		t.Fatal("expected loading during refresh")
	}
	c.Settle(cmd)

	want := model.Filter{FilterText: "", ColumnName: "DueDate", SortAscending: false}
	if len(svc.lists) != 1 || svc.lists[0] != want {
		t.Fatalf("lists: got %+v, want [%+v]", svc.lists, want)
	}
	if !reflect.DeepEqual(c.Items(), svc.items) {
		t.Fatalf("items: got %+v", c.Items())
	}
	if c.Loading() {
		t.Fatal("loading should be cleared")
	}
}

func TestRefreshAgainstServer(t *testing.T) {
	srv := apitest.New(t)
	srv.RespondList([]model.Item{{Id: 1, IsDone: false, Description: "a", DueDate: "2020-01-01"}})
	client, err := api.NewClient(srv.URL, api.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	c := New(client)
	c.Settle(c.Init())

	want := []model.Item{{Id: 1, IsDone: false, Description: "a", DueDate: "2020-01-01"}}
	if !reflect.DeepEqual(c.Items(), want) {
		t.Fatalf("items: got %+v, want %+v", c.Items(), want)
	}
	if c.Loading() {
		t.Fatal("loading should be false")
	}
	q := srv.Journal()[0].Query
	if q.Get("columnName") != "DueDate" || q.Get("sortAscending") != "false" || q.Get("filterText") != "" {
		t.Fatalf("unexpected query %v", q)
	}
}

func TestRefreshFailureRaisesAlert(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeService{items: []model.Item{{Id: 1}}}
	c := New(svc)
	c.Settle(c.Init())

	svc.listErr = boom
	c.Settle(c.Refresh())

	if !errors.Is(c.Alert(), boom) {
		t.Fatalf("alert: got %v", c.Alert())
	}
	if c.Loading() {
		t.Fatal("loading should be cleared after failure")
	}
	if len(c.Items()) != 1 {
		t.Fatal("a failed refresh must keep the previous collection")
	}
	c.DismissAlert()
	if c.Alert() != nil {
		t.Fatal("alert should be dismissed")
	}
}

func TestLastCompletedRefreshWins(t *testing.T) {
	c := New(&fakeService{})
	c.Refresh()
	c.filter.FilterText = "b"
	c.Refresh()

	newer := model.Item{Id: 2, Description: "b"}
	older := model.Item{Id: 1, Description: "a"}
	// the newer request answers first, the stale one lands afterwards
	c.Update(listedMsg{items: []model.Item{newer}})
	c.Update(listedMsg{items: []model.Item{older}})

	if got := c.Items(); len(got) != 1 || got[0] != older {
		t.Fatalf("expected the last response to win, got %+v", got)
	}
}

func TestChangeColumn(t *testing.T) {
	tests := []struct {
		name    string
		start   model.Filter
		column  string
		wantCol string
		wantAsc bool
	}{
		{"same column flips direction", model.Filter{ColumnName: "DueDate"}, "DueDate", "DueDate", true},
		{"same column flips back", model.Filter{ColumnName: "DueDate", SortAscending: true}, "DueDate", "DueDate", false},
		{"new column keeps descending", model.Filter{ColumnName: "DueDate"}, "Description", "Description", false},
		{"new column keeps ascending", model.Filter{ColumnName: "DueDate", SortAscending: true}, "IsDone", "IsDone", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			c := New(svc, WithFilter(tt.start))
			c.Settle(c.ChangeColumn(tt.column))

			f := c.Filter()
			if f.ColumnName != tt.wantCol || f.SortAscending != tt.wantAsc {
				t.Fatalf("filter: got %+v", f)
			}
			if len(svc.lists) != 1 {
				t.Fatalf("expected exactly one refresh, got %d", len(svc.lists))
			}
			if svc.lists[0] != f {
				t.Fatalf("refresh sent %+v, want %+v", svc.lists[0], f)
			}
		})
	}
}

func TestSetFilterText(t *testing.T) {
	svc := &fakeService{}
	c := New(svc)

	c.Settle(c.SetFilterText("milk"))
	if len(svc.lists) != 1 || svc.lists[0].FilterText != "milk" {
		t.Fatalf("lists: %+v", svc.lists)
	}
	if cmd := c.SetFilterText("milk"); cmd != nil {
		t.Fatal("unchanged text should not refresh")
	}
}

func TestToggleDirection(t *testing.T) {
	svc := &fakeService{}
	c := New(svc)
	c.Settle(c.ToggleDirection())
	if !c.Filter().SortAscending || c.Filter().ColumnName != "DueDate" {
		t.Fatalf("filter: %+v", c.Filter())
	}
	if len(svc.lists) != 1 {
		t.Fatalf("expected one refresh, got %d", len(svc.lists))
	}
}

func TestSaveDoesNotPatchOrRefresh(t *testing.T) {
	svc := &fakeService{items: []model.Item{{Id: 1, Description: "a"}}}
	c := New(svc)
	c.Settle(c.Init())

	edited := model.Item{Id: 1, Description: "changed"}
	cmd := c.Save(edited)
	if !c.Loading() {
		t.Fatal("expected loading while saving")
	}
	c.Settle(cmd)

	if c.Loading() {
		t.Fatal("loading should be cleared")
	}
	if len(svc.saves) != 1 || svc.saves[0] != edited {
		t.Fatalf("saves: %+v", svc.saves)
	}
	if len(svc.lists) != 1 {
		t.Fatalf("save must not refresh, lists=%d", len(svc.lists))
	}
	if c.Items()[0].Description != "a" {
		t.Fatal("collection must not be patched with the acknowledgement")
	}
}

func TestSaveFailureRaisesAlert(t *testing.T) {
	svc := &fakeService{saveErr: &api.StatusError{Op: "save", StatusCode: http.StatusBadRequest}}
	c := New(svc)
	c.Settle(c.Save(model.Item{Id: 3}))
	if api.StatusCode(c.Alert()) != http.StatusBadRequest {
		t.Fatalf("alert: %v", c.Alert())
	}
	if c.Loading() {
		t.Fatal("loading should be cleared")
	}
}

func TestToggleDoneSavesBoundItem(t *testing.T) {
	svc := &fakeService{items: []model.Item{{Id: 1}, {Id: 2}}}
	c := New(svc)
	c.Settle(c.Init())

	c.Settle(c.ToggleDone(1))
	if !c.Items()[1].IsDone {
		t.Fatal("bound item should be flipped")
	}
	if len(svc.saves) != 1 || svc.saves[0] != (model.Item{Id: 2, IsDone: true}) {
		t.Fatalf("saves: %+v", svc.saves)
	}
	if cmd := c.ToggleDone(5); cmd != nil {
		t.Fatal("out of range index should be a no-op")
	}
}

func TestAddRefreshesOnSuccessOnly(t *testing.T) {
	svc := &fakeService{}
	c := New(svc)
	c.Settle(c.Add("buy milk", "2024-02-02"))
	if len(svc.saves) != 1 || svc.saves[0] != (model.Item{Description: "buy milk", DueDate: "2024-02-02"}) {
		t.Fatalf("saves: %+v", svc.saves)
	}
	if len(svc.lists) != 1 {
		t.Fatalf("expected a refresh after add, got %d", len(svc.lists))
	}

	svc.saveErr = errors.New("nope")
	c.Settle(c.Add("x", ""))
	if len(svc.lists) != 1 {
		t.Fatal("failed add must not refresh")
	}
	if c.Alert() == nil {
		t.Fatal("expected alert")
	}
}

func TestRemoveCompletedDeclinedIsNoop(t *testing.T) {
	svc := &fakeService{items: []model.Item{{Id: 1, IsDone: true}, {Id: 2}}}
	c := New(svc)
	c.Settle(c.Init())
	before := append([]model.Item(nil), c.Items()...)

	if cmd := c.RemoveCompleted(false); cmd != nil {
		t.Fatal("declined removal must return no command")
	}
	if len(svc.removes) != 0 || c.Loading() {
		t.Fatalf("state changed: removes=%d loading=%v", len(svc.removes), c.Loading())
	}
	if !reflect.DeepEqual(before, c.Items()) {
		t.Fatal("items changed")
	}
}

func TestRemoveCompletedRefreshesOnceAfterAllSettle(t *testing.T) {
	svc := &fakeService{
		items: []model.Item{
			{Id: 1, IsDone: true},
			{Id: 2},
			{Id: 3, IsDone: true},
			{Id: 4, IsDone: true},
		},
		removeErr: map[int]error{3: errors.New("delete 3 failed")},
	}
	c := New(svc)
	c.Settle(c.Init())

	cmd := c.RemoveCompleted(true)
	if !c.Loading() {
		t.Fatal("expected loading during removal")
	}
	msgs := expand(t, cmd)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 deletes, got %d", len(msgs))
	}

	if follow := c.Update(msgs[0]); follow != nil {
		t.Fatal("refresh fired after first delete")
	}
	if follow := c.Update(msgs[1]); follow != nil {
		t.Fatal("refresh fired after second delete")
	}
	follow := c.Update(msgs[2])
	if follow == nil {
		t.Fatal("expected the refresh once every delete settled")
	}
	c.Settle(follow)

	if len(svc.lists) != 2 {
		t.Fatalf("expected exactly one follow-up refresh, lists=%d", len(svc.lists))
	}
	var ids []int
	for _, it := range svc.removes {
		ids = append(ids, it.Id)
	}
	if !reflect.DeepEqual(ids, []int{1, 3, 4}) {
		t.Fatalf("removed ids: %v", ids)
	}
	if len(c.Alerts()) != 1 {
		t.Fatalf("expected one alert for the failed delete, got %v", c.Alerts())
	}
	if got := c.FailedRemovals(); len(got) != 1 || got[0].Id != 3 {
		t.Fatalf("failed removals: %+v", got)
	}
	if c.Loading() {
		t.Fatal("loading should be cleared after the refresh")
	}
}

func TestFailedRemovalsIgnoresRefreshFailure(t *testing.T) {
	svc := &fakeService{
		items:     []model.Item{{Id: 1, IsDone: true}, {Id: 2, IsDone: true}},
		removeErr: map[int]error{2: errors.New("delete 2 failed")},
	}
	c := New(svc)
	c.Settle(c.Init())

	svc.mu.Lock()
	svc.listErr = errors.New("list failed")
	svc.mu.Unlock()
	c.Settle(c.RemoveCompleted(true))

	if len(c.Alerts()) != 2 {
		t.Fatalf("expected delete and refresh alerts, got %v", c.Alerts())
	}
	if got := c.FailedRemovals(); len(got) != 1 || got[0].Id != 2 {
		t.Fatalf("failed removals: %+v", got)
	}
}

func TestRemoveCompletedAgainstServer(t *testing.T) {
	srv := apitest.New(t,
		model.Item{Id: 1, IsDone: true, Description: "a", DueDate: "2020-01-01"},
		model.Item{Id: 2, Description: "b", DueDate: "2020-01-02"},
		model.Item{Id: 3, IsDone: true, Description: "c", DueDate: "2020-01-03"},
		model.Item{Id: 4, IsDone: true, Description: "d", DueDate: "2020-01-04"},
	)
	srv.Fail(http.MethodDelete, 3, http.StatusInternalServerError)
	client, err := api.NewClient(srv.URL, api.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	c := New(client)
	c.Settle(c.Init())
	c.Settle(c.RemoveCompleted(true))

	j := srv.Journal()
	var methods []string
	for _, r := range j {
		methods = append(methods, r.Method)
	}
	want := []string{"GET", "DELETE", "DELETE", "DELETE", "GET"}
	if !reflect.DeepEqual(methods, want) {
		t.Fatalf("requests: got %v, want %v", methods, want)
	}
	var left []int
	for _, it := range c.Items() {
		left = append(left, it.Id)
	}
	if !reflect.DeepEqual(left, []int{3, 2}) {
		t.Fatalf("remaining items (DueDate desc): got %v", left)
	}
	if api.StatusCode(c.Alert()) != http.StatusInternalServerError {
		t.Fatalf("alert: %v", c.Alert())
	}
}

func TestRemoveCompletedWithNothingDone(t *testing.T) {
	svc := &fakeService{items: []model.Item{{Id: 1}}}
	c := New(svc)
	c.Settle(c.Init())
	if cmd := c.RemoveCompleted(true); cmd != nil {
		t.Fatal("nothing to delete should be a no-op")
	}
	if c.Loading() {
		t.Fatal("loading must stay false")
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	c := New(&fakeService{}, WithClock(func() time.Time { return now }))

	tests := []struct {
		due  string
		want bool
	}{
		{"2020-01-01", true},
		{"2020-01-02", false}, // equal is not overdue
		{"2020-01-03", false},
		{"2020-01-01T23:59:59Z", true},
		{"", false},
		{"someday", false},
	}
	for _, tt := range tests {
		if got := c.Overdue(model.Item{DueDate: tt.due}); got != tt.want {
			t.Errorf("Overdue(%q) = %v, want %v", tt.due, got, tt.want)
		}
	}
}

func TestNoCompleted(t *testing.T) {
	svc := &fakeService{}
	c := New(svc)
	if !c.NoCompleted() {
		t.Fatal("empty collection has no completed items")
	}
	svc.items = []model.Item{{Id: 1}, {Id: 2}}
	c.Settle(c.Refresh())
	if !c.NoCompleted() {
		t.Fatal("no item is done")
	}
	svc.items = []model.Item{{Id: 1}, {Id: 2, IsDone: true}}
	c.Settle(c.Refresh())
	if c.NoCompleted() {
		t.Fatal("one item is done")
	}
}

func TestFind(t *testing.T) {
	svc := &fakeService{items: []model.Item{{Id: 4}, {Id: 8}}}
	c := New(svc)
	c.Settle(c.Init())
	if it, i, ok := c.Find(8); !ok || i != 1 || it.Id != 8 {
		t.Fatalf("Find(8) = %+v, %d, %v", it, i, ok)
	}
	if _, _, ok := c.Find(5); ok {
		t.Fatal("Find(5) should miss")
	}
}

func TestHandles(t *testing.T) {
	if !Handles(listedMsg{}) || !Handles(savedMsg{}) || !Handles(removedMsg{}) {
		t.Fatal("controller messages should be recognised")
	}
	if Handles(tea.KeyMsg{}) {
		t.Fatal("key messages are not controller results")
	}
}

func TestEditMutatesBoundItemAndSaves(t *testing.T) {
	svc := &fakeService{items: []model.Item{{Id: 1, Description: "a", DueDate: "2020-01-01"}}}
	c := New(svc)
	c.Settle(c.Init())

	c.Settle(c.Edit(0, func(it *model.Item) { it.DueDate = "2021-01-01" }))
	if c.Items()[0].DueDate != "2021-01-01" {
		t.Fatalf("bound item not edited: %+v", c.Items()[0])
	}
	if len(svc.saves) != 1 || svc.saves[0].DueDate != "2021-01-01" || svc.saves[0].Id != 1 {
		t.Fatalf("saves: %+v", svc.saves)
	}
	if cmd := c.Edit(-1, func(*model.Item) {}); cmd != nil {
		t.Fatal("negative index should be a no-op")
	}
}
