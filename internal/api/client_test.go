package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/apitest"
	"github.com/Makepad-fr/tada/internal/model"
)

func newClient(t *testing.T, srv *apitest.Server, opts ...api.Option) *api.Client {
	t.Helper()
	opts = append([]api.Option{api.WithHTTPClient(srv.Client())}, opts...)
	c, err := api.NewClient(srv.URL, opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	for _, raw := range []string{"", "localhost", "/api"} {
		if _, err := api.NewClient(raw); err == nil {
			t.Errorf("NewClient(%q): expected error", raw)
		}
	}
}

func TestListSendsFilterAsQuery(t *testing.T) {
	srv := apitest.New(t)
	c := newClient(t, srv)

	f := model.Filter{FilterText: "milk", ColumnName: model.ColumnDescription, SortAscending: true}
	if _, err := c.List(context.Background(), f); err != nil {
		t.Fatalf("List: %v", err)
	}

	j := srv.Journal()
	if len(j) != 1 {
		t.Fatalf("expected 1 request, got %d", len(j))
	}
	want := url.Values{
		"filterText":    {"milk"},
		"columnName":    {"Description"},
		"sortAscending": {"true"},
	}
	if !reflect.DeepEqual(j[0].Query, want) {
		t.Errorf("query: got %v, want %v", j[0].Query, want)
	}
	if j[0].Path != "/api/todo" {
		t.Errorf("path: got %q", j[0].Path)
	}
}

func TestListSendsEmptyFilterText(t *testing.T) {
	srv := apitest.New(t)
	c := newClient(t, srv)

	if _, err := c.List(context.Background(), model.DefaultFilter()); err != nil {
		t.Fatalf("List: %v", err)
	}
	q := srv.Journal()[0].Query
	if v, ok := q["filterText"]; !ok || len(v) != 1 || v[0] != "" {
		t.Errorf("filterText: got %v (present=%v), want a single empty value", v, ok)
	}
	if got := q["sortAscending"]; len(got) != 1 || got[0] != "false" {
		t.Errorf("sortAscending: got %v", got)
	}
}

func TestListPreservesServerOrder(t *testing.T) {
	srv := apitest.New(t)
	want := []model.Item{
		{Id: 3, Description: "c", DueDate: "2020-01-03"},
		{Id: 1, Description: "a", DueDate: "2020-01-01"},
		{Id: 2, IsDone: true, Description: "b", DueDate: "2020-01-02"},
	}
	srv.RespondList(want)
	c := newClient(t, srv)

	got, err := c.List(context.Background(), model.DefaultFilter())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestListNullBodyIsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	defer ts.Close()
	c, err := api.NewClient(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	items, err := c.List(context.Background(), model.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func TestSaveReturnsAcknowledgement(t *testing.T) {
	srv := apitest.New(t, model.Item{Id: 4, Description: "old"})
	c := newClient(t, srv)

	ack, err := c.Save(context.Background(), model.Item{Description: "new", DueDate: "2021-05-05"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ack.Id != 5 || ack.Description != "new" {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	j := srv.Journal()
	if j[0].Method != http.MethodPost {
		t.Fatalf("method: got %s", j[0].Method)
	}
	body := string(j[0].Body)
	for _, field := range []string{`"Id":0`, `"IsDone":false`, `"Description":"new"`, `"DueDate":"2021-05-05"`} {
		if !strings.Contains(body, field) {
			t.Errorf("body %s missing %s", body, field)
		}
	}
	if ct := j[0].Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type: got %q", ct)
	}
}

func TestRemoveDeletesByID(t *testing.T) {
	srv := apitest.New(t, model.Item{Id: 9, Description: "x"})
	c := newClient(t, srv)

	if err := c.Remove(context.Background(), model.Item{Id: 9}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	j := srv.Journal()
	if j[0].Method != http.MethodDelete || j[0].Path != "/api/todo/9" {
		t.Fatalf("got %s %s", j[0].Method, j[0].Path)
	}
	if len(srv.Items()) != 0 {
		t.Fatalf("item not removed")
	}
}

func TestNonSuccessStatusIsStatusError(t *testing.T) {
	srv := apitest.New(t, model.Item{Id: 1})
	srv.Fail(http.MethodGet, 0, http.StatusInternalServerError)
	srv.Fail(http.MethodDelete, 1, http.StatusConflict)
	c := newClient(t, srv)

	_, err := c.List(context.Background(), model.Filter{})
	var se *api.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T (%v)", err, err)
	}
	if se.StatusCode != http.StatusInternalServerError || se.Op != "list" {
		t.Errorf("unexpected error: %+v", se)
	}

	err = c.Remove(context.Background(), model.Item{Id: 1})
	if got := api.StatusCode(err); got != http.StatusConflict {
		t.Errorf("StatusCode: got %d, want 409", got)
	}
	if !strings.Contains(err.Error(), "remove failed") {
		t.Errorf("error should carry the body snippet: %v", err)
	}
}

func TestTransportErrorIsWrapped(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	c, err := api.NewClient(addr)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.List(context.Background(), model.Filter{})
	if err == nil {
		t.Fatal("expected transport error")
	}
	if api.StatusCode(err) != 0 {
		t.Errorf("transport error should not carry a status: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "list: ") {
		t.Errorf("expected op prefix, got %v", err)
	}
}

func TestRequestHeaders(t *testing.T) {
	srv := apitest.New(t)
	c := newClient(t, srv, api.WithToken("  abc123 "))

	if _, err := c.List(context.Background(), model.Filter{}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.List(context.Background(), model.Filter{}); err != nil {
		t.Fatal(err)
	}
	j := srv.Journal()
	if got := j[0].Header.Get("Authorization"); got != "Bearer abc123" {
		t.Errorf("authorization: got %q", got)
	}
	if got := j[0].Header.Get("Accept"); got != "application/json" {
		t.Errorf("accept: got %q", got)
	}
	id1, id2 := j[0].Header.Get("X-Request-Id"), j[1].Header.Get("X-Request-Id")
	if id1 == "" || id1 == id2 {
		t.Errorf("expected distinct request ids, got %q and %q", id1, id2)
	}
}

func TestNoTokenNoAuthorization(t *testing.T) {
	srv := apitest.New(t)
	c := newClient(t, srv)
	if _, err := c.List(context.Background(), model.Filter{}); err != nil {
		t.Fatal(err)
	}
	if got := srv.Journal()[0].Header.Get("Authorization"); got != "" {
		t.Errorf("authorization: got %q, want none", got)
	}
}
