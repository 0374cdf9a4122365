// Package apitest runs an in-memory /api/todo server for tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"

	"github.com/Makepad-fr/tada/internal/model"
)

// Request is one journaled call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Server is a fake of the remote endpoint with failure injection.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	items    map[int]model.Item
	nextID   int
	journal  []Request
	failures map[string]int // "METHOD" or "METHOD id" -> status
	listBody []model.Item   // fixed GET response when set
}

var filterDecoder = schema.NewDecoder()

func init() {
	filterDecoder.IgnoreUnknownKeys(true)
}

// New starts a server seeded with items and closes it when t finishes.
func New(t testing.TB, items ...model.Item) *Server {
	t.Helper()
	s := &Server{
		items:    make(map[int]model.Item),
		failures: make(map[string]int),
	}
	s.Seed(items...)

	r := mux.NewRouter()
	r.HandleFunc("/api/todo", s.list).Methods(http.MethodGet)
	r.HandleFunc("/api/todo", s.save).Methods(http.MethodPost)
	r.HandleFunc("/api/todo/{id:[0-9]+}", s.remove).Methods(http.MethodDelete)
	r.Use(s.record)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Seed stores items; the id counter moves past the largest id seen.
func (s *Server) Seed(items ...model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.items[it.Id] = it
		if it.Id > s.nextID {
			s.nextID = it.Id
		}
	}
}

// Fail makes every request with method (and id, when non-zero) answer status.
func (s *Server) Fail(method string, id int, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failureKey(method, id)] = status
}

// RespondList makes GET return exactly items, ignoring the filter.
func (s *Server) RespondList(items []model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listBody = items
}

// Items returns the stored items ordered by id.
func (s *Server) Items() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// Journal returns a copy of the requests served so far.
func (s *Server) Journal() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.journal...)
}

// Count returns how many requests used method.
func (s *Server) Count(method string) int {
	n := 0
	for _, r := range s.Journal() {
		if r.Method == method {
			n++
		}
	}
	return n
}

func failureKey(method string, id int) string {
	if id == 0 {
		return method
	}
	return method + " " + strconv.Itoa(id)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.journal = append(s.journal, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) failure(method string, id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.failures[failureKey(method, id)]; ok {
		return st
	}
	return s.failures[method]
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	if st := s.failure(http.MethodGet, 0); st != 0 {
		http.Error(w, "list failed", st)
		return
	}
	var f model.Filter
	if err := filterDecoder.Decode(&f, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	out := []model.Item{}
	if s.listBody != nil {
		out = append(out, s.listBody...)
	} else {
		needle := strings.ToLower(f.FilterText)
		for _, it := range s.items {
			if needle == "" || strings.Contains(strings.ToLower(it.Description), needle) {
				out = append(out, it)
			}
		}
		sortItems(out, f)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	var it model.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if st := s.failure(http.MethodPost, it.Id); st != 0 {
		http.Error(w, "save failed", st)
		return
	}
	s.mu.Lock()
	if it.Id == 0 {
		s.nextID++
		it.Id = s.nextID
	}
	s.items[it.Id] = it
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if st := s.failure(http.MethodDelete, id); st != 0 {
		http.Error(w, "remove failed", st)
		return
	}
	s.mu.Lock()
	_, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sortItems(items []model.Item, f model.Filter) {
	sort.Slice(items, func(i, j int) bool { return items[i].Id < items[j].Id })
	less := func(a, b model.Item) bool { return a.Id < b.Id }
	switch f.ColumnName {
	case model.ColumnDescription:
		less = func(a, b model.Item) bool { return a.Description < b.Description }
	case model.ColumnDueDate:
		less = func(a, b model.Item) bool { return a.DueDate < b.DueDate }
	case model.ColumnIsDone:
		less = func(a, b model.Item) bool { return !a.IsDone && b.IsDone }
	}
	sort.SliceStable(items, func(i, j int) bool {
		if f.SortAscending {
			return less(items[i], items[j])
		}
		return less(items[j], items[i])
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
