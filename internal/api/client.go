// Package api talks to the remote /api/todo endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/schema"

	"github.com/Makepad-fr/tada/internal/model"
)

// Service is the data access contract the list controller depends on.
// Every call is a single round trip; errors come back unmodified.
type Service interface {
	List(ctx context.Context, f model.Filter) ([]model.Item, error)
	Save(ctx context.Context, it model.Item) (model.Item, error)
	Remove(ctx context.Context, it model.Item) error
}

const todoPath = "/api/todo"

var queryEncoder = schema.NewEncoder()

// Client implements Service over HTTP.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	logger *log.Logger
}

var _ Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client (tests use httptest's).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client rooted at baseURL, e.g. "http://localhost:5000".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api url: %q needs a scheme and host", baseURL)
	}
	c := &Client{
		base:   u,
		http:   http.DefaultClient,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List fetches the items matching f, in server order.
func (c *Client) List(ctx context.Context, f model.Filter) ([]model.Item, error) {
	q := url.Values{}
	if err := queryEncoder.Encode(f, q); err != nil {
		return nil, fmt.Errorf("list: encode filter: %w", err)
	}
	var items []model.Item
	if err := c.do(ctx, "list", http.MethodGet, c.endpoint(todoPath, q), nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Save upserts it and returns the server's acknowledgement.
func (c *Client) Save(ctx context.Context, it model.Item) (model.Item, error) {
	body, err := json.Marshal(it)
	if err != nil {
		return model.Item{}, fmt.Errorf("save: marshal: %w", err)
	}
	var ack model.Item
	if err := c.do(ctx, "save", http.MethodPost, c.endpoint(todoPath, nil), body, &ack); err != nil {
		return model.Item{}, err
	}
	return ack, nil
}

// Remove deletes it by Id.
func (c *Client) Remove(ctx context.Context, it model.Item) error {
	p := todoPath + "/" + strconv.Itoa(it.Id)
	return c.do(ctx, "remove", http.MethodDelete, c.endpoint(p, nil), nil, nil)
}

func (c *Client) endpoint(p string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + p
	u.RawQuery = ""
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// do sends one request. out may be nil when the body is not wanted.
func (c *Client) do(ctx context.Context, op, method, target string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "method", method, "url", target, "request_id", reqID, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("request", "op", op, "method", method, "path", req.URL.Path,
		"status", resp.StatusCode, "request_id", reqID, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Op:         op,
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
