package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/healthboard/internal/validate"
)

const (
	defaultTimeout = 10 * time.Second

	// maxResponseBodySize bounds how much of a response is read.
	maxResponseBodySize = 4 << 20
)

// Client talks to one healthboard server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a [Client].
type Option func(*clientConfig) error

// WithHTTPClient sets the underlying HTTP client. Its own timeout applies
// unless [WithTimeout] is also given.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *clientConfig) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		cfg.httpClient = hc
		return nil
	}
}

// WithTimeout bounds each request. Default 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// New returns a [Client] for the server at baseURL, e.g.
// "http://127.0.0.1:5000". A trailing "/api" is accepted.
func New(baseURL string, opts ...Option) (*Client, error) {
	if !validate.SafeURL(baseURL) {
		return nil, fmt.Errorf("invalid server URL %q: must be an absolute http:// or https:// URL", baseURL)
	}

	cfg := &clientConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.timeout > 0 {
		copied := *hc
		copied.Timeout = cfg.timeout
		hc = &copied
	}

	base := strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/api")
	return &Client{baseURL: base, httpClient: hc}, nil
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health returns the whole board.
func (c *Client) Health(ctx context.Context) (Board, error) {
	var board Board
	if _, err := c.do(ctx, http.MethodGet, "/api/health", nil, &board); err != nil {
		return nil, err
	}
	if board == nil {
		board = Board{}
	}
	return board, nil
}

// Checkpoint asks the server to save the board and returns its message.
func (c *Client) Checkpoint(ctx context.Context) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/checkpoint")
}

// Restore asks the server to reload the last checkpoint and returns its
// message.
func (c *Client) Restore(ctx context.Context) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/restore")
}

// CreateCategory creates a category. created is false when it already
// existed, which is not an error.
func (c *Client) CreateCategory(ctx context.Context, name string) (created bool, err error) {
	body := map[string]string{"category_name": name}
	status, err := c.do(ctx, http.MethodPost, "/api/categories", body, nil)
	if err != nil {
		return false, err
	}
	return status == http.StatusCreated, nil
}

// DeleteCategory deletes a category with all its items and returns the
// server's message.
func (c *Client) DeleteCategory(ctx context.Context, name string) (string, error) {
	return c.message(ctx, http.MethodDelete, categoryPath(name))
}

// CreateItem creates an item. With upsert the category is created first.
// created is false when the item already existed; record is its current
// state either way.
func (c *Client) CreateItem(ctx context.Context, category, item string, upsert bool) (record Record, created bool, err error) {
	if upsert {
		if _, err := c.CreateCategory(ctx, category); err != nil {
			return Record{}, false, err
		}
	}

	var raw json.RawMessage
	status, err := c.do(ctx, http.MethodPost, categoryPath(category)+"/items", map[string]string{"item_name": item}, &raw)
	if err != nil {
		return Record{}, false, err
	}

	if status == http.StatusCreated {
		var resp map[string]Record
		if err := json.Unmarshal(raw, &resp); err != nil {
			return Record{}, false, fmt.Errorf("failed to decode item: %w", err)
		}
		return resp[item], true, nil
	}

	// existing items come back flattened next to a note
	var existing struct {
		Note string `json:"note"`
		Record
	}
	if err := json.Unmarshal(raw, &existing); err != nil {
		return Record{}, false, fmt.Errorf("failed to decode item: %w", err)
	}
	return existing.Record, false, nil
}

// DeleteItem deletes an item and returns the server's message.
func (c *Client) DeleteItem(ctx context.Context, category, item string) (string, error) {
	return c.message(ctx, http.MethodDelete, itemPath(category, item))
}

// UpdateItem changes the fields set in u and returns the updated record.
// With upsert the category and item are created first.
//
// Returns [ErrNoUpdateFields] without sending anything when u is empty.
func (c *Client) UpdateItem(ctx context.Context, category, item string, u Update, upsert bool) (Record, error) {
	if u.Empty() {
		return Record{}, ErrNoUpdateFields
	}
	if upsert {
		if _, _, err := c.CreateItem(ctx, category, item, true); err != nil {
			return Record{}, err
		}
	}

	var resp map[string]Record
	if _, err := c.do(ctx, http.MethodPut, itemPath(category, item), u, &resp); err != nil {
		return Record{}, err
	}
	return resp[item], nil
}

// StatusConfig returns the server's status vocabulary.
func (c *Client) StatusConfig(ctx context.Context) (Vocabulary, error) {
	var vocab Vocabulary
	if _, err := c.do(ctx, http.MethodGet, "/api/status-config", nil, &vocab); err != nil {
		return nil, err
	}
	return vocab, nil
}

// ReloadStatusConfig makes the server re-read its vocabulary file and
// returns the result.
func (c *Client) ReloadStatusConfig(ctx context.Context) (Vocabulary, error) {
	var vocab Vocabulary
	if _, err := c.do(ctx, http.MethodPost, "/api/status-config/reload", nil, &vocab); err != nil {
		return nil, err
	}
	return vocab, nil
}

func categoryPath(category string) string {
	return "/api/categories/" + url.PathEscape(category)
}

func itemPath(category, item string) string {
	return categoryPath(category) + "/items/" + url.PathEscape(item)
}

func (c *Client) message(ctx context.Context, method, path string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if _, err := c.do(ctx, method, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// do sends one request and decodes a 2xx body into out when out is non-nil.
// It returns the response status code.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "healthboard-client/1")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, apiError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func apiError(status int, data []byte) *APIError {
	var doc struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &doc); err == nil && doc.Error != "" {
		return &APIError{StatusCode: status, Message: doc.Error}
	}

	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
