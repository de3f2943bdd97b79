package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client constants.
const (
	// defaultTimeout applies when no timeout is configured.
	defaultTimeout = 10 * time.Second

	// maxItemBodySize bounds item responses read from the backend (1 MB).
	maxItemBodySize = 1 << 20

	// itemsPath is the REST path prefix for items.
	itemsPath = "/rest/items/"
)

// Options configures a REST Client.
type Options struct {
	// URL is the backend base URL (e.g. "http://openhab:8080").
	URL string

	// Token is sent when a call supplies no token of its own.
	Token string

	// Timeout bounds each request. Zero uses a 10s default.
	Timeout time.Duration

	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
}

// Client talks to the home automation backend's REST API.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a REST client for the backend at opts.URL.
func NewClient(opts Options) (*Client, error) {
	u, err := url.Parse(opts.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid url %q", opts.URL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.URL, "/"),
		token:      opts.Token,
		httpClient: httpClient,
	}, nil
}

// GetItem retrieves an item and its current state.
//
// Returns:
//   - *Item: The decoded item
//   - error: *StatusError for non-2xx answers (see IsNotFound),
//     ErrUnreachable for transport failures, ErrInvalidItem for bad JSON
func (c *Client) GetItem(ctx context.Context, token, name string) (*Item, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.itemURL(name), nil)
	if err != nil {
		return nil, fmt.Errorf("building item request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain body to allow connection reuse
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Method: http.MethodGet, Item: name}
	}

	var item Item
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxItemBodySize)).Decode(&item); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidItem, name, err)
	}
	if item.Name == "" {
		item.Name = name
	}

	return &item, nil
}

// SendCommand posts a command to an item as a text/plain body.
//
// Returns:
//   - error: *StatusError for non-2xx answers, ErrUnreachable for transport failures
func (c *Client) SendCommand(ctx context.Context, token, name, value string) error {
	if name == "" {
		return ErrInvalidName
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.itemURL(name), strings.NewReader(value))
	if err != nil {
		return fmt.Errorf("building command request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	c.authorize(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Method: http.MethodPost, Item: name}
	}

	return nil
}

// HealthCheck verifies the backend answers on its REST root.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/", nil)
	if err != nil {
		return fmt.Errorf("backend health check: %w", err)
	}
	c.authorize(req, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend health check: %w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend health check: status %d", resp.StatusCode)
	}
	return nil
}

// itemURL returns the escaped REST URL for an item.
func (c *Client) itemURL(name string) string {
	return c.baseURL + itemsPath + url.PathEscape(name)
}

// authorize sets the bearer token, preferring the per-call token.
func (c *Client) authorize(req *http.Request, token string) {
	if token == "" {
		token = c.token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
