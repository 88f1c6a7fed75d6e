// Package api is the HTTP client for the remote triage backend. It owns the
// cross-cutting request concerns: bearer token injection, request IDs, and
// mapping failure responses into typed errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ecakir/sift/internal/errors"
)

// healthTimeout guards the liveness ping; it backs a status badge and must
// not hang when the backend is down.
const healthTimeout = 4 * time.Second

// TokenSource supplies the current bearer token. The state store satisfies
// it; injecting the interface keeps the client free of ambient globals.
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to the triage backend. All methods return *errors.Error for
// request failures: ErrNetwork when no response arrived, a status-mapped
// code otherwise.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithTimeout sets a client-side timeout for all requests except the
// health ping, which keeps its own shorter bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// New creates a Client for the given base URL. tokens may be nil for a
// client that only calls unauthenticated endpoints.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health pings the backend liveness endpoint with a short timeout.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/health", nil, nil, "", nil)
}

// getJSON issues a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

// postJSON issues a POST with a JSON body, decoding the response into out
// when out is non-nil.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, http.MethodPost, path, nil, body, "application/json", out)
}

// postForm issues a POST with a form-encoded body.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	body := strings.NewReader(form.Encode())
	return c.do(ctx, http.MethodPost, path, nil, body, "application/x-www-form-urlencoded", out)
}

// deleteReq issues a DELETE.
func (c *Client) deleteReq(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, "", nil)
}

// do dispatches a single request. The Authorization header is injected here
// for every call so no endpoint wrapper repeats the logic; a header already
// set by the caller wins.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("X-Request-ID", ulid.Make().String())
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil && req.Header.Get("Authorization") == "" {
		if tok, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.NewNetwork(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewNetwork(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.FromResponse(resp.StatusCode, data)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
