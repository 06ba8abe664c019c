// Package sdk provides the client-side library for the builder REST API.
// One Client carries the base URL, the session store and the HTTP transport;
// resource services hang off it and issue typed calls through it.
package sdk

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

	"go.uber.org/zap"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 30 * time.Second

const loginPath = "/api/auth/login"

// Client is the HTTP client for the builder API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithTokenStore sets where the bearer token is read from and cleared.
func WithTokenStore(s TokenStore) Option {
	return func(c *Client) { c.tokens = s }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  NewMemoryTokenStore(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens exposes the session store used by the client.
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

// authorize attaches the bearer token, if any, to an outgoing request.
func (c *Client) authorize(req *http.Request) {
	sess, err := c.tokens.Load()
	if err != nil || sess.AccessToken == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
}

// do issues one request. body may be nil, url.Values (sent form-encoded) or
// any JSON-marshalable value. out may be nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &APIError{Message: err.Error(), Original: err}
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized && path != loginPath {
		// Concurrent requests may all land here; clearing twice is harmless.
		if err := c.tokens.Clear(); err != nil {
			c.log.Warn("failed to clear session", zap.Error(err))
		} else {
			c.log.Info("session cleared after 401", zap.String("path", path))
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: err.Error(), Original: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return normalizeError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{
			Status:   resp.StatusCode,
			Message:  "malformed response body",
			Original: errors.Join(err, &ResponseError{Status: resp.StatusCode, Body: raw}),
		}
	}
	return nil
}

// Auth returns the authentication service.
func (c *Client) Auth() AuthAPI { return &AuthService{c: c} }

// Fields returns the field catalogue service.
func (c *Client) Fields() FieldsAPI { return &FieldsService{c: c} }

// Objects returns the object service.
func (c *Client) Objects() ObjectsAPI { return &ObjectsService{c: c} }

// ObjectFields returns the field attachment service.
func (c *Client) ObjectFields() ObjectFieldsAPI { return &ObjectFieldsService{c: c} }

// Records returns the data record service.
func (c *Client) Records() RecordsAPI { return &RecordsService{c: c} }

// Relationships returns the relationship and link service.
func (c *Client) Relationships() RelationshipsAPI { return &RelationshipsService{c: c} }

// Applications returns the application service.
func (c *Client) Applications() ApplicationsAPI { return &ApplicationsService{c: c} }

var _ Backend = (*Client)(nil)
