package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// contentTypeJSON is the content type attached to JSON request bodies.
// Multipart uploads never use it; their content type comes from the
// multipart writer so the transport-level boundary is correct.
const contentTypeJSON = "application/json"

// attempt marks where a request is in its retry lifecycle. Passing it down
// the call chain makes the at-most-one-retry invariant structural: a request
// in retryAfterRefresh can never trigger a second refresh cycle.
type attempt int

const (
	firstAttempt attempt = iota
	retryAfterRefresh
)

// Client issues authenticated requests against the Ambio API.
//
// Every call attaches the stored bearer token when one exists. A 401 on the
// first attempt triggers a token refresh through the RefreshCoordinator and
// a single replay of the original request; a logical call therefore never
// issues more than two physical requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenStore
	refresher  *RefreshCoordinator
	logger     *slog.Logger
}

// ClientOption configures the API client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new API client for the given base URL.
// The token store is shared with the client's refresh coordinator; both
// the reactive 401 path and the proactive timer path go through the same
// coordinator so at most one refresh call is ever in flight.
func NewClient(baseURL string, tokens *TokenStore, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		tokens:     tokens,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.refresher = newRefreshCoordinator(c.baseURL, c.httpClient, tokens, c.logger)
	return c
}

// Refresher returns the client's refresh coordinator. The session controller
// routes its proactive timer-driven refresh through it so it cannot race a
// reactive 401-triggered refresh against a single-use refresh token.
func (c *Client) Refresher() *RefreshCoordinator {
	return c.refresher
}

// BaseURL returns the configured API origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues an authenticated GET request and decodes the JSON response
// into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues an authenticated PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete issues an authenticated DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do issues one authenticated request. body, when non-nil, is serialized as
// JSON; out, when non-nil, receives the decoded response body.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
		contentType = contentTypeJSON
	}
	return c.send(ctx, method, path, payload, contentType, out, firstAttempt, true)
}

// PostPublic issues an unauthenticated POST request. Used for the login,
// forgot-password and reset-password endpoints, which are reached before a
// session exists. No bearer token is attached and a 401 is surfaced as-is
// instead of triggering a refresh.
func (c *Client) PostPublic(ctx context.Context, path string, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}
	// retryAfterRefresh disarms the refresh path: public endpoints own
	// their 401 semantics (e.g. invalid credentials).
	return c.send(ctx, http.MethodPost, path, payload, contentTypeJSON, out, retryAfterRefresh, false)
}

// Upload issues an authenticated multipart POST with a single file field.
// The content type is taken from the multipart writer, never the JSON one,
// so the boundary parameter is set correctly.
func (c *Client) Upload(ctx context.Context, path, field, filename string, content io.Reader, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return c.send(ctx, http.MethodPost, path, buf.Bytes(), writer.FormDataContentType(), out, firstAttempt, true)
}

// send performs one physical request and, on a 401 during the first attempt
// of an authenticated call, refreshes the token and replays exactly once.
func (c *Client) send(ctx context.Context, method, path string, body []byte, contentType string, out any, phase attempt, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authenticated {
		if token, ok := c.tokens.AccessToken(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return c.decodeBody(path, respBody, out)
	}

	if resp.StatusCode == http.StatusUnauthorized && authenticated && phase == firstAttempt {
		c.logger.Debug("access token rejected, refreshing",
			"method", method,
			"path", path,
		)
		if _, err := c.refresher.Refresh(ctx); err != nil {
			return err
		}
		return c.send(ctx, method, path, body, contentType, out, retryAfterRefresh, authenticated)
	}

	c.logger.Debug("request failed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
	)
	return newAPIError(resp.StatusCode, respBody)
}

// decodeBody unmarshals a 2xx response body into out. Empty and non-JSON
// bodies are tolerated: the caller gets the zero value, mirroring endpoints
// that respond with no content.
func (c *Client) decodeBody(path string, body []byte, out any) error {
	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		c.logger.Debug("ignoring undecodable response body",
			"path", path,
			"error", err.Error(),
		)
	}
	return nil
}
