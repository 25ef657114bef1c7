// Package transport implements the HTTP layer for the route-planning service.
// It builds and sends requests, injects the bearer credential when one is
// present, and converts non-success responses into typed errors.
//
// The transport never retries and never mutates session state; callers decide
// how to react to a 401-class failure.
package transport

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
)

// TokenSource supplies the current bearer credential. An empty string means
// no credential is available and the Authorization header is omitted.
type TokenSource interface {
	Token() string
}

// APIError represents a non-success response from the service. It carries the
// HTTP status code and the raw response body text.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("api error: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("api error: status %d", e.Status)
}

// Detail extracts the structured "detail" message from the response body.
// Returns an empty string when the body carries no such field.
func (e *APIError) Detail() string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err != nil {
		return ""
	}
	return payload.Detail
}

// Client sends requests to the route-planning service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// New creates a transport client for the given base URL. The token source may
// be nil for a client that never authenticates.
func New(baseURL string, timeout time.Duration, tokens TokenSource) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}, nil
}

// Do sends a JSON request and decodes a JSON response into out. A nil body
// sends no payload; a nil out discards the response body. Non-2xx statuses
// return *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	return c.send(ctx, method, path, contentType, reader, out)
}

// DoForm sends a form-encoded POST, used by the OAuth2 password login flow.
func (c *Client) DoForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	reader := strings.NewReader(form.Encode())
	return c.send(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", reader, out)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	// Credential injection is unconditional: every request carries the
	// bearer token whenever one exists.
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(data)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
