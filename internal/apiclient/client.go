// Package apiclient is the bearer-token JSON client every screen uses to reach
// the office/expense REST API.
package apiclient

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

	"github.com/google/uuid"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// TokenSource supplies the bearer token for each request
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed bearer token
type StaticToken string

// Token implements TokenSource
func (t StaticToken) Token() string {
	return string(t)
}

// Config holds API client configuration
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	RequestIDHeader string
}

// Client issues JSON requests against the API base URL
type Client struct {
	baseURL         *url.URL
	httpClient      *http.Client
	token           TokenSource
	requestIDHeader string
	logger          Logger
}

// New creates a client. A nil token source sends no Authorization header.
func New(cfg Config, token TokenSource, logger Logger) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url: %q", raw)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:         u,
		httpClient:      &http.Client{Timeout: timeout},
		token:           token,
		requestIDHeader: cfg.RequestIDHeader,
		logger:          logger,
	}, nil
}

// WithToken returns a copy of the client that authenticates with token
func (c *Client) WithToken(token TokenSource) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Response is a completed exchange with a 2xx status
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into out, keeping numbers as json.Number
func (r *Response) Decode(out any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("empty response body")
	}
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("json unmarshal response: %w", err)
	}
	return nil
}

// StatusError is returned when the server answers outside 2xx
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: http status=%d body=%s", e.Method, e.Path, e.Status, e.Body)
}

// StatusCode returns the HTTP status
func (e *StatusError) StatusCode() int {
	return e.Status
}

// Do sends body (JSON-encoded when non-nil) to path relative to the base URL
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("json marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, uuid.NewString())
	}
	if c.token != nil {
		if tok := strings.TrimSpace(c.token.Token()); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logError("API request failed", method, path, 0, err)
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(respBody)),
		}
		c.logError("API request rejected", method, path, resp.StatusCode, serr)
		return nil, serr
	}

	if c.logger != nil {
		c.logger.Info("API request",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"latency", time.Since(start).String(),
		)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// GetJSON fetches path and decodes it into out
func (c *Client) GetJSON(ctx context.Context, path string, out any) (*Response, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := resp.Decode(out); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

func (c *Client) resolve(path string) (string, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}
	if rel.IsAbs() {
		return "", fmt.Errorf("request path must be relative: %q", path)
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(rel.Path, "/")
	u.RawQuery = rel.RawQuery
	return u.String(), nil
}

func (c *Client) logError(msg, method, path string, status int, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Error(msg,
		"method", method,
		"path", path,
		"status", status,
		"error", err,
	)
}
