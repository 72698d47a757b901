// Package httpclient provides a retrying JSON HTTP client shared by the
// market-data and swap-routing clients.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Default configuration values.
const (
	DefaultTimeout    = 15 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second

	// maxBodySnippet bounds warn-level logging and error payloads.
	maxBodySnippet = 180
)

// TransportError is returned after all attempts are exhausted. It carries
// the last observed status and a truncated body snapshot for diagnosis.
type TransportError struct {
	Method string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s failed: status=%d body=%s", e.Method, e.URL, e.Status, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client is a JSON HTTP client with a fixed linear retry policy. Request
// volume in this agent is low, so no exponential backoff or jitter.
type Client struct {
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	log        zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum attempts per request.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the fixed delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// New creates a retrying JSON client.
func New(log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON performs a GET request with optional query params and decodes the
// 200 response body into result.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, result interface{}) error {
	return c.do(ctx, http.MethodGet, rawURL, params, nil, result)
}

// PostJSON performs a POST request with a JSON body and decodes the 200
// response body into result.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body interface{}, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, rawURL, nil, payload, result)
}

// do attempts the request up to maxRetries times with a fixed delay between
// attempts. Only a 200 response is accepted; any other status or transport
// failure counts as a failed attempt.
func (c *Client) do(ctx context.Context, method, rawURL string, params url.Values, payload []byte, result interface{}) error {
	reqURL := rawURL
	if len(params) > 0 {
		reqURL = rawURL + "?" + params.Encode()
	}

	var (
		lastStatus int
		lastBody   string
		lastErr    error
	)

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			lastStatus, lastBody = 0, ""
			c.log.Warn().Str("method", method).Str("url", rawURL).Err(err).Msg("request attempt failed")
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			lastStatus, lastBody = 0, ""
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = nil
			lastStatus = resp.StatusCode
			lastBody = truncate(string(respBody), maxBodySnippet)
			c.log.Warn().
				Str("method", method).
				Str("url", rawURL).
				Int("status", resp.StatusCode).
				Str("body", lastBody).
				Msg("non-200 response")
			continue
		}

		if result != nil {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
		}

		return nil
	}

	return &TransportError{
		Method: method,
		URL:    rawURL,
		Status: lastStatus,
		Body:   lastBody,
		Err:    lastErr,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
