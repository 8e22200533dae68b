package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/health-alerts/internal/logging"
)

const defaultTimeout = 30 * time.Second

// Client is a thin HTTP client for the alert service REST API.
// It handles Bearer token authentication, the {code, message, data}
// envelope, and automatic retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	log        *logging.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxRetries sets how many times a 429 response is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a new API client. The baseURL is the root URL of the
// service (e.g., https://alerts.example.org); token is sent as a Bearer
// credential on every request.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxRetries: 3,
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SetToken replaces the Bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// do builds the request, handles auth, rate limiting with exponential
// backoff, envelope validation, and JSON (de)serialization of data.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body any,
	result any,
) error {
	url := c.baseURL + path

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	requestID := uuid.NewString()
	ctx = c.log.WithFields(ctx, map[string]any{
		"request_id": requestID,
		"method":     method,
		"path":       path,
	})

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		c.log.Debug(
			c.log.WithFields(ctx, map[string]any{
				"status":      resp.StatusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			}),
			"api request",
		)

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		var env envelope
		decodeErr := json.Unmarshal(respBody, &env)

		if resp.StatusCode == http.StatusUnauthorized {
			msg := env.Message
			if msg == "" {
				msg = "check your API token for " + c.baseURL
			}
			return &AuthError{Message: msg}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg := env.Message
			if decodeErr != nil || msg == "" {
				msg = strings.TrimSpace(string(respBody))
			}
			return &StatusError{
				Method:     method,
				Path:       path,
				StatusCode: resp.StatusCode,
				Message:    msg,
			}
		}

		// Without an envelope there is no success code; only calls that
		// expect no data may accept it.
		if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
			if result == nil {
				return nil
			}
			return &EnvelopeError{
				Method:  method,
				Path:    path,
				Message: "The alert service returned an empty response.",
			}
		}

		if decodeErr != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, decodeErr)
		}

		if env.Code != SuccessCode {
			return &EnvelopeError{
				Method:  method,
				Path:    path,
				Code:    env.Code,
				Message: env.Message,
			}
		}

		if result == nil || len(env.Data) == 0 || string(env.Data) == "null" {
			return nil
		}

		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("unmarshaling data from %s %s: %w", method, path, err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
