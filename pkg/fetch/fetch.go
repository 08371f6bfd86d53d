// Package fetch implements the shared HTTP GET layer used by every upstream
// market API client. It owns the retry budget, rate-limit backoff, and the
// typed failures callers branch on.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffUnit = time.Second
	defaultRetryWait   = time.Second
)

// ErrRetriesExhausted is returned once the attempt budget is spent without a
// successful response.
var ErrRetriesExhausted = errors.New("fetch: retries exhausted")

// StatusError reports a non-2xx, non-429 upstream response. The body is kept
// for diagnostics; such responses are never retried.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: http status %d: %s", e.Code, e.Body)
}

// Client issues GET requests with a bounded attempt budget. Rate-limited
// responses back off exponentially; transient transport failures wait a fixed
// interval. Each failed attempt logs one structured line.
type Client struct {
	httpClient  *http.Client
	maxAttempts int
	backoffUnit time.Duration
	retryWait   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMaxAttempts adjusts the total attempt budget.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoffUnit overrides the base unit of the rate-limit backoff.
func WithBackoffUnit(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoffUnit = d
		}
	}
}

// WithRetryWait overrides the fixed wait after a transient failure.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryWait = d
		}
	}
}

// NewClient constructs a fetch client with the default budget.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		maxAttempts: defaultMaxAttempts,
		backoffUnit: defaultBackoffUnit,
		retryWait:   defaultRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON issues a GET against rawurl with the supplied query parameters and
// decodes the 2xx response body into out. A 429 sleeps 2^attempt backoff
// units and retries; a transport failure sleeps the fixed retry wait and
// retries; any other non-2xx status fails immediately with *StatusError.
func (c *Client) GetJSON(ctx context.Context, rawurl string, params url.Values, out any) error {
	target, err := buildURL(rawurl, params)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("fetch: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			logx.WithContext(ctx).Errorf("fetch: request failed url=%s attempt=%d err=%v", rawurl, attempt+1, err)
			if err := c.sleep(ctx, c.retryWait); err != nil {
				return err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("fetch: read response: %w", readErr)
			logx.WithContext(ctx).Errorf("fetch: read failed url=%s attempt=%d err=%v", rawurl, attempt+1, readErr)
			if err := c.sleep(ctx, c.retryWait); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := c.backoffUnit << attempt
			lastErr = fmt.Errorf("fetch: rate limited (429)")
			logx.WithContext(ctx).Slowf("fetch: rate limited url=%s attempt=%d wait=%s", rawurl, attempt+1, wait)
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &StatusError{Code: resp.StatusCode, Body: string(body)}
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("fetch: decode response: %w", err)
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
	}
	return ErrRetriesExhausted
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func buildURL(rawurl string, params url.Values) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", fmt.Errorf("fetch: parse url %q: %w", rawurl, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
