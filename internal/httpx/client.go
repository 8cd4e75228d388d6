// Package httpx wraps http.Client with client-side rate limiting and
// exponential backoff for idempotent requests.
package httpx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Options tune the shared client.
type Options struct {
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetryElapsed time.Duration
}

// Client is a rate-limited HTTP client. The embedded cookie jar carries
// the backend session cookie across requests.
type Client struct {
	httpClient      *http.Client
	limiter         *rate.Limiter
	maxRetryElapsed time.Duration
}

// New constructs a Client with a cookie jar for session continuity.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryElapsed <= 0 {
		opts.MaxRetryElapsed = 30 * time.Second
	}

	jar, _ := cookiejar.New(nil)
	return &Client{
		httpClient:      &http.Client{Timeout: opts.Timeout, Jar: jar},
		limiter:         rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		maxRetryElapsed: opts.MaxRetryElapsed,
	}
}

// Do performs a request after passing the rate limiter. No retries: use it
// for submissions that must hit the network exactly once.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

// DoRetry performs an idempotent request with exponential backoff on
// transport errors and 5xx responses. newReq must build a fresh request
// for each attempt so bodies are not reused.
func (c *Client) DoRetry(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := newReq(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return &StatusError{StatusCode: resp.StatusCode}
		}
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.maxRetryElapsed

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

// StatusError marks a retryable non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}
