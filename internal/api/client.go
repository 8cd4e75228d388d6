// Package api implements the HTTP client for the price-forecasting
// backend: predictions, live and historical prices, prediction history,
// and password-session authentication.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ayuga01/Quantara/internal/history"
	"github.com/Ayuga01/Quantara/internal/httpx"
	"github.com/Ayuga01/Quantara/internal/identity"
	"github.com/Ayuga01/Quantara/internal/market"
	"github.com/Ayuga01/Quantara/internal/series"
)

// IdentityProvider supplies the attribution header for outgoing requests.
type IdentityProvider interface {
	Current() identity.Identity
}

// Options parameterise the client.
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	RequestsPerSec  int
	RetryMaxElapsed time.Duration
	UserAgent       string
}

// Client talks to the forecasting API. The underlying cookie jar keeps the
// backend session cookie across calls.
type Client struct {
	opts    Options
	baseURL string
	http    *httpx.Client
	ids     IdentityProvider
	logger  zerolog.Logger
}

// NewClient constructs a forecasting API client.
func NewClient(opts Options, ids IdentityProvider, logger zerolog.Logger) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	return &Client{
		opts:    opts,
		baseURL: baseURL,
		http: httpx.New(httpx.Options{
			Timeout:         opts.Timeout,
			RequestsPerSec:  opts.RequestsPerSec,
			MaxRetryElapsed: opts.RetryMaxElapsed,
		}),
		ids:    ids,
		logger: logger.With().Str("component", "api_client").Logger(),
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "quantara/1.0")
	}

	if c.ids != nil {
		if key, value, ok := c.ids.Current().Header(); ok {
			req.Header.Set(key, value)
		}
	}

	return req, nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, payload)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Predict issues exactly one POST /predict call. It is never retried: the
// pipeline owns the single-submission contract.
func (c *Client) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/predict", req)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("predict request: %w", err)
	}

	var out PredictResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentPrices fetches the live price snapshot.
func (c *Client) CurrentPrices(ctx context.Context) (*CurrentPrices, error) {
	resp, err := c.http.DoRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, "/current-prices", nil)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch current prices: %w", err)
	}

	var out CurrentPrices
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Historical fetches up to limit trailing points for one coin, normalised
// into the canonical PricePoint shape.
func (c *Client) Historical(ctx context.Context, coin market.Coin, limit int) ([]series.PricePoint, error) {
	path := fmt.Sprintf("/historical/%s?limit=%d", coin, limit)
	resp, err := c.http.DoRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, path, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch historical %s: %w", coin, err)
	}

	var out historicalResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return series.Normalize(out.Prices), nil
}

type historyListResponse struct {
	Records []history.Record `json:"records"`
}

// ListHistory fetches the caller's prediction records, newest first.
func (c *Client) ListHistory(ctx context.Context) ([]history.Record, error) {
	resp, err := c.http.DoRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, "/history", nil)
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	var out historyListResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// SaveHistory persists a prediction record for the authenticated user.
func (c *Client) SaveHistory(ctx context.Context, rec history.Record) (history.Record, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/history", rec)
	if err != nil {
		return history.Record{}, err
	}

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return history.Record{}, fmt.Errorf("save history: %w", err)
	}

	var saved history.Record
	if err := decodeResponse(resp, &saved); err != nil {
		return history.Record{}, err
	}
	return saved, nil
}

// DeleteHistory removes one record by id.
func (c *Client) DeleteHistory(ctx context.Context, id int64) error {
	httpReq, err := c.newRequest(ctx, http.MethodDelete, fmt.Sprintf("/history/%d", id), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return decodeResponse(resp, nil)
}

// Login establishes a password session; the session cookie lands in the
// client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	return c.authPost(ctx, "/auth/login", Credentials{Email: email, Password: password})
}

// Register creates an account and establishes its session.
func (c *Client) Register(ctx context.Context, email, password, name string) (*User, error) {
	return c.authPost(ctx, "/auth/register", Credentials{Email: email, Password: password, Name: name})
}

// UpdateProfile changes the display name of the authenticated user.
func (c *Client) UpdateProfile(ctx context.Context, name string) (*User, error) {
	return c.authPost(ctx, "/auth/update-profile", profileUpdate{Name: name})
}

func (c *Client) authPost(ctx context.Context, path string, body any) (*User, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}

	var user User
	if err := decodeResponse(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the current password-session user, or ErrUnauthorized.
func (c *Client) Me(ctx context.Context) (*User, error) {
	resp, err := c.http.DoRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, "/auth/me", nil)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}

	var user User
	if err := decodeResponse(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout drops the password session server-side.
func (c *Client) Logout(ctx context.Context) error {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return decodeResponse(resp, nil)
}

// SessionEmail implements identity.SessionSource over /auth/me. A missing
// session is not an error, just an empty result.
func (c *Client) SessionEmail(ctx context.Context) (string, error) {
	user, err := c.Me(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return "", nil
		}
		return "", err
	}
	return user.Email, nil
}

var _ identity.SessionSource = (*Client)(nil)
