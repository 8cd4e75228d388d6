package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// OAuthSession consumes the third-party session provider. Only two calls
// exist: get the current user, and log out.
type OAuthSession struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewOAuthSession builds a provider client; an empty base URL yields a nil
// client, meaning OAuth sessions are not configured.
func NewOAuthSession(baseURL string, timeout time.Duration, logger zerolog.Logger) *OAuthSession {
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OAuthSession{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "oauth_session").Logger(),
	}
}

// SessionEmail implements identity.SessionSource against the provider's
// current-user endpoint. No session reports an empty email.
func (o *OAuthSession) SessionEmail(ctx context.Context) (string, error) {
	// A nil receiver still satisfies identity.SessionSource when passed
	// through an interface value.
	if o == nil {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/session/user", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("oauth session lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oauth session lookup: status %d", resp.StatusCode)
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode oauth session: %w", err)
	}
	return body.Email, nil
}

// Logout terminates the provider session. Best effort: failures are
// returned for logging but do not block the local identity reset.
func (o *OAuthSession) Logout(ctx context.Context) error {
	if o == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/session/logout", nil)
	if err != nil {
		return err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("oauth logout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("oauth logout: status %d", resp.StatusCode)
	}
	return nil
}
