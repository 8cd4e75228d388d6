package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized marks an absent or expired session. Callers route back
// to an unauthenticated view instead of showing an inline error.
var ErrUnauthorized = errors.New("session absent or expired")

// Error is a non-2xx response from the forecasting API. The server's
// detail message, when present, is surfaced verbatim to the user.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed (status %d)", e.StatusCode)
}

func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func parseAPIError(status int, payload []byte) error {
	apiErr := &Error{StatusCode: status}
	var body errorBody
	if err := json.Unmarshal(payload, &body); err == nil {
		switch {
		case body.Detail != "":
			apiErr.Detail = body.Detail
		case body.Message != "":
			apiErr.Detail = body.Message
		}
	}
	if apiErr.Detail == "" && len(payload) > 0 {
		if trimmed := strings.TrimSpace(string(payload)); !strings.HasPrefix(trimmed, "{") {
			apiErr.Detail = trimmed
		}
	}
	return apiErr
}
