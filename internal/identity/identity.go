// Package identity resolves who the current actor is and which attribution
// header outgoing requests must carry. Exactly one of X-User-Email or
// X-Guest-ID is ever attached; an authenticated email always wins over a
// stored guest id.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Attribution header names expected by the forecasting API.
const (
	HeaderUserEmail = "X-User-Email"
	HeaderGuestID   = "X-Guest-ID"
)

// ErrAnonymous indicates no identity has been established yet.
var ErrAnonymous = errors.New("identity: no active identity")

// Kind enumerates the identity states.
type Kind int

const (
	Anonymous Kind = iota
	Guest
	Authenticated
)

// Identity is an immutable snapshot of the current actor.
type Identity struct {
	Email   string
	GuestID string
}

// Kind reports which state the snapshot represents.
func (id Identity) Kind() Kind {
	switch {
	case id.Email != "":
		return Authenticated
	case id.GuestID != "":
		return Guest
	default:
		return Anonymous
	}
}

// Header returns the single attribution header for this identity.
// ok is false for the anonymous state.
func (id Identity) Header() (key, value string, ok bool) {
	switch id.Kind() {
	case Authenticated:
		return HeaderUserEmail, id.Email, true
	case Guest:
		return HeaderGuestID, id.GuestID, true
	default:
		return "", "", false
	}
}

// SessionSource supplies an already-established session, e.g. the OAuth
// provider or the backend password session. Empty email with nil error
// means "no session here".
type SessionSource interface {
	SessionEmail(ctx context.Context) (string, error)
}

type persisted struct {
	Email   string `json:"email,omitempty"`
	GuestID string `json:"guest_id,omitempty"`
}

// Manager owns the identity state and its on-disk persistence. All
// mutation points (login, logout, guest switch) fully replace the previous
// identity, never merge it.
type Manager struct {
	path   string
	logger zerolog.Logger

	mu      sync.Mutex
	current Identity
}

// NewManager creates a manager persisting to the given state file and
// loads whatever identity was stored there previously.
func NewManager(path string, logger zerolog.Logger) *Manager {
	m := &Manager{path: path, logger: logger.With().Str("component", "identity").Logger()}
	m.load()
	return m
}

func (m *Manager) load() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		m.logger.Warn().Err(err).Str("path", m.path).Msg("identity state file unreadable, starting fresh")
		return
	}
	m.current = Identity{Email: p.Email, GuestID: p.GuestID}
}

func (m *Manager) persistLocked() error {
	data, err := json.Marshal(persisted{Email: m.current.Email, GuestID: m.current.GuestID})
	if err != nil {
		return err
	}
	if dir := filepath.Dir(m.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create identity state dir: %w", err)
		}
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("write identity state: %w", err)
	}
	return nil
}

// Current returns the active identity snapshot.
func (m *Manager) Current() Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Resolve establishes the identity on startup: session sources are asked
// in order (OAuth provider first, backend session second); the first email
// wins. With no session the stored guest id, if any, stays active.
func (m *Manager) Resolve(ctx context.Context, sources ...SessionSource) Identity {
	for _, src := range sources {
		if src == nil {
			continue
		}
		email, err := src.SessionEmail(ctx)
		if err != nil {
			m.logger.Debug().Err(err).Msg("session source unavailable")
			continue
		}
		if email != "" {
			m.SetAuthenticated(email)
			return m.Current()
		}
	}
	return m.Current()
}

// SetAuthenticated replaces the identity with an authenticated user.
func (m *Manager) SetAuthenticated(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Identity{Email: email}
	if err := m.persistLocked(); err != nil {
		m.logger.Error().Err(err).Msg("failed to persist identity")
	}
}

// EnsureGuest returns the stored guest identity, generating and persisting
// a fresh one only when none exists. The id is stable for the whole guest
// session; it is never regenerated while guest mode remains active.
func (m *Manager) EnsureGuest() Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Kind() == Guest {
		return m.current
	}
	m.current = Identity{GuestID: "guest_" + uuid.New().String()}
	if err := m.persistLocked(); err != nil {
		m.logger.Error().Err(err).Msg("failed to persist guest identity")
	}
	return m.current
}

// Clear wipes the stored identity on logout. A later guest session gets an
// unrelated id; cleared guest ids are never reused.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Identity{}
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.Error().Err(err).Msg("failed to remove identity state")
	}
}
