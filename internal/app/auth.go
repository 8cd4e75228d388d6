package app

import (
	"context"
	"fmt"
	"os"

	"github.com/Ayuga01/Quantara/internal/identity"
)

// Login establishes a password session and replaces any guest identity.
func (a *App) Login(ctx context.Context, email, password string) error {
	user, err := a.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.ids.SetAuthenticated(user.Email)
	fmt.Fprintf(os.Stdout, "logged in as %s\n", user.Email)
	return nil
}

// Register creates an account and logs it in.
func (a *App) Register(ctx context.Context, email, password, name string) error {
	user, err := a.client.Register(ctx, email, password, name)
	if err != nil {
		return err
	}

	a.ids.SetAuthenticated(user.Email)
	fmt.Fprintf(os.Stdout, "registered and logged in as %s\n", user.Email)
	return nil
}

// Logout terminates both sessions and wipes the stored identity. A later
// guest session will get an unrelated id.
func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("backend logout failed")
	}
	if a.oauth != nil {
		if err := a.oauth.Logout(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("oauth logout failed")
		}
	}

	a.ids.Clear()
	fmt.Fprintln(os.Stdout, "logged out")
	return nil
}

// Whoami prints the resolved identity.
func (a *App) Whoami(ctx context.Context) error {
	id := a.ids.Resolve(ctx, a.oauth, a.client)
	switch id.Kind() {
	case identity.Authenticated:
		fmt.Fprintf(os.Stdout, "authenticated as %s\n", id.Email)
	case identity.Guest:
		fmt.Fprintf(os.Stdout, "guest %s\n", id.GuestID)
	default:
		fmt.Fprintln(os.Stdout, "anonymous (no session, no guest id)")
	}
	return nil
}

// UpdateProfile changes the authenticated user's display name.
func (a *App) UpdateProfile(ctx context.Context, name string) error {
	if err := a.requireAuthenticated(ctx); err != nil {
		return err
	}

	user, err := a.client.UpdateProfile(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "profile updated for %s\n", user.Email)
	return nil
}
