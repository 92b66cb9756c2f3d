package orchestrators

import (
	"context"
	"log/slog"

	"congregation/internal/application/session"
)

// SessionRevoker ends a server-side session.
type SessionRevoker interface {
	Revoke(ctx context.Context, token string) error
}

// LogoutInput carries input for the logout orchestrator.
type LogoutInput struct {
	Token     string
	Device    string
	AccountID string
	// Confirmed is set once the member accepted the sign-out prompt.
	Confirmed bool
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Sessions SessionRevoker
	Events   session.Publisher
}

// ExecuteLogout signs the device out.
// Revocation failures are logged and ignored: the local session is cleared regardless.
// PRE: Confirmed is true
// POST: a sign-out event is published for the device
func ExecuteLogout(ctx context.Context, input LogoutInput, deps LogoutDeps) error {
	if !input.Confirmed {
		return ErrLogoutNotConfirmed
	}
	if input.Token != "" {
		if err := deps.Sessions.Revoke(ctx, input.Token); err != nil {
			slog.Warn("auth_event", "event", "logout_revoke_failed", "account_id", input.AccountID, "error", err)
		}
	}
	deps.Events.Publish(input.Device, session.AuthEvent{Type: session.SignedOut})
	slog.Info("auth_event", "event", "logout", "account_id", input.AccountID)
	return nil
}
