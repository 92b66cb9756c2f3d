package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"congregation/internal/domain/account"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	AccountID string
	Email     string
	Role      string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
}

// ErrAccountLocked is returned while the lockout after repeated failures lasts.
var ErrAccountLocked = errors.New("Too many login attempts")

// ExecuteLogin validates credentials and returns account info for session creation.
// PRE: none
// POST: Returns account info on success, records failed login on failure
// INVARIANT: Locked and unconfirmed accounts cannot sign in
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	emailAddr := strings.TrimSpace(input.Email)
	if emailAddr == "" {
		return LoginResult{}, account.ErrInvalidEmail
	}
	if input.Password == "" {
		return LoginResult{}, account.ErrWrongPassword
	}

	acct, err := deps.AccountStore.GetByEmail(ctx, emailAddr)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", emailAddr, "reason", "not_found")
		return LoginResult{}, account.ErrWrongPassword
	}

	if acct.IsLocked() {
		slog.Info("auth_event", "event", "login_blocked", "email", emailAddr, "reason", "locked")
		return LoginResult{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin()
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Warn("login_record_failed", "account_id", acct.ID, "error", err)
		}
		slog.Info("auth_event", "event", "login_failed", "email", emailAddr, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		return LoginResult{}, account.ErrWrongPassword
	}

	if acct.IsPendingConfirmation() {
		slog.Info("auth_event", "event", "login_blocked", "email", emailAddr, "reason", "not_confirmed")
		return LoginResult{}, account.ErrNotConfirmed
	}

	if acct.FailedLogins > 0 {
		acct.ResetFailedLogins()
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Warn("login_reset_failed", "account_id", acct.ID, "error", err)
		}
	}

	slog.Info("auth_event", "event", "login_success", "email", emailAddr, "role", acct.Role)
	return LoginResult{AccountID: acct.ID, Email: acct.Email, Role: acct.Role}, nil
}
