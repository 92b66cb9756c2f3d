package orchestrators

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"congregation/internal/adapters/email"
	"congregation/internal/domain/account"
	"congregation/internal/domain/profile"
)

// ConfirmationTTL is how long a sign-up confirmation link stays valid.
const ConfirmationTTL = 24 * time.Hour

// AccountStoreForSignup defines the store interface needed by Signup.
type AccountStoreForSignup interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Delete(ctx context.Context, id string) error
	SaveConfirmationToken(ctx context.Context, t account.ConfirmationToken) error
	InvalidateTokensForAccount(ctx context.Context, accountID string) error
}

// ProfileStoreForSignup defines the store interface needed to create the member's profile.
type ProfileStoreForSignup interface {
	GetByID(ctx context.Context, id string) (profile.Profile, error)
	Create(ctx context.Context, p profile.Profile) error
}

// SignupInput carries input for the sign-up orchestrator.
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// SignupResult carries the created account.
type SignupResult struct {
	AccountID string
	Email     string
	// ConfirmationLink is the emailed activation URL.
	ConfirmationLink string
}

// SignupDeps holds dependencies for Signup.
type SignupDeps struct {
	AccountStore AccountStoreForSignup
	ProfileStore ProfileStoreForSignup
	Sender       email.Sender
	BaseURL      string
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteSignup registers a member: a pending account, its profile and an
// emailed confirmation link.
// Signing up again with the email of a still-pending account replaces its
// password, voids every earlier link and sends a new one.
// PRE: email contains "@", password >= account.MinPassword characters
// POST: account is pending_confirmation; profile exists with name and email;
// exactly one unused confirmation token exists for the account
// INVARIANT: Email must be unique
func ExecuteSignup(ctx context.Context, input SignupInput, deps SignupDeps) (SignupResult, error) {
	emailAddr := strings.ToLower(strings.TrimSpace(input.Email))
	if emailAddr == "" {
		return SignupResult{}, account.ErrInvalidEmail
	}

	now := deps.Now()
	acct, err := deps.AccountStore.GetByEmail(ctx, emailAddr)
	resend := err == nil
	if resend && !acct.IsPendingConfirmation() {
		slog.Info("auth_event", "event", "signup_rejected", "email", emailAddr, "reason", "already_registered")
		return SignupResult{}, account.ErrAlreadyRegistered
	}
	if !resend {
		acct = account.Account{
			ID:        deps.GenerateID(),
			Email:     emailAddr,
			Role:      account.RoleMember,
			Status:    account.StatusPendingConfirmation,
			CreatedAt: now,
		}
	}
	if err := acct.Validate(); err != nil {
		return SignupResult{}, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return SignupResult{}, err
	}

	p := profile.Profile{
		ID:    acct.ID,
		Name:  strings.TrimSpace(input.Name),
		Email: emailAddr,
		Role:  profile.RoleMember,
	}
	if err := p.Validate(); err != nil {
		return SignupResult{}, err
	}

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return SignupResult{}, err
	}
	if resend {
		if err := deps.AccountStore.InvalidateTokensForAccount(ctx, acct.ID); err != nil {
			return SignupResult{}, err
		}
		if existing, err := deps.ProfileStore.GetByID(ctx, acct.ID); err == nil {
			p = existing
		} else if err := deps.ProfileStore.Create(ctx, p); err != nil {
			return SignupResult{}, err
		}
	} else if err := deps.ProfileStore.Create(ctx, p); err != nil {
		if delErr := deps.AccountStore.Delete(ctx, acct.ID); delErr != nil {
			slog.Error("signup_rollback_failed", "account_id", acct.ID, "error", delErr)
		}
		return SignupResult{}, err
	}

	secret, err := newConfirmationSecret()
	if err != nil {
		return SignupResult{}, err
	}
	token := account.ConfirmationToken{
		ID:        deps.GenerateID(),
		AccountID: acct.ID,
		Token:     secret,
		ExpiresAt: now.Add(ConfirmationTTL),
		CreatedAt: now,
	}
	if err := deps.AccountStore.SaveConfirmationToken(ctx, token); err != nil {
		return SignupResult{}, err
	}

	link := email.ConfirmationLink(deps.BaseURL, secret)
	msg, err := email.Confirmation(emailAddr, p.Name, link)
	if err != nil {
		return SignupResult{}, err
	}
	// A failed send leaves the account pending; signing up again sends a new link.
	if _, err := deps.Sender.Send(ctx, msg); err != nil {
		slog.Error("confirmation_email_failed", "email", emailAddr, "error", err)
	}

	event := "signup"
	if resend {
		event = "signup_resent"
	}
	slog.Info("auth_event", "event", event, "email", emailAddr, "account_id", acct.ID)
	slog.Debug("confirmation_link", "email", emailAddr, "link", link)
	return SignupResult{AccountID: acct.ID, Email: emailAddr, ConfirmationLink: link}, nil
}

func newConfirmationSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
