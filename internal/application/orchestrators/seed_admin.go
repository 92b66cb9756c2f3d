package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"congregation/internal/domain/account"
	"congregation/internal/domain/profile"
)

// AccountStoreForSeed defines the store interface needed by SeedAdmin.
type AccountStoreForSeed interface {
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context) (int, error)
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	AccountStore AccountStoreForSeed
	ProfileStore ProfileStoreForSignup
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteSeedAdmin creates an active admin account and profile if no accounts exist.
// PRE: Database is migrated
// POST: Admin account created if count == 0
func ExecuteSeedAdmin(ctx context.Context, deps SeedAdminDeps, email, password string) error {
	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	acct := account.Account{
		ID:        deps.GenerateID(),
		Email:     email,
		Role:      account.RoleAdmin,
		Status:    account.StatusActive,
		CreatedAt: deps.Now(),
	}
	if err := acct.Validate(); err != nil {
		return err
	}
	if err := acct.SetPassword(password); err != nil {
		return err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}
	if err := deps.ProfileStore.Create(ctx, profile.Profile{
		ID:           acct.ID,
		Name:         "Administrador",
		Email:        acct.Email,
		MemberStatus: profile.StatusActive,
		Role:         profile.RoleAdmin,
	}); err != nil {
		return err
	}

	slog.Info("auth_event", "event", "admin_seeded", "email", email)
	return nil
}
