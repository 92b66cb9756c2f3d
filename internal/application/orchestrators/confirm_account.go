package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"congregation/internal/domain/account"
)

// AccountStoreForConfirm defines the store interface needed by ConfirmAccount.
type AccountStoreForConfirm interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	GetConfirmationToken(ctx context.Context, token string) (account.ConfirmationToken, error)
	InvalidateTokensForAccount(ctx context.Context, accountID string) error
}

// ConfirmAccountDeps holds dependencies for ConfirmAccount.
type ConfirmAccountDeps struct {
	AccountStore AccountStoreForConfirm
	Now          func() time.Time
}

// ExecuteConfirmAccount activates the account a confirmation link belongs to.
// PRE: token is the value from the emailed link
// POST: account is active; every token of the account is used
func ExecuteConfirmAccount(ctx context.Context, token string, deps ConfirmAccountDeps) (account.Account, error) {
	if token == "" {
		return account.Account{}, account.ErrTokenInvalid
	}
	tok, err := deps.AccountStore.GetConfirmationToken(ctx, token)
	if err != nil {
		return account.Account{}, account.ErrTokenInvalid
	}
	if tok.Used {
		return account.Account{}, account.ErrTokenInvalid
	}
	if tok.IsExpired(deps.Now()) {
		return account.Account{}, account.ErrTokenExpired
	}

	acct, err := deps.AccountStore.GetByID(ctx, tok.AccountID)
	if err != nil {
		return account.Account{}, err
	}
	if err := acct.Confirm(); err != nil && !errors.Is(err, account.ErrAlreadyConfirmed) {
		return account.Account{}, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}
	if err := deps.AccountStore.InvalidateTokensForAccount(ctx, acct.ID); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "account_confirmed", "account_id", acct.ID)
	return acct, nil
}
