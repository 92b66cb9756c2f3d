package account

import (
	"context"
	"errors"

	domain "congregation/internal/domain/account"
)

// ErrNotFound is returned when no account or token matches.
var ErrNotFound = errors.New("account not found")

// Store persists Account state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	SaveConfirmationToken(ctx context.Context, token domain.ConfirmationToken) error
	GetConfirmationToken(ctx context.Context, token string) (domain.ConfirmationToken, error)
	InvalidateTokensForAccount(ctx context.Context, accountID string) error
}
