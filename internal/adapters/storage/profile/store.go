package profile

import (
	"context"
	"errors"

	domain "congregation/internal/domain/profile"
)

// ErrNotFound is returned when no profile matches the ID.
var ErrNotFound = errors.New("profile not found")

// Store persists member profiles in the users table.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Profile, error)
	Create(ctx context.Context, value domain.Profile) error
	Save(ctx context.Context, value domain.Profile) error
}
