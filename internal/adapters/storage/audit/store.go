package audit

import (
	"context"

	domain "congregation/internal/domain/audit"
)

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	// PRE: event is valid
	// POST: Event is persisted
	Save(ctx context.Context, event domain.Event) error

	// List returns one page of audit events with optional filtering.
	// PRE: limit > 0, offset >= 0
	// POST: Returns events newest first
	List(ctx context.Context, filter Filter, limit, offset int) ([]domain.Event, error)

	// Count returns the number of events matching filter.
	Count(ctx context.Context, filter Filter) (int, error)
}

// Filter defines query parameters for listing audit events. Empty fields match everything.
type Filter struct {
	Category   domain.Category
	ActorID    string
	ResourceID string
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
