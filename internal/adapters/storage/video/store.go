package video

import (
	"context"

	domain "congregation/internal/domain/video"
)

// Store persists the video catalog.
type Store interface {
	List(ctx context.Context, category string) ([]domain.Video, error)
	GetByID(ctx context.Context, id string) (domain.Video, error)
	Insert(ctx context.Context, value domain.Video) (domain.Video, error)
	Update(ctx context.Context, id string, patch domain.Patch) (domain.Video, error)
	Delete(ctx context.Context, id string) error
}
