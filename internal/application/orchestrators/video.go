package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"congregation/internal/domain/audit"
	"congregation/internal/domain/video"
)

// VideoStoreForOrchestrator defines the store interface needed by the video admin orchestrators.
type VideoStoreForOrchestrator interface {
	Insert(ctx context.Context, v video.Video) (video.Video, error)
	Update(ctx context.Context, id string, patch video.Patch) (video.Video, error)
	Delete(ctx context.Context, id string) error
}

// VideoDeps holds dependencies for the video admin orchestrators.
type VideoDeps struct {
	VideoStore VideoStoreForOrchestrator
	Audit      AuditRecorder
}

// --- Add Video ---

// AddVideoInput carries the add form.
type AddVideoInput struct {
	Title       string
	Description string
	URL         string
	Thumbnail   string
	Category    string
	ActorID     string
}

// ExecuteAddVideo inserts a video into the catalog.
// PRE: Title and URL are non-empty after trimming
// POST: video persisted with a server-assigned created_at; no write on validation failure
func ExecuteAddVideo(ctx context.Context, input AddVideoInput, deps VideoDeps) (video.Video, error) {
	v := video.Video{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		URL:         strings.TrimSpace(input.URL),
		Thumbnail:   strings.TrimSpace(input.Thumbnail),
		Category:    strings.TrimSpace(input.Category),
	}
	if err := v.Validate(); err != nil {
		return video.Video{}, err
	}
	saved, err := deps.VideoStore.Insert(ctx, v)
	if err != nil {
		return video.Video{}, err
	}
	slog.Info("video_event", "event", "video_added", "video_id", saved.ID, "category", saved.Category, "actor", input.ActorID)
	recordAudit(ctx, deps.Audit, input.ActorID, audit.CategoryVideo, audit.ActionCreate, saved.ID, saved.Title)
	return saved, nil
}

// --- Edit Video ---

// EditVideoInput carries the edit form.
type EditVideoInput struct {
	ID      string
	Patch   video.Patch
	ActorID string
}

// ExecuteEditVideo updates a video's title and description.
// PRE: Patch.Title is non-empty after trimming
// POST: title and description replaced with their trimmed values
func ExecuteEditVideo(ctx context.Context, input EditVideoInput, deps VideoDeps) (video.Video, error) {
	patch := input.Patch
	if err := patch.Normalize(); err != nil {
		return video.Video{}, err
	}
	v, err := deps.VideoStore.Update(ctx, input.ID, patch)
	if err != nil {
		return video.Video{}, err
	}
	slog.Info("video_event", "event", "video_updated", "video_id", input.ID, "actor", input.ActorID)
	recordAudit(ctx, deps.Audit, input.ActorID, audit.CategoryVideo, audit.ActionUpdate, v.ID, v.Title)
	return v, nil
}

// --- Delete Video ---

// DeleteVideoInput carries the delete request.
type DeleteVideoInput struct {
	ID        string
	Confirmed bool
	ActorID   string
}

// ExecuteDeleteVideo removes a video once the admin has confirmed.
// PRE: Confirmed is true
// POST: video removed; without confirmation the store is never called
func ExecuteDeleteVideo(ctx context.Context, input DeleteVideoInput, deps VideoDeps) error {
	if !input.Confirmed {
		return video.ErrNotConfirmed
	}
	if err := deps.VideoStore.Delete(ctx, input.ID); err != nil {
		return err
	}
	slog.Info("video_event", "event", "video_deleted", "video_id", input.ID, "actor", input.ActorID)
	recordAudit(ctx, deps.Audit, input.ActorID, audit.CategoryVideo, audit.ActionDelete, input.ID, "")
	return nil
}
