package orchestrators

import (
	"context"
	"log/slog"

	"congregation/internal/domain/audit"
	"congregation/internal/domain/profile"
)

// ProfileStoreForSave defines the store interface needed by SaveProfile.
type ProfileStoreForSave interface {
	Save(ctx context.Context, p profile.Profile) error
}

// SaveProfileInput carries input for the save-profile orchestrator.
type SaveProfileInput struct {
	ActorID string
	Profile profile.Profile
}

// SaveProfileDeps holds dependencies for SaveProfile.
type SaveProfileDeps struct {
	ProfileStore ProfileStoreForSave
	Audit        AuditRecorder
}

// ExecuteSaveProfile writes the member's full profile record.
// PRE: Profile.ID equals ActorID
// POST: every editable column is replaced; the role is untouched
func ExecuteSaveProfile(ctx context.Context, input SaveProfileInput, deps SaveProfileDeps) error {
	p := input.Profile
	if p.ID == "" {
		p.ID = input.ActorID
	}
	if p.ID != input.ActorID {
		return profile.ErrIDMismatch
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := deps.ProfileStore.Save(ctx, p); err != nil {
		return err
	}
	slog.Info("profile_event", "event", "profile_saved", "account_id", p.ID)
	recordAudit(ctx, deps.Audit, input.ActorID, audit.CategoryProfile, audit.ActionUpdate, p.ID, p.Name)
	return nil
}

// ProfileSaver lets the edit screen save through ExecuteSaveProfile.
type ProfileSaver struct {
	ActorID string
	Deps    SaveProfileDeps
}

// SaveProfile implements profile.Saver.
func (s ProfileSaver) SaveProfile(ctx context.Context, p profile.Profile) error {
	return ExecuteSaveProfile(ctx, SaveProfileInput{ActorID: s.ActorID, Profile: p}, s.Deps)
}
