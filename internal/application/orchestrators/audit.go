package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"congregation/internal/domain/audit"
)

// AuditRecorder stores admin activity log entries.
type AuditRecorder interface {
	Save(ctx context.Context, event audit.Event) error
}

// recordAudit appends an event to the activity log. A nil recorder records
// nothing, and a failed write is logged without failing the operation.
func recordAudit(ctx context.Context, rec AuditRecorder, actorID string, category audit.Category, action audit.Action, resourceID, desc string) {
	if rec == nil || actorID == "" {
		return
	}
	event := audit.NewEvent(actorID, category, action, time.Now()).
		WithResource(resourceID).
		WithDescription(desc)
	if err := rec.Save(ctx, event); err != nil {
		slog.Warn("audit_write_failed", "category", category, "action", action, "resource_id", resourceID, "error", err)
	}
}
