package web

import (
	"net/http"

	auditStore "congregation/internal/adapters/storage/audit"
	"congregation/internal/application/listutil"
	"congregation/internal/application/orchestrators"
	auditDomain "congregation/internal/domain/audit"
)

// auditRecorder returns the activity log, or nil when none is configured.
func auditRecorder() orchestrators.AuditRecorder {
	if stores.AuditStore == nil {
		return nil
	}
	return stores.AuditStore
}

// handleAdminAuditTrail renders the admin activity log (GET /admin/audit)
// PRE: User must be authenticated as admin
// POST: Renders one page of audit events, newest first, with optional filters
func handleAdminAuditTrail(w http.ResponseWriter, r *http.Request) {
	if stores.AuditStore == nil {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	f := listutil.ParseFilters(q, "category", "actor_id", "resource_id")
	filter := auditStore.Filter{
		Category:   auditDomain.Category(f["category"]),
		ActorID:    f["actor_id"],
		ResourceID: f["resource_id"],
	}

	page := listutil.ParsePageParams(q)
	total, err := stores.AuditStore.Count(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}
	info := listutil.NewPageInfo(page.Page, page.PerPage, total)

	events, err := stores.AuditStore.List(r.Context(), filter, info.PerPage, info.Offset())
	if err != nil {
		internalError(w, err)
		return
	}

	renderTemplate(w, r, "admin_audit.html", map[string]any{
		"Events":     events,
		"Filter":     filter,
		"Categories": auditDomain.Categories,
		"Page":       info,
	})
}
