package web

import (
	"context"
	"errors"
	"net/http"

	"congregation/internal/adapters/http/middleware"
	profileStore "congregation/internal/adapters/storage/profile"
	"congregation/internal/application/orchestrators"
	profileDomain "congregation/internal/domain/profile"
)

func profileSaver(actorID string) orchestrators.ProfileSaver {
	return orchestrators.ProfileSaver{
		ActorID: actorID,
		Deps:    orchestrators.SaveProfileDeps{ProfileStore: stores.ProfileStore, Audit: auditRecorder()},
	}
}

// loadDraft opens the stored profile for editing and applies the posted
// values. Fields values does not report keep their stored value.
func loadDraft(ctx context.Context, accountID string, values func(field string) (string, bool)) (*profileDomain.Editor, error) {
	server, err := stores.ProfileStore.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	ed := profileDomain.NewEditor(server)
	ed.Edit()
	for _, field := range profileDomain.FormFields {
		if v, ok := values(field); ok {
			if err := ed.Set(field, v); err != nil {
				return ed, err
			}
		}
	}
	return ed, nil
}

// saveDraft runs the edit screen's save flow against the stored profile.
// On failure the returned editor is still editing and carries the error text.
func saveDraft(ctx context.Context, accountID string, values func(field string) (string, bool)) (*profileDomain.Editor, error) {
	ed, err := loadDraft(ctx, accountID, values)
	if err != nil {
		return ed, err
	}
	return ed, ed.Save(ctx, profileSaver(accountID))
}

// --- JSON API ---

// handleAPIGetProfile handles GET /api/profile
func handleAPIGetProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	p, err := stores.ProfileStore.GetByID(r.Context(), sess.AccountID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleAPIPutProfile handles PUT /api/profile: a full-record update from the
// string-valued form. Empty dates clear the field.
func handleAPIPutProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	var form profileDomain.Form
	if err := strictDecode(r, &form); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	ed, err := saveDraft(r.Context(), sess.AccountID, form.Get)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile": ed.Server(),
		"message": ed.Message,
	})
}

// --- Pages ---

// handleHome renders the signed-in landing screen.
func handleHome(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	data := map[string]any{"Name": sess.Email}
	p, err := stores.ProfileStore.GetByID(r.Context(), sess.AccountID)
	if err != nil && !errors.Is(err, profileStore.ErrNotFound) {
		internalError(w, err)
		return
	}
	if err == nil && p.Name != "" {
		data["Name"] = p.Name
	}
	renderTemplate(w, r, "home.html", data)
}

// handleProfilePage renders the profile screen. ?edit=1 opens the form.
func handleProfilePage(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	p, err := stores.ProfileStore.GetByID(r.Context(), sess.AccountID)
	if errors.Is(err, profileStore.ErrNotFound) {
		renderTemplate(w, r, "profile.html", map[string]any{"Missing": true})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	ed := profileDomain.NewEditor(p)
	if r.URL.Query().Get("edit") == "1" {
		ed.Edit()
	}
	if r.URL.Query().Get("saved") == "1" {
		ed.Message = profileDomain.MsgSaved
	}
	renderProfile(w, r, ed)
}

// handleProfileSubmit handles POST /profile: action=save submits the draft,
// anything else cancels back to the stored values.
func handleProfileSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	posted := func(field string) (string, bool) {
		v, ok := r.PostForm[field]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}
	if r.FormValue("action") != "save" {
		cancelDraft(w, r, sess.AccountID, posted)
		return
	}
	ed, err := saveDraft(r.Context(), sess.AccountID, posted)
	if ed == nil {
		internalError(w, err)
		return
	}
	if err != nil {
		renderProfile(w, r, ed)
		return
	}
	http.Redirect(w, r, "/profile?saved=1", http.StatusSeeOther)
}

// cancelDraft discards the posted draft and renders the stored values.
func cancelDraft(w http.ResponseWriter, r *http.Request, accountID string, values func(field string) (string, bool)) {
	ed, err := loadDraft(r.Context(), accountID, values)
	if errors.Is(err, profileStore.ErrNotFound) {
		renderTemplate(w, r, "profile.html", map[string]any{"Missing": true})
		return
	}
	if ed == nil {
		internalError(w, err)
		return
	}
	ed.Cancel()
	renderProfile(w, r, ed)
}

func renderProfile(w http.ResponseWriter, r *http.Request, ed *profileDomain.Editor) {
	renderTemplate(w, r, "profile.html", map[string]any{
		"Editing":  ed.Mode() == profileDomain.ModeEditing,
		"Profile":  ed.Server(),
		"Draft":    ed.Draft(),
		"Message":  ed.Message,
		"Error":    ed.Error,
		"Statuses": profileDomain.ValidStatuses,
		"Genders":  profileDomain.Genders,
		"Groups":   profileDomain.Groups,
	})
}
