package web

import (
	"errors"
	"net/http"

	"congregation/internal/adapters/http/middleware"
	"congregation/internal/application/orchestrators"
	videoDomain "congregation/internal/domain/video"
)

func videoDeps() orchestrators.VideoDeps {
	return orchestrators.VideoDeps{VideoStore: stores.VideoStore, Audit: auditRecorder()}
}

func isCategory(key string) bool {
	for _, c := range videoDomain.Categories {
		if c.Value == key {
			return true
		}
	}
	return false
}

func categoryLabel(key string) string {
	for _, c := range videoDomain.Categories {
		if c.Value == key {
			return c.Label
		}
	}
	return "Todos"
}

// --- JSON API ---

type videoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Thumbnail   string `json:"thumbnail"`
	Category    string `json:"category"`
}

// handleAPIListVideos handles GET /api/videos?category=
func handleAPIListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := stores.VideoStore.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

// handleAPIGetVideo handles GET /api/videos/{id}
func handleAPIGetVideo(w http.ResponseWriter, r *http.Request) {
	v, err := stores.VideoStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleAPICreateVideo handles POST /api/videos
func handleAPICreateVideo(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	var req videoRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	v, err := orchestrators.ExecuteAddVideo(r.Context(), orchestrators.AddVideoInput{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		Thumbnail:   req.Thumbnail,
		Category:    req.Category,
		ActorID:     sess.AccountID,
	}, videoDeps())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// handleAPIUpdateVideo handles PATCH /api/videos/{id}
func handleAPIUpdateVideo(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	var patch videoDomain.Patch
	if err := strictDecode(r, &patch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	v, err := orchestrators.ExecuteEditVideo(r.Context(), orchestrators.EditVideoInput{
		ID:      r.PathValue("id"),
		Patch:   patch,
		ActorID: sess.AccountID,
	}, videoDeps())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleAPIDeleteVideo handles DELETE /api/videos/{id}?confirm=true
func handleAPIDeleteVideo(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	err := orchestrators.ExecuteDeleteVideo(r.Context(), orchestrators.DeleteVideoInput{
		ID:        r.PathValue("id"),
		Confirmed: r.URL.Query().Get("confirm") == "true",
		ActorID:   sess.AccountID,
	}, videoDeps())
	if err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Pages ---

// handleVideosPage serves /videos/{key}: a category key lists that category,
// anything else is a video ID and shows the detail screen.
func handleVideosPage(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if isCategory(key) {
		renderVideoList(w, r, "videos.html", key, nil)
		return
	}
	v, err := stores.VideoStore.GetByID(r.Context(), key)
	if errors.Is(err, videoDomain.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "video_detail.html", map[string]any{
		"Video":   v,
		"Message": flashMessage(r),
	})
}

// handleVideoEditSubmit handles POST /videos/{id} from the admin branch of the detail screen.
func handleVideoEditSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	id := r.PathValue("id")
	patch := videoDomain.Patch{Title: r.FormValue("title"), Description: r.FormValue("description")}
	v, err := orchestrators.ExecuteEditVideo(r.Context(), orchestrators.EditVideoInput{
		ID: id, Patch: patch, ActorID: sess.AccountID,
	}, videoDeps())
	if err != nil {
		current, getErr := stores.VideoStore.GetByID(r.Context(), id)
		if errors.Is(getErr, videoDomain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if getErr != nil {
			internalError(w, getErr)
			return
		}
		current.Title, current.Description = patch.Title, patch.Description
		renderTemplate(w, r, "video_detail.html", map[string]any{"Video": current, "Error": userMessage(err)})
		return
	}
	http.Redirect(w, r, "/videos/"+v.ID+"?msg=updated", http.StatusSeeOther)
}

// handleAdminVideosPage handles GET /admin/videos?category=
func handleAdminVideosPage(w http.ResponseWriter, r *http.Request) {
	renderVideoList(w, r, "admin_videos.html", r.URL.Query().Get("category"), map[string]any{
		"Message": flashMessage(r),
	})
}

func renderVideoList(w http.ResponseWriter, r *http.Request, page, category string, extra map[string]any) {
	videos, err := stores.VideoStore.List(r.Context(), category)
	data := map[string]any{
		"Category":      category,
		"CategoryLabel": categoryLabel(category),
		"Videos":        videos,
		"Empty":         videoDomain.MsgEmpty,
	}
	if err != nil {
		data["Error"] = userMessage(err)
	}
	for k, v := range extra {
		data[k] = v
	}
	renderTemplate(w, r, page, data)
}

// handleAdminVideoNewPage handles GET /admin/videos/new
func handleAdminVideoNewPage(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "admin_video_new.html", map[string]any{
		"Form": videoRequest{Category: videoDomain.CategoryGeneral},
	})
}

// handleAdminVideoNewSubmit handles POST /admin/videos/new. Success clears the form.
func handleAdminVideoNewSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	form := videoRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		URL:         r.FormValue("url"),
		Thumbnail:   r.FormValue("thumbnail"),
		Category:    r.FormValue("category"),
	}
	_, err := orchestrators.ExecuteAddVideo(r.Context(), orchestrators.AddVideoInput{
		Title:       form.Title,
		Description: form.Description,
		URL:         form.URL,
		Thumbnail:   form.Thumbnail,
		Category:    form.Category,
		ActorID:     sess.AccountID,
	}, videoDeps())
	if err != nil {
		renderTemplate(w, r, "admin_video_new.html", map[string]any{"Form": form, "Error": userMessage(err)})
		return
	}
	renderTemplate(w, r, "admin_video_new.html", map[string]any{
		"Form":    videoRequest{Category: form.Category},
		"Message": videoDomain.MsgAdded,
	})
}

// handleAdminVideoDeletePage asks for confirmation before deleting.
func handleAdminVideoDeletePage(w http.ResponseWriter, r *http.Request) {
	v, err := stores.VideoStore.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, videoDomain.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "admin_video_delete.html", map[string]any{"Video": v})
}

// handleAdminVideoDeleteSubmit handles POST /admin/videos/{id}/delete.
func handleAdminVideoDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	id := r.PathValue("id")
	err := orchestrators.ExecuteDeleteVideo(r.Context(), orchestrators.DeleteVideoInput{
		ID:        id,
		Confirmed: r.FormValue("confirm") == "yes",
		ActorID:   sess.AccountID,
	}, videoDeps())
	if errors.Is(err, videoDomain.ErrNotConfirmed) {
		http.Redirect(w, r, "/videos/"+id, http.StatusSeeOther)
		return
	}
	if err != nil {
		v, _ := stores.VideoStore.GetByID(r.Context(), id)
		renderTemplate(w, r, "admin_video_delete.html", map[string]any{"Video": v, "Error": userMessage(err)})
		return
	}
	http.Redirect(w, r, "/admin/videos?msg=deleted", http.StatusSeeOther)
}

// flashMessage maps the ?msg= value set by a redirect to its text.
func flashMessage(r *http.Request) string {
	switch r.URL.Query().Get("msg") {
	case "updated":
		return videoDomain.MsgUpdated
	case "deleted":
		return videoDomain.MsgDeleted
	}
	return ""
}
