package web

import (
	"net/http"

	"congregation/internal/adapters/http/middleware"
	"congregation/internal/adapters/metrics"
	accountDomain "congregation/internal/domain/account"
)

// registerRoutes mounts every page and API endpoint on mux.
func registerRoutes(mux *http.ServeMux) {
	member := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireRole(accountDomain.RoleAdmin)(h)
	}
	guest := func(h http.HandlerFunc) http.Handler { return middleware.RedirectSignedIn(h) }

	// Operations
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.Handle("GET /metrics", metrics.Handler())

	// Auth API
	mux.HandleFunc("POST /api/auth/signup", handleAPISignup)
	mux.HandleFunc("POST /api/auth/login", handleAPILogin)
	mux.HandleFunc("POST /api/auth/logout", handleAPILogout)
	mux.HandleFunc("GET /api/auth/confirm", handleConfirm)

	// Profile API
	mux.Handle("GET /api/profile", member(handleAPIGetProfile))
	mux.Handle("PUT /api/profile", member(handleAPIPutProfile))
	mux.Handle("GET /api/profile/stream", member(handleProfileStream))

	// Video API
	mux.Handle("GET /api/videos", member(handleAPIListVideos))
	mux.Handle("GET /api/videos/stream", member(handleVideoStream))
	mux.Handle("POST /api/videos/stream/{stream}/category", member(handleVideoStreamCategory))
	mux.Handle("GET /api/videos/{id}", member(handleAPIGetVideo))
	mux.Handle("POST /api/videos", admin(handleAPICreateVideo))
	mux.Handle("PATCH /api/videos/{id}", admin(handleAPIUpdateVideo))
	mux.Handle("DELETE /api/videos/{id}", admin(handleAPIDeleteVideo))

	// Realtime
	mux.Handle("GET /api/realtime", member(handleRealtime))
	mux.HandleFunc("GET /api/session/events", handleSessionEvents)

	// Pages
	mux.HandleFunc("GET /{$}", handleRoot)
	mux.Handle("GET /login", guest(handleLoginPage))
	mux.HandleFunc("POST /login", handleLoginSubmit)
	mux.Handle("GET /signup", guest(handleSignupPage))
	mux.HandleFunc("POST /signup", handleSignupSubmit)
	mux.Handle("GET /logout", member(handleLogoutPage))
	mux.HandleFunc("POST /logout", handleLogoutSubmit)
	mux.Handle("GET /home", member(handleHome))
	mux.Handle("GET /profile", member(handleProfilePage))
	mux.Handle("POST /profile", member(handleProfileSubmit))
	mux.Handle("GET /videos/{key}", member(handleVideosPage))
	mux.Handle("POST /videos/{id}", admin(handleVideoEditSubmit))
	mux.Handle("GET /admin/audit", admin(handleAdminAuditTrail))
	mux.Handle("GET /admin/videos", admin(handleAdminVideosPage))
	mux.Handle("GET /admin/videos/new", admin(handleAdminVideoNewPage))
	mux.Handle("POST /admin/videos/new", admin(handleAdminVideoNewSubmit))
	mux.Handle("GET /admin/videos/{id}/delete", admin(handleAdminVideoDeletePage))
	mux.Handle("POST /admin/videos/{id}/delete", admin(handleAdminVideoDeleteSubmit))
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRoot sends members home and everyone else to the login screen.
func handleRoot(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, middleware.HomePath, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}
