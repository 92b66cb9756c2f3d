package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"congregation/internal/adapters/http/middleware"
	accountStore "congregation/internal/adapters/storage/account"
	profileStore "congregation/internal/adapters/storage/profile"
	"congregation/internal/application/orchestrators"
	"congregation/internal/application/session"
	accountDomain "congregation/internal/domain/account"
	profileDomain "congregation/internal/domain/profile"
	videoDomain "congregation/internal/domain/video"
)

//go:embed templates/*.html
var templateFS embed.FS

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "request_id", w.Header().Get(middleware.RequestIDHeader), "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// apiError is the JSON error body. Error is the raw message; Message is the
// localized text when one exists.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// statusFor maps domain and store errors to HTTP status codes.
// Anything not listed is an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, accountDomain.ErrInvalidEmail),
		errors.Is(err, accountDomain.ErrEmptyPassword),
		errors.Is(err, accountDomain.ErrPasswordTooShort),
		errors.Is(err, accountDomain.ErrTokenInvalid),
		errors.Is(err, accountDomain.ErrTokenExpired),
		errors.Is(err, profileDomain.ErrEmptyID),
		errors.Is(err, profileDomain.ErrNameTooLong),
		errors.Is(err, profileDomain.ErrInvalidStatus),
		errors.Is(err, profileDomain.ErrInvalidDate),
		errors.Is(err, profileDomain.ErrUnknownField),
		errors.Is(err, videoDomain.ErrTitleAndURLRequired),
		errors.Is(err, videoDomain.ErrEmptyTitle),
		errors.Is(err, videoDomain.ErrTitleTooLong),
		errors.Is(err, videoDomain.ErrURLTooLong),
		errors.Is(err, videoDomain.ErrDescriptionTooLong),
		errors.Is(err, videoDomain.ErrNotConfirmed),
		errors.Is(err, orchestrators.ErrLogoutNotConfirmed):
		return http.StatusBadRequest
	case errors.Is(err, accountDomain.ErrWrongPassword),
		errors.Is(err, accountDomain.ErrNotConfirmed):
		return http.StatusUnauthorized
	case errors.Is(err, profileDomain.ErrIDMismatch):
		return http.StatusForbidden
	case errors.Is(err, videoDomain.ErrNotFound),
		errors.Is(err, profileStore.ErrNotFound),
		errors.Is(err, accountStore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, accountDomain.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, orchestrators.ErrAccountLocked):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON, or as a generic 500 when it is unexpected.
func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		internalError(w, err)
		return
	}
	writeJSON(w, status, apiError{Error: err.Error(), Message: userMessage(err)})
}

// userMessage is the text shown to members for err.
func userMessage(err error) string {
	if msg := accountDomain.TranslateError(err); msg != accountDomain.FallbackMessage {
		return msg
	}
	if statusFor(err) == http.StatusInternalServerError {
		return accountDomain.FallbackMessage
	}
	return err.Error()
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

// identityOf converts a session into the identity the application layer uses.
func identityOf(sess middleware.Session, ok bool) *session.Identity {
	if !ok {
		return nil
	}
	return &session.Identity{AccountID: sess.AccountID, Email: sess.Email, Role: sess.Role}
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	role := ""
	email := ""
	if ok {
		role = sess.Role
		email = sess.Email
	}

	funcMap := template.FuncMap{
		"currentRole":  func() string { return role },
		"currentEmail": func() string { return email },
		"isLoggedIn":   func() bool { return ok },
		"isAdmin":      func() bool { return role == accountDomain.RoleAdmin },
		"csrfField":    func() template.HTML { return csrf.TemplateField(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"thumbnail": func(v videoDomain.Video) string { return v.ThumbnailOrDerived() },
		"formatDate": func(t *time.Time) string {
			if t == nil {
				return "-"
			}
			return t.Format("02/01/2006")
		},
		"categories": func() []videoDomain.Category { return videoDomain.Categories },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
