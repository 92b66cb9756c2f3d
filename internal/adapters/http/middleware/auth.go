package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	domainAccount "congregation/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	accountContextKey contextKey = "account"
	deviceContextKey  contextKey = "device"
)

// Paths the navigation gate sends members to.
const (
	LoginPath = "/login"
	HomePath  = "/home"
)

// Session represents an authenticated session.
type Session struct {
	Token     string
	AccountID string
	Email     string
	Role      string
	Device    string
	CreatedAt time.Time
}

// SessionStore is an in-memory session store.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	lifetime time.Duration
	now      func() time.Time

	// OnExpire is called, outside the lock, for each session found expired.
	OnExpire func(Session)
}

// NewSessionStore creates a new in-memory session store whose sessions last lifetime.
func NewSessionStore(lifetime time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Create stores a new session and returns the token.
// PRE: accountID, email, role are non-empty
// POST: Session is stored, token is returned
func (ss *SessionStore) Create(accountID, email, role, device string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = Session{
		Token:     token,
		AccountID: accountID,
		Email:     email,
		Role:      role,
		Device:    device,
		CreatedAt: ss.now(),
	}
	return token, nil
}

// Get retrieves a session by token.
// PRE: token is non-empty
// POST: Returns session if valid and not expired; an expired session is removed
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.Lock()
	session, ok := ss.sessions[token]
	if !ok {
		ss.mu.Unlock()
		return Session{}, false
	}
	if ss.now().Sub(session.CreatedAt) > ss.lifetime {
		delete(ss.sessions, token)
		ss.mu.Unlock()
		if ss.OnExpire != nil {
			ss.OnExpire(session)
		}
		return Session{}, false
	}
	ss.mu.Unlock()
	return session, true
}

// Sweep removes every expired session and reports each to OnExpire.
// Returns the number removed.
func (ss *SessionStore) Sweep() int {
	ss.mu.Lock()
	now := ss.now()
	var expired []Session
	for token, session := range ss.sessions {
		if now.Sub(session.CreatedAt) > ss.lifetime {
			delete(ss.sessions, token)
			expired = append(expired, session)
		}
	}
	ss.mu.Unlock()
	if ss.OnExpire != nil {
		for _, session := range expired {
			ss.OnExpire(session)
		}
	}
	return len(expired)
}

// StartSweeper runs Sweep every interval until ctx is done, so devices that
// stop sending requests still see their sessions end.
func (ss *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ss.Sweep()
			}
		}
	}()
}

// Delete removes a session by token.
// PRE: token is non-empty
// POST: Session with given token is removed
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// Revoke ends a session. Unknown tokens are not an error.
func (ss *SessionStore) Revoke(_ context.Context, token string) error {
	ss.Delete(token)
	return nil
}

// Len returns the number of stored sessions.
func (ss *SessionStore) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}

const (
	sessionCookieName = "congregation_session"
	deviceCookieName  = "congregation_device"

	// DeviceHeader lets app clients without cookies name their device.
	DeviceHeader = "X-Device-ID"
)

// SecureCookies marks cookies Secure. Set in production.
var SecureCookies = false

// Auth returns middleware that resolves the session from a bearer token or
// the session cookie and sets it in context.
// It does NOT block unauthenticated requests; use RequireAuth or RequireRole for that.
func Auth(sessions *SessionStore, tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := SessionToken(r, tokens); token != "" {
				if session, ok := sessions.Get(token); ok {
					r = r.WithContext(ContextWithSession(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionToken returns the session token carried by the request: the session
// ID inside a valid bearer token, else the session cookie value.
func SessionToken(r *http.Request, tokens *TokenIssuer) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") && tokens != nil {
		if claims, err := tokens.Parse(strings.TrimPrefix(h, "Bearer ")); err == nil {
			return claims.ID
		}
		return ""
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Device returns middleware that makes sure every client carries a device ID.
// Browsers get a long-lived cookie; app clients may send DeviceHeader instead.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		device := r.Header.Get(DeviceHeader)
		if device == "" {
			if cookie, err := r.Cookie(deviceCookieName); err == nil {
				device = cookie.Value
			}
		}
		if device == "" {
			var err error
			if device, err = generateToken(); err == nil {
				http.SetCookie(w, &http.Cookie{
					Name:     deviceCookieName,
					Value:    device,
					HttpOnly: true,
					Secure:   SecureCookies,
					SameSite: http.SameSiteLaxMode,
					Path:     "/",
					MaxAge:   400 * 24 * 3600,
				})
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), deviceContextKey, device)))
	})
}

// DeviceFromContext returns the device ID set by Device.
func DeviceFromContext(ctx context.Context) string {
	d, _ := ctx.Value(deviceContextKey).(string)
	return d
}

// RequireAuth returns middleware that blocks unauthenticated requests.
// Pages redirect to the login screen; API calls get 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			deny(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns middleware that blocks requests from users without one of the specified roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSessionFromContext(r.Context())
			if !ok {
				deny(w, r)
				return
			}
			if !roleSet[session.Role] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectSignedIn sends members who already have a session to the home screen.
func RedirectSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); ok && r.Method == http.MethodGet {
			http.Redirect(w, r, HomePath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(accountContextKey).(Session)
	return session, ok
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string, lifetime time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(lifetime.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// IsAdmin checks if the current session is an admin.
func IsAdmin(ctx context.Context) bool {
	session, ok := GetSessionFromContext(ctx)
	return ok && session.Role == domainAccount.RoleAdmin
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, accountContextKey, sess)
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
