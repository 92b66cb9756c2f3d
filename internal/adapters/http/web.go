package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"congregation/internal/adapters/email"
	"congregation/internal/adapters/http/middleware"
	"congregation/internal/adapters/metrics"
	"congregation/internal/adapters/realtime"
	accountStore "congregation/internal/adapters/storage/account"
	auditStore "congregation/internal/adapters/storage/audit"
	profileStore "congregation/internal/adapters/storage/profile"
	videoStore "congregation/internal/adapters/storage/video"
	"congregation/internal/application/session"
	"congregation/internal/config"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore accountStore.Store
	ProfileStore profileStore.Store
	VideoStore   videoStore.Store
	AuditStore   auditStore.Store
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// Global access-token issuer for JSON clients
var tokens *middleware.TokenIssuer

// Global change feed the stores publish to
var feed *realtime.Feed

// Global auth-state notifier, keyed by device
var notifier *session.Notifier

// Global email sender instance
var emailSender email.Sender

// appConfig is the configuration NewMux was built with.
var appConfig config.Config

// sessionSweepInterval is how often expired sessions are collected.
var sessionSweepInterval = time.Minute

// stopSweeper ends the session sweeper started by the last NewMux.
var stopSweeper context.CancelFunc = func() {}

// NewMux wires HTTP handlers for the app.
// PRE: the stores publish their writes to changes
func NewMux(cfg config.Config, s *Stores, changes *realtime.Feed, sender email.Sender) http.Handler {
	appConfig = cfg
	stores = s
	feed = changes
	emailSender = sender
	if emailSender == nil {
		emailSender = email.NewNoopSender()
	}
	notifier = session.NewNotifier()
	sessions = middleware.NewSessionStore(cfg.SessionLifetime)
	sessions.OnExpire = func(s middleware.Session) {
		slog.Info("auth_event", "event", "session_expired", "account_id", s.AccountID)
		notifier.Publish(s.Device, session.AuthEvent{Type: session.SignedOut})
	}
	stopSweeper()
	var sweepCtx context.Context
	sweepCtx, stopSweeper = context.WithCancel(context.Background())
	sessions.StartSweeper(sweepCtx, sessionSweepInterval)
	tokens = middleware.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	middleware.SecureCookies = cfg.IsProduction()
	metrics.Init()

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(cfg.RateLimit)

	// Applied inside out: Timing -> SecurityHeaders -> CSRF -> Device -> Auth -> RateLimit -> Instrument -> Mux
	return middleware.Chain(mux,
		metrics.Instrument,
		middleware.RateLimit(limiter),
		middleware.Auth(sessions, tokens),
		middleware.Device,
		middleware.CSRF(cfg.CSRFKey, cfg.IsProduction(), trustedOrigins(cfg.BaseURL)...),
		middleware.SecurityHeaders,
		middleware.Timing(cfg.SlowRequestMs),
	)
}

// trustedOrigins returns the host of the public base URL plus the local dev hosts.
func trustedOrigins(baseURL string) []string {
	origins := []string{"localhost:8080", "127.0.0.1:8080"}
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		origins = append(origins, u.Host)
	}
	return origins
}
