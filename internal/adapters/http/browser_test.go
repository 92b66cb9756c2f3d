package web_test

import (
	"bytes"
	"context"
	"database/sql"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	web "congregation/internal/adapters/http"
	"congregation/internal/adapters/realtime"
	"congregation/internal/adapters/storage"
	accountStore "congregation/internal/adapters/storage/account"
	auditStore "congregation/internal/adapters/storage/audit"
	profileStore "congregation/internal/adapters/storage/profile"
	videoStore "congregation/internal/adapters/storage/video"
	"congregation/internal/application/orchestrators"
	"congregation/internal/config"
	videoDomain "congregation/internal/domain/video"
)

const (
	browserAdminEmail    = "admin@test.com"
	browserAdminPassword = "TestPass123!"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	Stores  *web.Stores
	Browser playwright.Browser
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	changes := realtime.NewFeed()
	stores := &web.Stores{
		AccountStore: accountStore.NewSQLiteStore(db),
		ProfileStore: profileStore.NewSQLiteStore(db, changes),
		VideoStore:   videoStore.NewSQLiteStore(db, changes),
		AuditStore:   auditStore.NewSQLiteStore(db),
	}
	err = orchestrators.ExecuteSeedAdmin(context.Background(), orchestrators.SeedAdminDeps{
		AccountStore: stores.AccountStore,
		ProfileStore: stores.ProfileStore,
		GenerateID:   func() string { return "admin-1" },
		Now:          time.Now,
	}, browserAdminEmail, browserAdminPassword)
	if err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	baseURL := "http://" + listener.Addr().String()
	cfg := config.Config{
		Env:             "test",
		CSRFKey:         bytes.Repeat([]byte("c"), 32),
		JWTSecret:       bytes.Repeat([]byte("s"), 32),
		JWTTTL:          time.Hour,
		BaseURL:         baseURL,
		RateLimit:       1000,
		SlowRequestMs:   500,
		SessionLifetime: time.Hour,
	}
	srv := &http.Server{Handler: web.NewMux(cfg, stores, changes, nil)}
	go srv.Serve(listener)

	pw, err := playwright.Run()
	if err != nil {
		t.Skipf("playwright driver not available: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		t.Skipf("chromium not available: %v", err)
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})
	return &testApp{BaseURL: baseURL, Stores: stores, Browser: browser}
}

// newContext opens an isolated browser profile. Pages of one context share
// cookies, so they are tabs of the same device.
func (a *testApp) newContext(t *testing.T) playwright.BrowserContext {
	t.Helper()
	bc, err := a.Browser.NewContext()
	if err != nil {
		t.Fatalf("failed to create context: %v", err)
	}
	t.Cleanup(func() { bc.Close() })
	return bc
}

func newPage(t *testing.T, bc playwright.BrowserContext) playwright.Page {
	t.Helper()
	page, err := bc.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	return page
}

// login submits the login form as admin and waits for the home screen.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=email]").Fill(browserAdminEmail); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill(browserAdminPassword); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+"/home", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect home: %v", err)
	}
}

// TestBrowser_AddVideoAppearsInCatalog tests the admin add flow end to end.
func TestBrowser_AddVideoAppearsInCatalog(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := newPage(t, app.newContext(t))
	app.login(t, page)

	if _, err := page.Goto(app.BaseURL + "/admin/videos/new"); err != nil {
		t.Fatalf("failed to open add form: %v", err)
	}
	page.Locator("#title").Fill("Culto Domingo")
	page.Locator("#url").Fill("https://www.youtube.com/watch?v=abc123")
	page.Locator("#category").SelectOption(playwright.SelectOptionValues{Values: &[]string{videoDomain.CategoryServices}})
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	if err := page.GetByText(videoDomain.MsgAdded).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("success message not shown: %v", err)
	}
	if v, _ := page.Locator("#title").InputValue(); v != "" {
		t.Errorf("title field = %q, want cleared", v)
	}

	if _, err := page.Goto(app.BaseURL + "/videos/cultos"); err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	if err := page.GetByText("Culto Domingo").WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Errorf("new video not listed: %v", err)
	}
}

// TestBrowser_SignInRedirectsOtherTab tests that a tab left on the login
// screen follows a sign-in made from another tab of the same device.
func TestBrowser_SignInRedirectsOtherTab(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	bc := app.newContext(t)

	waiting := newPage(t, bc)
	if _, err := waiting.Goto(app.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to open login: %v", err)
	}
	// Give the waiting tab's event stream time to subscribe.
	time.Sleep(500 * time.Millisecond)

	app.login(t, newPage(t, bc))

	if err := waiting.WaitForURL(app.BaseURL+"/home", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Errorf("waiting tab was not redirected home: %v", err)
	}
}
