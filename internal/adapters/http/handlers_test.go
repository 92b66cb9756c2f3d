package web

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"congregation/internal/adapters/email"
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
	testAdminEmail    = "admin@igreja.local"
	testAdminPassword = "senha-do-admin"
)

// captureSender records outgoing emails.
type captureSender struct {
	mu   sync.Mutex
	sent []email.SendRequest
}

func (c *captureSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, req)
	return email.SendResult{MessageID: "msg", SentAt: time.Now()}, nil
}

var tokenPattern = regexp.MustCompile(`confirm\?token=([^"&]+)`)

// lastToken extracts the confirmation token from the latest email.
func (c *captureSender) lastToken(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatal("no email sent")
	}
	m := tokenPattern.FindStringSubmatch(c.sent[len(c.sent)-1].HTML)
	if m == nil {
		t.Fatalf("no token in %q", c.sent[len(c.sent)-1].HTML)
	}
	tok, err := url.QueryUnescape(m[1])
	if err != nil {
		t.Fatalf("unescape token: %v", err)
	}
	return tok
}

// newTestHandler wires the full mux on an in-memory database with a seeded admin.
func newTestHandler(t *testing.T) (http.Handler, *captureSender) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	changes := realtime.NewFeed()
	s := &Stores{
		AccountStore: accountStore.NewSQLiteStore(db),
		ProfileStore: profileStore.NewSQLiteStore(db, changes),
		VideoStore:   videoStore.NewSQLiteStore(db, changes),
		AuditStore:   auditStore.NewSQLiteStore(db),
	}
	err = orchestrators.ExecuteSeedAdmin(context.Background(), orchestrators.SeedAdminDeps{
		AccountStore: s.AccountStore,
		ProfileStore: s.ProfileStore,
		GenerateID:   generateID,
		Now:          time.Now,
	}, testAdminEmail, testAdminPassword)
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	cfg := config.Config{
		Env:             "test",
		CSRFKey:         bytes.Repeat([]byte("k"), 32),
		JWTSecret:       bytes.Repeat([]byte("j"), 32),
		JWTTTL:          time.Hour,
		BaseURL:         "http://localhost:8080",
		RateLimit:       1000,
		SlowRequestMs:   500,
		SessionLifetime: time.Hour,
	}
	sender := &captureSender{}
	return NewMux(cfg, s, changes, sender), sender
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, emailAddr, password string) loginResponse {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", credentialsRequest{Email: emailAddr, Password: password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", emailAddr, rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp
}

// registerMember signs up, confirms and logs in a member, returning its access token.
func registerMember(t *testing.T, h http.Handler, sender *captureSender) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "",
		credentialsRequest{Email: "maria@igreja.local", Password: "segredo123", Name: "Maria"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/auth/confirm?token="+url.QueryEscape(sender.lastToken(t)), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: status %d body %s", rec.Code, rec.Body.String())
	}
	return login(t, h, "maria@igreja.local", "segredo123").AccessToken
}

// TestSignupConfirmLogin tests the whole account lifecycle over the JSON API.
func TestSignupConfirmLogin(t *testing.T) {
	h, sender := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "",
		credentialsRequest{Email: "joao@igreja.local", Password: "segredo123"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "",
		credentialsRequest{Email: "joao@igreja.local", Password: "segredo123"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("login before confirm status = %d, want 401", rec.Code)
	}

	firstToken := sender.lastToken(t)
	rec = doJSON(t, h, http.MethodPost, "/api/auth/signup", "",
		credentialsRequest{Email: "joao@igreja.local", Password: "segredo123"})
	if rec.Code != http.StatusCreated {
		t.Errorf("signup while pending status = %d, want 201", rec.Code)
	}
	if sender.lastToken(t) == firstToken {
		t.Error("signing up again should send a new link")
	}

	rec = doJSON(t, h, http.MethodGet, "/api/auth/confirm?token="+url.QueryEscape(sender.lastToken(t)), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/auth/signup", "",
		credentialsRequest{Email: "joao@igreja.local", Password: "segredo123"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", rec.Code)
	}
	var apiErr apiError
	json.NewDecoder(rec.Body).Decode(&apiErr)
	if apiErr.Message != "Este e-mail já está cadastrado." {
		t.Errorf("message = %q", apiErr.Message)
	}

	resp := login(t, h, "joao@igreja.local", "segredo123")
	if resp.AccessToken == "" || resp.TokenType != "Bearer" || resp.Role != "member" {
		t.Errorf("login response = %+v", resp)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/profile", resp.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("profile with bearer status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/auth/logout", resp.AccessToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("logout status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/profile", resp.AccessToken, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("profile after logout status = %d, want 401", rec.Code)
	}
}

// TestLogin_WrongPassword tests the translated credentials error.
func TestLogin_WrongPassword(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "",
		credentialsRequest{Email: testAdminEmail, Password: "errada"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	var apiErr apiError
	json.NewDecoder(rec.Body).Decode(&apiErr)
	if apiErr.Message != "E-mail ou senha incorretos." {
		t.Errorf("message = %q", apiErr.Message)
	}
}

// TestProfileAPI tests reading and saving the signed-in member's profile.
func TestProfileAPI(t *testing.T) {
	h, sender := newTestHandler(t)
	token := registerMember(t, h, sender)

	rec := doJSON(t, h, http.MethodPut, "/api/profile", token, map[string]string{
		"name":          "Maria da Silva",
		"birth_date":    "1990-05-17",
		"member_status": "Ativo",
		"group_name":    "GCEU2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d body %s", rec.Code, rec.Body.String())
	}
	var saved struct {
		Profile struct {
			Name         string `json:"name"`
			BirthDate    string `json:"birth_date"`
			MemberStatus string `json:"member_status"`
		} `json:"profile"`
		Message string `json:"message"`
	}
	json.NewDecoder(rec.Body).Decode(&saved)
	if saved.Profile.Name != "Maria da Silva" || !strings.HasPrefix(saved.Profile.BirthDate, "1990-05-17") {
		t.Errorf("saved profile = %+v", saved.Profile)
	}
	if saved.Message != "Dados atualizados com sucesso!" {
		t.Errorf("message = %q", saved.Message)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/profile", token, map[string]string{"member_status": "Visitante"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status code = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/profile", token, nil)
	var got struct {
		Name         string `json:"name"`
		MemberStatus string `json:"member_status"`
	}
	json.NewDecoder(rec.Body).Decode(&got)
	if got.Name != "Maria da Silva" || got.MemberStatus != "Ativo" {
		t.Errorf("profile after rejected save = %+v", got)
	}
}

// TestVideoAPI_AdminCRUD tests add, list, edit and delete as admin.
func TestVideoAPI_AdminCRUD(t *testing.T) {
	h, _ := newTestHandler(t)
	token := login(t, h, testAdminEmail, testAdminPassword).AccessToken

	rec := doJSON(t, h, http.MethodPost, "/api/videos", token, videoRequest{
		Title: "  Culto Domingo ", URL: "https://www.youtube.com/watch?v=abc123", Category: videoDomain.CategoryServices,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body %s", rec.Code, rec.Body.String())
	}
	var created videoDomain.Video
	json.NewDecoder(rec.Body).Decode(&created)
	if created.ID == "" || created.Title != "Culto Domingo" {
		t.Errorf("created = %+v", created)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/videos", token, videoRequest{Title: "", URL: "https://x/1"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create without title status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/videos?category=cultos", token, nil)
	var list []videoDomain.Video
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/videos?category=geral", token, nil)
	list = nil
	json.NewDecoder(rec.Body).Decode(&list)
	if list == nil || len(list) != 0 {
		t.Errorf("geral list = %#v, want empty", list)
	}

	rec = doJSON(t, h, http.MethodPatch, "/api/videos/"+created.ID, token, videoDomain.Patch{Title: "Culto de Domingo", Description: "**Pregação**"})
	if rec.Code != http.StatusOK {
		t.Errorf("patch status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/videos/"+created.ID, token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("delete without confirm status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/videos/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("video gone after unconfirmed delete: %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/videos/"+created.ID+"?confirm=true", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/videos/"+created.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/audit?category=video", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit page status = %d", rec.Code)
	}
	for _, want := range []string{"create", "update", "delete", "Culto de Domingo"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("audit page missing %q", want)
		}
	}
}

// TestVideoAPI_MemberForbidden tests that members cannot write the catalog.
func TestVideoAPI_MemberForbidden(t *testing.T) {
	h, sender := newTestHandler(t)
	token := registerMember(t, h, sender)

	rec := doJSON(t, h, http.MethodPost, "/api/videos", token, videoRequest{Title: "T", URL: "https://x/1"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("member create status = %d, want 403", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/videos", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("member list status = %d", rec.Code)
	}
}

// TestRoutes_Unauthenticated tests the navigation gate for pages and API.
func TestRoutes_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)
	tests := []struct {
		path     string
		status   int
		location string
	}{
		{"/", http.StatusSeeOther, "/login"},
		{"/home", http.StatusSeeOther, "/login"},
		{"/videos/cultos", http.StatusSeeOther, "/login"},
		{"/api/videos", http.StatusUnauthorized, ""},
		{"/login", http.StatusOK, ""},
		{"/healthz", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.location != "" && rec.Header().Get("Location") != tt.location {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), tt.location)
			}
		})
	}
}

// TestFormPost_RequiresCSRFToken tests that HTML forms without a token are rejected.
func TestFormPost_RequiresCSRFToken(t *testing.T) {
	h, _ := newTestHandler(t)
	form := url.Values{"email": {testAdminEmail}, "password": {testAdminPassword}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// TestPages_RenderForSignedInMember tests the HTML screens with a bearer session.
func TestPages_RenderForSignedInMember(t *testing.T) {
	h, _ := newTestHandler(t)
	token := login(t, h, testAdminEmail, testAdminPassword).AccessToken
	doJSON(t, h, http.MethodPost, "/api/videos", token, videoRequest{
		Title: "Estudo de Romanos", URL: "https://youtu.be/xyz789", Category: videoDomain.CategoryGeneral,
	})

	for _, path := range []string{"/home", "/profile", "/profile?edit=1", "/videos/geral", "/videos/cultos", "/admin/videos", "/admin/videos/new"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), "</html>") {
				t.Error("incomplete page")
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/videos/cultos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), videoDomain.MsgEmpty) {
		t.Error("empty category should show the empty message")
	}
}

// readEvent reads one Server-Sent Event.
func readEvent(t *testing.T, r *bufio.Reader) (event, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && event != "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

// TestSessionEvents_SignInRedirects tests that a login on a device redirects
// a listener opened on the same device before the login.
func TestSessionEvents_SignInRedirects(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/session/events", nil)
	req.Header.Set("X-Device-ID", "tablet-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	events := bufio.NewReader(resp.Body)
	if ev, data := readEvent(t, events); ev != "identity" || !strings.Contains(data, `"signed_in":false`) {
		t.Fatalf("first event = %s %s", ev, data)
	}

	deadline := time.Now().Add(2 * time.Second)
	for notifier.Listeners("tablet-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("listener never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	body, _ := json.Marshal(credentialsRequest{Email: testAdminEmail, Password: testAdminPassword})
	loginReq, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/auth/login", bytes.NewReader(body))
	loginReq.Header.Set("Content-Type", "application/json")
	loginReq.Header.Set("X-Device-ID", "tablet-1")
	loginResp, err := http.DefaultClient.Do(loginReq)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	loginResp.Body.Close()

	if ev, data := readEvent(t, events); ev != "redirect" || data != "/home" {
		t.Errorf("event = %s %s, want redirect /home", ev, data)
	}
}

func postForm(t *testing.T, h http.Handler, path, bearer string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+bearer)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestProfileSubmit_CancelRestoresStored tests that cancelling discards the
// posted draft and shows the stored values with the live stream mounted.
func TestProfileSubmit_CancelRestoresStored(t *testing.T) {
	h, sender := newTestHandler(t)
	token := registerMember(t, h, sender)
	doJSON(t, h, http.MethodPut, "/api/profile", token, map[string]string{"name": "Maria da Silva"})

	rec := postForm(t, h, "/profile", token, url.Values{"action": {"cancel"}, "name": {"Rascunho"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Maria da Silva") || strings.Contains(body, "Rascunho") {
		t.Errorf("cancel should show the stored name only")
	}
	if strings.Contains(body, `value="save"`) {
		t.Error("cancel should leave edit mode")
	}
	if !strings.Contains(body, "/api/profile/stream") {
		t.Error("viewing screen should mount the profile stream")
	}

	req := httptest.NewRequest(http.MethodGet, "/profile?edit=1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if strings.Contains(rec.Body.String(), "/api/profile/stream") {
		t.Error("edit screen must not reload on pushed changes")
	}
}

// openEvents opens an event stream with a bearer token.
func openEvents(t *testing.T, ctx context.Context, srv *httptest.Server, path, bearer string) *bufio.Reader {
	t.Helper()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+path, nil)
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open %s: status %d", path, resp.StatusCode)
	}
	return bufio.NewReader(resp.Body)
}

// TestProfileStream_FollowsSavedChanges tests that a save elsewhere reaches
// an open profile screen as a refreshed form.
func TestProfileStream_FollowsSavedChanges(t *testing.T) {
	h, sender := newTestHandler(t)
	token := registerMember(t, h, sender)
	srv := httptest.NewServer(h)
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := openEvents(t, ctx, srv, "/api/profile/stream", token)
	type view struct {
		Loading bool `json:"loading"`
		Form    *struct {
			Name string `json:"name"`
		} `json:"form"`
	}
	next := func() view {
		for {
			ev, data := readEvent(t, events)
			if ev != "state" {
				continue
			}
			var v view
			if err := json.Unmarshal([]byte(data), &v); err != nil {
				t.Fatalf("decode %s: %v", data, err)
			}
			if !v.Loading {
				return v
			}
		}
	}
	if v := next(); v.Form == nil || v.Form.Name != "Maria" {
		t.Fatalf("initial form = %+v", v.Form)
	}

	doJSON(t, h, http.MethodPut, "/api/profile", token, map[string]string{"name": "Maria da Silva"})
	if v := next(); v.Form == nil || v.Form.Name != "Maria da Silva" {
		t.Errorf("form after save = %+v", v.Form)
	}
}

// TestVideoStream_SwitchCategory tests retargeting a mounted catalog stream.
func TestVideoStream_SwitchCategory(t *testing.T) {
	h, _ := newTestHandler(t)
	token := login(t, h, testAdminEmail, testAdminPassword).AccessToken
	doJSON(t, h, http.MethodPost, "/api/videos", token, videoRequest{
		Title: "Estudo de Romanos", URL: "https://youtu.be/xyz789", Category: videoDomain.CategoryGeneral,
	})
	srv := httptest.NewServer(h)
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := openEvents(t, ctx, srv, "/api/videos/stream?category=cultos", token)
	ev, data := readEvent(t, events)
	if ev != "mounted" {
		t.Fatalf("first event = %s %s", ev, data)
	}
	var mounted struct {
		Stream string `json:"stream"`
	}
	json.Unmarshal([]byte(data), &mounted)

	rec := doJSON(t, h, http.MethodPost, "/api/videos/stream/"+mounted.Stream+"/category", token,
		categoryRequest{Category: videoDomain.CategoryGeneral})
	if rec.Code != http.StatusOK {
		t.Fatalf("switch status = %d body %s", rec.Code, rec.Body.String())
	}
	for {
		ev, data := readEvent(t, events)
		if ev != "state" {
			continue
		}
		var st struct {
			Category string              `json:"category"`
			Loading  bool                `json:"loading"`
			Videos   []videoDomain.Video `json:"videos"`
		}
		json.Unmarshal([]byte(data), &st)
		if st.Loading || st.Category != videoDomain.CategoryGeneral {
			continue
		}
		if len(st.Videos) != 1 || st.Videos[0].Title != "Estudo de Romanos" {
			t.Errorf("videos after switch = %+v", st.Videos)
		}
		break
	}

	rec = doJSON(t, h, http.MethodPost, "/api/videos/stream/unknown/category", token,
		categoryRequest{Category: videoDomain.CategoryServices})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown stream status = %d, want 404", rec.Code)
	}
}
