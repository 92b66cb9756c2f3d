package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"congregation/internal/adapters/email"
	"congregation/internal/application/session"
	"congregation/internal/domain/account"
	"congregation/internal/domain/audit"
	"congregation/internal/domain/profile"
	"congregation/internal/domain/video"
)

var testTime = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func testNow() time.Time { return testTime }

// sequentialIDs returns a generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var errNotFound = errors.New("not found")

// mockAccountStore implements every account store interface the orchestrators use.
type mockAccountStore struct {
	accounts map[string]account.Account
	tokens   map[string]account.ConfirmationToken
	saveErr  error
	saves    int
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{
		accounts: make(map[string]account.Account),
		tokens:   make(map[string]account.ConfirmationToken),
	}
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return account.Account{}, errNotFound
	}
	return a, nil
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return account.Account{}, errNotFound
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountStore) Delete(_ context.Context, id string) error {
	delete(m.accounts, id)
	return nil
}

func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

func (m *mockAccountStore) SaveConfirmationToken(_ context.Context, t account.ConfirmationToken) error {
	m.tokens[t.Token] = t
	return nil
}

func (m *mockAccountStore) GetConfirmationToken(_ context.Context, token string) (account.ConfirmationToken, error) {
	t, ok := m.tokens[token]
	if !ok {
		return account.ConfirmationToken{}, errNotFound
	}
	return t, nil
}

func (m *mockAccountStore) InvalidateTokensForAccount(_ context.Context, accountID string) error {
	for k, t := range m.tokens {
		if t.AccountID == accountID {
			t.Used = true
			m.tokens[k] = t
		}
	}
	return nil
}

// mockProfileStore records created and saved profiles.
type mockProfileStore struct {
	profiles  map[string]profile.Profile
	saveErr   error
	createErr error
	saves     int
}

func newMockProfileStore() *mockProfileStore {
	return &mockProfileStore{profiles: make(map[string]profile.Profile)}
}

func (m *mockProfileStore) GetByID(_ context.Context, id string) (profile.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return profile.Profile{}, errNotFound
	}
	return p, nil
}

func (m *mockProfileStore) Create(_ context.Context, p profile.Profile) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.profiles[p.ID] = p
	return nil
}

func (m *mockProfileStore) Save(_ context.Context, p profile.Profile) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.profiles[p.ID] = p
	return nil
}

// mockSender records sent emails.
type mockSender struct {
	sent []email.SendRequest
	err  error
}

func (m *mockSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	m.sent = append(m.sent, req)
	if m.err != nil {
		return email.SendResult{}, m.err
	}
	return email.SendResult{MessageID: "m-1", SentAt: testTime}, nil
}

// mockVideoStore counts calls so tests can assert no write happened.
type mockVideoStore struct {
	videos  map[string]video.Video
	inserts int
	updates int
	deletes int
	err     error
}

func newMockVideoStore() *mockVideoStore {
	return &mockVideoStore{videos: make(map[string]video.Video)}
}

func (m *mockVideoStore) Insert(_ context.Context, v video.Video) (video.Video, error) {
	m.inserts++
	if m.err != nil {
		return video.Video{}, m.err
	}
	v.ID = fmt.Sprintf("v-%d", m.inserts)
	v.CreatedAt = testTime
	m.videos[v.ID] = v
	return v, nil
}

func (m *mockVideoStore) Update(_ context.Context, id string, patch video.Patch) (video.Video, error) {
	m.updates++
	if m.err != nil {
		return video.Video{}, m.err
	}
	v, ok := m.videos[id]
	if !ok {
		return video.Video{}, video.ErrNotFound
	}
	patch.Apply(&v)
	m.videos[id] = v
	return v, nil
}

func (m *mockVideoStore) Delete(_ context.Context, id string) error {
	m.deletes++
	if m.err != nil {
		return m.err
	}
	delete(m.videos, id)
	return nil
}

// mockRevoker fails on demand.
type mockRevoker struct {
	revoked []string
	err     error
}

func (m *mockRevoker) Revoke(_ context.Context, token string) error {
	m.revoked = append(m.revoked, token)
	return m.err
}

// mockEvents records published auth events.
type mockEvents struct {
	mu     sync.Mutex
	events map[string][]session.AuthEvent
}

func (m *mockEvents) Publish(device string, ev session.AuthEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events == nil {
		m.events = make(map[string][]session.AuthEvent)
	}
	m.events[device] = append(m.events[device], ev)
}

// mockAudit records activity log entries.
type mockAudit struct {
	events []audit.Event
	err    error
}

func (m *mockAudit) Save(_ context.Context, e audit.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}
