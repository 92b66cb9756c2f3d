package live

import (
	"context"
	"log/slog"
	"sync"

	"congregation/internal/adapters/metrics"
	"congregation/internal/adapters/realtime"
	"congregation/internal/application/session"
	"congregation/internal/domain/change"
	"congregation/internal/domain/profile"
)

// IdentityResolver reports who is signed in. session.Context implements it.
type IdentityResolver interface {
	Current() *session.Identity
}

// ProfileFetcher reads one profile record.
type ProfileFetcher interface {
	GetByID(ctx context.Context, id string) (profile.Profile, error)
}

// ProfileState is what the profile screen renders.
type ProfileState struct {
	Profile *profile.Profile `json:"profile"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
}

// ProfileSync keeps the signed-in member's profile current.
type ProfileSync struct {
	resolver IdentityResolver
	store    ProfileFetcher
	feed     realtime.Subscriber
	cell     *cell[ProfileState]

	mu     sync.Mutex
	sub    *realtime.Subscription
	cancel context.CancelFunc
	once   sync.Once
	wg     sync.WaitGroup
}

// NewProfileSync creates an unmounted hook in the loading state.
func NewProfileSync(resolver IdentityResolver, store ProfileFetcher, feed realtime.Subscriber) *ProfileSync {
	return &ProfileSync{
		resolver: resolver,
		store:    store,
		feed:     feed,
		cell:     newCell(ProfileState{Loading: true}),
	}
}

// Start mounts the hook. Without an identity the hook goes idle: not loading,
// no profile, no subscription. Otherwise it fetches the record and refetches
// it on every change to that row.
// PRE: called once
// POST: returns without waiting for the first fetch
func (h *ProfileSync) Start(ctx context.Context) {
	id := h.resolver.Current()
	if id == nil || id.AccountID == "" {
		h.cell.apply(h.cell.begin(), func(s *ProfileState) { *s = ProfileState{} })
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := h.feed.Subscribe(ctx, change.Filter{Table: profile.Table, RecordID: id.AccountID})

	h.mu.Lock()
	if !h.cell.isAlive() {
		h.mu.Unlock()
		cancel()
		sub.Close()
		return
	}
	h.sub, h.cancel = sub, cancel
	h.mu.Unlock()
	metrics.HooksMounted.WithLabelValues("profile").Inc()

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		h.fetch(ctx, id.AccountID)
	}()
	go func() {
		defer h.wg.Done()
		for range sub.C {
			h.fetch(ctx, id.AccountID)
		}
	}()
}

// fetch reads the record and replaces the profile wholesale. A failed read
// keeps the last profile and reports the error.
func (h *ProfileSync) fetch(ctx context.Context, id string) {
	seq := h.cell.begin()
	p, err := h.store.GetByID(ctx, id)
	applied := h.cell.apply(seq, func(s *ProfileState) {
		s.Loading = false
		if err != nil {
			s.Error = err.Error()
			return
		}
		s.Profile = &p
		s.Error = ""
	})
	if err != nil && applied {
		slog.Warn("profile_sync_failed", "account_id", id, "error", err)
	}
}

// State returns the current snapshot.
func (h *ProfileSync) State() ProfileState { return h.cell.get() }

// Updates delivers snapshots after every applied write. A slow reader only
// sees the latest one. Closed by Close.
func (h *ProfileSync) Updates() <-chan ProfileState { return h.cell.updates }

// Close unmounts the hook. Reads still in flight complete but their results
// are discarded. Idempotent.
func (h *ProfileSync) Close() {
	h.once.Do(func() {
		h.cell.kill()
		h.mu.Lock()
		sub, cancel := h.sub, h.cancel
		h.mu.Unlock()
		if sub == nil {
			return
		}
		cancel()
		sub.Close()
		metrics.HooksMounted.WithLabelValues("profile").Dec()
	})
}

// Wait blocks until every goroutine started by Start has returned.
func (h *ProfileSync) Wait() { h.wg.Wait() }
