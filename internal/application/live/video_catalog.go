package live

import (
	"context"
	"log/slog"
	"sync"

	"congregation/internal/adapters/metrics"
	"congregation/internal/adapters/realtime"
	"congregation/internal/domain/change"
	"congregation/internal/domain/video"
)

// VideoLister queries the catalog. An empty category lists every video.
type VideoLister interface {
	List(ctx context.Context, category string) ([]video.Video, error)
}

// CatalogState is what a video list screen renders.
type CatalogState struct {
	Category string        `json:"category"`
	Videos   []video.Video `json:"videos"`
	Loading  bool          `json:"loading"`
	Error    string        `json:"error,omitempty"`
}

// VideoCatalog keeps one category's video list current. Any write to the
// videos table triggers a full refetch, whatever category it touched.
type VideoCatalog struct {
	store VideoLister
	feed  realtime.Subscriber
	cell  *cell[CatalogState]

	mu       sync.Mutex
	category string
	sub      *realtime.Subscription
	cancel   context.CancelFunc
	once     sync.Once
	wg       sync.WaitGroup
}

// NewVideoCatalog creates an unmounted catalog for category.
func NewVideoCatalog(store VideoLister, feed realtime.Subscriber, category string) *VideoCatalog {
	return &VideoCatalog{
		store:    store,
		feed:     feed,
		category: category,
		cell:     newCell(CatalogState{Category: category, Videos: []video.Video{}, Loading: true}),
	}
}

// Start mounts the catalog: the first Refresh runs before Start returns, then
// every change to the videos table refreshes again.
// PRE: called once
func (c *VideoCatalog) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	sub := c.feed.Subscribe(ctx, change.Filter{Table: video.Table})

	c.mu.Lock()
	if !c.cell.isAlive() {
		c.mu.Unlock()
		cancel()
		sub.Close()
		return
	}
	c.sub, c.cancel = sub, cancel
	c.mu.Unlock()
	metrics.HooksMounted.WithLabelValues("catalog").Inc()

	c.Refresh(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for range sub.C {
			c.Refresh(ctx)
		}
	}()
}

// Refresh queries the catalog for the current category, newest first.
// INVARIANT: a refresh that read an older category holds an older sequence
// number, so it never overwrites a refresh for the current one.
// POST: Loading is false; Videos replaced on success, Error set on failure
func (c *VideoCatalog) Refresh(ctx context.Context) {
	c.mu.Lock()
	category := c.category
	seq := c.cell.begin()
	c.mu.Unlock()

	c.cell.apply(seq, func(s *CatalogState) { s.Loading = true })

	videos, err := c.store.List(ctx, category)
	c.cell.apply(seq, func(s *CatalogState) {
		s.Category = category
		s.Loading = false
		if err != nil {
			s.Error = err.Error()
			return
		}
		s.Videos = videos
		s.Error = ""
	})
	if err != nil {
		slog.Warn("catalog_refresh_failed", "category", category, "error", err)
	}
}

// SetCategory switches the filter and refreshes when it changed.
func (c *VideoCatalog) SetCategory(ctx context.Context, category string) {
	c.mu.Lock()
	if c.category == category {
		c.mu.Unlock()
		return
	}
	c.category = category
	c.mu.Unlock()
	c.Refresh(ctx)
}

// State returns the current snapshot.
func (c *VideoCatalog) State() CatalogState { return c.cell.get() }

// Updates delivers snapshots after every applied write, coalescing for slow
// readers. Closed by Close.
func (c *VideoCatalog) Updates() <-chan CatalogState { return c.cell.updates }

// Close tears down the subscription. A refresh still in flight completes but
// its result is discarded. Idempotent.
func (c *VideoCatalog) Close() {
	c.once.Do(func() {
		c.cell.kill()
		c.mu.Lock()
		sub, cancel := c.sub, c.cancel
		c.mu.Unlock()
		if sub == nil {
			return
		}
		cancel()
		sub.Close()
		metrics.HooksMounted.WithLabelValues("catalog").Dec()
	})
}

// Wait blocks until the refresh loop started by Start has returned.
func (c *VideoCatalog) Wait() { c.wg.Wait() }
