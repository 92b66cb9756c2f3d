package realtime

import (
	"context"
	"sync"
	"time"

	"congregation/internal/adapters/metrics"
	"congregation/internal/domain/change"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// Publisher is implemented by anything stores can report writes to.
type Publisher interface {
	Publish(c change.Change)
}

// Subscriber opens filtered change subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, filter change.Filter) *Subscription
}

// Subscription is one open listener on the feed.
// C is closed when the subscription ends.
type Subscription struct {
	C <-chan change.Change

	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

// Close ends the subscription and waits until C is closed. Idempotent.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

type subscriber struct {
	filter change.Filter
	ch     chan change.Change
}

// Feed fans out row-level changes to every matching subscriber.
// Publish never blocks: a subscriber whose buffer is full misses the change.
type Feed struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	next   int
	buffer int
	now    func() time.Time
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		subs:   make(map[int]*subscriber),
		buffer: DefaultBuffer,
		now:    time.Now,
	}
}

// Subscribe registers a listener for changes matching filter.
// The subscription ends when ctx is done or Close is called.
func (f *Feed) Subscribe(ctx context.Context, filter change.Filter) *Subscription {
	ch := make(chan change.Change, f.buffer)
	ctx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = &subscriber{filter: filter, ch: ch}
	f.mu.Unlock()
	metrics.FeedSubscribers.Inc()

	sub := &Subscription{C: ch, cancel: cancel, done: make(chan struct{})}
	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, id)
		close(ch)
		f.mu.Unlock()
		metrics.FeedSubscribers.Dec()
		close(sub.done)
	}()
	return sub
}

// Publish delivers c to every matching subscriber.
func (f *Feed) Publish(c change.Change) {
	metrics.FeedPublished.WithLabelValues(c.Table, string(c.Type)).Inc()
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, s := range f.subs {
		if !s.filter.Matches(c) {
			continue
		}
		select {
		case s.ch <- c:
		default:
			metrics.FeedDropped.Inc()
		}
	}
}

// Notify builds and publishes a change stamped with the current time.
func (f *Feed) Notify(table string, typ change.Type, recordID string, row any) {
	f.Publish(change.New(table, typ, recordID, row, f.now()))
}

// Count returns the number of open subscriptions.
func (f *Feed) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
