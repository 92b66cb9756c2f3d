package session

import (
	"sync"
)

// EventType is the kind of auth-state change.
type EventType string

const (
	SignedIn  EventType = "signed_in"
	SignedOut EventType = "signed_out"
)

// Identity is who is signed in on a device.
type Identity struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// AuthEvent is one auth-state notification. Identity is nil on sign-out.
type AuthEvent struct {
	Type     EventType
	Identity *Identity
}

// Publisher reports auth-state changes for a device.
type Publisher interface {
	Publish(device string, ev AuthEvent)
}

// Notifier fans auth-state changes out to the listeners of a device.
// A device is the browser or app install, identified by a long-lived cookie,
// so a sign-in reaches listeners that started before any session existed.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[int]chan AuthEvent
	next int
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[int]chan AuthEvent)}
}

// Subscribe registers a listener for device. The returned cancel func
// unregisters it and closes the channel; it is safe to call more than once.
func (n *Notifier) Subscribe(device string) (<-chan AuthEvent, func()) {
	ch := make(chan AuthEvent, 4)

	n.mu.Lock()
	id := n.next
	n.next++
	if n.subs[device] == nil {
		n.subs[device] = make(map[int]chan AuthEvent)
	}
	n.subs[device][id] = ch
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs[device], id)
			if len(n.subs[device]) == 0 {
				delete(n.subs, device)
			}
			close(ch)
		})
	}
}

// Publish delivers ev to every listener of device without blocking.
// A listener with a full buffer misses the event.
func (n *Notifier) Publish(device string, ev AuthEvent) {
	if device == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs[device] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Listeners returns the number of open listeners for device.
func (n *Notifier) Listeners(device string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[device])
}
