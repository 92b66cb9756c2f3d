package session

import (
	"context"
	"sync"
)

// Redirect targets of the navigation gate.
const (
	HomePath  = "/home"
	LoginPath = "/login"
)

// Navigator moves the client to another screen.
type Navigator interface {
	Redirect(path string)
}

// Subscriber opens auth-state subscriptions.
type Subscriber interface {
	Subscribe(device string) (<-chan AuthEvent, func())
}

// Context holds the identity of one device and keeps it current.
// Failures never surface as errors: an unknown identity is simply signed out.
type Context struct {
	device string

	mu       sync.RWMutex
	identity *Identity
}

// NewContext creates a context for device with the identity known at mount time.
func NewContext(device string, initial *Identity) *Context {
	return &Context{device: device, identity: initial}
}

// SetAuth replaces the identity; nil signs out.
func (c *Context) SetAuth(id *Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = id
}

// Current returns the identity, or nil when signed out.
func (c *Context) Current() *Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// SignedIn reports whether an identity is present.
func (c *Context) SignedIn() bool {
	return c.Current() != nil
}

// Listen subscribes once to the device's auth-state changes. Each change
// replaces the identity and redirects: sign-in to HomePath, sign-out to LoginPath.
// PRE: none
// POST: returns after ctx ends; the subscription is released
func (c *Context) Listen(ctx context.Context, sub Subscriber, nav Navigator) {
	events, cancel := sub.Subscribe(c.device)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.apply(ev, nav)
		}
	}
}

func (c *Context) apply(ev AuthEvent, nav Navigator) {
	switch ev.Type {
	case SignedIn:
		c.SetAuth(ev.Identity)
		nav.Redirect(HomePath)
	case SignedOut:
		c.SetAuth(nil)
		nav.Redirect(LoginPath)
	}
}
