// Package mock provides an in-memory transport channel for local testing
// and integration. It implements transport.Channel without any network
// dependency.
package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/voxform/voxform/pkg/transport"
	"github.com/voxform/voxform/pkg/wire"
)

type Channel struct {
	// FailOpen makes Open return this error instead of connecting.
	FailOpen error

	events chan transport.Event
	sent   chan wire.Message
	opened atomic.Bool
	closed atomic.Bool
	mu     sync.Mutex
	token  string
}

func New() *Channel {
	return &Channel{
		events: make(chan transport.Event, 256),
		sent:   make(chan wire.Message, 256),
	}
}

func (c *Channel) Open(ctx context.Context, token string) error {
	if c.FailOpen != nil {
		return c.FailOpen
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.opened.Store(true)
	c.events <- transport.Event{Kind: transport.EventOpened}
	return nil
}

func (c *Channel) Send(msg wire.Message) error {
	if !c.opened.Load() || c.closed.Load() {
		return transport.ErrNotConnected
	}
	select {
	case c.sent <- msg:
	default:
	}
	return nil
}

func (c *Channel) Events() <-chan transport.Event { return c.events }

func (c *Channel) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.events <- transport.Event{Kind: transport.EventClosed}
		close(c.events)
	}
	return nil
}

// Push injects an inbound message event.
func (c *Channel) Push(msg wire.Message) {
	if c.closed.Load() {
		return
	}
	c.events <- transport.Event{Kind: transport.EventMessage, Message: msg}
}

// Fail injects an inbound error event, as a socket-level failure would.
func (c *Channel) Fail(err error) {
	if c.closed.Load() {
		return
	}
	c.events <- transport.Event{Kind: transport.EventError, Err: err}
}

// Sent exposes outbound messages for inspection.
func (c *Channel) Sent() <-chan wire.Message { return c.sent }

// Token returns the token the channel was opened with.
func (c *Channel) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Opened reports whether Open succeeded.
func (c *Channel) Opened() bool { return c.opened.Load() }

// Closed reports whether Close was called.
func (c *Channel) Closed() bool { return c.closed.Load() }
