// Package transport provides the bidirectional, message-framed connection
// to the realtime backend. All inbound activity surfaces as a single
// ordered event stream consumed by one goroutine.
package transport

import (
	"context"
	"errors"

	"github.com/voxform/voxform/pkg/wire"
)

// ErrNotConnected is returned by Send before Open succeeds or after the
// channel closes.
var ErrNotConnected = errors.New("transport: not connected")

type EventKind int

const (
	EventOpened EventKind = iota
	EventMessage
	EventError
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is one entry in the channel's ordered inbound stream. Message is
// set for EventMessage; Err for EventError.
type Event struct {
	Kind    EventKind
	Message wire.Message
	Err     error
}

// Channel is a full-duplex framed connection. Both directions are FIFO,
// but consecutive sends carry no cross-message atomicity: the backend may
// observe a commit arbitrarily after the append sent just before it.
type Channel interface {
	Open(ctx context.Context, token string) error
	Send(msg wire.Message) error
	Events() <-chan Event
	Close() error
}
