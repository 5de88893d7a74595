package metrics

import (
	"sync"
	"sync/atomic"
)

// AsyncObserver decouples the session loop from slow sinks. RecordEvent
// never blocks: events queue into a buffer and overflow is counted and
// dropped. Close stops intake and delivers everything already queued
// before returning, so shutdown does not lose the tail of a session.
type AsyncObserver struct {
	inner   Observer
	queue   chan Event
	flushed chan struct{}
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

func NewAsyncObserver(inner Observer, buffer int) *AsyncObserver {
	if buffer <= 0 {
		buffer = 256
	}
	a := &AsyncObserver{
		inner:   inner,
		queue:   make(chan Event, buffer),
		flushed: make(chan struct{}),
	}
	go a.deliver()
	return a
}

func (a *AsyncObserver) RecordEvent(ev Event) {
	if a == nil {
		return
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- ev:
	default:
		a.dropped.Add(1)
	}
}

// Dropped reports how many events overflowed the buffer.
func (a *AsyncObserver) Dropped() int64 {
	return a.dropped.Load()
}

// Close drains queued events into the inner observer and returns once
// delivery finishes. Events recorded after Close are discarded.
func (a *AsyncObserver) Close() {
	if a == nil {
		return
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	close(a.queue)
	<-a.flushed
}

func (a *AsyncObserver) deliver() {
	for ev := range a.queue {
		a.inner.RecordEvent(ev)
	}
	close(a.flushed)
}
