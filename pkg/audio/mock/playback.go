package mock

import (
	"sync"
)

// Playback tracks playback starts and enforces visibility into the
// single-active invariant: MaxActive records the highest number of
// simultaneously active playbacks ever observed.
type Playback struct {
	// AutoComplete fires the done callback synchronously from Play.
	AutoComplete bool

	mu        sync.Mutex
	active    int
	maxActive int
	played    [][]byte
	pending   []func()
}

func NewPlayback() *Playback {
	return &Playback{}
}

func (p *Playback) Play(data []byte, done func()) error {
	p.mu.Lock()
	// The contract requires stopping any prior playback first.
	prior := p.pending
	p.pending = nil
	p.active = 0

	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.played = append(p.played, data)
	auto := p.AutoComplete
	if !auto && done != nil {
		p.pending = append(p.pending, done)
	}
	p.mu.Unlock()

	for _, fn := range prior {
		fn()
	}
	if auto {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
		if done != nil {
			done()
		}
	}
	return nil
}

func (p *Playback) Stop() error {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.active = 0
	p.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
	return nil
}

// Complete finishes the current playback, firing its done callback.
func (p *Playback) Complete() {
	p.Stop()
}

// Played returns all payloads handed to Play, in order.
func (p *Playback) Played() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.played))
	copy(out, p.played)
	return out
}

// MaxActive reports the peak number of concurrently active playbacks.
func (p *Playback) MaxActive() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxActive
}

// Active reports whether a playback is currently in flight.
func (p *Playback) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active > 0
}
