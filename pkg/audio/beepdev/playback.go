// Package beepdev implements speaker playback of synthesized speech using
// the beep speaker. Inbound audio is expected to be an MP3 stream.
package beepdev

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Playback plays one stream at a time through the default speaker. Starting
// a new playback clears the speaker first, so at most one playback is ever
// active.
type Playback struct {
	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
	current     func()
	generation  int
}

func New() *Playback {
	return &Playback{}
}

func (p *Playback) Play(data []byte, done func()) error {
	streamer, format, err := mp3.Decode(nopCloser{bytes.NewReader(data)})
	if err != nil {
		return fmt.Errorf("beepdev: decode playback data: %w", err)
	}

	p.mu.Lock()
	if !p.initialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			p.mu.Unlock()
			return fmt.Errorf("beepdev: init speaker: %w", err)
		}
		p.initialized = true
		p.sampleRate = format.SampleRate
	}

	// Release any playback still in flight before starting the new one.
	speaker.Clear()
	prior := p.current
	p.generation++
	gen := p.generation
	p.current = done
	p.mu.Unlock()

	if prior != nil {
		prior()
	}

	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		p.finish(gen)
	})))
	return nil
}

func (p *Playback) Stop() error {
	p.mu.Lock()
	if !p.initialized {
		p.mu.Unlock()
		return nil
	}
	speaker.Clear()
	prior := p.current
	p.current = nil
	p.mu.Unlock()
	if prior != nil {
		prior()
	}
	return nil
}

func (p *Playback) finish(gen int) {
	p.mu.Lock()
	if gen != p.generation || p.current == nil {
		p.mu.Unlock()
		return
	}
	done := p.current
	p.current = nil
	p.mu.Unlock()
	done()
}

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }
