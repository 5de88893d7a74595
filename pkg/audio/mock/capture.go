// Package mock provides in-memory capture and playback devices for local
// testing and integration. They implement the audio interfaces without any
// hardware dependency.
package mock

import (
	"fmt"
	"sync"
	"time"

	"github.com/voxform/voxform/pkg/audio"
)

// Capture is a scripted microphone. Each Rotate returns a deterministic
// PCM chunk with the next sequence number.
type Capture struct {
	DenyPermission bool

	mu        sync.Mutex
	capturing bool
	seq       int
	rotations int
	stops     int
}

func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) Start() error {
	if c.DenyPermission {
		return audio.ErrPermissionDenied
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capturing = true
	return nil
}

func (c *Capture) Rotate() (audio.Chunk, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.capturing {
		return audio.Chunk{}, audio.ErrNotCapturing
	}
	seq := c.seq
	c.seq++
	c.rotations++
	pcm := make([]byte, 320)
	for i := range pcm {
		pcm[i] = byte(seq)
	}
	return audio.Chunk{
		ID:         fmt.Sprintf("mock-chunk-%d", seq),
		Seq:        seq,
		PCM:        pcm,
		SampleRate: audio.DefaultSampleRate,
		Channels:   1,
		CapturedAt: time.Now(),
	}, nil
}

func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.capturing {
		return audio.ErrNotCapturing
	}
	c.capturing = false
	c.stops++
	return nil
}

// Capturing reports whether the microphone is currently recording.
func (c *Capture) Capturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capturing
}

// Rotations returns how many chunks have been produced.
func (c *Capture) Rotations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotations
}
