// Package portaudiodev implements microphone capture on top of PortAudio.
package portaudiodev

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"

	"github.com/voxform/voxform/pkg/audio"
)

const framesPerBuffer = 512

// Capture reads PCM16 from the default input device into an internal
// buffer. Rotate drains the buffer into a chunk and keeps recording.
type Capture struct {
	sampleRate int

	mu        sync.Mutex
	stream    *portaudio.Stream
	frames    []int16
	buf       []byte
	seq       int
	capturing bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func New(sampleRate int) *Capture {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	return &Capture{
		sampleRate: sampleRate,
		frames:     make([]int16, framesPerBuffer),
	}
}

func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capturing {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(c.sampleRate), len(c.frames), c.frames)
	if err != nil {
		_ = portaudio.Terminate()
		// Opening the default input device is where the OS permission
		// gate fails.
		return errors.Join(audio.ErrPermissionDenied, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return errors.Join(audio.ErrPermissionDenied, err)
	}
	c.stream = stream
	c.capturing = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.readLoop(stream, c.stopCh, c.doneCh)
	return nil
}

// A stream that keeps failing to read is dead; give up after this many
// consecutive errors instead of spinning.
const maxConsecutiveReadErrors = 50

func (c *Capture) readLoop(stream *portaudio.Stream, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	readErrs := 0
	for {
		select {
		case <-stop:
			return
		default:
		}
		if err := stream.Read(); err != nil {
			readErrs++
			if readErrs >= maxConsecutiveReadErrors {
				return
			}
			select {
			case <-stop:
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}
		readErrs = 0
		c.mu.Lock()
		if !c.capturing {
			c.mu.Unlock()
			return
		}
		for _, sample := range c.frames {
			c.buf = append(c.buf, byte(sample), byte(sample>>8))
		}
		c.mu.Unlock()
	}
}

func (c *Capture) Rotate() (audio.Chunk, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.capturing {
		return audio.Chunk{}, audio.ErrNotCapturing
	}
	pcm := c.buf
	c.buf = nil
	seq := c.seq
	c.seq++
	return audio.Chunk{
		ID:         uuid.NewString(),
		Seq:        seq,
		PCM:        pcm,
		SampleRate: c.sampleRate,
		Channels:   1,
		CapturedAt: time.Now(),
	}, nil
}

func (c *Capture) Stop() error {
	c.mu.Lock()
	if !c.capturing {
		c.mu.Unlock()
		return audio.ErrNotCapturing
	}
	c.capturing = false
	close(c.stopCh)
	stream := c.stream
	done := c.doneCh
	c.stream = nil
	c.buf = nil
	c.mu.Unlock()

	<-done
	_ = stream.Stop()
	_ = stream.Close()
	return portaudio.Terminate()
}
