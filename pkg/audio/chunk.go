// Package audio defines the capture, playback, and codec boundary for a
// voice session. Implementations own the device lifecycle; policy (rotation
// cadence, when playback starts) belongs to the session layer.
package audio

import "time"

// Chunk is one discrete unit of captured audio. Ownership transfers to the
// caller when a capture unit returns it; it is never mutated afterwards.
type Chunk struct {
	ID         string
	Seq        int
	PCM        []byte
	SampleRate int
	Channels   int
	CapturedAt time.Time
}

// DefaultSampleRate is the capture rate used when a device does not pick
// its own.
const DefaultSampleRate = 16000
