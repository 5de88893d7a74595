package audio

import "errors"

// ErrPermissionDenied is returned by Capture.Start when the OS refuses
// microphone access. This ends the session; there is no retry without a
// new permission grant.
var ErrPermissionDenied = errors.New("audio: microphone permission denied")

// ErrNotCapturing is returned by Rotate and Stop when no recording is
// active.
var ErrNotCapturing = errors.New("audio: capture not started")

// Capture owns the microphone resource. Rotate finalizes the current
// recording, returns it as a chunk with a monotonically increasing Seq,
// and atomically begins the next recording. The rotation cadence is chosen
// by the caller, not the unit.
type Capture interface {
	Start() error
	Rotate() (Chunk, error)
	Stop() error
}
