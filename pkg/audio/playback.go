package audio

// Playback owns at most one active playback. Play stops and releases any
// prior in-flight playback before starting the new one, then returns
// without waiting; done is invoked exactly once when the playback finishes
// or is stopped.
type Playback interface {
	Play(data []byte, done func()) error
	Stop() error
}
