// Package session drives one voice-guided form-filling run: it owns the
// transport channel, the capture and playback units, and the form tracker,
// and is the only place where transitions have side effects.
package session

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateListening
	StateSpeaking
	StateError
	StateClosed
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateListening:
		return "LISTENING"
	case StateSpeaking:
		return "SPEAKING"
	case StateError:
		return "ERROR"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions can leave s.
func (s State) Terminal() bool {
	return s == StateClosed
}
