// Package metrics collects session telemetry: state dwell times, chunk
// counts, and answer latencies. Observers receive events; they must not
// block the session loop.
package metrics

import "time"

// Event names emitted by the session layer.
const (
	EventStateChange    = "session_state_change"
	EventChunkSent      = "audio_chunk_sent"
	EventAnswerRecorded = "answer_recorded"
	EventPlaybackStart  = "playback_start"
	EventFormComplete   = "form_complete"
	EventSessionError   = "session_error"
)

type Event struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev Event)
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(Event) {}
