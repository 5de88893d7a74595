// Package observers provides the metrics sinks used by a running client:
// structured logs and per-session timeline artifacts.
package observers

import (
	"context"
	"log/slog"

	"github.com/voxform/voxform/pkg/metrics"
	"github.com/voxform/voxform/pkg/redact"
)

// LoggerObserver writes session telemetry to the structured log. Severity
// follows the event: session failures log as errors, progress milestones
// as info, and per-chunk noise as debug. Answer text is redacted before
// it reaches the log.
type LoggerObserver struct {
	log *slog.Logger
}

func NewLoggerObserver(log *slog.Logger) *LoggerObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LoggerObserver{log: log}
}

func (o *LoggerObserver) RecordEvent(ev metrics.Event) {
	attrs := make([]slog.Attr, 0, 2+len(ev.Tags)+len(ev.Fields))
	attrs = append(attrs, slog.Time("at", ev.Time))
	if ev.Value != 0 {
		attrs = append(attrs, slog.Float64("value", ev.Value))
	}
	for k, v := range ev.Tags {
		attrs = append(attrs, slog.String(k, v))
	}
	for k, v := range ev.Fields {
		if s, ok := v.(string); ok {
			attrs = append(attrs, slog.String(k, redact.Text(s)))
			continue
		}
		attrs = append(attrs, slog.Any(k, v))
	}
	o.log.LogAttrs(context.Background(), eventLevel(ev.Name), ev.Name, attrs...)
}

func eventLevel(name string) slog.Level {
	switch name {
	case metrics.EventSessionError:
		return slog.LevelError
	case metrics.EventFormComplete, metrics.EventAnswerRecorded:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

type MultiObserver struct {
	list []metrics.Observer
}

func NewMultiObserver(list ...metrics.Observer) *MultiObserver {
	return &MultiObserver{list: list}
}

func (m *MultiObserver) RecordEvent(ev metrics.Event) {
	for _, obs := range m.list {
		if obs != nil {
			obs.RecordEvent(ev)
		}
	}
}
