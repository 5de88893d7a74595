package observers

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/voxform/voxform/pkg/metrics"
	"github.com/voxform/voxform/pkg/redact"
)

func TestLoggerObserverRedactsAnswerText(t *testing.T) {
	redact.SetEnabled(true)
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	o := NewLoggerObserver(log)
	o.RecordEvent(metrics.Event{
		Name: metrics.EventAnswerRecorded,
		Time: time.Now(),
		Tags: map[string]string{"session_id": "s-1"},
		Fields: map[string]any{
			"field":  "email",
			"answer": "jane@x.com",
		},
	})

	out := buf.String()
	if strings.Contains(out, "jane@x.com") {
		t.Fatalf("answer leaked into log: %s", out)
	}
	if !strings.Contains(out, "[REDACTED_EMAIL]") {
		t.Fatalf("missing redaction marker: %s", out)
	}
	if !strings.Contains(out, `"level":"INFO"`) {
		t.Fatalf("answer_recorded should log at info: %s", out)
	}
}

func TestLoggerObserverSeverityByEvent(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	o := NewLoggerObserver(log)

	o.RecordEvent(metrics.Event{Name: metrics.EventSessionError, Time: time.Now()})
	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Fatalf("session_error should log at error: %s", buf.String())
	}

	buf.Reset()
	o.RecordEvent(metrics.Event{Name: metrics.EventChunkSent, Time: time.Now()})
	if !strings.Contains(buf.String(), `"level":"DEBUG"`) {
		t.Fatalf("audio_chunk_sent should log at debug: %s", buf.String())
	}
}
