package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/voxform/voxform/pkg/form"
)

func TestJSONLSinkWritesOneLinePerCompletion(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLSink(&buf)

	for _, c := range []Completion{
		{SessionID: "s1", Values: map[string]string{"name": "Jane"}},
		{SessionID: "s2", Values: map[string]string{"name": "Ana", "email": "ana@x.com"}},
	} {
		if err := sink.SaveCompleted(context.Background(), c); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var rec struct {
		SessionID string            `json:"session_id"`
		Values    map[string]string `json:"values"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	if rec.SessionID != "s2" || rec.Values["email"] != "ana@x.com" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestFromProgressCopiesValues(t *testing.T) {
	tr := form.NewTracker([]form.Field{{ID: "name", Kind: form.KindText}})
	p, err := tr.RecordAnswer("Jane")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	c := FromProgress("s1", p)
	c.Values["name"] = "tampered"
	if p.Values["name"] != "Jane" {
		t.Fatalf("completion mutation leaked into progress")
	}
}
