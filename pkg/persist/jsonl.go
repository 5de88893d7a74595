package persist

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/voxform/voxform/pkg/errorsx"
)

// JSONLSink appends one JSON line per completed form. Writes are
// serialized so concurrent sessions cannot interleave records.
type JSONLSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{w: w}
}

func (s *JSONLSink) SaveCompleted(_ context.Context, c Completion) error {
	record := struct {
		Completion
		CompletedAt time.Time `json:"completed_at"`
	}{Completion: c, CompletedAt: time.Now().UTC()}

	raw, err := json.Marshal(record)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonPersist)
	}
	raw = append(raw, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(raw); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonPersist)
	}
	return nil
}
