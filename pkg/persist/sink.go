// Package persist is the boundary to whatever stores completed forms.
// The session hands over the final values exactly once; storage format is
// the collaborator's concern.
package persist

import (
	"context"

	"github.com/voxform/voxform/pkg/form"
)

// Completion is the terminal output of one session.
type Completion struct {
	SessionID string            `json:"session_id"`
	Values    map[string]string `json:"values"`
}

// Sink consumes the final values of a completed form.
type Sink interface {
	SaveCompleted(ctx context.Context, c Completion) error
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, c Completion) error

func (f Func) SaveCompleted(ctx context.Context, c Completion) error {
	return f(ctx, c)
}

// FromProgress builds a completion record from finished form progress.
func FromProgress(sessionID string, p form.Progress) Completion {
	values := make(map[string]string, len(p.Values))
	for k, v := range p.Values {
		values[k] = v
	}
	return Completion{SessionID: sessionID, Values: values}
}
