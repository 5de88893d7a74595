package session

import "strings"

// answerAggregator assembles response.chunk transcript deltas into one
// spoken answer. Deltas carry their own spacing, so they are concatenated
// verbatim; inserting separators would corrupt an answer split mid-word.
// Only the session loop touches it, so it needs no lock.
type answerAggregator struct {
	sb strings.Builder
}

func (a *answerAggregator) Add(delta string) {
	a.sb.WriteString(delta)
}

// Flush returns the assembled answer and resets for the next field.
func (a *answerAggregator) Flush() string {
	out := strings.TrimSpace(a.sb.String())
	a.sb.Reset()
	return out
}

func (a *answerAggregator) Empty() bool {
	return a.sb.Len() == 0
}
