package form

import "fmt"

// Progress is a snapshot of tracker state. Values never loses a key and
// CurrentIndex only grows.
type Progress struct {
	Fields       []Field
	Values       map[string]string
	CurrentIndex int
	Complete     bool
}

// InvariantViolationError reports a RecordAnswer call with no current
// field. It signals broken control flow in the caller, not bad input.
type InvariantViolationError struct {
	Index  int
	Fields int
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("form: record answer at index %d with only %d fields", e.Index, e.Fields)
}

// Tracker walks an ordered field list exactly once, front to back. It is
// not safe for concurrent use; the session serializes access.
type Tracker struct {
	fields  []Field
	values  map[string]string
	current int
}

func NewTracker(fields []Field) *Tracker {
	owned := make([]Field, len(fields))
	copy(owned, fields)
	return &Tracker{
		fields: owned,
		values: make(map[string]string, len(fields)),
	}
}

// CurrentField returns the field awaiting an answer, or nil when the form
// is complete.
func (t *Tracker) CurrentField() *Field {
	if t.current >= len(t.fields) {
		return nil
	}
	f := t.fields[t.current]
	return &f
}

// RecordAnswer stores the answer for the current field and advances.
func (t *Tracker) RecordAnswer(value string) (Progress, error) {
	if t.current >= len(t.fields) {
		return t.Progress(), &InvariantViolationError{Index: t.current, Fields: len(t.fields)}
	}
	field := t.fields[t.current]
	t.values[field.ID] = Normalize(field.Kind, value)
	t.current++
	return t.Progress(), nil
}

// IsComplete reports whether every field has been answered.
func (t *Tracker) IsComplete() bool {
	return t.current == len(t.fields)
}

// Progress returns a defensive snapshot of the current state.
func (t *Tracker) Progress() Progress {
	values := make(map[string]string, len(t.values))
	for k, v := range t.values {
		values[k] = v
	}
	fields := make([]Field, len(t.fields))
	copy(fields, t.fields)
	return Progress{
		Fields:       fields,
		Values:       values,
		CurrentIndex: t.current,
		Complete:     t.current == len(t.fields),
	}
}
