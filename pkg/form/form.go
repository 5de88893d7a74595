// Package form holds the pure progress state of a voice-filled form:
// ordered fields, collected values, and the completion flag. Nothing in
// this package performs I/O.
package form

import "strings"

// Kind classifies what a field expects as an answer.
type Kind string

const (
	KindText   Kind = "text"
	KindEmail  Kind = "email"
	KindPhone  Kind = "phone"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
)

// Field is one question/answer slot. Immutable once the form is loaded.
type Field struct {
	ID    string `json:"id" mapstructure:"id"`
	Label string `json:"label" mapstructure:"label"`
	Kind  Kind   `json:"kind" mapstructure:"kind"`
}

// Normalize cleans a spoken answer for storage. Unknown kinds pass
// through trimmed; normalization never rejects an answer.
func Normalize(kind Kind, value string) string {
	value = strings.TrimSpace(value)
	switch kind {
	case KindEmail:
		return strings.ToLower(value)
	case KindPhone, KindNumber:
		return strings.Join(strings.Fields(value), " ")
	default:
		return value
	}
}
