// Package redact strips PII from text before it reaches logs. Form
// answers routinely contain emails and phone numbers, so redaction is on
// by default and toggled globally.
package redact

import (
	"regexp"
	"strings"
	"sync/atomic"
)

var disabled atomic.Bool

var (
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phoneRe = regexp.MustCompile(`\b\+?\d[\d\s\-]{5,}\d\b`)
)

// SetEnabled toggles PII redaction.
func SetEnabled(v bool) {
	disabled.Store(!v)
}

// Enabled returns true when redaction is active.
func Enabled() bool {
	return !disabled.Load()
}

// Text redacts emails and phone numbers when enabled.
func Text(in string) string {
	if disabled.Load() || strings.TrimSpace(in) == "" {
		return in
	}
	out := emailRe.ReplaceAllString(in, "[REDACTED_EMAIL]")
	out = phoneRe.ReplaceAllString(out, "[REDACTED_PHONE]")
	return out
}

// Answer redacts a recorded form answer for logging, keyed by field id so
// operators can still correlate entries.
func Answer(fieldID, value string) string {
	if disabled.Load() {
		return value
	}
	return fieldID + "=" + Text(value)
}
