// Package token acquires the ephemeral credential that authenticates the
// realtime transport connection. The credential is issued by an external
// backend and fetched once per session.
package token

import (
	"context"
	"time"
)

// Token is a short-lived transport credential.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is already past its expiry.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// Provider issues ephemeral tokens. A failure here is fatal for the
// session being started.
type Provider interface {
	EphemeralToken(ctx context.Context) (Token, error)
}

// Static returns the same token on every call. Useful for tests and local
// development against unauthenticated backends.
type Static struct {
	Token Token
}

func (s Static) EphemeralToken(context.Context) (Token, error) {
	return s.Token, nil
}
