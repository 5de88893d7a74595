package voxform

import (
	"context"
	"testing"
	"time"

	audiomock "github.com/voxform/voxform/pkg/audio/mock"
	"github.com/voxform/voxform/pkg/errorsx"
	"github.com/voxform/voxform/pkg/form"
	"github.com/voxform/voxform/pkg/session"
	"github.com/voxform/voxform/pkg/token"
	"github.com/voxform/voxform/pkg/transport"
	transportmock "github.com/voxform/voxform/pkg/transport/mock"
)

func newMockSession(t *testing.T, capture *audiomock.Capture) *session.Session {
	t.Helper()
	ch := transportmock.New()
	s, err := session.New(session.Deps{
		NewChannel: func() transport.Channel { return ch },
		Capture:    capture,
		Playback:   audiomock.NewPlayback(),
		Tokens:     token.Static{Token: token.Token{Value: "t"}},
		Fields: []form.Field{
			{ID: "full_name", Label: "Full name", Kind: form.KindText},
		},
	}, session.Options{RotateInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestAwaitSessionSurfacesAsyncFatalError(t *testing.T) {
	capture := audiomock.NewCapture()
	capture.DenyPermission = true
	s := newMockSession(t, capture)

	// The permission check happens after the channel opens, so Start
	// itself succeeds.
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	result := make(chan error, 1)
	go func() { result <- awaitSession(context.Background(), s) }()

	select {
	case err := <-result:
		if !errorsx.HasReason(err, errorsx.ReasonPermissionDenied) {
			t.Fatalf("expected permission_denied, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("awaitSession did not return on fatal session failure")
	}
	if s.State() != session.StateClosed {
		t.Fatalf("session left in %s after failed run", s.State())
	}
}

func TestAwaitSessionClosesOnContextCancel(t *testing.T) {
	s := newMockSession(t, audiomock.NewCapture())
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	result := make(chan error, 1)
	go func() { result <- awaitSession(ctx, s) }()
	cancel()

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("awaitSession after cancel: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("awaitSession did not return on cancel")
	}
	if s.State() != session.StateClosed {
		t.Fatalf("session left in %s after cancel", s.State())
	}
}
