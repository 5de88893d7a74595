package voxform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/voxform/voxform/pkg/audio"
	"github.com/voxform/voxform/pkg/audio/beepdev"
	"github.com/voxform/voxform/pkg/audio/portaudiodev"
	"github.com/voxform/voxform/pkg/configutil"
	"github.com/voxform/voxform/pkg/logging"
	"github.com/voxform/voxform/pkg/metrics"
	"github.com/voxform/voxform/pkg/observers"
	"github.com/voxform/voxform/pkg/persist"
	"github.com/voxform/voxform/pkg/redact"
	"github.com/voxform/voxform/pkg/session"
	"github.com/voxform/voxform/pkg/token"
	"github.com/voxform/voxform/pkg/transport"
)

// Engine wires config into a live session backed by real devices: the
// default microphone, the default speaker, and a websocket channel to the
// conversational backend.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	observer *metrics.AsyncObserver
	timeline *observers.TimelineObserver
	session  *session.Session
	sinkFile *os.File
}

func NewEngine(cfg Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.InitLogger(logging.ParseLevel(cfg.LogLevel))
	}
	redact.SetEnabled(cfg.Privacy.RedactPII)

	e := &Engine{cfg: cfg, logger: logger}

	obs := []metrics.Observer{observers.NewLoggerObserver(logging.NewComponentLogger(logger, "metrics"))}
	var sink persist.Sink
	if dir := cfg.Observability.ArtifactsDir; dir != "" {
		e.timeline = observers.NewTimelineObserver(dir)
		obs = append(obs, e.timeline)

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create artifacts dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(dir, "completed_forms.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open completions file: %w", err)
		}
		e.sinkFile = f
		sink = persist.NewJSONLSink(f)
	}
	e.observer = metrics.NewAsyncObserver(observers.NewMultiObserver(obs...), 256)

	s, err := session.New(session.Deps{
		NewChannel: func() transport.Channel {
			return transport.NewWebsocketChannel(cfg.Backend.URL, logging.NewComponentLogger(logger, "transport"))
		},
		Capture:  portaudiodev.New(configutil.IntValue(cfg.Audio.SampleRate, audio.DefaultSampleRate)),
		Playback: beepdev.New(),
		Tokens:   token.NewHTTPProvider(cfg.Backend.TokenURL, cfg.Backend.APIKey),
		Sink:     sink,
		Fields:   cfg.Form.Fields,
	}, session.Options{
		RotateInterval: cfg.Session.RotateInterval,
		Logger:         logger,
		Observer:       e.observer,
	})
	if err != nil {
		return nil, err
	}
	e.session = s
	return e, nil
}

// Session exposes the underlying session for pause/resume/close control.
func (e *Engine) Session() *session.Session { return e.session }

// Run starts the session and blocks until it ends or ctx is canceled. A
// fatal session failure, synchronous or not, surfaces as the returned
// error; there is no retry surface in a headless run.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine_starting",
		"backend", e.cfg.Backend.URL,
		"fields", len(e.cfg.Form.Fields),
	)
	if err := e.session.Start(ctx); err != nil {
		return err
	}
	return awaitSession(ctx, e.session)
}

// errorWatcher signals once when a session enters the error state.
type errorWatcher struct {
	once sync.Once
	ch   chan struct{}
}

func newErrorWatcher() *errorWatcher {
	return &errorWatcher{ch: make(chan struct{})}
}

func (w *errorWatcher) OnStateChange(ev session.StateChange) {
	if ev.ToState == session.StateError {
		w.once.Do(func() { close(w.ch) })
	}
}

// awaitSession blocks until the session completes, fails, or ctx ends.
// Failures that happen after Start returns (a denied microphone, a
// dropped socket) land the session in the error state without closing it,
// so they are watched for explicitly.
func awaitSession(ctx context.Context, s *session.Session) error {
	watcher := newErrorWatcher()
	s.AddListener(watcher)
	if s.State() == session.StateError {
		return s.Err()
	}
	select {
	case <-ctx.Done():
		return s.Close()
	case <-watcher.ch:
		_ = s.Close()
		return s.Err()
	case <-s.Done():
		return nil
	}
}

// Drain implements runner.Drainer: it closes the session and flushes
// observers and files.
func (e *Engine) Drain() error {
	err := e.session.Close()
	e.observer.Close()
	if e.timeline != nil {
		_ = e.timeline.Close()
	}
	if e.sinkFile != nil {
		_ = e.sinkFile.Close()
	}
	return err
}
