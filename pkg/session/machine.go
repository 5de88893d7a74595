package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxform/voxform/pkg/audio"
	"github.com/voxform/voxform/pkg/errorsx"
	"github.com/voxform/voxform/pkg/form"
	"github.com/voxform/voxform/pkg/metrics"
	"github.com/voxform/voxform/pkg/persist"
	"github.com/voxform/voxform/pkg/redact"
	"github.com/voxform/voxform/pkg/token"
	"github.com/voxform/voxform/pkg/transport"
	"github.com/voxform/voxform/pkg/wire"
)

// DefaultRotateInterval is how often the capture buffer is rotated and
// shipped while listening.
const DefaultRotateInterval = 5 * time.Second

// Deps are the collaborators a session exclusively owns for its lifetime.
// NewChannel is a factory so a retry after transport failure gets a fresh
// connection.
type Deps struct {
	NewChannel func() transport.Channel
	Capture    audio.Capture
	Playback   audio.Playback
	Tokens     token.Provider
	Sink       persist.Sink
	Fields     []form.Field
}

type Options struct {
	RotateInterval time.Duration
	Logger         *slog.Logger
	Observer       metrics.Observer
}

type cmdKind int

const (
	cmdPause cmdKind = iota
	cmdResume
	cmdClose
)

type command struct {
	kind  cmdKind
	reply chan error
}

// Session is the orchestrator for one voice-guided form fill. All
// reactions to timer and transport events run on a single goroutine, so
// transition logic is never interleaved.
type Session struct {
	id       string
	deps     Deps
	rotate   time.Duration
	logger   *slog.Logger
	observer metrics.Observer
	codec    audio.Codec

	fsm     *stateMachine
	tracker *form.Tracker

	mu         sync.Mutex
	channel    transport.Channel
	cmdCh      chan command
	loopExited chan struct{}
	capturing  bool
	paused     bool
	fatalErr   error

	// Loop-owned state; only the run goroutine touches these.
	agg     answerAggregator
	pending pendingQueue
	playing bool

	playbackDone chan struct{}

	completeOnce sync.Once
	doneOnce     sync.Once
	doneCh       chan struct{}
}

func New(deps Deps, opts Options) (*Session, error) {
	if deps.NewChannel == nil {
		return nil, errors.New("session: channel factory is required")
	}
	if deps.Capture == nil || deps.Playback == nil {
		return nil, errors.New("session: capture and playback units are required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("session: token provider is required")
	}
	if opts.RotateInterval <= 0 {
		opts.RotateInterval = DefaultRotateInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Observer == nil {
		opts.Observer = metrics.NoopObserver{}
	}
	s := &Session{
		id:           uuid.NewString(),
		deps:         deps,
		rotate:       opts.RotateInterval,
		logger:       opts.Logger.With(slog.String("component", "session")),
		observer:     opts.Observer,
		fsm:          newStateMachine(),
		tracker:      form.NewTracker(deps.Fields),
		playbackDone: make(chan struct{}, 4),
		doneCh:       make(chan struct{}),
	}
	s.fsm.AddListener(metricsListener{s})
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return s.fsm.State() }

// Progress returns a snapshot of the form state.
func (s *Session) Progress() form.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Progress()
}

// Err returns the fatal cause after the session entered Error.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatalErr
}

// Done is closed once the session reaches Closed.
func (s *Session) Done() <-chan struct{} { return s.doneCh }

// AddListener registers a listener for state change events.
func (s *Session) AddListener(l StateListener) { s.fsm.AddListener(l) }

// Start acquires a token, opens the channel, and hands control to the
// session loop. A token or connect failure leaves the session in Error.
func (s *Session) Start(ctx context.Context) error {
	if err := s.fsm.Transition(StateConnecting, "user start"); err != nil {
		return err
	}
	return s.connect(ctx)
}

// Retry re-establishes the session after a fatal failure. Collected
// answers survive; the transport connection does not.
func (s *Session) Retry(ctx context.Context) error {
	if err := s.fsm.Transition(StateConnecting, "user retry"); err != nil {
		return err
	}
	s.mu.Lock()
	s.fatalErr = nil
	s.mu.Unlock()
	return s.connect(ctx)
}

// Dismiss acknowledges a fatal failure and returns the session to Idle.
func (s *Session) Dismiss() error {
	return s.fsm.Transition(StateIdle, "user dismiss")
}

func (s *Session) connect(ctx context.Context) error {
	tok, err := s.deps.Tokens.EphemeralToken(ctx)
	if err != nil {
		err = errorsx.Wrap(err, errorsx.ReasonTokenAcquire)
		s.fail(err)
		return err
	}
	ch := s.deps.NewChannel()
	if err := ch.Open(ctx, tok.Value); err != nil {
		err = errorsx.Wrap(err, errorsx.ReasonTransportConnect)
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.channel = ch
	s.cmdCh = make(chan command)
	s.loopExited = make(chan struct{})
	exited := s.loopExited
	s.mu.Unlock()

	go s.run(ctx, ch, exited)
	return nil
}

// Pause synchronously stops capture and clears buffered, uncommitted
// audio. When it returns, no further chunk will be sent until Resume.
func (s *Session) Pause() error { return s.do(command{kind: cmdPause, reply: make(chan error, 1)}) }

// Resume restarts capture after a pause.
func (s *Session) Resume() error { return s.do(command{kind: cmdResume, reply: make(chan error, 1)}) }

// Close is safe from any state and releases every owned resource.
func (s *Session) Close() error { return s.do(command{kind: cmdClose, reply: make(chan error, 1)}) }

func (s *Session) do(cmd command) error {
	s.mu.Lock()
	cmdCh, exited := s.cmdCh, s.loopExited
	s.mu.Unlock()
	if cmdCh == nil {
		return s.direct(cmd)
	}
	select {
	case cmdCh <- cmd:
		return <-cmd.reply
	case <-exited:
		return s.direct(cmd)
	}
}

// direct handles commands when no loop is running (Idle, Error, or
// already Closed).
func (s *Session) direct(cmd command) error {
	switch cmd.kind {
	case cmdClose:
		return s.shutdown("user close")
	case cmdPause:
		s.stopCapture()
		s.mu.Lock()
		s.paused = true
		s.mu.Unlock()
		return nil
	case cmdResume:
		s.mu.Lock()
		s.paused = false
		s.mu.Unlock()
		return nil
	default:
		return fmt.Errorf("session: unknown command %d", cmd.kind)
	}
}

func (s *Session) run(ctx context.Context, ch transport.Channel, exited chan struct{}) {
	defer close(exited)
	ticker := time.NewTicker(s.rotate)
	defer ticker.Stop()
	events := ch.Events()

	for {
		select {
		case <-ctx.Done():
			_ = s.shutdown("context canceled")
			return
		case cmd := <-s.cmdCh:
			switch cmd.kind {
			case cmdPause:
				cmd.reply <- s.pauseLocked()
			case cmdResume:
				cmd.reply <- s.resumeLocked()
			case cmdClose:
				cmd.reply <- s.shutdown("user close")
				return
			}
		case <-s.playbackDone:
			s.onPlaybackComplete()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.onEvent(ev)
		case <-ticker.C:
			s.onRotate()
		}
		if st := s.fsm.State(); st == StateError || st == StateClosed {
			return
		}
	}
}

func (s *Session) onEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventOpened:
		if err := s.fsm.Transition(StateListening, "channel opened"); err != nil {
			s.logger.Error("session_transition_rejected", "error", err.Error())
			return
		}
		if err := s.startCapture(); err != nil {
			s.fail(errorsx.Wrap(err, errorsx.ReasonPermissionDenied))
			return
		}
		s.sendIntro()
	case transport.EventMessage:
		s.onMessage(ev.Message)
	case transport.EventError:
		s.fail(errorsx.Wrap(ev.Err, errorsx.ReasonTransportClosed))
	case transport.EventClosed:
		if st := s.fsm.State(); st != StateClosed && st != StateError {
			s.fail(errorsx.Wrap(errors.New("connection closed by peer"), errorsx.ReasonTransportClosed))
		}
	}
}

// sendIntro tells the backend which fields to walk the user through.
func (s *Session) sendIntro() {
	var b strings.Builder
	b.WriteString("Guide the user through answering these form fields, one at a time:")
	for _, f := range s.tracker.Progress().Fields {
		fmt.Fprintf(&b, " %s (%s);", f.Label, f.Kind)
	}
	msg := wire.ItemCreate(uuid.NewString(), "system", b.String())
	if err := s.send(msg); err != nil {
		s.fail(err)
	}
}

func (s *Session) onMessage(msg wire.Message) {
	if !msg.Known() {
		// Unknown tags are logged and skipped, never fatal.
		s.logger.Warn("session_unknown_message", "type", string(msg.Type))
		return
	}

	// While a playback is in flight, everything except errors waits for it
	// to finish so only one question is ever in play.
	if s.playing && s.fsm.State() == StateSpeaking && msg.Type != wire.TypeError {
		s.pending.Push(msg)
		return
	}

	switch msg.Type {
	case wire.TypeSessionUpdate:
		s.logger.Debug("session_backend_status", "status", msg.Status)
	case wire.TypeResponseCreate:
		s.logger.Debug("session_response_started")
	case wire.TypeResponseChunk:
		s.agg.Add(msg.Delta)
		if msg.Final {
			s.onAnswer(s.agg.Flush())
		}
	case wire.TypeAudioChunk:
		s.onAssistantAudio(msg)
	case wire.TypeError:
		detail := "backend error"
		if msg.Err != nil {
			detail = msg.Err.Message
		}
		s.fail(errorsx.Wrap(errors.New(detail), errorsx.ReasonTransportClosed))
	default:
		s.logger.Warn("session_unhandled_message", "type", string(msg.Type))
	}
}

func (s *Session) onAssistantAudio(msg wire.Message) {
	data, err := s.codec.Decode(msg.Data)
	if err != nil {
		s.logger.Warn("session_malformed_audio", "error", err.Error())
		return
	}
	if s.fsm.State() == StateListening {
		if err := s.fsm.Transition(StateSpeaking, "assistant audio"); err != nil {
			s.logger.Error("session_transition_rejected", "error", err.Error())
			return
		}
	}
	s.record(metrics.EventPlaybackStart, nil)
	s.playing = true
	err = s.deps.Playback.Play(data, func() {
		select {
		case s.playbackDone <- struct{}{}:
		default:
		}
	})
	if err != nil {
		s.logger.Warn("session_playback_failed", "error", err.Error())
		// Recover as if the playback completed so the flow keeps moving.
		select {
		case s.playbackDone <- struct{}{}:
		default:
		}
	}
}

func (s *Session) onAnswer(answer string) {
	if answer == "" {
		s.logger.Debug("session_empty_answer_ignored")
		return
	}
	cur := s.currentField()
	if cur == nil {
		// Should be unreachable: completion tears the session down before
		// another answer can arrive.
		s.fail(errorsx.Wrap(&form.InvariantViolationError{}, errorsx.ReasonInvariant))
		return
	}

	s.mu.Lock()
	progress, err := s.tracker.RecordAnswer(answer)
	s.mu.Unlock()
	if err != nil {
		s.fail(errorsx.Wrap(err, errorsx.ReasonInvariant))
		return
	}

	s.stopCapture()
	s.logger.Info("session_answer_recorded",
		"answer", redact.Answer(cur.ID, answer),
		"index", progress.CurrentIndex,
	)
	s.record(metrics.EventAnswerRecorded, map[string]any{
		"field":  cur.ID,
		"answer": answer,
	})

	if progress.Complete {
		s.complete(progress)
		return
	}
	if err := s.fsm.Transition(StateSpeaking, "awaiting next prompt"); err != nil {
		s.logger.Error("session_transition_rejected", "error", err.Error())
	}
}

// complete emits the finished form exactly once and closes the session.
// No audio is captured past this point.
func (s *Session) complete(progress form.Progress) {
	s.completeOnce.Do(func() {
		s.record(metrics.EventFormComplete, map[string]any{"fields": len(progress.Values)})
		if s.deps.Sink != nil {
			c := persist.FromProgress(s.id, progress)
			if err := s.deps.Sink.SaveCompleted(context.Background(), c); err != nil {
				s.logger.Error("session_persist_failed", "error", err.Error())
			}
		}
	})
	_ = s.shutdown("form complete")
}

func (s *Session) onPlaybackComplete() {
	s.playing = false
	if s.fsm.State() != StateSpeaking {
		return
	}
	if err := s.fsm.Transition(StateListening, "playback complete"); err != nil {
		s.logger.Error("session_transition_rejected", "error", err.Error())
		return
	}
	s.mu.Lock()
	paused := s.paused
	s.mu.Unlock()
	if !paused {
		if err := s.startCapture(); err != nil {
			s.fail(errorsx.Wrap(err, errorsx.ReasonPermissionDenied))
			return
		}
	}
	// Apply messages that arrived mid-playback, in receipt order. A queued
	// audio chunk moves the session back to Speaking and the rest keep
	// waiting.
	for s.fsm.State() == StateListening {
		msg, ok := s.pending.Pop()
		if !ok {
			return
		}
		s.onMessage(msg)
	}
}

func (s *Session) onRotate() {
	s.mu.Lock()
	capturing, paused := s.capturing, s.paused
	s.mu.Unlock()
	if s.fsm.State() != StateListening || !capturing || paused {
		return
	}
	chunk, err := s.deps.Capture.Rotate()
	if err != nil {
		s.logger.Warn("session_rotate_failed", "error", err.Error())
		return
	}
	if len(chunk.PCM) == 0 {
		return
	}
	encoded, err := s.codec.Encode(chunk)
	if err != nil {
		s.logger.Warn("session_encode_failed", "error", err.Error())
		return
	}
	if err := s.send(wire.AudioAppend(encoded, audio.Encoding, audio.Container, chunk.SampleRate)); err != nil {
		s.fail(err)
		return
	}
	if err := s.send(wire.AudioCommit()); err != nil {
		s.fail(err)
		return
	}
	s.record(metrics.EventChunkSent, map[string]any{"seq": chunk.Seq, "bytes": len(chunk.PCM)})
}

func (s *Session) pauseLocked() error {
	s.stopCapture()
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	// Drop whatever was appended but not yet committed server-side.
	if err := s.send(wire.AudioClear()); err != nil {
		s.logger.Warn("session_clear_failed", "error", err.Error())
	}
	return nil
}

func (s *Session) resumeLocked() error {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	if s.fsm.State() == StateListening {
		if err := s.startCapture(); err != nil {
			err = errorsx.Wrap(err, errorsx.ReasonPermissionDenied)
			s.fail(err)
			return err
		}
	}
	return nil
}

func (s *Session) startCapture() error {
	s.mu.Lock()
	if s.capturing {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	if err := s.deps.Capture.Start(); err != nil {
		return err
	}
	s.mu.Lock()
	s.capturing = true
	s.mu.Unlock()
	return nil
}

func (s *Session) stopCapture() {
	s.mu.Lock()
	capturing := s.capturing
	s.capturing = false
	s.mu.Unlock()
	if capturing {
		if err := s.deps.Capture.Stop(); err != nil {
			s.logger.Warn("session_capture_stop_failed", "error", err.Error())
		}
	}
}

func (s *Session) send(msg wire.Message) error {
	s.mu.Lock()
	ch := s.channel
	s.mu.Unlock()
	if ch == nil {
		return transport.ErrNotConnected
	}
	return errorsx.Wrap(ch.Send(msg), errorsx.ReasonTransportSend)
}

// fail moves the session to Error, stopping capture and playback as part
// of the same transition.
func (s *Session) fail(err error) {
	s.logger.Error("session_fatal", "error", err.Error(), "reason", string(errorsx.Reason(err)))
	s.record(metrics.EventSessionError, map[string]any{"error": err.Error()})

	s.stopCapture()
	if perr := s.deps.Playback.Stop(); perr != nil {
		s.logger.Warn("session_playback_stop_failed", "error", perr.Error())
	}

	s.mu.Lock()
	s.fatalErr = err
	ch := s.channel
	s.channel = nil
	s.mu.Unlock()
	if ch != nil {
		_ = ch.Close()
	}
	if terr := s.fsm.Transition(StateError, "fatal: "+string(errorsx.Reason(err))); terr != nil {
		s.logger.Debug("session_error_transition_skipped", "error", terr.Error())
	}
}

// shutdown releases every owned resource and ends in Closed. Safe from
// any state and idempotent.
func (s *Session) shutdown(reason string) error {
	s.stopCapture()
	if err := s.deps.Playback.Stop(); err != nil {
		s.logger.Warn("session_playback_stop_failed", "error", err.Error())
	}

	s.mu.Lock()
	ch := s.channel
	s.channel = nil
	s.mu.Unlock()
	if ch != nil {
		_ = ch.Close()
	}

	if err := s.fsm.Transition(StateClosed, reason); err != nil {
		// Already closed.
		s.logger.Debug("session_close_transition_skipped", "error", err.Error())
	}
	s.doneOnce.Do(func() { close(s.doneCh) })
	return nil
}

func (s *Session) currentField() *form.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.CurrentField()
}

func (s *Session) record(name string, fields map[string]any) {
	s.observer.RecordEvent(metrics.Event{
		Name:   name,
		Time:   time.Now(),
		Tags:   map[string]string{"session_id": s.id},
		Fields: fields,
	})
}

// metricsListener forwards state changes to the observer.
type metricsListener struct{ s *Session }

func (l metricsListener) OnStateChange(ev StateChange) {
	l.s.observer.RecordEvent(metrics.Event{
		Name: metrics.EventStateChange,
		Time: ev.Timestamp,
		Tags: map[string]string{
			"session_id": l.s.id,
			"from":       ev.FromState.String(),
			"to":         ev.ToState.String(),
			"reason":     ev.Reason,
		},
	})
}
