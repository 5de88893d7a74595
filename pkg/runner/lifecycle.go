package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAlreadyRun is returned when Run is called on a used Lifecycle.
var ErrAlreadyRun = errors.New("runner: lifecycle already ran")

// Lifecycle runs the process from banner to drained exit. Run blocks
// until the context ends, then drains within the configured timeout. The
// drainer's error is the process outcome; a drain that overruns the
// timeout is reported as its own error rather than waited on.
type Lifecycle struct {
	drainer Drainer
	hooks   Hooks
	logger  *slog.Logger
	timeout time.Duration

	phase    atomic.Int32
	haltOnce sync.Once
	haltErr  error
}

func NewLifecycle(drainer Drainer, hooks Hooks, logger *slog.Logger, timeout time.Duration) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Lifecycle{
		drainer: drainer,
		hooks:   hooks,
		logger:  logger,
		timeout: timeout,
	}
}

func (l *Lifecycle) Phase() Phase {
	return Phase(l.phase.Load())
}

// Run serves until ctx ends, then drains and returns the drain outcome.
func (l *Lifecycle) Run(ctx context.Context) error {
	if !l.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseStarting)) {
		return ErrAlreadyRun
	}
	PrintBanner(os.Stdout)

	l.phase.Store(int32(PhaseServing))
	l.logger.Info("runner_serving", "version", Version)
	if l.hooks.OnServing != nil {
		l.hooks.OnServing()
	}

	<-ctx.Done()
	return l.halt()
}

// Halt drains immediately. Safe to call concurrently with Run.
func (l *Lifecycle) Halt() error {
	return l.halt()
}

func (l *Lifecycle) halt() error {
	l.haltOnce.Do(func() {
		l.phase.Store(int32(PhaseDraining))
		start := time.Now()
		l.logger.Info("runner_draining", "timeout", l.timeout.String())

		if l.drainer != nil {
			done := make(chan error, 1)
			go func() { done <- l.drainer.Drain() }()
			select {
			case err := <-done:
				l.haltErr = err
				l.logger.Info("runner_drained",
					"elapsed", time.Since(start).String(),
					"clean", err == nil,
				)
			case <-time.After(l.timeout):
				l.haltErr = fmt.Errorf("runner: drain exceeded %s", l.timeout)
				l.logger.Error("runner_drain_timeout", "timeout", l.timeout.String())
			}
		}

		if l.hooks.OnHalted != nil {
			l.hooks.OnHalted(l.haltErr)
		}
		l.phase.Store(int32(PhaseHalted))
	})
	return l.haltErr
}
