// Package session runs a start/stop controlled background loop around a
// device-owning worker: a microphone listener or a camera capture.
package session

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"sync/atomic"
)

type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrDeviceLost        = errors.New("device lost")
	ErrAlreadyRunning    = errors.New("session already running")

	// ErrStop can be returned from Step to end the session cleanly, e.g.
	// when the user pressed quit inside the worker's own window.
	ErrStop = errors.New("stop requested")

	// ErrNoInput means the step captured nothing worth processing. The loop
	// moves on without reporting it.
	ErrNoInput = errors.New("no input")
)

// Worker owns one device for the duration of a session. Open acquires it,
// Step performs one unit of work and Close releases it. Close is called
// exactly once after every successful Open.
type Worker interface {
	Open(ctx context.Context) error
	Step(ctx context.Context) error
	Close() error
}

type fatalError struct{ err error }

func (e fatalError) Error() string { return e.err.Error() }
func (e fatalError) Unwrap() error { return e.err }

// Fatal marks a step error as ending the session.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return fatalError{err: err}
}

func IsFatal(err error) bool {
	var fe fatalError
	return errors.As(err, &fe) || errors.Is(err, ErrDeviceLost)
}

type Session struct {
	name   string
	worker Worker

	// running is the cooperative stop flag, checked before each step.
	running atomic.Bool

	mu     sync.Mutex
	state  State
	done   chan struct{}
	cancel context.CancelFunc

	// exiting is set once the loop has committed to tearing down.
	exiting bool

	// OnError receives every step error, fatal or not.
	OnError func(error)
	// OnStateChange is called on every transition. It must not wait on the session.
	OnStateChange func(State)
}

func New(name string, w Worker) *Session {
	s := &Session{name: name, worker: w}
	s.done = make(chan struct{})
	close(s.done)
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start acquires the device and launches the loop. On acquisition failure the
// session stays Idle and the returned error wraps ErrDeviceUnavailable.
// Cancelling ctx ends the loop as well.
//
// A Start after Stop but before the in-flight step has finished withdraws
// the stop. If the loop is already tearing down, Start waits for the device
// to be released and opens it again.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()

	for s.state == Running {
		if !s.exiting {
			resumed := !s.running.Swap(true)
			s.mu.Unlock()
			if !resumed {
				return ErrAlreadyRunning
			}
			log.Info("Pending stop withdrawn", "session", s.name)
			return nil
		}

		done := s.done
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
	}

	if err := s.worker.Open(ctx); err != nil {
		s.mu.Unlock()
		log.Error("Failed to acquire device", "session", s.name, "err", err)
		return fmt.Errorf("%s: %w: %w", s.name, ErrDeviceUnavailable, err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.state = Running
	s.running.Store(true)
	s.done = done
	s.cancel = cancel
	s.mu.Unlock()

	log.Info("Session started", "session", s.name)
	s.notify(Running)

	go s.loop(loopCtx, cancel, done)

	return nil
}

func (s *Session) loop(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer func() {
		if err := s.worker.Close(); err != nil {
			log.Warn("Failed to release device", "session", s.name, "err", err)
		}
		cancel()

		s.mu.Lock()
		s.state = Idle
		s.exiting = false
		s.running.Store(false)
		s.mu.Unlock()

		log.Info("Session stopped", "session", s.name)
		s.notify(Idle)
		close(done)
	}()

	for s.proceed(ctx) {
		if !s.handle(ctx, s.step(ctx)) {
			break
		}
	}

	s.mu.Lock()
	s.exiting = true
	s.mu.Unlock()
}

// proceed reports whether another step should run. A negative answer is
// final: Start no longer resumes this loop.
func (s *Session) proceed(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() && ctx.Err() == nil {
		return true
	}
	s.exiting = true
	return false
}

// handle reports whether the loop survives a step result.
func (s *Session) handle(ctx context.Context, err error) bool {
	switch {
	case err == nil, errors.Is(err, ErrNoInput):
		return true
	case errors.Is(err, ErrStop):
		return false
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return false
	}

	s.report(err)

	if IsFatal(err) {
		log.Error("Session aborted", "session", s.name, "err", err)
		return false
	}

	log.Warn("Step failed", "session", s.name, "err", err)
	return true
}

func (s *Session) step(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Fatal(fmt.Errorf("panic in step: %v", r))
		}
	}()
	return s.worker.Step(ctx)
}

// Stop asks the loop to exit after the current step. It does not wait.
func (s *Session) Stop() {
	s.running.Store(false)
}

// Wait blocks until the current loop, if any, has released its device.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	<-done
}

// StopAndWait stops cooperatively and waits for teardown or ctx.
func (s *Session) StopAndWait(ctx context.Context) error {
	s.Stop()

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the loop, cancels in-flight work and waits for release.
// Used when the tool itself is closing.
func (s *Session) Shutdown() {
	s.Stop()

	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-done
}

func (s *Session) report(err error) {
	if s.OnError != nil {
		s.OnError(err)
	}
}

func (s *Session) notify(st State) {
	if s.OnStateChange != nil {
		s.OnStateChange(st)
	}
}
