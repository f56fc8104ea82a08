// Package voice is the listen, transcribe, respond and speak loop of the
// voice assistant.
package voice

import (
	"context"
	"errors"
	log "log/slog"
	"strings"
	"sync"

	"neurotask/internal/session"
	"neurotask/internal/transcript"
)

const (
	StatusReady      = "Ready"
	StatusListening  = "Listening..."
	StatusProcessing = "Processing..."
)

const (
	msgNotUnderstood = "Could not understand audio"
	msgRequestError  = "Request error: %v"
	msgError         = "Error: %v"
)

// Listener records one utterance per Listen call. A timeout before speech
// begins wraps session.ErrNoInput, a broken device wraps
// session.ErrDeviceLost.
type Listener interface {
	Open(ctx context.Context) error
	Listen(ctx context.Context) ([]float32, error)
	Close() error
}

// Recognizer returns an empty string if nothing intelligible was said.
type Recognizer interface {
	Recognize(ctx context.Context, pcm []float32) (string, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Responder interface {
	Respond(text string) string
}

// Ducker quiets other audio while the microphone is open.
type Ducker interface {
	Duck(ctx context.Context) error
	Unduck(ctx context.Context) error
}

type Worker struct {
	Listener   Listener
	Recognizer Recognizer
	Speaker    Speaker
	Responder  Responder
	Transcript *transcript.Log

	// Optional.
	Ducker   Ducker
	OnListen func()
	OnStatus func(string)

	mu     sync.Mutex
	status string
}

var _ session.Worker = (*Worker)(nil)

func (w *Worker) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == "" {
		return StatusReady
	}
	return w.status
}

func (w *Worker) setStatus(s string) {
	w.mu.Lock()
	changed := w.status != s
	w.status = s
	w.mu.Unlock()

	if changed && w.OnStatus != nil {
		w.OnStatus(s)
	}
}

func (w *Worker) Open(ctx context.Context) error {
	if err := w.Listener.Open(ctx); err != nil {
		return err
	}
	w.setStatus(StatusListening)
	return nil
}

func (w *Worker) Step(ctx context.Context) error {
	w.setStatus(StatusListening)

	pcm, err := w.listen(ctx)
	if err != nil {
		return w.listenFailed(ctx, err)
	}

	w.setStatus(StatusProcessing)
	defer w.setStatus(StatusListening)

	text, err := w.Recognizer.Recognize(ctx, pcm)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		log.Warn("Recognition failed", "err", err)
		w.Transcript.System(msgRequestError, err)
		return nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		w.Transcript.System(msgNotUnderstood)
		return nil
	}

	w.Transcript.Add(transcript.User, text)
	reply := w.Responder.Respond(text)
	w.Transcript.Add(transcript.Assistant, reply)

	log.Info("Replied", "heard", text, "reply", reply)

	if err := w.Speaker.Speak(ctx, reply); err != nil {
		log.Warn("Failed to voice out", "err", err)
	}

	return nil
}

func (w *Worker) listen(ctx context.Context) ([]float32, error) {
	if w.Ducker != nil {
		if err := w.Ducker.Duck(ctx); err != nil {
			log.Debug("Ducking failed", "err", err)
		}
		defer func() {
			if err := w.Ducker.Unduck(context.WithoutCancel(ctx)); err != nil {
				log.Debug("Unducking failed", "err", err)
			}
		}()
	}

	if w.OnListen != nil {
		w.OnListen()
	}

	return w.Listener.Listen(ctx)
}

func (w *Worker) listenFailed(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrNoInput), errors.Is(err, session.ErrStop):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	}

	w.Transcript.System(msgError, err)
	return session.Fatal(err)
}

func (w *Worker) Close() error {
	defer w.setStatus(StatusReady)
	return w.Listener.Close()
}
