package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurotask/internal/ipc"
	"neurotask/internal/session"
	"neurotask/internal/transcript"
)

type idleWorker struct{ openErr error }

func (w *idleWorker) Open(context.Context) error { return w.openErr }
func (w *idleWorker) Step(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Millisecond):
		return nil
	}
}
func (w *idleWorker) Close() error   { return nil }
func (w *idleWorker) Status() string { return "Listening..." }

func newController(w *idleWorker, unavailable error) *controller {
	return &controller{
		ctx:         context.Background(),
		session:     session.New("voice", w),
		worker:      w,
		log:         transcript.New(),
		unavailable: unavailable,
	}
}

func TestController_StartStopToggle(t *testing.T) {
	c := newController(&idleWorker{}, nil)
	defer c.session.Shutdown()

	rep := c.handle(ipc.Request{Cmd: ipc.CmdStart})
	require.True(t, rep.OK)
	assert.Equal(t, "running", rep.State)

	rep = c.handle(ipc.Request{Cmd: ipc.CmdStart})
	assert.True(t, rep.OK, "start while running is harmless")

	c.handle(ipc.Request{Cmd: ipc.CmdToggle})
	c.session.Wait()
	assert.Equal(t, "idle", c.handle(ipc.Request{Cmd: ipc.CmdStatus}).State)

	rep = c.handle(ipc.Request{Cmd: ipc.CmdToggle})
	assert.Equal(t, "running", rep.State)

	c.handle(ipc.Request{Cmd: ipc.CmdStop})
	c.session.Wait()
	assert.Equal(t, session.Idle, c.session.State())
}

func TestController_TranscriptAndClear(t *testing.T) {
	c := newController(&idleWorker{}, nil)
	c.log.Add(transcript.User, "hello")
	c.log.Add(transcript.Assistant, "Hello! How can I help you today?")

	rep := c.handle(ipc.Request{Cmd: ipc.CmdTranscript})
	require.Len(t, rep.Lines, 2)
	assert.Contains(t, rep.Lines[0], "You: hello")

	c.handle(ipc.Request{Cmd: ipc.CmdClear})
	assert.Empty(t, c.handle(ipc.Request{Cmd: ipc.CmdTranscript}).Lines)
	assert.Equal(t, 2, c.log.Len(), "clear only hides entries")
}

func TestController_Unavailable(t *testing.T) {
	c := newController(&idleWorker{}, errors.New("whisper model missing"))

	rep := c.handle(ipc.Request{Cmd: ipc.CmdStart})
	assert.False(t, rep.OK)
	assert.Contains(t, rep.Error, "Voice features not available")
	assert.Equal(t, session.Idle, c.session.State())

	assert.Equal(t, "Unavailable", c.handle(ipc.Request{Cmd: ipc.CmdStatus}).Status)
}

func TestController_DeviceFailure(t *testing.T) {
	c := newController(&idleWorker{openErr: errors.New("no default input device")}, nil)

	rep := c.handle(ipc.Request{Cmd: ipc.CmdStart})
	assert.False(t, rep.OK)
	assert.Contains(t, rep.Error, "device unavailable")
	assert.Equal(t, 1, c.log.Len())
}

func TestController_UnknownCommand(t *testing.T) {
	c := newController(&idleWorker{}, nil)
	rep := c.handle(ipc.Request{Cmd: "dance"})
	assert.False(t, rep.OK)
	assert.Contains(t, rep.Error, "start, stop")
}
