package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurotask/internal/ipc"
	"neurotask/internal/logging"
)

func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "ntctl")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "ctl.sock")
}

func TestRun(t *testing.T) {
	path := socketPath(t)
	srv, err := ipc.Listen(path, func(r ipc.Request) ipc.Reply {
		switch r.Cmd {
		case ipc.CmdTranscript:
			return ipc.Reply{OK: true, State: "running", Status: "Listening...",
				Lines: []string{"[10:00:00] You: hello"}}
		case ipc.CmdStart:
			return ipc.Fail(errors.New("Voice features not available"))
		default:
			return ipc.Reply{OK: true, State: "idle", Status: "Ready"}
		}
	})
	require.NoError(t, err)
	defer srv.Close()

	var logs, out, errOut bytes.Buffer
	logging.Setup(&logs, "ctl", "debug")
	defer logging.Setup(os.Stderr, "ctl", "warn")

	assert.Equal(t, 0, run(path, ipc.CmdStatus, &out, &errOut))
	assert.Contains(t, out.String(), "Ready")
	assert.Contains(t, out.String(), "(idle)")
	assert.Contains(t, logs.String(), "Sending control request")
	assert.Contains(t, logs.String(), "tool=ctl")

	out.Reset()
	assert.Equal(t, 0, run(path, ipc.CmdTranscript, &out, &errOut))
	assert.Contains(t, out.String(), "You: hello")
	assert.Contains(t, out.String(), "Listening...")

	assert.Equal(t, 1, run(path, ipc.CmdStart, &out, &errOut))
	assert.Contains(t, errOut.String(), "Voice features not available")
}

func TestRun_DaemonNotRunning(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 1, run(filepath.Join(t.TempDir(), "missing.sock"), ipc.CmdStatus, &out, &errOut))
	assert.Contains(t, errOut.String(), "neurotask-voice not running:")
	assert.Empty(t, out.String())
}
