package launcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func script(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func noPath(string) (string, error) { return "", errors.New("not on PATH") }

func TestDefault(t *testing.T) {
	reg := Default()
	require.Len(t, reg.Tools, 4)

	ids := make([]string, 0, len(reg.Tools))
	for _, tool := range reg.Tools {
		ids = append(ids, tool.ID)
		assert.NotEmpty(t, tool.Color)
		assert.NotEmpty(t, tool.Description)
	}
	assert.Equal(t, []string{"voice", "object", "emotion", "todo"}, ids)

	tool, ok := reg.Find("emotion detection")
	require.True(t, ok)
	assert.Equal(t, []string{"--mode", "emotion"}, tool.Args)

	_, ok = reg.Find("chess")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	full := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(full, []byte(`
terminal: [foot, -e]
tools:
  - name: Notes
    binary: notes-app
    color: "#123456"
`), 0o644))

	reg, err := Load(full)
	require.NoError(t, err)
	assert.Equal(t, []string{"foot", "-e"}, reg.Terminal)
	require.Len(t, reg.Tools, 1)
	assert.Equal(t, "notes-app", reg.Tools[0].ID)

	termOnly := filepath.Join(dir, "term.yaml")
	require.NoError(t, os.WriteFile(termOnly, []byte("terminal: [xterm, -e]\n"), 0o644))
	reg, err = Load(termOnly)
	require.NoError(t, err)
	assert.Len(t, reg.Tools, 4)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tools:\n  - name: nothing\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	local := script(t, dir, "neurotask-todo", "exit 0")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "not-exec"), nil, 0o644))

	l := New(Default(), dir)
	l.lookPath = noPath

	got, err := l.Resolve(Tool{Binary: "neurotask-todo"})
	require.NoError(t, err)
	assert.Equal(t, local, got)

	got, err = l.Resolve(Tool{Binary: local})
	require.NoError(t, err)
	assert.Equal(t, local, got)

	_, err = l.Resolve(Tool{Binary: "not-exec"})
	assert.ErrorIs(t, err, ErrToolNotFound)

	_, err = l.Resolve(Tool{Binary: "neurotask-voice"})
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.Contains(t, err.Error(), "neurotask-voice")

	l.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	got, err = l.Resolve(Tool{Binary: "neurotask-voice"})
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/neurotask-voice", got)
}

func TestLaunch_Detached(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	script(t, dir, "neurotask-detect", `echo "$@" > "`+marker+`"`)

	l := New(Default(), dir)
	l.lookPath = noPath

	tool, _ := l.Registry.Find("object")
	got, err := l.Launch(tool)
	require.NoError(t, err)
	assert.Positive(t, got.PID)
	assert.False(t, got.Foreground)

	assert.Eventually(t, func() bool {
		b, err := os.ReadFile(marker)
		return err == nil && string(b) == "--mode object\n"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLaunch_InteractiveForeground(t *testing.T) {
	dir := t.TempDir()
	script(t, dir, "neurotask-todo", "exit 0")

	l := New(Default(), dir)
	l.lookPath = noPath

	tool, _ := l.Registry.Find("todo")
	got, err := l.Launch(tool)
	require.NoError(t, err)
	assert.True(t, got.Foreground)

	script(t, dir, "neurotask-todo", "exit 3")
	_, err = l.Launch(tool)
	assert.Error(t, err)
}

func TestLaunch_NotFound(t *testing.T) {
	l := New(Default(), t.TempDir())
	l.lookPath = noPath

	tool, _ := l.Registry.Find("voice")
	_, err := l.Launch(tool)
	assert.ErrorIs(t, err, ErrToolNotFound)
}
