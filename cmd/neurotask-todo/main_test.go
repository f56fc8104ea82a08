package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurotask/internal/tasks"
)

func TestRun_AddListComplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	store := tasks.Open(path)

	var out bytes.Buffer
	require.NoError(t, run(store, []string{"add", "-p", "critical", "-d", "by friday", "File", "taxes"}, &out))
	require.NoError(t, run(store, []string{"add", "--title", "Stretch", "--priority", "Low"}, &out))
	assert.Contains(t, out.String(), "File taxes")

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "File taxes", list[0].Title)
	assert.Equal(t, tasks.Critical, list[0].Priority)
	assert.Equal(t, "by friday", list[0].Description)

	out.Reset()
	require.NoError(t, run(store, []string{"list"}, &out))
	assert.Contains(t, out.String(), "Total Tasks: 2")

	out.Reset()
	require.NoError(t, run(store, []string{"complete", list[0].ID[:8]}, &out))
	assert.Contains(t, out.String(), "Task completed!")

	reloaded := tasks.Open(path)
	assert.Equal(t, 1, reloaded.Len())

	require.NoError(t, run(reloaded, []string{"delete", list[1].ID}, &out))
	assert.Zero(t, reloaded.Len())
}

func TestRun_Errors(t *testing.T) {
	store := tasks.Open(filepath.Join(t.TempDir(), "tasks.json"))
	var out bytes.Buffer

	assert.EqualError(t, run(store, []string{"add"}, &out), "Please enter a task title!")
	assert.Error(t, run(store, []string{"add", "-p", "urgent", "x"}, &out))
	assert.Error(t, run(store, []string{"complete"}, &out))
	assert.Error(t, run(store, []string{"delete", "nope"}, &out))
	assert.Error(t, run(store, []string{"frobnicate"}, &out))
	assert.Zero(t, store.Len())
}
