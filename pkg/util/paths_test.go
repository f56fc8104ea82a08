package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstExisting(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "b.xml")
	require.NoError(t, os.WriteFile(present, nil, 0o644))

	got, ok := FirstExisting("", filepath.Join(dir, "a.xml"), present)
	assert.True(t, ok)
	assert.Equal(t, present, got)

	_, ok = FirstExisting(filepath.Join(dir, "none"))
	assert.False(t, ok)
}

func TestExecutableDir(t *testing.T) {
	dir := ExecutableDir()
	assert.NotEmpty(t, dir)
	assert.DirExists(t, dir)
}
