package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurotask/internal/session"
)

func writeTone(t *testing.T, path string, n int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	data := make([]int, n)
	for i := range data {
		data[i] = 1000
	}

	enc := wav.NewEncoder(f, SampleRate, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func TestReplay_InNameOrder(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, filepath.Join(dir, "02.wav"), 20)
	writeTone(t, filepath.Join(dir, "01.wav"), 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.wav"), []byte("junk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("ignored"), 0o644))

	r := NewReplay(dir)
	require.NoError(t, r.Open(context.Background()))
	defer r.Close()

	pcm, err := r.Listen(context.Background())
	require.NoError(t, err)
	assert.Len(t, pcm, 10)

	pcm, err = r.Listen(context.Background())
	require.NoError(t, err)
	assert.Len(t, pcm, 20)

	// broken.wav sorts last and is skipped
	_, err = r.Listen(context.Background())
	assert.ErrorIs(t, err, session.ErrStop)
}

func TestReplay_EmptyDir(t *testing.T) {
	r := NewReplay(t.TempDir())
	assert.Error(t, r.Open(context.Background()))

	r = NewReplay(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, r.Open(context.Background()))
}
