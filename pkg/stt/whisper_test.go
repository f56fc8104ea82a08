package stt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{" What time is it?", "What time is it?"},
		{"[BLANK_AUDIO]", ""},
		{"(music)  hello   there *coughs*", "hello there"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in), tt.in)
	}
}

func TestNewTranscriber_MissingModel(t *testing.T) {
	_, err := NewTranscriber(filepath.Join(t.TempDir(), "ggml-base.en.bin"), Options{})
	assert.ErrorIs(t, err, ErrNoModel)

	_, err = NewTranscriber("", Options{})
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestRecognize_EmptySampleIsSilence(t *testing.T) {
	var tr Transcriber // no model loaded; an empty sample never reaches it

	text, err := tr.Recognize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, text)

	text, err = tr.Recognize(context.Background(), []float32{})
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = tr.Transcribe(context.Background(), []float32{0.1})
	assert.Error(t, err)
}
