package notify

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCue_MissingFileIsSilent(t *testing.T) {
	c := NewCue(filepath.Join(t.TempDir(), "beep.mp3"))
	assert.False(t, c.Available())
	assert.NoError(t, c.Play())

	var nilCue *Cue
	assert.False(t, nilCue.Available())
	assert.False(t, NewCue("").Available())
}
