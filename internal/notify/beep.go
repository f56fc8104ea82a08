// Package notify plays the short cue that tells the user the assistant is
// listening.
package notify

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Cue plays an mp3 file. A missing file disables the cue silently.
type Cue struct {
	Path string

	once    sync.Once
	initErr error
	rate    beep.SampleRate
}

func NewCue(path string) *Cue {
	return &Cue{Path: path}
}

// Available reports whether the cue file exists.
func (c *Cue) Available() bool {
	if c == nil || c.Path == "" {
		return false
	}
	_, err := os.Stat(c.Path)
	return err == nil
}

// Play blocks until the cue has played.
func (c *Cue) Play() error {
	if !c.Available() {
		return nil
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}

	stream, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", c.Path, err)
	}
	defer stream.Close()

	c.once.Do(func() {
		c.rate = format.SampleRate
		c.initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if c.initErr != nil {
		return fmt.Errorf("init speaker: %w", c.initErr)
	}

	var src beep.Streamer = stream
	if format.SampleRate != c.rate {
		src = beep.Resample(4, format.SampleRate, c.rate, stream)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(src, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-time.After(5 * time.Second):
		speaker.Clear()
		return errors.New("cue playback timed out")
	}
}

// PlayAsync plays the cue without blocking the caller.
func (c *Cue) PlayAsync() {
	go func() {
		if err := c.Play(); err != nil {
			log.Warn("Failed to play cue", "err", err)
		}
	}()
}
