package audio

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"neurotask/internal/session"
	"neurotask/pkg/audioconv"
)

// Replay feeds recorded utterances from a directory instead of a
// microphone, one file per Listen in name order. When the files run out the
// session ends with session.ErrStop.
type Replay struct {
	Dir string
	// Gap is slept between utterances to pace the loop.
	Gap time.Duration

	files []string
	next  int
}

func NewReplay(dir string) *Replay {
	return &Replay{Dir: dir}
}

func (r *Replay) Open(context.Context) error {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return fmt.Errorf("replay dir: %w", err)
	}

	r.files = r.files[:0]
	for _, e := range entries {
		if !e.IsDir() && audioconv.Supported(e.Name()) {
			r.files = append(r.files, filepath.Join(r.Dir, e.Name()))
		}
	}
	slices.Sort(r.files)
	r.next = 0

	if len(r.files) == 0 {
		return fmt.Errorf("replay dir %s: no audio files", r.Dir)
	}

	log.Info("Replaying recordings", "dir", r.Dir, "files", len(r.files))
	return nil
}

func (r *Replay) Listen(ctx context.Context) ([]float32, error) {
	for r.next < len(r.files) {
		path := r.files[r.next]
		r.next++

		if r.Gap > 0 && r.next > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.Gap):
			}
		}

		pcm, err := audioconv.DecodeFile(ctx, path, audioconv.Options{})
		if err != nil {
			log.Warn("Skipping recording", "file", path, "err", err)
			continue
		}

		log.Debug("Replayed", "file", filepath.Base(path), "samples", len(pcm))
		return pcm, nil
	}

	return nil, session.ErrStop
}

func (r *Replay) Close() error {
	r.next = len(r.files)
	return nil
}
