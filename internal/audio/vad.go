package audio

import (
	"fmt"
	"math"
	"time"

	"neurotask/internal/session"
)

// ErrListenTimeout wraps session.ErrNoInput so the session loop skips it.
var ErrListenTimeout = fmt.Errorf("listening timed out while waiting for phrase to start: %w", session.ErrNoInput)

// ListenOptions bounds one utterance.
type ListenOptions struct {
	// Timeout is how long to wait for speech to begin. Zero waits forever.
	Timeout time.Duration
	// PhraseLimit caps the utterance length once speech began. Zero is unlimited.
	PhraseLimit time.Duration
	// Pause is the trailing silence that ends a phrase.
	Pause time.Duration
}

func DefaultListenOptions() ListenOptions {
	return ListenOptions{
		Timeout:     5 * time.Second,
		PhraseLimit: 10 * time.Second,
		Pause:       600 * time.Millisecond,
	}
}

const (
	minThresholdRMS = 0.015
	ambientFactor   = 2.0
)

// segmenter is the energy-based voice activity detector used by Listen.
// Frames are fed one at a time together with their RMS.
type segmenter struct {
	threshold float64
	frame     time.Duration
	opt       ListenOptions

	speaking bool
	waited   time.Duration
	spoken   time.Duration
	silence  time.Duration
}

func newSegmenter(threshold float64, frame time.Duration, opt ListenOptions) *segmenter {
	return &segmenter{threshold: threshold, frame: frame, opt: opt}
}

// push reports whether the frame belongs to the utterance and whether the
// utterance is complete.
func (s *segmenter) push(rms float64) (keep, done bool, err error) {
	loud := rms > s.threshold

	if !s.speaking {
		if !loud {
			s.waited += s.frame
			if s.opt.Timeout > 0 && s.waited >= s.opt.Timeout {
				return false, false, ErrListenTimeout
			}
			return false, false, nil
		}
		s.speaking = true
	}

	s.spoken += s.frame
	if loud {
		s.silence = 0
	} else {
		s.silence += s.frame
	}

	if s.opt.Pause > 0 && s.silence >= s.opt.Pause {
		return true, true, nil
	}
	if s.opt.PhraseLimit > 0 && s.spoken >= s.opt.PhraseLimit {
		return true, true, nil
	}

	return true, false, nil
}

// ambientThreshold derives the speech threshold from a short recording of
// background noise.
func ambientThreshold(levels []float64) float64 {
	if len(levels) == 0 {
		return minThresholdRMS
	}

	var sum float64
	for _, l := range levels {
		sum += l
	}

	return math.Max(minThresholdRMS, ambientFactor*sum/float64(len(levels)))
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
