package audio

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"neurotask/internal/session"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
)

const frameDuration = time.Second * frameSize / SampleRate

// Microphone records utterances from the default input device. It owns a
// PortAudio stream between Open and Close.
type Microphone struct {
	Options ListenOptions
	// Ambient is how much background noise is sampled on Open to set the threshold.
	Ambient time.Duration

	buf       []float32
	stream    *portaudio.Stream
	threshold float64
}

func NewMicrophone(opt ListenOptions) *Microphone {
	return &Microphone{
		Options: opt,
		Ambient: 500 * time.Millisecond,
		buf:     make([]float32, frameSize),
	}
}

func (m *Microphone) Open(ctx context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("init audio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(m.buf), m.buf)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("open microphone: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("start microphone: %w", err)
	}

	m.stream = stream

	if err := m.calibrate(ctx); err != nil {
		m.Close()
		return err
	}

	return nil
}

// calibrate adjusts the speech threshold for ambient noise.
func (m *Microphone) calibrate(ctx context.Context) error {
	n := int(m.Ambient / frameDuration)
	levels := make([]float64, 0, n)

	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.read(); err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
		levels = append(levels, frameRMS(m.buf))
	}

	m.threshold = ambientThreshold(levels)
	log.Debug("Adjusted for ambient noise", "threshold", m.threshold)
	return nil
}

func (m *Microphone) read() error {
	err := m.stream.Read()
	if err == nil || errors.Is(err, portaudio.InputOverflowed) {
		return nil
	}
	return fmt.Errorf("%w: %w", session.ErrDeviceLost, err)
}

// Listen blocks until one phrase was recorded. It returns ErrListenTimeout
// if nobody spoke within Options.Timeout and an error wrapping
// session.ErrDeviceLost if the stream broke.
func (m *Microphone) Listen(ctx context.Context) ([]float32, error) {
	if m.stream == nil {
		return nil, errors.New("microphone not open")
	}

	seg := newSegmenter(m.threshold, frameDuration, m.Options)
	out := make([]float32, 0, SampleRate*3)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := m.read(); err != nil {
			return nil, err
		}

		keep, done, err := seg.push(frameRMS(m.buf))
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, m.buf...)
		}
		if done {
			return out, nil
		}
	}
}

func (m *Microphone) Close() error {
	if m.stream == nil {
		return nil
	}

	var errs []error
	errs = append(errs, m.stream.Stop(), m.stream.Close(), portaudio.Terminate())
	m.stream = nil

	return errors.Join(errs...)
}

// Available checks that PortAudio works and a default input device exists.
func Available() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	defer portaudio.Terminate()

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return fmt.Errorf("no default input device: %w", err)
	}

	log.Debug("Default input device", "name", dev.Name, "channels", dev.MaxInputChannels)
	return nil
}
