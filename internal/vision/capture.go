package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	log "log/slog"
	"time"

	"neurotask/internal/session"
)

var ErrReadFailed = errors.New("can't read frame")

// Camera is an exclusively owned capture device.
type Camera[F any] interface {
	Open(ctx context.Context) error
	// Read returns the next frame. The caller hands it back with Release.
	Read() (F, error)
	Release(frame F)
	Bounds(frame F) image.Rectangle
	Close() error
}

// Display annotates and shows frames.
type Display[F any] interface {
	Open() error
	Show(frame F, res Result, fps float64) error
	// QuitRequested polls for the quit key after a frame was shown.
	QuitRequested() bool
	Close() error
}

// Capture is the camera loop worker: read, detect, annotate, show.
type Capture[F any] struct {
	Camera   Camera[F]
	Detector *Fallback[F]
	Display  Display[F]

	// OnFrame, if set, receives every frame result after normalization.
	OnFrame func(Result)

	Now  func() time.Time
	last time.Time
}

var _ session.Worker = (*Capture[struct{}])(nil)

func (c *Capture[F]) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Capture[F]) Open(ctx context.Context) error {
	if err := c.Camera.Open(ctx); err != nil {
		return err
	}

	if c.Display != nil {
		if err := c.Display.Open(); err != nil {
			_ = c.Camera.Close()
			return fmt.Errorf("open display: %w", err)
		}
	}

	c.last = c.now()
	return nil
}

func (c *Capture[F]) Step(context.Context) error {
	frame, err := c.Camera.Read()
	if err != nil {
		return session.Fatal(fmt.Errorf("%w: %w", ErrReadFailed, err))
	}
	defer c.Camera.Release(frame)

	res, detErr := c.Detector.Detect(frame)
	if res.PrimaryErr != nil && c.Detector.HasPrimary() {
		log.Warn("Detection error, using fallback", "err", res.PrimaryErr)
	}

	bounds := c.Camera.Bounds(frame)
	for i := range res.Detections {
		res.Detections[i] = res.Detections[i].Normalize(bounds)
	}

	now := c.now()
	fps := 0.0
	if dt := now.Sub(c.last).Seconds(); dt > 0 {
		fps = 1 / dt
	}
	c.last = now

	if c.OnFrame != nil {
		c.OnFrame(res)
	}

	if c.Display != nil {
		if err := c.Display.Show(frame, res, fps); err != nil {
			return fmt.Errorf("show frame: %w", err)
		}
		if c.Display.QuitRequested() {
			return session.ErrStop
		}
	}

	return detErr
}

func (c *Capture[F]) Close() error {
	var errs []error
	if c.Display != nil {
		errs = append(errs, c.Display.Close())
	}
	errs = append(errs, c.Camera.Close())
	return errors.Join(errs...)
}
