// Package cv backs the vision contracts with OpenCV through gocv.
package cv

import (
	"context"
	"errors"
	"fmt"
	"image"
	log "log/slog"

	"gocv.io/x/gocv"

	"neurotask/internal/vision"
)

const (
	frameWidth  = 640
	frameHeight = 480
)

// Camera is a gocv capture device selected by index.
type Camera struct {
	Index int
	vc    *gocv.VideoCapture
}

var _ vision.Camera[gocv.Mat] = (*Camera)(nil)

func NewCamera(index int) *Camera {
	return &Camera{Index: index}
}

// Open requests 640x480 and performs a test read so that a device which
// opens but delivers no frames counts as unavailable.
func (c *Camera) Open(context.Context) error {
	vc, err := gocv.OpenVideoCapture(c.Index)
	if err != nil {
		return fmt.Errorf("camera %d not accessible: %w", c.Index, err)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, frameWidth)
	vc.Set(gocv.VideoCaptureFrameHeight, frameHeight)

	if !vc.IsOpened() {
		_ = vc.Close()
		return fmt.Errorf("camera %d not accessible", c.Index)
	}

	test := gocv.NewMat()
	defer test.Close()
	if ok := vc.Read(&test); !ok || test.Empty() {
		_ = vc.Close()
		return fmt.Errorf("camera %d can't read frames", c.Index)
	}

	log.Info("Camera opened", "index", c.Index, "width", test.Cols(), "height", test.Rows())
	c.vc = vc
	return nil
}

func (c *Camera) Read() (gocv.Mat, error) {
	if c.vc == nil {
		return gocv.Mat{}, errors.New("camera not open")
	}

	m := gocv.NewMat()
	if ok := c.vc.Read(&m); !ok || m.Empty() {
		m.Close()
		return gocv.Mat{}, vision.ErrReadFailed
	}
	return m, nil
}

func (c *Camera) Release(frame gocv.Mat) {
	frame.Close()
}

func (c *Camera) Bounds(frame gocv.Mat) image.Rectangle {
	return image.Rect(0, 0, frame.Cols(), frame.Rows())
}

func (c *Camera) Close() error {
	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	log.Info("Camera closed", "index", c.Index)
	return err
}

// ProbeResult describes one camera index tested by Probe.
type ProbeResult struct {
	Index    int
	Opened   bool
	Readable bool
	Width    int
	Height   int
}

// Probe opens camera indices [0, n) one after another and reports which of
// them deliver frames.
func Probe(n int) []ProbeResult {
	out := make([]ProbeResult, 0, n)

	for i := range n {
		res := ProbeResult{Index: i}

		vc, err := gocv.OpenVideoCapture(i)
		if err != nil || !vc.IsOpened() {
			if vc != nil {
				_ = vc.Close()
			}
			out = append(out, res)
			continue
		}
		res.Opened = true

		m := gocv.NewMat()
		if vc.Read(&m) && !m.Empty() {
			res.Readable = true
			res.Width, res.Height = m.Cols(), m.Rows()
		}
		m.Close()
		_ = vc.Close()

		out = append(out, res)
	}

	return out
}
