package cv

import (
	"fmt"
	"image"
	"image/color"
	"runtime"

	"gocv.io/x/gocv"

	"neurotask/internal/vision"
)

var (
	green = color.RGBA{G: 255}
	red   = color.RGBA{R: 255}
	blue  = color.RGBA{B: 255}
	white = color.RGBA{R: 255, G: 255, B: 255}
)

type Mode string

const (
	ModeObject  Mode = "object"
	ModeEmotion Mode = "emotion"
)

// Window shows annotated frames in an OpenCV highgui window and polls the
// keyboard for 'q' or Esc. The highgui window is created on the first Show
// and pins that goroutine to its OS thread until Close.
type Window struct {
	Title string
	Mode  Mode

	opened  bool
	win     *gocv.Window
	lastKey int
}

var _ vision.Display[gocv.Mat] = (*Window)(nil)

func NewWindow(title string, mode Mode) *Window {
	return &Window{Title: title, Mode: mode, lastKey: -1}
}

func (w *Window) Open() error {
	w.opened = true
	w.lastKey = -1
	return nil
}

func (w *Window) Show(frame gocv.Mat, res vision.Result, fps float64) error {
	if !w.opened {
		return fmt.Errorf("window not open")
	}
	if w.win == nil {
		runtime.LockOSThread()
		w.win = gocv.NewWindow(w.Title)
	}

	Annotate(&frame, w.Mode, res, fps)

	out := gocv.NewMat()
	defer out.Close()
	gocv.Resize(frame, &out, image.Pt(frameWidth, frameHeight), 0, 0, gocv.InterpolationLinear)

	w.win.IMShow(out)
	w.lastKey = w.win.WaitKey(1)
	return nil
}

func (w *Window) QuitRequested() bool {
	k := w.lastKey & 0xFF
	return w.lastKey >= 0 && (k == 'q' || k == 'Q' || k == 27)
}

func (w *Window) Close() error {
	w.opened = false
	if w.win == nil {
		return nil
	}
	err := w.win.Close()
	w.win = nil
	runtime.UnlockOSThread()
	return err
}

// Annotate draws the frame result in place.
func Annotate(img *gocv.Mat, mode Mode, res vision.Result, fps float64) {
	for _, d := range res.Detections {
		gocv.Rectangle(img, d.Box, green, 2)
		top := image.Pt(d.Box.Min.X, d.Box.Min.Y-10)

		switch {
		case res.Source == vision.SourceFallback:
			gocv.PutText(img, FallbackLabel(res), top, gocv.FontHersheySimplex, 0.7, green, 2)

		case mode == ModeEmotion:
			gocv.PutText(img, fmt.Sprintf("%s (%.1f%%)", d.Label, d.Confidence*100), top,
				gocv.FontHersheySimplex, 0.9, blue, 2)

			y := d.Box.Max.Y + 25
			for _, line := range d.Extra {
				gocv.PutText(img, line, image.Pt(d.Box.Min.X, y), gocv.FontHersheySimplex, 0.5, white, 1)
				y += 20
			}

		default:
			gocv.PutText(img, fmt.Sprintf("%s %.2f", d.Label, d.Confidence), top,
				gocv.FontHersheySimplex, 0.6, green, 2)
		}
	}

	if status := StatusLine(mode, res); status != "" {
		c := green
		if len(res.Detections) == 0 {
			c = red
		}
		gocv.PutText(img, status, image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, c, 2)
	}

	if mode == ModeObject {
		gocv.PutText(img, fmt.Sprintf("FPS: %d", int(fps)), image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, red, 2)
	}
}
