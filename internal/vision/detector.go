// Package vision holds the frame-level detection contract shared by the
// object and emotion tools, the primary/fallback detector policy and the
// capture loop worker. It does not depend on OpenCV; see package cv.
package vision

import (
	"errors"
	"fmt"
	"image"
)

// ErrModelUnavailable is returned by detector constructors when model files
// are missing or fail to load.
var ErrModelUnavailable = errors.New("model unavailable")

// Detection is one labelled box found in a frame.
type Detection struct {
	Box        image.Rectangle
	Label      string
	Confidence float64
	// Extra holds secondary lines drawn under the box, e.g. runner-up emotions.
	Extra []string
}

// Normalize clamps the box into bounds and the confidence into [0,1].
func (d Detection) Normalize(bounds image.Rectangle) Detection {
	d.Box = d.Box.Canon().Intersect(bounds)

	switch {
	case d.Confidence < 0:
		d.Confidence = 0
	case d.Confidence > 1:
		d.Confidence = 1
	}

	return d
}

func (d Detection) String() string {
	return fmt.Sprintf("%s %.2f %v", d.Label, d.Confidence, d.Box)
}

// Detector runs single-frame inference.
type Detector[F any] interface {
	Detect(frame F) ([]Detection, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc[F any] func(frame F) ([]Detection, error)

func (f DetectorFunc[F]) Detect(frame F) ([]Detection, error) { return f(frame) }

type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// Result is what the policy produced for one frame.
type Result struct {
	Detections []Detection
	Source     Source
	// PrimaryErr is set when the primary failed on this frame.
	PrimaryErr error
}

// Fallback tries Primary first and falls back to Secondary for the current
// frame only when it fails. A nil Primary means it never initialized and
// every frame goes to Secondary.
type Fallback[F any] struct {
	Primary   Detector[F]
	Secondary Detector[F]
}

func (p *Fallback[F]) Detect(frame F) (Result, error) {
	var primaryErr error

	if p.Primary != nil {
		dets, err := p.Primary.Detect(frame)
		if err == nil {
			return Result{Detections: dets, Source: SourcePrimary}, nil
		}
		primaryErr = err
	}

	if p.Secondary == nil {
		if primaryErr == nil {
			primaryErr = ErrModelUnavailable
		}
		return Result{Source: SourceFallback, PrimaryErr: primaryErr}, fmt.Errorf("no fallback detector: %w", primaryErr)
	}

	dets, err := p.Secondary.Detect(frame)
	if err != nil {
		return Result{Source: SourceFallback, PrimaryErr: primaryErr}, fmt.Errorf("fallback detector: %w", err)
	}

	return Result{Detections: dets, Source: SourceFallback, PrimaryErr: primaryErr}, nil
}

// HasPrimary reports whether the primary path is ever attempted.
func (p *Fallback[F]) HasPrimary() bool {
	return p.Primary != nil
}
