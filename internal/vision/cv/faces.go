package cv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"neurotask/internal/vision"
)

// CascadeFile is the Haar frontal face model shipped with OpenCV.
const CascadeFile = "haarcascade_frontalface_default.xml"

// CascadeCandidates lists where the face cascade is looked up after the
// executable directory.
var CascadeCandidates = []string{
	"/usr/share/opencv4/haarcascades/" + CascadeFile,
	"/usr/local/share/opencv4/haarcascades/" + CascadeFile,
	"/usr/share/opencv/haarcascades/" + CascadeFile,
}

// FaceDetector is the always-available geometric face detector.
type FaceDetector struct {
	classifier gocv.CascadeClassifier
	Label      string
}

var _ vision.Detector[gocv.Mat] = (*FaceDetector)(nil)

func NewFaceDetector(path string) (*FaceDetector, error) {
	c := gocv.NewCascadeClassifier()
	if !c.Load(path) {
		_ = c.Close()
		return nil, fmt.Errorf("%w: load cascade %s", vision.ErrModelUnavailable, path)
	}
	return &FaceDetector{classifier: c, Label: "Face"}, nil
}

func (f *FaceDetector) faces(gray gocv.Mat) []image.Rectangle {
	return f.classifier.DetectMultiScaleWithParams(gray, 1.3, 5, 0, image.Point{}, image.Point{})
}

func (f *FaceDetector) Detect(frame gocv.Mat) ([]vision.Detection, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	rects := f.faces(gray)
	out := make([]vision.Detection, 0, len(rects))
	for _, r := range rects {
		out = append(out, vision.Detection{Box: r, Label: f.Label, Confidence: 1})
	}
	return out, nil
}

func (f *FaceDetector) Close() error {
	return f.classifier.Close()
}
