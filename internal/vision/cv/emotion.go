package cv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"neurotask/internal/vision"
)

// EmotionModel names the FER+ ONNX classifier expected next to the binary.
func EmotionModel(dir string) vision.ModelFiles {
	return vision.NewModelFiles(dir, map[string]string{
		"classifier": "emotion-ferplus-8.onnx",
	})
}

const ferInputSize = 64

// EmotionDetector finds faces and classifies the expression of each one.
type EmotionDetector struct {
	faces *FaceDetector
	net   gocv.Net
}

var _ vision.Detector[gocv.Mat] = (*EmotionDetector)(nil)

// NewEmotionDetector shares the face cascade with the fallback path; only
// the classifier is owned by the detector.
func NewEmotionDetector(files vision.ModelFiles, faces *FaceDetector) (*EmotionDetector, error) {
	if faces == nil {
		return nil, fmt.Errorf("%w: no face cascade", vision.ErrModelUnavailable)
	}
	if err := files.Check(); err != nil {
		return nil, err
	}

	net := gocv.ReadNet(files.Path("classifier"), "")
	if net.Empty() {
		return nil, fmt.Errorf("%w: cannot read emotion classifier", vision.ErrModelUnavailable)
	}

	return &EmotionDetector{faces: faces, net: net}, nil
}

func (e *EmotionDetector) Detect(frame gocv.Mat) ([]vision.Detection, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	bounds := image.Rect(0, 0, gray.Cols(), gray.Rows())

	var out []vision.Detection
	for _, box := range e.faces.faces(gray) {
		box = box.Intersect(bounds)
		if box.Empty() {
			continue
		}

		scores, err := e.classify(gray, box)
		if err != nil {
			return nil, err
		}

		det := vision.Detection{
			Box:        box,
			Label:      scores[0].Emotion,
			Confidence: scores[0].Value,
		}
		for _, s := range scores[:min(3, len(scores))] {
			det.Extra = append(det.Extra, fmt.Sprintf("%s: %.0f%%", s.Emotion, s.Value*100))
		}
		out = append(out, det)
	}

	return out, nil
}

func (e *EmotionDetector) classify(gray gocv.Mat, box image.Rectangle) ([]Score, error) {
	roi := gray.Region(box)
	defer roi.Close()

	blob := gocv.BlobFromImage(roi, 1.0, image.Pt(ferInputSize, ferInputSize),
		gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	prob := e.net.Forward("")
	defer prob.Close()

	n := prob.Total()
	if n == 0 {
		return nil, fmt.Errorf("empty emotion output")
	}

	logits := make([]float32, n)
	for i := range n {
		logits[i] = prob.GetFloatAt(0, i)
	}

	return Rank(logits), nil
}

func (e *EmotionDetector) Close() error {
	return e.net.Close()
}
