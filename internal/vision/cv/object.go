package cv

import (
	"fmt"
	"image"
	"os"
	"strings"

	"gocv.io/x/gocv"

	"neurotask/internal/vision"
)

// ObjectModel names the SSD MobileNet v3 COCO files expected next to the binary.
func ObjectModel(dir string) vision.ModelFiles {
	return vision.NewModelFiles(dir, map[string]string{
		"classes": "coco.names",
		"config":  "ssd_mobilenet_v3_large_coco_2020_01_14.pbtxt",
		"weights": "frozen_inference_graph.pb",
	})
}

const (
	ssdInputSize = 320
	ssdThreshold = 0.5
)

// ObjectDetector runs SSD MobileNet over a frame.
type ObjectDetector struct {
	net     gocv.Net
	classes []string
}

var _ vision.Detector[gocv.Mat] = (*ObjectDetector)(nil)

func NewObjectDetector(files vision.ModelFiles) (*ObjectDetector, error) {
	if err := files.Check(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(files.Path("classes"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vision.ErrModelUnavailable, err)
	}
	classes := strings.Split(strings.TrimSpace(string(raw)), "\n")

	net := gocv.ReadNet(files.Path("weights"), files.Path("config"))
	if net.Empty() {
		return nil, fmt.Errorf("%w: cannot read network", vision.ErrModelUnavailable)
	}

	return &ObjectDetector{net: net, classes: classes}, nil
}

// Detect returns every box above the confidence threshold. SSD rows are
// [batch, classId, confidence, left, top, right, bottom] with coordinates
// normalized to the frame.
func (d *ObjectDetector) Detect(frame gocv.Mat) ([]vision.Detection, error) {
	blob := gocv.BlobFromImage(frame, 1/127.5, image.Pt(ssdInputSize, ssdInputSize),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	prob := d.net.Forward("")
	defer prob.Close()

	if prob.Empty() || prob.Total()%7 != 0 {
		return nil, fmt.Errorf("unexpected network output of %d values", prob.Total())
	}

	w, h := float32(frame.Cols()), float32(frame.Rows())

	var out []vision.Detection
	for i := 0; i < prob.Total(); i += 7 {
		conf := prob.GetFloatAt(0, i+2)
		if conf < ssdThreshold {
			continue
		}

		classID := int(prob.GetFloatAt(0, i+1))
		out = append(out, vision.Detection{
			Box: image.Rect(
				int(prob.GetFloatAt(0, i+3)*w),
				int(prob.GetFloatAt(0, i+4)*h),
				int(prob.GetFloatAt(0, i+5)*w),
				int(prob.GetFloatAt(0, i+6)*h),
			),
			Label:      ClassName(d.classes, classID),
			Confidence: float64(conf),
		})
	}

	return out, nil
}

func (d *ObjectDetector) Close() error {
	return d.net.Close()
}
