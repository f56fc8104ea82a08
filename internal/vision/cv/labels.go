package cv

import (
	"fmt"
	"math"
	"sort"

	"neurotask/internal/vision"
)

// ClassName maps a one-based COCO class id onto the names list.
func ClassName(classes []string, id int) string {
	if id < 1 || id > len(classes) {
		return fmt.Sprintf("class %d", id)
	}
	return classes[id-1]
}

// FER+ output order.
var Emotions = []string{"neutral", "happy", "surprise", "sad", "angry", "disgust", "fear", "contempt"}

// Score is one emotion probability.
type Score struct {
	Emotion string
	Value   float64
}

// Rank converts raw logits into probabilities sorted high to low.
func Rank(logits []float32) []Score {
	if len(logits) == 0 {
		return nil
	}

	maxv := float64(logits[0])
	for _, v := range logits[1:] {
		maxv = math.Max(maxv, float64(v))
	}

	var sum float64
	probs := make([]float64, len(logits))
	for i, v := range logits {
		probs[i] = math.Exp(float64(v) - maxv)
		sum += probs[i]
	}

	out := make([]Score, 0, len(logits))
	for i, p := range probs {
		name := fmt.Sprintf("emotion %d", i)
		if i < len(Emotions) {
			name = Emotions[i]
		}
		out = append(out, Score{Emotion: name, Value: p / sum})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// FallbackLabel is drawn over faces found by the cascade path.
func FallbackLabel(res vision.Result) string {
	if res.PrimaryErr != nil {
		return "Face (no emotion)"
	}
	return "Face Detected"
}

// StatusLine is the top-left banner for emotion mode.
func StatusLine(mode Mode, res vision.Result) string {
	if mode != ModeEmotion {
		return ""
	}

	switch {
	case res.Source == vision.SourcePrimary && len(res.Detections) == 0:
		return "No face detected"
	case res.Source == vision.SourceFallback && res.PrimaryErr == nil && len(res.Detections) > 0:
		return fmt.Sprintf("Faces: %d", len(res.Detections))
	default:
		return ""
	}
}
