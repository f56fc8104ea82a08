package main

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	cli "github.com/spf13/pflag"
	"gocv.io/x/gocv"

	"neurotask/internal/logging"
	"neurotask/internal/session"
	"neurotask/internal/vision"
	"neurotask/internal/vision/cv"
	"neurotask/pkg/util"
)

func main() {
	mode := cli.StringP("mode", "m", string(cv.ModeObject), "object or emotion")
	camera := cli.IntP("camera", "c", 0, "Camera index (0 or 1)")
	probe := cli.Bool("probe", false, "Test camera indices 0-4 and exit")
	cascade := cli.String("cascade", "", "Haar face cascade path")
	models := cli.String("models", "", "Model directory (default: next to the executable)")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	logging.Setup(os.Stderr, "detect", *logLevel)

	if *probe {
		report(os.Stdout, cv.Probe(5))
		return
	}

	m := cv.Mode(*mode)
	if m != cv.ModeObject && m != cv.ModeEmotion {
		log.Error("Unknown mode", "mode", *mode)
		os.Exit(2)
	}

	dir := *models
	if dir == "" {
		dir = util.ExecutableDir()
	}

	det, cleanup := detectors(m, dir, *cascade)
	defer cleanup()

	title := "Object Detection"
	if m == cv.ModeEmotion {
		title = "Emotion Detection"
	}

	capture := &vision.Capture[gocv.Mat]{
		Camera:   cv.NewCamera(*camera),
		Detector: det,
		Display:  cv.NewWindow(title+" - Press Q to quit", m),
	}

	s := session.New(string(m), capture)
	s.OnError = func(err error) {
		if session.IsFatal(err) {
			fmt.Fprintln(os.Stderr, "Can't read frame:", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Camera %d not accessible: %v\n\nTry the other camera option.\n", *camera, err)
		cleanup()
		os.Exit(1)
	}

	log.Info("Detection running", "mode", m, "camera", *camera, "primary", det.HasPrimary())
	s.Wait()
	log.Info("Stopped")
}

// detectors builds the primary/fallback pair for mode. Missing model files
// only disable the primary path.
func detectors(mode cv.Mode, dir, cascadePath string) (*vision.Fallback[gocv.Mat], func()) {
	var closers []io.Closer
	cleanup := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	det := &vision.Fallback[gocv.Mat]{}

	var faces *cv.FaceDetector
	path, ok := util.FirstExisting(append([]string{cascadePath, filepath.Join(dir, cv.CascadeFile)}, cv.CascadeCandidates...)...)
	if ok {
		f, err := cv.NewFaceDetector(path)
		if err != nil {
			log.Warn("Face cascade unusable", "path", path, "err", err)
		} else {
			faces = f
			closers = append(closers, f)
			det.Secondary = f
		}
	} else {
		log.Warn("Face cascade not found, fallback disabled", "file", cv.CascadeFile)
	}
	if det.Secondary == nil {
		det.Secondary = vision.DetectorFunc[gocv.Mat](func(gocv.Mat) ([]vision.Detection, error) {
			return nil, nil
		})
	}

	switch mode {
	case cv.ModeObject:
		o, err := cv.NewObjectDetector(cv.ObjectModel(dir))
		if err != nil {
			log.Warn("Model files not found, using face detection", "err", err)
			break
		}
		closers = append(closers, o)
		det.Primary = o

	case cv.ModeEmotion:
		e, err := cv.NewEmotionDetector(cv.EmotionModel(dir), faces)
		if err != nil {
			log.Warn("Emotion classifier unavailable, using face detection", "err", err)
			break
		}
		closers = append(closers, e)
		det.Primary = e
	}

	return det, cleanup
}

func report(w io.Writer, results []cv.ProbeResult) {
	working := 0
	for _, r := range results {
		fmt.Fprintf(w, "Testing camera index %d...\n", r.Index)
		switch {
		case !r.Opened:
			fmt.Fprintf(w, "  Camera %d not accessible\n", r.Index)
		case !r.Readable:
			fmt.Fprintf(w, "  Camera %d opened but can't read frames\n", r.Index)
		default:
			working++
			fmt.Fprintf(w, "  Camera %d WORKS! Frame %dx%d\n", r.Index, r.Width, r.Height)
		}
	}
	fmt.Fprintf(w, "\nOpenCV version: %s\n", gocv.OpenCVVersion())

	if working == 0 {
		fmt.Fprintln(w, "No working camera found")
		return
	}
	fmt.Fprintf(w, "%d working camera(s)\n", working)
}
