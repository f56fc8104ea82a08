// Package launcher knows the NeuroTask tools and starts each one as its own
// process.
package launcher

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"
)

var ErrToolNotFound = errors.New("could not find tool")

type Tool struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Binary      string   `yaml:"binary"`
	Args        []string `yaml:"args,omitempty"`
	Color       string   `yaml:"color"`
	// Interactive tools need a terminal of their own.
	Interactive bool `yaml:"interactive,omitempty"`
}

type Registry struct {
	// Terminal is the command prefix used to open interactive tools in a new
	// terminal window, e.g. ["foot", "-e"]. Empty runs them in the foreground.
	Terminal []string `yaml:"terminal,omitempty"`
	Tools    []Tool   `yaml:"tools"`
}

func Default() Registry {
	return Registry{Tools: []Tool{
		{
			ID:          "voice",
			Name:        "Voice Assistant",
			Description: "Speech recognition and text-to-speech",
			Binary:      "neurotask-voice",
			Args:        []string{"--autostart"},
			Color:       "#3b82f6",
		},
		{
			ID:          "object",
			Name:        "Object Detection",
			Description: "Real-time object detection",
			Binary:      "neurotask-detect",
			Args:        []string{"--mode", "object"},
			Color:       "#10b981",
		},
		{
			ID:          "emotion",
			Name:        "Emotion Detection",
			Description: "Face emotion recognition",
			Binary:      "neurotask-detect",
			Args:        []string{"--mode", "emotion"},
			Color:       "#f59e0b",
		},
		{
			ID:          "todo",
			Name:        "To-Do List",
			Description: "Smart task manager",
			Binary:      "neurotask-todo",
			Color:       "#8b5cf6",
			Interactive: true,
		},
	}}
}

// Load reads a YAML registry. A file without tools keeps the default tools,
// so it may only set the terminal.
func Load(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, err
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return Registry{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if len(reg.Tools) == 0 {
		reg.Tools = Default().Tools
	}

	for i, t := range reg.Tools {
		if t.Binary == "" {
			return Registry{}, fmt.Errorf("%s: tool %d has no binary", path, i+1)
		}
		if t.ID == "" {
			reg.Tools[i].ID = t.Binary
		}
		if t.Name == "" {
			reg.Tools[i].Name = t.Binary
		}
	}

	return reg, nil
}

// Find matches a tool by id or, case-insensitively, by name.
func (r Registry) Find(ref string) (Tool, bool) {
	for _, t := range r.Tools {
		if t.ID == ref || strings.EqualFold(t.Name, ref) {
			return t, true
		}
	}
	return Tool{}, false
}

type Launched struct {
	Tool Tool
	PID  int
	// Foreground is set when the tool ran attached to this terminal and has
	// already exited.
	Foreground bool
}

type Launcher struct {
	Registry Registry
	// Dir is searched before PATH, normally the launcher's own directory.
	Dir string

	lookPath func(string) (string, error)
}

func New(reg Registry, dir string) *Launcher {
	return &Launcher{Registry: reg, Dir: dir, lookPath: exec.LookPath}
}

// Resolve finds the tool's executable next to the launcher or on PATH.
func (l *Launcher) Resolve(t Tool) (string, error) {
	if filepath.IsAbs(t.Binary) {
		if isExecutable(t.Binary) {
			return t.Binary, nil
		}
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, t.Binary)
	}

	if l.Dir != "" {
		if p := filepath.Join(l.Dir, t.Binary); isExecutable(p) {
			return p, nil
		}
	}

	if p, err := l.lookPath(t.Binary); err == nil {
		return p, nil
	}

	return "", fmt.Errorf("%w: %s", ErrToolNotFound, t.Binary)
}

// Launch starts the tool without waiting for it. Nothing is shared with the
// child after start. Interactive tools are run in the foreground unless a
// terminal prefix is configured.
func (l *Launcher) Launch(t Tool) (Launched, error) {
	path, err := l.Resolve(t)
	if err != nil {
		return Launched{}, err
	}

	if t.Interactive && len(l.Registry.Terminal) == 0 {
		cmd := exec.Command(path, t.Args...)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr

		if err := cmd.Run(); err != nil {
			return Launched{}, fmt.Errorf("run %s: %w", t.Name, err)
		}
		return Launched{Tool: t, PID: cmd.ProcessState.Pid(), Foreground: true}, nil
	}

	argv := append([]string{path}, t.Args...)
	if t.Interactive {
		argv = append(append([]string(nil), l.Registry.Terminal...), argv...)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	// own process group, so quitting the launcher leaves the tool running
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return Launched{}, fmt.Errorf("launch %s: %w", t.Name, err)
	}

	pid := cmd.Process.Pid
	log.Info("Launched", "tool", t.ID, "pid", pid)

	go func() {
		err := cmd.Wait()
		log.Debug("Tool exited", "tool", t.ID, "pid", pid, "err", err)
	}()

	return Launched{Tool: t, PID: pid}, nil
}

func isExecutable(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir() && st.Mode()&0o111 != 0
}
