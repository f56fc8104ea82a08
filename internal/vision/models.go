package vision

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ModelFiles is a set of read-only model inputs resolved against a base
// directory, normally the directory holding the executable.
type ModelFiles struct {
	Dir   string
	Files map[string]string
}

func NewModelFiles(dir string, files map[string]string) ModelFiles {
	return ModelFiles{Dir: dir, Files: files}
}

// Path returns the absolute path of the named file.
func (m ModelFiles) Path(name string) string {
	p := m.Files[name]
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// Missing lists the files that do not exist, in name order.
func (m ModelFiles) Missing() []string {
	var out []string
	for _, name := range sortedKeys(m.Files) {
		if _, err := os.Stat(m.Path(name)); err != nil {
			out = append(out, m.Files[name])
		}
	}
	return out
}

// Check returns ErrModelUnavailable naming the missing files, or nil.
func (m ModelFiles) Check() error {
	missing := m.Missing()
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing files: %s", ErrModelUnavailable, strings.Join(missing, ", "))
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
