package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	ErrEmptyTitle      = errors.New("task title is empty")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrAmbiguousID     = errors.New("ambiguous task id")
)

// File is the on-disk shape: task id -> record, rewritten on every change.
type File map[string]Task

// Store keeps tasks in memory and writes the whole set to disk after each
// mutation.
type Store struct {
	path string
	now  func() time.Time

	mu    sync.RWMutex
	tasks map[string]Task
	order []string // insertion order
}

type Option func(*Store)

// WithClock overrides time.Now for created timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the store from path. A missing file yields an empty store; an
// unreadable or malformed file is logged and also yields an empty store.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:  path,
		now:   time.Now,
		tasks: make(map[string]Task),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil {
		log.Error("Load error, starting with empty task list", "path", path, "err", err)
		s.tasks = make(map[string]Task)
		s.order = nil
	}

	return s
}

func (s *Store) Path() string { return s.path }

// Add creates a task with a fresh id and the current time and persists the
// store. The task is kept in memory even when the write fails.
func (s *Store) Add(title, description string, priority Priority) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}
	if !priority.Valid() {
		return Task{}, fmt.Errorf("%w: %d", ErrInvalidPriority, int(priority))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := newTask(title, strings.TrimSpace(description), priority, s.now())
	for s.tasks[t.ID].ID != "" {
		t = newTask(t.Title, t.Description, t.Priority, t.CreatedAt)
	}

	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)

	return t, s.save()
}

// Complete removes a finished task. It reports whether the task existed.
func (s *Store) Complete(id string) (bool, error) {
	return s.remove(id)
}

// Delete removes a task. It reports whether the task existed.
func (s *Store) Delete(id string) (bool, error) {
	return s.remove(id)
}

func (s *Store) remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}

	delete(s.tasks, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })

	return true, s.save()
}

func (s *Store) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	return t, ok
}

// Resolve finds a task by full id or unique id prefix.
func (s *Store) Resolve(ref string) (Task, bool, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Task{}, false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.tasks[ref]; ok {
		return t, true, nil
	}

	var match []Task
	for _, id := range s.order {
		if strings.HasPrefix(id, ref) {
			match = append(match, s.tasks[id])
		}
	}

	switch len(match) {
	case 0:
		return Task{}, false, nil
	case 1:
		return match[0], true, nil
	default:
		return Task{}, false, fmt.Errorf("%w: %q matches %d tasks", ErrAmbiguousID, ref, len(match))
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// List returns all tasks sorted by priority rank, ties in insertion order.
func (s *Store) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id])
	}

	slices.SortStableFunc(out, func(a, b Task) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})

	return out
}

// Save writes the current set to disk.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.save()
}

// load reads the task file once. Insertion order across restarts follows
// the created timestamps.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}

	loaded := make([]Task, 0, len(raw))
	for key, msg := range raw {
		var t Task
		if err := json.Unmarshal(msg, &t); err != nil {
			log.Warn("Skipping invalid task record", "id", key, "err", err)
			continue
		}
		if t.ID == "" {
			t.ID = key
		}
		if strings.TrimSpace(t.Title) == "" {
			log.Warn("Skipping task without title", "id", key)
			continue
		}
		loaded = append(loaded, t)
	}

	slices.SortStableFunc(loaded, func(a, b Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	for _, t := range loaded {
		if _, dup := s.tasks[t.ID]; dup {
			continue
		}
		s.tasks[t.ID] = t
		s.order = append(s.order, t.ID)
	}

	log.Debug("Loaded tasks", "path", s.path, "count", len(s.tasks))
	return nil
}

// save writes the task file atomically. Callers hold the lock.
func (s *Store) save() error {
	file := make(File, len(s.tasks))
	for id, t := range s.tasks {
		file[id] = t
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		log.Error("Save error", "path", s.path, "err", err)
		return fmt.Errorf("encode tasks: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("Save error", "path", s.path, "err", err)
			return fmt.Errorf("save tasks: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Error("Save error", "path", s.path, "err", err)
		return fmt.Errorf("save tasks: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		log.Error("Save error", "path", s.path, "err", err)
		return fmt.Errorf("save tasks: %w", err)
	}

	return nil
}
