package tasks

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurotask/pkg/util"
)

func tickingClock() func() time.Time {
	t := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "tasks.json"), WithClock(tickingClock()))
}

type tuple struct {
	ID, Title, Description string
	Priority               Priority
}

func tupleOf(t Task) tuple {
	return tuple{t.ID, t.Title, t.Description, t.Priority}
}

func key(t Task) string {
	b, _ := json.Marshal(tupleOf(t))
	return string(b)
}

func TestStore_Add(t *testing.T) {
	s := newStore(t)

	task, err := s.Add("  Buy milk ", " 2 litres ", High)
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "2 litres", task.Description)
	assert.Equal(t, High, task.Priority)
	assert.False(t, task.CreatedAt.IsZero())
	assert.Equal(t, 1, s.Len())

	got, ok := s.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, task, got)

	_, err = os.Stat(s.Path())
	assert.NoError(t, err, "add persists immediately")
}

func TestStore_AddValidation(t *testing.T) {
	s := newStore(t)

	_, err := s.Add("   ", "", Low)
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = s.Add("x", "", Priority(9))
	assert.ErrorIs(t, err, ErrInvalidPriority)

	assert.Zero(t, s.Len())
}

func TestStore_UniqueIDs(t *testing.T) {
	s := newStore(t)

	seen := map[string]bool{}
	for range 50 {
		task, err := s.Add("t", "", Medium)
		require.NoError(t, err)
		assert.False(t, seen[task.ID])
		seen[task.ID] = true
	}
	assert.Equal(t, 50, s.Len())
}

func TestStore_ListOrder(t *testing.T) {
	s := newStore(t)

	crit, _ := s.Add("crit", "", Critical)
	low1, _ := s.Add("low1", "", Low)
	med, _ := s.Add("med", "", Medium)
	high, _ := s.Add("high", "", High)
	low2, _ := s.Add("low2", "", Low)

	got := util.Keys(s.List(), func(t Task) string { return t.ID })
	assert.Equal(t, []string{crit.ID, high.ID, med.ID, low1.ID, low2.ID}, got)
	assert.True(t, isSortedBy(s.List(), func(t Task) int { return t.Priority.Rank() }))
}

func TestStore_LowAfterCriticalKeepsCriticalFirst(t *testing.T) {
	s := newStore(t)

	c, _ := s.Add("urgent", "", Critical)
	for range 3 {
		_, _ = s.Add("later", "", Low)
	}

	list := s.List()
	require.Len(t, list, 4)
	assert.Equal(t, c.ID, list[0].ID)
}

func TestStore_RemoveUnknownIsNoop(t *testing.T) {
	s := newStore(t)
	_, _ = s.Add("a", "", Low)
	_, _ = s.Add("b", "", High)

	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	ok, err := s.Complete("nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Delete("nope")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 2, s.Len())

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_CompleteAndDelete(t *testing.T) {
	s := newStore(t)
	a, _ := s.Add("a", "", Low)
	b, _ := s.Add("b", "", High)
	c, _ := s.Add("c", "", Medium)

	ok, err := s.Complete(a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete(b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{c.ID}, util.Keys(s.List(), func(t Task) string { return t.ID }))

	reloaded := Open(s.Path())
	assert.Equal(t, 1, reloaded.Len())
	_, ok = reloaded.Get(c.ID)
	assert.True(t, ok)
}

func TestStore_RoundTrip(t *testing.T) {
	s := newStore(t)
	_, _ = s.Add("Write report", "quarterly numbers", Critical)
	_, _ = s.Add("Call mom", "", Medium)
	_, _ = s.Add("Water plants", "balcony", Low)
	_, _ = s.Add("Pay rent", "", High)

	reloaded := Open(s.Path())

	assert.True(t, sameElements(s.List(), reloaded.List(), key))
	assert.Equal(t, util.Keys(s.List(), key), util.Keys(reloaded.List(), key),
		"insertion order survives reload")
}

func TestStore_FileFormat(t *testing.T) {
	s := newStore(t)
	task, err := s.Add("Title", "Desc", Critical)
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, task.ID)

	rec := raw[task.ID]
	assert.Equal(t, task.ID, rec["id"])
	assert.Equal(t, "Title", rec["title"])
	assert.Equal(t, "Desc", rec["description"])
	assert.Equal(t, "Critical", rec["priority"])
	assert.Equal(t, "2024-03-05T09:01:00Z", rec["created_at"])
}

func TestOpen_FailSoft(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"garbage", "{not json", 0},
		{"wrong shape", `["a","b"]`, 0},
		{"empty file", "", 0},
		{"bad priority dropped", `{
			"a": {"id":"a","title":"ok","description":"","priority":"High","created_at":"2024-01-01T10:00:00Z"},
			"b": {"id":"b","title":"bad","description":"","priority":"Urgent","created_at":"2024-01-01T10:00:00Z"}
		}`, 1},
		{"missing priority dropped", `{
			"a": {"id":"a","title":"ok","description":"","priority":"Low","created_at":"2024-01-01T10:00:00Z"},
			"b": {"id":"b","title":"no priority","description":"","created_at":"2024-01-01T10:00:00Z"},
			"c": {"id":"c","title":"null priority","description":"","priority":null,"created_at":"2024-01-01T10:00:00Z"}
		}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tasks.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			s := Open(path)
			assert.Equal(t, tt.want, s.Len())

			_, err := s.Add("still works", "", Low)
			assert.NoError(t, err)
		})
	}
}

func TestOpen_MissingFile(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "nested", "tasks.json"))
	assert.Zero(t, s.Len())

	_, err := s.Add("first", "", Medium)
	require.NoError(t, err)
	assert.FileExists(t, s.Path())
}

func TestOpen_LegacyTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	content := `{
		"x": {"id":"x","title":"second","description":"","priority":"Low","created_at":"2024-01-02T08:00:00.123456"},
		"y": {"id":"y","title":"first","description":"d","priority":"Low","created_at":"2024-01-01T08:00:00"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s := Open(path)
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "y", list[0].ID)
	assert.Equal(t, "x", list[1].ID)
	assert.Equal(t, 2024, list[1].CreatedAt.Year())
}

func TestStore_SaveFailureKeepsMemory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	// parent of the task file is a regular file, so every write fails
	s := Open(filepath.Join(blocker, "tasks.json"))

	task, err := s.Add("keep me", "", High)
	require.Error(t, err)
	assert.Equal(t, 1, s.Len())

	_, ok := s.Get(task.ID)
	assert.True(t, ok)
}

func TestStore_Resolve(t *testing.T) {
	s := newStore(t)
	a, _ := s.Add("a", "", Low)

	got, ok, err := s.Resolve(a.ID[:8])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a.ID, got.ID)

	_, ok, err = s.Resolve("zzzz")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Resolve("")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPriority(t *testing.T) {
	for _, p := range Priorities {
		parsed, err := ParsePriority(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	p, err := ParsePriority(" critical ")
	require.NoError(t, err)
	assert.Equal(t, Critical, p)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)

	assert.Less(t, Critical.Rank(), High.Rank())
	assert.Less(t, High.Rank(), Medium.Rank())
	assert.Less(t, Medium.Rank(), Low.Rank())

	_, err = json.Marshal(Priority(42))
	assert.Error(t, err)
}

func TestTask_MissingPriority(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"id":"x","title":"t","created_at":"2024-01-01T10:00:00Z"}`), &task)
	assert.ErrorIs(t, err, ErrInvalidPriority)

	err = json.Unmarshal([]byte(`{"id":"x","title":"t","priority":"High","created_at":"2024-01-01T10:00:00Z"}`), &task)
	require.NoError(t, err)
	assert.Equal(t, High, task.Priority)
}
