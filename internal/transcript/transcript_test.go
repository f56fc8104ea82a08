package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	at := time.Date(2024, 1, 1, 13, 4, 5, 0, time.Local)

	var published []string
	l := New(SinkFunc(func(e Entry) { published = append(published, e.String()) })).
		WithClock(func() time.Time { return at })

	l.System("Ready! Click 'Start Listening' to begin.")
	l.Add(User, "hello")
	l.Add(Assistant, "Hello! How can I help you today?")

	want := []string{
		"[13:04:05] Ready! Click 'Start Listening' to begin.",
		"[13:04:05] You: hello",
		"[13:04:05] Assistant: Hello! How can I help you today?",
	}
	assert.Equal(t, want, published)

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Seq, entries[1].Seq, entries[2].Seq})
}

func TestLog_ClearHidesButKeeps(t *testing.T) {
	l := New()
	l.Add(User, "one")
	l.Add(Assistant, "two")

	l.Clear()
	assert.Empty(t, l.Visible())
	assert.Equal(t, 2, l.Len())

	l.Add(User, "three")
	visible := l.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "three", visible[0].Text)
	assert.Equal(t, 3, visible[0].Seq)
}

func TestLog_EntriesIsCopy(t *testing.T) {
	l := New()
	l.Add(User, "a")

	got := l.Entries()
	got[0].Text = "mutated"

	assert.Equal(t, "a", l.Entries()[0].Text)
}

func TestLog_Subscribe(t *testing.T) {
	l := New()
	l.Add(User, "before")

	var seen []string
	l.Subscribe(SinkFunc(func(e Entry) { seen = append(seen, e.Text) }))
	l.Add(User, "after")

	assert.Equal(t, []string{"after"}, seen)
}
