// Package transcript keeps the session-scoped, append-only log of what was
// heard and said.
package transcript

import (
	"fmt"
	"sync"
	"time"
)

type Speaker string

const (
	User      Speaker = "You"
	Assistant Speaker = "Assistant"
	System    Speaker = ""
)

type Entry struct {
	Seq     int       `json:"seq"`
	Time    time.Time `json:"time"`
	Speaker Speaker   `json:"speaker,omitempty"`
	Text    string    `json:"text"`
}

// String renders the entry as "[15:04:05] You: text".
func (e Entry) String() string {
	if e.Speaker == System {
		return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Text)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Time.Format("15:04:05"), e.Speaker, e.Text)
}

// Sink receives every appended entry. Sinks are called synchronously in
// append order and must not call back into the Log.
type Sink interface {
	Publish(Entry)
}

type SinkFunc func(Entry)

func (f SinkFunc) Publish(e Entry) { f(e) }

type Log struct {
	mu      sync.Mutex
	entries []Entry
	mark    int
	sinks   []Sink
	now     func() time.Time
}

func New(sinks ...Sink) *Log {
	return &Log{sinks: sinks, now: time.Now}
}

// WithClock replaces the timestamp source.
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

func (l *Log) Subscribe(s Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, s)
}

func (l *Log) Add(speaker Speaker, text string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{
		Seq:     len(l.entries) + 1,
		Time:    l.now(),
		Speaker: speaker,
		Text:    text,
	}
	l.entries = append(l.entries, e)

	for _, s := range l.sinks {
		s.Publish(e)
	}

	return e
}

func (l *Log) System(format string, args ...any) Entry {
	return l.Add(System, fmt.Sprintf(format, args...))
}

// Entries returns everything recorded so far.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Visible returns the entries added since the last Clear.
func (l *Log) Visible() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries[l.mark:]...)
}

// Clear hides the current entries from Visible. Nothing is deleted.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mark = len(l.entries)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
