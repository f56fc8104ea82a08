package audio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinkInputs = `Sink Input #42
	Driver: protocol-native.c
	Volume: front-left: 52428 /  80% / -5.81 dB,   front-right: 52428 /  80% / -5.81 dB
	Properties:
		application.name = "Firefox"
Sink Input #43
	Volume: front-left: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "neurotask-voice"
Sink Input #bogus
	Volume: mono: 100%
`

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)
	assert.Equal(t, []sinkInput{
		{ID: 42, Volume: 80, AppName: "Firefox"},
		{ID: 43, Volume: 100, AppName: "neurotask-voice"},
	}, got)

	assert.Empty(t, parseSinkInputs(""))
}

type fakePactl struct {
	mu   sync.Mutex
	list string
	err  error
	sets []string
}

func (f *fakePactl) run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if args[0] == "list" {
		return []byte(f.list), nil
	}
	f.sets = append(f.sets, strings.Join(args[1:], " "))
	return nil, nil
}

func TestDucker_DuckAndRestore(t *testing.T) {
	p := &fakePactl{list: sinkInputs}
	d := NewDucker("neurotask-voice")
	d.run = p.run
	d.FadeTime = 0

	require.NoError(t, d.Duck(context.Background()))
	require.NoError(t, d.Duck(context.Background()), "second duck is a no-op")
	assert.Equal(t, []string{"42 24%"}, p.sets)

	p.sets = nil
	p.list = strings.Replace(sinkInputs, "80%", "24%", 1)
	require.NoError(t, d.Unduck(context.Background()))
	assert.Equal(t, []string{"42 80%"}, p.sets)

	p.sets = nil
	require.NoError(t, d.Unduck(context.Background()))
	assert.Empty(t, p.sets)
}

func TestDucker_FadeSteps(t *testing.T) {
	p := &fakePactl{list: sinkInputs}
	d := NewDucker("neurotask-voice")
	d.run = p.run
	d.FadeTime = 20 * time.Millisecond // two steps

	require.NoError(t, d.Duck(context.Background()))
	assert.Equal(t, []string{"42 52%", "42 24%"}, p.sets)
}

func TestDucker_PactlMissing(t *testing.T) {
	d := NewDucker()
	d.run = (&fakePactl{err: errors.New("exec: not found")}).run

	assert.Error(t, d.Duck(context.Background()))
	assert.NoError(t, d.Unduck(context.Background()), "nothing to restore")
}
