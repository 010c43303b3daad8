package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robmorgan/metronome/rhythm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeControls struct {
	state    rhythm.PlaybackState
	tempo    rhythm.Tempo
	starts   int
	stops    int
	startErr error
	tempos   []int
	run      uint64
}

func (f *fakeControls) Start() error {
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.state = rhythm.Running
	f.run++
	return nil
}

func (f *fakeControls) Stop() {
	f.stops++
	f.state = rhythm.Stopped
}

func (f *fakeControls) SetTempo(bpm int) rhythm.Tempo {
	f.tempos = append(f.tempos, bpm)
	f.tempo = rhythm.ClampTempo(bpm)
	return f.tempo
}

func (f *fakeControls) Snapshot() rhythm.Snapshot {
	return rhythm.Snapshot{State: f.state, Tempo: f.tempo, BeatsPerMeasure: 4, Run: f.run}
}

func newTestModel(t *testing.T) (Model, *fakeControls, *time.Time) {
	t.Helper()

	ctrl := &fakeControls{tempo: rhythm.DefaultTempo}
	m := New(ctrl, &rhythm.Subscription{}, rhythm.DefaultMeasure())

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, ctrl, &now
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestToggleStartsAndStops(t *testing.T) {
	t.Parallel()

	m, ctrl, _ := newTestModel(t)
	require.False(t, m.Running())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.Running())
	assert.Equal(t, 1, ctrl.starts)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Running())
	assert.Equal(t, 1, ctrl.stops)
}

func TestStartFailureIsShown(t *testing.T) {
	t.Parallel()

	m, ctrl, _ := newTestModel(t)
	ctrl.startErr = errors.New("scheduling failure: clock is closed")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Running())
	assert.Contains(t, m.View(), "clock is closed")
}

func TestTempoKeys(t *testing.T) {
	t.Parallel()

	m, ctrl, _ := newTestModel(t)

	m = update(t, m, runes("+"))
	assert.Equal(t, rhythm.Tempo(121), m.Tempo())
	m = update(t, m, runes("]"))
	assert.Equal(t, rhythm.Tempo(126), m.Tempo())
	m = update(t, m, runes("-"))
	assert.Equal(t, rhythm.Tempo(125), m.Tempo())
	m = update(t, m, runes("["))
	assert.Equal(t, rhythm.Tempo(120), m.Tempo())

	assert.Equal(t, []int{121, 126, 125, 120}, ctrl.tempos)
}

func TestTempoKeysClamp(t *testing.T) {
	t.Parallel()

	m, ctrl, _ := newTestModel(t)
	for i := 0; i < 40; i++ {
		m = update(t, m, runes("]"))
	}
	assert.Equal(t, rhythm.MaxTempo, m.Tempo())
	assert.Equal(t, int(rhythm.MaxTempo), ctrl.tempos[len(ctrl.tempos)-1])

	for i := 0; i < 40; i++ {
		m = update(t, m, runes("["))
	}
	assert.Equal(t, rhythm.MinTempo, m.Tempo())
}

func TestQuitStopsController(t *testing.T) {
	t.Parallel()

	m, ctrl, _ := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	next, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, 1, ctrl.stops)
	assert.Equal(t, "", next.View())
}

func TestBeatLightsDot(t *testing.T) {
	t.Parallel()

	m, _, now := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = update(t, m, beatMsg(rhythm.BeatFired{Index: 0, Accented: true, Tempo: 120, Run: 1}))
	assert.Equal(t, 0.0, m.dotLevel(0))

	*now = now.Add(DefaultFade)
	assert.Equal(t, 1.0, m.dotLevel(0))
	assert.Equal(t, 0.0, m.dotLevel(1))

	m = update(t, m, beatMsg(rhythm.BeatFired{Index: 1, Tempo: 120, Run: 1}))
	*now = now.Add(DefaultFade / 2)
	assert.Greater(t, m.dotLevel(1), 0.0)
	assert.Less(t, m.dotLevel(0), 1.0)
	assert.Equal(t, 0.0, m.dotLevel(2))
}

func TestLateBeatDoesNotUndoTempoNudge(t *testing.T) {
	t.Parallel()

	m, ctrl, _ := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = update(t, m, runes("+"))
	// fired before the nudge, delivered after it
	m = update(t, m, beatMsg(rhythm.BeatFired{Index: 1, Tempo: 120, Run: 1}))
	m = update(t, m, runes("+"))

	assert.Equal(t, []int{121, 122}, ctrl.tempos)
	assert.Equal(t, rhythm.Tempo(122), m.Tempo())
}

func TestBeatsFromEarlierRunIgnored(t *testing.T) {
	t.Parallel()

	m, _, now := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.Running())

	// still buffered from the first run
	m = update(t, m, beatMsg(rhythm.BeatFired{Index: 2, Run: 1}))
	*now = now.Add(DefaultFade)
	assert.Equal(t, 0.0, m.dotLevel(2))

	m = update(t, m, beatMsg(rhythm.BeatFired{Index: 0, Accented: true, Run: 2}))
	*now = now.Add(DefaultFade)
	assert.Equal(t, 1.0, m.dotLevel(0))
	assert.Equal(t, 0.0, m.dotLevel(2))
}

func TestBeatsIgnoredWhenStopped(t *testing.T) {
	t.Parallel()

	m, _, now := newTestModel(t)
	m = update(t, m, beatMsg(rhythm.BeatFired{Index: 2}))

	*now = now.Add(time.Second)
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0.0, m.dotLevel(i))
	}
}

func TestErrorStopsPlayback(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, errMsg{err: rhythm.ErrSchedulingFailure})

	assert.False(t, m.Running())
	assert.Contains(t, m.View(), "scheduling failure")
}

func TestView(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	view := m.View()

	assert.Contains(t, view, "Tempo: 120 BPM")
	assert.Contains(t, view, "stopped")
	assert.Equal(t, 1, strings.Count(view, accentDot))
	assert.Equal(t, 3, strings.Count(view, beatDot))
}
