package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robmorgan/metronome/effect"
	"github.com/robmorgan/metronome/rhythm"
)

const (
	// FPS is how often the beat indicators are redrawn while they fade.
	FPS = 40

	// DefaultFade matches the tween of the beat dots.
	DefaultFade = 100 * time.Millisecond
)

// Controls is the part of the controller the TUI drives.
type Controls interface {
	Start() error
	Stop()
	SetTempo(bpm int) rhythm.Tempo
	Snapshot() rhythm.Snapshot
}

// Model is the bubbletea model for the metronome screen.
type Model struct {
	ctrl    Controls
	sub     *rhythm.Subscription
	measure rhythm.Measure
	keys    keyMap
	help    help.Model
	fade    effect.Fade
	now     func() time.Time

	tempo    rhythm.Tempo
	running  bool
	run      uint64
	current  int
	previous int
	beatAt   time.Time
	err      error
	quitting bool
}

// New builds the model. sub must come from the same controller as ctrl.
func New(ctrl Controls, sub *rhythm.Subscription, measure rhythm.Measure) Model {
	snap := ctrl.Snapshot()
	return Model{
		ctrl:     ctrl,
		sub:      sub,
		measure:  measure,
		keys:     newKeyMap(),
		help:     help.New(),
		fade:     effect.NewFade(DefaultFade),
		now:      time.Now,
		tempo:    snap.Tempo,
		running:  snap.State == rhythm.Running,
		run:      snap.Run,
		current:  -1,
		previous: -1,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForBeat(m.sub), waitForError(m.sub), frameCmd())
}

type beatMsg rhythm.BeatFired

type errMsg struct{ err error }

type frameMsg time.Time

func waitForBeat(sub *rhythm.Subscription) tea.Cmd {
	return func() tea.Msg {
		return beatMsg(<-sub.Beats)
	}
}

func waitForError(sub *rhythm.Subscription) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: <-sub.Errors}
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(time.Second/FPS, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
