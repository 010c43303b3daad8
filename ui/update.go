package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robmorgan/metronome/rhythm"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case beatMsg:
		// beats queued before a stop, or from an earlier run, arrive late; ignore them.
		// The tempo shown only ever comes from SetTempo, never from a beat.
		if m.running && msg.Run == m.run {
			m.previous = m.current
			m.current = msg.Index
			m.beatAt = m.now()
		}
		return m, waitForBeat(m.sub)

	case errMsg:
		m.err = msg.err
		m.running = false
		m.clearBeat()
		return m, waitForError(m.sub)

	case frameMsg:
		if m.quitting {
			return m, nil
		}
		return m, frameCmd()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Stop()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		if m.running {
			m.ctrl.Stop()
			m.running = false
			m.clearBeat()
			return m, nil
		}
		m.err = nil
		if err := m.ctrl.Start(); err != nil {
			m.err = err
			return m, nil
		}
		m.running = true
		m.run = m.ctrl.Snapshot().Run
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.nudge(1)
	case key.Matches(msg, m.keys.Down):
		m.nudge(-1)
	case key.Matches(msg, m.keys.UpFive):
		m.nudge(5)
	case key.Matches(msg, m.keys.DownFive):
		m.nudge(-5)
	}
	return m, nil
}

func (m *Model) nudge(delta int) {
	m.tempo = m.ctrl.SetTempo(int(m.tempo.Add(delta)))
}

func (m *Model) clearBeat() {
	m.current = -1
	m.previous = -1
}

// Running reports whether the model believes the metronome is playing.
func (m Model) Running() bool {
	return m.running
}

// Tempo returns the tempo shown on screen.
func (m Model) Tempo() rhythm.Tempo {
	return m.tempo
}
