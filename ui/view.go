package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/robmorgan/metronome/effect"
)

const (
	accentDot = "⬤"
	beatDot   = "●"
)

var (
	idleColor, _   = colorful.Hex("#cccccc")
	activeColor, _ = colorful.Hex("#ff0000")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	tempoStyle = lipgloss.NewStyle().Bold(true).Margin(1, 0)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	appStyle   = lipgloss.NewStyle().Margin(1, 2, 0, 2)
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("metronome"))
	b.WriteString("\n\n")
	b.WriteString(m.renderDots())
	b.WriteString("\n")
	b.WriteString(tempoStyle.Render(fmt.Sprintf("Tempo: %d BPM", m.tempo)))
	b.WriteString("\n")

	status := "stopped"
	if m.running {
		status = fmt.Sprintf("playing  %s", m.ctrl.Snapshot().Marker())
	}
	b.WriteString(dimStyle.Render(status))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return appStyle.Render(b.String())
}

func (m Model) renderDots() string {
	dots := make([]string, m.measure.Len())
	for i, slot := range m.measure.Slots() {
		glyph := beatDot
		if slot.Accented {
			glyph = accentDot
		}
		c := effect.Blend(idleColor, activeColor, m.dotLevel(i))
		dots[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(glyph)
	}
	return strings.Join(dots, "  ")
}

// dotLevel is how lit the dot at index is: the active dot tweens in while the previous one
// tweens out.
func (m Model) dotLevel(index int) float64 {
	if m.beatAt.IsZero() {
		return 0
	}
	elapsed := m.now().Sub(m.beatAt)
	switch index {
	case m.current:
		return m.fade.In(elapsed)
	case m.previous:
		return m.fade.Out(elapsed)
	default:
		return 0
	}
}
