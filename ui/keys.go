package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle   key.Binding
	Up       key.Binding
	Down     key.Binding
	UpFive   key.Binding
	DownFive key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "start/stop"),
		),
		Up: key.NewBinding(
			key.WithKeys("+", "=", "up"),
			key.WithHelp("+", "+1 bpm"),
		),
		Down: key.NewBinding(
			key.WithKeys("-", "down"),
			key.WithHelp("-", "-1 bpm"),
		),
		UpFive: key.NewBinding(
			key.WithKeys("]", "right"),
			key.WithHelp("]", "+5 bpm"),
		),
		DownFive: key.NewBinding(
			key.WithKeys("[", "left"),
			key.WithHelp("[", "-5 bpm"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.DownFive, k.Down, k.Up, k.UpFive, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Quit},
		{k.DownFive, k.Down, k.Up, k.UpFive},
	}
}
