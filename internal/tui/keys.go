package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap keeps ctrl-chords for list movement so plain letters stay with the
// filter input.
type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Enter         key.Binding
	Quit          key.Binding
	PreviewUp     key.Binding
	PreviewDn     key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	PreviewTop    key.Binding
	PreviewBottom key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+k"),
		key.WithHelp("up/C-k", "previous result"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+j"),
		key.WithHelp("dn/C-j", "next result"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "copy resume command"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
	PreviewUp: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("C-u", "scroll preview up"),
	),
	PreviewDn: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("C-d", "scroll preview down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "preview page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "preview page down"),
	),
	PreviewTop: key.NewBinding(
		key.WithKeys("home"),
		key.WithHelp("home", "preview top"),
	),
	PreviewBottom: key.NewBinding(
		key.WithKeys("end"),
		key.WithHelp("end", "preview bottom"),
	),
}
