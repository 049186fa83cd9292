package tui

import "github.com/charmbracelet/bubbles/v2/key"

// KeyMap defines the demo host's own key bindings. The suggestion
// hotkey is not listed here: it comes from config and is matched by the
// engine's dispatcher ahead of these.
type KeyMap struct {
	Quit       key.Binding
	NextPane   key.Binding
	AddWord    key.Binding
	IgnoreLast key.Binding
	Options    key.Binding
}

// DefaultKeyMap returns the default key bindings for the demo host
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		NextPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		AddWord: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "add word to dictionary"),
		),
		IgnoreLast: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "ignore finding"),
		),
		Options: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "options"),
		),
	}
}
