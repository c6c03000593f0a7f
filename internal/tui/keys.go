package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the ticket console.
type KeyMap struct {
	// Navigation (scrolls the active channel viewport).
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	End      key.Binding

	// Channel switching.
	ChannelPublic   key.Binding
	ChannelInternal key.Binding

	// Composer.
	Submit key.Binding
	Attach key.Binding // Prompt for a file path to attach.

	// Status actions.
	Resolve        key.Binding
	MarkIrrelevant key.Binding
	ReturnToWork   key.Binding

	// Confirmation dialog.
	Confirm key.Binding
	Cancel  key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "scroll down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("PgUp", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("PgDn", "page down"),
	),
	End: key.NewBinding(
		key.WithKeys("ctrl+e"),
		key.WithHelp("C-e", "jump to latest"),
	),
	ChannelPublic: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("C-p", "public channel"),
	),
	ChannelInternal: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("C-n", "internal channel"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "send"),
	),
	Attach: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("C-o", "attach file"),
	),
	Resolve: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("C-r", "resolve"),
	),
	MarkIrrelevant: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("C-x", "mark irrelevant"),
	),
	ReturnToWork: key.NewBinding(
		key.WithKeys("ctrl+w"),
		key.WithHelp("C-w", "return to work"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "quit"),
	),
}
