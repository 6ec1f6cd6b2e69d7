package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the watch view's bindings.
type KeyMap struct {
	Quit    key.Binding
	Pause   key.Binding
	Faster  key.Binding
	Slower  key.Binding
	Step    key.Binding
	Command key.Binding
	Submit  key.Binding
	Cancel  key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
	Pause: key.NewBinding(
		key.WithKeys(" ", "p"),
		key.WithHelp("space", "pause"),
	),
	Faster: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "faster"),
	),
	Slower: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "slower"),
	),
	Step: key.NewBinding(
		key.WithKeys("."),
		key.WithHelp(".", "step"),
	),
	Command: key.NewBinding(
		key.WithKeys("/", ":"),
		key.WithHelp("/", "command"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Faster, k.Slower, k.Command, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Step, k.Faster, k.Slower},
		{k.Command, k.Submit, k.Cancel, k.Quit},
	}
}
