package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	Help        key.Binding
	FocusSearch key.Binding
	ToggleFocus key.Binding
	SwitchTab   key.Binding
	Reload      key.Binding
	Esc         key.Binding
	Save        key.Binding
	Open        key.Binding
	Activate    key.Binding
	Share       key.Binding
	Delete      key.Binding
	Edit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		FocusSearch: key.NewBinding(
			key.WithKeys("ctrl+f", "/"),
			key.WithHelp("/", "search"),
		),
		ToggleFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "search/list"),
		),
		SwitchTab: key.NewBinding(
			key.WithKeys("g", "G"),
			key.WithHelp("g", "switch tab"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Activate: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "make active"),
		),
		Share: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy invite"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Edit: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "edit field"),
		),
	}
}

// helpMap adapts a fixed set of bindings to help.KeyMap.
type helpMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (h helpMap) ShortHelp() []key.Binding  { return h.short }
func (h helpMap) FullHelp() [][]key.Binding { return h.full }
