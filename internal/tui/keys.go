package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings of the list screen.
type KeyMap struct {
	Search    key.Binding
	Submit    key.Binding
	Cancel    key.Binding
	Next      key.Binding
	Prev      key.Binding
	Sort      key.Binding
	Order     key.Binding
	Filter    key.Binding
	Value     key.Binding
	Clear     key.Binding
	Retry     key.Binding
	Export    key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply search")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave search")),
		Next:      key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next page")),
		Prev:      key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "prev page")),
		Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		Order:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "flip order")),
		Filter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter field")),
		Value:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "filter value")),
		Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear all")),
		Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry/refresh")),
		Export:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Next, k.Prev, k.Filter, k.Value, k.Export, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Submit, k.Cancel, k.Clear},
		{k.Next, k.Prev, k.Sort, k.Order},
		{k.Filter, k.Value, k.Retry, k.Export},
		{k.Help, k.Quit},
	}
}
