package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	tab       key.Binding
	next      key.Binding
	search    key.Binding
	like      key.Binding
	wish      key.Binding
	enter     key.Binding
	back      key.Binding
	login     key.Binding
	deleteAll key.Binding
	yes       key.Binding
	no        key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next page")),
		next:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "load more")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		like:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		wish:      key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wishlist")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		login:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "login/logout")),
		deleteAll: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete all")),
		yes:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:        key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.next},
		{k.tab, k.search, k.like, k.wish},
		{k.login, k.deleteAll, k.back, k.quit},
	}
}
