package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines every key binding in the TUI. Letter keys are only
// consulted when no text field has focus.
type keyMap struct {
	// Pages.
	TabSpaces  key.Binding
	TabPublish key.Binding
	TabMyPage  key.Binding
	Login      key.Binding
	Signup     key.Binding
	Logout     key.Binding

	// Lists.
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Back    key.Binding
	Search  key.Binding
	Refresh key.Binding

	// Space detail.
	Book key.Binding
	Copy key.Binding
	Map  key.Binding

	// Forms.
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding

	// My page.
	Section     key.Binding
	Cancel      key.Binding
	Confirm     key.Binding
	Delete      key.Binding
	Read        key.Binding
	MarkAllRead key.Binding

	Help key.Binding
	Quit key.Binding
}

var keys = keyMap{
	TabSpaces:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "spaces")),
	TabPublish: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "publish")),
	TabMyPage:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "my page")),
	Login:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "log in")),
	Signup:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "sign up")),
	Logout:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "log out")),

	Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),

	Book: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "book")),
	Copy: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy address")),
	Map:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "map")),

	NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
	Submit:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),

	Section:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "section")),
	Cancel:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cancel booking")),
	Confirm:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
	Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete space")),
	Read:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "mark read")),
	MarkAllRead: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "mark all read")),

	Help: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "help")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// globalHelp lists the bindings shown in the help overlay.
func (k keyMap) globalHelp() []key.Binding {
	return []key.Binding{
		k.TabSpaces, k.TabPublish, k.TabMyPage,
		k.Login, k.Signup, k.Logout,
		k.Search, k.Refresh, k.Book, k.Copy, k.Map,
		k.Help, k.Quit,
	}
}

// helpBar renders bindings as a one-line help bar.
func helpBar(bindings ...key.Binding) string {
	out := ""
	for i, b := range bindings {
		if i > 0 {
			out += "  "
		}
		h := b.Help()
		out += helpEntry(h.Key, h.Desc)
	}
	return " " + out
}
