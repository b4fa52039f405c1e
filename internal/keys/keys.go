// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// TreeKeyMap holds the suite tree bindings.
type TreeKeyMap struct {
	// Navigation
	NextCommand key.Binding
	PrevCommand key.Binding
	NextCase    key.Binding
	PrevCase    key.Binding
	ToSuite     key.Binding
	Descend     key.Binding

	// Mutations
	Clone  key.Binding
	Delete key.Binding

	Quit key.Binding
}

// ShortHelp returns keybindings for the short help view.
func (k TreeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevCommand, k.NextCommand, k.PrevCase, k.NextCase, k.Delete, k.Clone, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k TreeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevCommand, k.NextCommand, k.PrevCase, k.NextCase, k.ToSuite, k.Descend},
		{k.Clone, k.Delete, k.Quit},
	}
}

// Tree is the default suite tree keymap.
var Tree = TreeKeyMap{
	NextCommand: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j", "next"),
	),
	PrevCommand: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k", "prev"),
	),
	NextCase: key.NewBinding(
		key.WithKeys("J", "shift+down"),
		key.WithHelp("J", "next case"),
	),
	PrevCase: key.NewBinding(
		key.WithKeys("K", "shift+up"),
		key.WithHelp("K", "prev case"),
	),
	ToSuite: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "select suite"),
	),
	Descend: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "first case"),
	),
	Clone: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clone"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// GradingKeyMap holds the handgrading dashboard bindings.
type GradingKeyMap struct {
	Up   key.Binding
	Down key.Binding

	// Filters
	Search      key.Binding
	Blur        key.Binding
	CycleStatus key.Binding
	ToggleStaff key.Binding

	// Grading
	Grade  key.Binding
	Next   key.Binding
	Prev   key.Binding
	Finish key.Binding
	Reload key.Binding

	Quit key.Binding
}

// ShortHelp returns keybindings for the short help view.
func (k GradingKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.CycleStatus, k.ToggleStaff, k.Grade, k.Next, k.Prev, k.Finish, k.Reload, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k GradingKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Search, k.Blur, k.CycleStatus, k.ToggleStaff},
		{k.Grade, k.Next, k.Prev, k.Finish, k.Reload},
		{k.Quit},
	}
}

// Grading is the default handgrading keymap.
var Grading = GradingKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "move down"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Blur: key.NewBinding(
		key.WithKeys("enter", "esc"),
		key.WithHelp("esc", "done searching"),
	),
	CycleStatus: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "status"),
	),
	ToggleStaff: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "staff"),
	),
	Grade: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "grade"),
	),
	Next: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "next"),
	),
	Prev: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "prev"),
	),
	Finish: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "finish"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
