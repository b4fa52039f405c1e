// Package suitetree renders a project's test tree and drives the navigator
// from the keyboard.
package suitetree

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/keys"
	"github.com/zjrosen/agview/internal/log"
	"github.com/zjrosen/agview/internal/pubsub"
	"github.com/zjrosen/agview/internal/suites"
	"github.com/zjrosen/agview/internal/ui/styles"
)

// mutationDoneMsg reports the outcome of a client mutation. The tree itself
// changes when the confirmed event arrives.
type mutationDoneMsg struct {
	action string
	err    error
}

// Model is the bubbletea model of the suite tree pane.
type Model struct {
	ctx    context.Context
	nav    *suites.Navigator
	width  int
	height int
	status string
	err    error
}

// New creates the pane. When nothing is selected the first command (or the
// first suite of a tree without commands) becomes active.
func New(ctx context.Context, nav *suites.Navigator) Model {
	if nav.Selection().Level == suites.LevelNone {
		if order := nav.Order(); len(order) > 0 {
			nav.Select(suites.CommandSelection(order[0]))
		} else if all := nav.Suites(); len(all) > 0 {
			nav.Select(suites.SuiteSelection(all[0].ID))
		}
	}
	return Model{ctx: ctx, nav: nav, width: 60, height: 20}
}

// Init starts listening for tree change events.
func (m Model) Init() tea.Cmd {
	return m.listen()
}

func (m Model) listen() tea.Cmd {
	ch := m.nav.Events()
	if ch == nil {
		return nil
	}
	return pubsub.ListenCmd(m.ctx, ch)
}

// Update handles keys, change events and mutation results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pubsub.Event[domain.Entity]:
		m.nav.Apply(msg)
		return m, m.listen()

	case mutationDoneMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatUI, "Tree mutation failed", msg.err, "action", msg.action)
			m.err = msg.err
			m.status = ""
		} else {
			m.err = nil
			m.status = msg.action
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Tree.Quit):
		m.nav.Close()
		return m, tea.Quit
	case key.Matches(msg, keys.Tree.NextCommand):
		m.nav.GoToNextCommand()
	case key.Matches(msg, keys.Tree.PrevCommand):
		m.nav.GoToPrevCommand()
	case key.Matches(msg, keys.Tree.NextCase):
		m.nav.GoToNextCase()
	case key.Matches(msg, keys.Tree.PrevCase):
		m.nav.GoToPrevCase()
	case key.Matches(msg, keys.Tree.ToSuite):
		if s := m.nav.ParentSuite(); s != nil {
			m.nav.Select(suites.SuiteSelection(s.ID))
		}
	case key.Matches(msg, keys.Tree.Descend):
		m.descend()
	case key.Matches(msg, keys.Tree.Clone):
		if c := m.nav.ParentCase(); c != nil {
			id, name := c.ID, c.Name+" (copy)"
			return m, m.mutate("cloned "+c.Name, func(ctx context.Context) error {
				_, err := m.nav.CloneCase(ctx, id, name)
				return err
			})
		}
	case key.Matches(msg, keys.Tree.Delete):
		return m, m.deleteSelected()
	}
	return m, nil
}

// descend moves a suite selection to its first case.
func (m Model) descend() {
	s := m.nav.ActiveSuite()
	if s == nil || len(s.Cases) == 0 {
		return
	}
	m.nav.Select(suites.CaseSelection(s.Cases[0].ID))
}

func (m Model) deleteSelected() tea.Cmd {
	sel := m.nav.Selection()
	var fn func(ctx context.Context) error
	switch sel.Level {
	case suites.LevelSuite:
		fn = func(ctx context.Context) error { return m.nav.DeleteSuite(ctx, sel.ID) }
	case suites.LevelCase:
		fn = func(ctx context.Context) error { return m.nav.DeleteCase(ctx, sel.ID) }
	case suites.LevelCommand:
		fn = func(ctx context.Context) error { return m.nav.DeleteCommand(ctx, sel.ID) }
	default:
		return nil
	}
	return m.mutate("deleted "+sel.String(), fn)
}

func (m Model) mutate(action string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return mutationDoneMsg{action: action, err: fn(ctx)}
	}
}

// View renders the tree inside a bordered pane.
func (m Model) View() string {
	sel := m.nav.Selection()
	var active int64
	if cmd := m.nav.ActiveCommand(); cmd != nil {
		active = cmd.ID
	}

	var lines []string
	cursor := -1
	add := func(depth int, style lipgloss.Style, name string, selected bool) {
		if selected {
			cursor = len(lines)
		}
		lines = append(lines, m.line(depth, style, name, selected))
	}
	for _, s := range m.nav.Suites() {
		add(0, styles.SuiteStyle, s.Name, sel == suites.SuiteSelection(s.ID))
		for _, c := range s.Cases {
			add(1, styles.CaseStyle, c.Name, sel == suites.CaseSelection(c.ID))
			for _, cmd := range c.Commands {
				add(2, styles.CommandStyle, cmd.Name, cmd.ID == active)
			}
		}
	}
	if len(lines) == 0 {
		lines = append(lines, styles.MutedStyle.Render("No suites"))
	}

	body := styles.Section{
		Title:   "Suites",
		Hint:    sel.String(),
		Width:   m.width,
		Height:  max(m.height-2, 0),
		Focused: true,
		Cursor:  cursor,
	}.Render(lines)
	return body + "\n" + m.footer()
}

func (m Model) line(depth int, style lipgloss.Style, name string, selected bool) string {
	prefix := "  "
	if selected {
		prefix = styles.SelectionIndicatorStyle.Render(">") + " "
	}
	text := styles.TruncateString(name, max(m.width-4-2*depth, 1))
	return prefix + strings.Repeat("  ", depth) + style.Render(text)
}

func (m Model) footer() string {
	if m.err != nil {
		return styles.ErrorStyle.Render("Error: " + m.err.Error())
	}
	k := keys.Tree
	hints := []string{
		availability(k.PrevCommand, m.nav.PrevCommandAvailable()),
		availability(k.NextCommand, m.nav.NextCommandAvailable()),
		availability(k.PrevCase, m.nav.PrevCaseAvailable()),
		availability(k.NextCase, m.nav.NextCaseAvailable()),
		hint(k.Delete), hint(k.Clone), hint(k.Quit),
	}
	out := styles.StatusBarStyle.Render(strings.Join(hints, " · "))
	if m.status != "" {
		out += "\n" + styles.SecondaryStyle.Render(m.status)
	}
	return out
}

func hint(b key.Binding) string {
	return b.Help().Key + " " + b.Help().Desc
}

// availability greys out bindings that would not move the selection.
func availability(b key.Binding, ok bool) string {
	if ok {
		return hint(b)
	}
	return fmt.Sprintf("(%s)", hint(b))
}
