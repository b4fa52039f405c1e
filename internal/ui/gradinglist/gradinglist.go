// Package gradinglist is the handgrading dashboard: a filterable list of
// student groups, loaded one page at a time in the background.
package gradinglist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/agview/internal/config"
	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/handgrading"
	"github.com/zjrosen/agview/internal/keys"
	"github.com/zjrosen/agview/internal/log"
	"github.com/zjrosen/agview/internal/pubsub"
	"github.com/zjrosen/agview/internal/ui/styles"
	"github.com/zjrosen/agview/internal/watcher"
)

const (
	statusColWidth = 16
	headerLines    = 2 // progress and search above the rows
)

type pageFetchedMsg struct {
	res handgrading.PageResult
	err error
}

type staffLoadedMsg struct{ err error }

type gradingMsg struct {
	result *domain.HandgradingResult
	err    error
}

type savedMsg struct{ err error }

// Model is the bubbletea model of the grading list.
type Model struct {
	ctx        context.Context
	coll       *handgrading.Collection
	search     textinput.Model
	help       help.Model
	searching  bool
	cursor     int
	width      int
	height     int
	configPath string
	changes    <-chan struct{}
	err        error
}

// Option configures a Model.
type Option func(*Model)

// WithConfigPath persists the staff toggle to the config file at path.
func WithConfigPath(path string) Option {
	return func(m *Model) { m.configPath = path }
}

// WithStoreChanges reloads the list whenever ch fires.
func WithStoreChanges(ch <-chan struct{}) Option {
	return func(m *Model) { m.changes = ch }
}

// New creates the list over coll. Loading starts in Init.
func New(ctx context.Context, coll *handgrading.Collection, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Search members"
	ti.Prompt = "/ "
	ti.CharLimit = 128
	ti.SetValue(coll.Filter().SearchText)

	m := Model{ctx: ctx, coll: coll, search: ti, help: help.New(), width: 80, height: 24}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init loads the staff roster and the first page, and starts listening for
// result events and store changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadStaff(), m.fetchNext(), m.listen(), watcher.WaitCmd(m.changes))
}

func (m Model) loadStaff() tea.Cmd {
	ctx, coll := m.ctx, m.coll
	return func() tea.Msg {
		return staffLoadedMsg{err: coll.LoadStaff(ctx)}
	}
}

// fetchNext runs the network half of a page load off the update loop. The
// result is merged in Update.
func (m Model) fetchNext() tea.Cmd {
	if !m.coll.HasMore() || m.coll.Loading() {
		return nil
	}
	ctx, coll := m.ctx, m.coll
	return func() tea.Msg {
		res, err := coll.FetchNext(ctx)
		return pageFetchedMsg{res: res, err: err}
	}
}

func (m Model) listen() tea.Cmd {
	ch := m.coll.Events()
	if ch == nil {
		return nil
	}
	return pubsub.ListenCmd(m.ctx, ch)
}

func (m Model) grade(fn func(ctx context.Context) (*domain.HandgradingResult, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		r, err := fn(ctx)
		return gradingMsg{result: r, err: err}
	}
}

// Update handles loading, events and keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case pageFetchedMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, handgrading.ErrNoMorePages) &&
				!errors.Is(msg.err, handgrading.ErrFetchInFlight) &&
				!handgrading.IsDropped(msg.err) {
				m.err = msg.err
			}
			return m, nil
		}
		if m.coll.Merge(msg.res) {
			m.clampCursor()
			return m, m.fetchNext()
		}
		return m, nil

	case staffLoadedMsg:
		if msg.err != nil && !handgrading.IsDropped(msg.err) {
			m.err = msg.err
		}
		m.clampCursor()
		return m, nil

	case pubsub.Event[domain.Entity]:
		m.coll.Apply(msg)
		return m, m.listen()

	case watcher.ChangedMsg:
		log.Debug(log.CatUI, "Store changed, reloading grading list")
		m.coll.Reset()
		m.err = nil
		return m, tea.Batch(m.fetchNext(), watcher.WaitCmd(m.changes))

	case gradingMsg:
		m.err = msg.err
		return m, nil

	case savedMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatConfig, "Saving ui config failed", msg.err, "path", m.configPath)
			m.err = msg.err
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Grading.Blur) {
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	f := m.coll.Filter()
	if f.SearchText != m.search.Value() {
		f.SearchText = m.search.Value()
		m.coll.SetFilter(f)
		m.clampCursor()
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Grading.Quit):
		m.coll.Close()
		return m, tea.Quit
	case key.Matches(msg, keys.Grading.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, keys.Grading.Down):
		m.cursor++
		m.clampCursor()
	case key.Matches(msg, keys.Grading.Up):
		m.cursor--
		m.clampCursor()
	case key.Matches(msg, keys.Grading.CycleStatus):
		f := m.coll.Filter()
		f.Status = nextStatus(f.Status)
		m.coll.SetFilter(f)
		m.clampCursor()
	case key.Matches(msg, keys.Grading.ToggleStaff):
		f := m.coll.Filter()
		f.IncludeStaff = !f.IncludeStaff
		m.coll.SetFilter(f)
		m.clampCursor()
		return m, m.saveStaffToggle(f.IncludeStaff)
	case key.Matches(msg, keys.Grading.Grade):
		m.clampCursor()
		rows := m.coll.Visible()
		if len(rows) == 0 {
			return m, nil
		}
		id := rows[m.cursor].Summary.ID
		return m, m.grade(func(ctx context.Context) (*domain.HandgradingResult, error) {
			return m.coll.SelectForGrading(ctx, id)
		})
	case key.Matches(msg, keys.Grading.Next):
		return m, m.grade(m.coll.SelectNext)
	case key.Matches(msg, keys.Grading.Prev):
		return m, m.grade(m.coll.SelectPrev)
	case key.Matches(msg, keys.Grading.Finish):
		current := m.coll.CurrentlyGrading()
		if current == nil {
			return m, nil
		}
		finished := !current.FinishedGrading
		return m, m.grade(func(ctx context.Context) (*domain.HandgradingResult, error) {
			_, err := m.coll.SetFinished(ctx, finished)
			return nil, err
		})
	case key.Matches(msg, keys.Grading.Reload):
		m.coll.Reset()
		m.err = nil
		return m, m.fetchNext()
	}
	return m, nil
}

func (m Model) saveStaffToggle(include bool) tea.Cmd {
	if m.configPath == "" {
		return nil
	}
	path := m.configPath
	return func() tea.Msg {
		return savedMsg{err: config.SaveUI(path, config.UIConfig{IncludeStaff: include})}
	}
}

func nextStatus(s domain.GradingStatus) domain.GradingStatus {
	if s == "" {
		s = handgrading.StatusAll
	}
	i := slices.Index(handgrading.Statuses, s)
	return handgrading.Statuses[(i+1)%len(handgrading.Statuses)]
}

func (m *Model) clampCursor() {
	n := len(m.coll.Visible())
	m.cursor = min(m.cursor, n-1)
	m.cursor = max(m.cursor, 0)
}

// View renders the progress header, the search box and the visible rows.
func (m Model) View() string {
	f := m.coll.Filter()
	grading := m.coll.CurrentlyGrading()

	lines := []string{
		styles.SecondaryStyle.Render("Progress: " + m.coll.Progress().String()),
		m.search.View(),
	}

	rows := m.coll.Visible()
	nameWidth := max(m.width-statusColWidth-8, 8)
	for i, r := range rows {
		prefix := "  "
		if i == m.cursor {
			prefix = styles.SelectionIndicatorStyle.Render(">") + " "
		}
		mark := " "
		if grading != nil && grading.GroupID == r.Summary.ID {
			mark = "*"
		}
		names := strings.Join(r.Summary.MemberNames, ", ")
		if r.Staff {
			names = "[staff] " + names
		}
		names = styles.PadRight(styles.TruncateString(names, nameWidth), nameWidth)
		status := styles.GradingStatusStyle(r.Status).Render(styles.GradingStatusLabel(r.Status))
		lines = append(lines, prefix+mark+" "+names+" "+status)
	}
	if len(rows) == 0 && !m.coll.HasMore() {
		lines = append(lines, styles.MutedStyle.Render("No groups match"))
	}

	staff := "staff hidden"
	if f.IncludeStaff {
		staff = "staff shown"
	}
	hint := fmt.Sprintf("%s, %s", strings.ToLower(styles.GradingStatusLabel(f.Status)), staff)
	body := styles.Section{
		Title:   "Handgrading",
		Hint:    hint,
		Width:   m.width,
		Height:  max(m.height-1, 0),
		Focused: !m.searching,
		Cursor:  m.cursor + headerLines,
	}.Render(lines)
	return body + "\n" + m.footer()
}

func (m Model) footer() string {
	switch {
	case m.err != nil:
		return styles.ErrorStyle.Render("Error: " + m.err.Error())
	case m.coll.HasMore():
		return styles.StatusBarStyle.Render(fmt.Sprintf("Loading... %d groups", m.coll.Len()))
	}
	return m.help.ShortHelpView(keys.Grading.ShortHelp())
}
