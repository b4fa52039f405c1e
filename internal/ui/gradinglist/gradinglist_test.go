package gradinglist

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/agview/internal/api"
	"github.com/zjrosen/agview/internal/api/mock"
	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/handgrading"
	"github.com/zjrosen/agview/internal/pubsub"
	"github.com/zjrosen/agview/internal/watcher"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

var groups = []domain.GroupSummary{
	{ID: 1, MemberNames: []string{"none@me.com"}},
	{ID: 2, MemberNames: []string{"not_yet@me.com"}, NumSubmissions: 1},
	{ID: 3, MemberNames: []string{"progress@me.com"}, NumSubmissions: 1,
		Result: &domain.ResultSummary{TotalPoints: 4, TotalPointsPossible: 6}},
	{ID: 4, MemberNames: []string{"graded@me.com"}, NumSubmissions: 1,
		Result: &domain.ResultSummary{FinishedGrading: true, TotalPoints: 5, TotalPointsPossible: 6}},
	{ID: 5, MemberNames: []string{"staff1@spam.com", "staff2@spam.com"}, NumSubmissions: 1,
		Result: &domain.ResultSummary{FinishedGrading: true, TotalPoints: 6, TotalPointsPossible: 6}},
}

func newFake() *mock.Client {
	fake := mock.NewClient(100)
	fake.ListStaffFunc = func(context.Context, int64) ([]domain.User, error) {
		return []domain.User{{ID: 1, Username: "staff1@spam.com"}, {ID: 2, Username: "staff2@spam.com"}}, nil
	}
	fake.ListSummariesFunc = mock.Pages(groups[:2], groups[2:4], groups[4:])
	fake.GetOrCreateResultFunc = func(_ context.Context, groupID int64) (domain.HandgradingResult, bool, error) {
		return domain.HandgradingResult{ID: 900 + groupID, GroupID: groupID}, true, nil
	}
	return fake
}

// run executes cmd and feeds every resulting message back into m, the way
// the bubbletea runtime would, but synchronously.
func run(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "update loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			var c tea.Cmd
			m, c = m.Update(msg)
			queue = append(queue, c)
		}
	}
	return m
}

func loaded(t *testing.T, fake *mock.Client, opts ...Option) Model {
	t.Helper()
	coll := handgrading.New(fake, 7, 3, handgrading.WithPageSize(2))
	t.Cleanup(coll.Close)
	m := New(context.Background(), coll, opts...)
	return run(t, m, m.Init()).(Model)
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInit_LoadsEveryPage(t *testing.T) {
	fake := newFake()
	m := loaded(t, fake)

	require.Equal(t, 3, fake.Calls("ListSummaries"))
	require.Equal(t, 1, fake.Calls("ListStaff"))
	require.Equal(t, 5, m.coll.Len())

	view := m.View()
	require.Contains(t, view, "Progress: 1/3 (4 total)")
	require.Contains(t, view, "not_yet@me.com")
	require.Contains(t, view, "In Progress")
	require.NotContains(t, view, "staff1@spam.com")
	require.NotContains(t, view, "Loading...")
}

func TestUpdate_PageErrorShown(t *testing.T) {
	fake := newFake()
	pages := fake.ListSummariesFunc
	fake.ListSummariesFunc = func(ctx context.Context, projectID int64, pageNum, pageSize int) (domain.Page[domain.GroupSummary], error) {
		if pageNum == 2 {
			return domain.Page[domain.GroupSummary]{}, domain.NewHTTPError(500, "Mock me please")
		}
		return pages(ctx, projectID, pageNum, pageSize)
	}

	m := loaded(t, fake)
	require.Equal(t, 2, m.coll.Len())
	require.Contains(t, m.View(), "Mock me please")
	require.Equal(t, 2, fake.Calls("ListSummaries"), "failed pages are not retried")

	fake.ListSummariesFunc = pages
	m = run(t, m, func() tea.Msg { return keyMsg("r") }).(Model)
	require.Equal(t, 5, m.coll.Len())
	require.NotContains(t, m.View(), "Mock me please")
}

func TestUpdate_PageErrorAfterResetIgnored(t *testing.T) {
	fake := newFake()
	coll := handgrading.New(fake, 7, 3, handgrading.WithPageSize(2))
	t.Cleanup(coll.Close)
	fake.ListSummariesFunc = func(context.Context, int64, int, int) (domain.Page[domain.GroupSummary], error) {
		coll.Reset()
		return domain.Page[domain.GroupSummary]{}, domain.NewHTTPError(500, "Mock me please")
	}

	m := New(context.Background(), coll)
	msg := m.fetchNext()()
	require.ErrorIs(t, msg.(pageFetchedMsg).err, handgrading.ErrStale)

	model, _ := m.Update(msg)
	require.NoError(t, model.(Model).err)
	require.NotContains(t, model.(Model).View(), "Mock me please")
}

func TestUpdate_StatusAndStaffFilters(t *testing.T) {
	m := loaded(t, newFake())

	var model tea.Model = m
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, domain.StatusNoSubmissions, m.coll.Filter().Status)
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, domain.StatusUngraded, m.coll.Filter().Status)
	require.Len(t, m.coll.Visible(), 1)

	model, _ = model.Update(keyMsg("S"))
	require.True(t, m.coll.Filter().IncludeStaff)
	require.Contains(t, model.View(), "staff shown")
	require.Equal(t, "2/4 (5 total)", m.coll.Progress().String())
}

func TestUpdate_StaffTogglePersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("# mine\nproject_id: 7\n"), 0o600))

	m := loaded(t, newFake(), WithConfigPath(path))
	model, cmd := m.Update(keyMsg("S"))
	require.NotNil(t, cmd)
	run(t, model, cmd)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "include_staff: true")
	require.Contains(t, string(data), "# mine")
}

func TestUpdate_SelectAndFinish(t *testing.T) {
	fake := newFake()
	fake.UpdateResultFunc = func(_ context.Context, r domain.HandgradingResult) (domain.HandgradingResult, error) {
		return r, nil
	}
	bus := pubsub.NewOrderedBroker[domain.Entity](16)
	t.Cleanup(bus.Close)

	coll := handgrading.New(api.NewNotifying(fake, bus), 7, 3, handgrading.WithPageSize(2))
	t.Cleanup(coll.Close)
	coll.Subscribe(context.Background(), bus)

	tm := teatest.NewTestModel(t, New(context.Background(), coll), teatest.WithInitialTermSize(100, 30))
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return strings.Contains(string(b), "graded@me.com")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(keyMsg("j"))
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	require.Eventually(t, func() bool {
		r := coll.CurrentlyGrading()
		return r != nil && r.GroupID == 2
	}, 2*time.Second, 10*time.Millisecond)

	tm.Send(keyMsg("f"))
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return strings.Contains(string(b), "2/3 (4 total)")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(keyMsg("n"))
	require.Eventually(t, func() bool {
		r := coll.CurrentlyGrading()
		return r != nil && r.GroupID == 3
	}, 2*time.Second, 10*time.Millisecond)

	tm.Send(keyMsg("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
	require.Equal(t, 2, fake.Calls("GetOrCreateResult"))
	require.Equal(t, 1, fake.Calls("UpdateResult"))
}

func TestUpdate_EnterOnEmptySubmissionsClearsGrading(t *testing.T) {
	fake := newFake()
	m := loaded(t, fake)

	model := run(t, m, func() tea.Msg { return tea.KeyMsg{Type: tea.KeyEnter} })
	require.Nil(t, model.(Model).coll.CurrentlyGrading())
	require.Zero(t, fake.Calls("GetOrCreateResult"))
}

func TestSearch_FiltersAsYouType(t *testing.T) {
	coll := handgrading.New(newFake(), 7, 3, handgrading.WithPageSize(2))
	t.Cleanup(coll.Close)

	tm := teatest.NewTestModel(t, New(context.Background(), coll), teatest.WithInitialTermSize(100, 30))
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return strings.Contains(string(b), "graded@me.com")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(keyMsg("/"))
	tm.Type("GRAD")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(keyMsg("q"))

	final := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).(Model)
	require.Equal(t, "GRAD", final.coll.Filter().SearchText)
	require.False(t, final.searching)
	require.Len(t, final.coll.Visible(), 1)
	require.Equal(t, int64(4), final.coll.Visible()[0].Summary.ID)
}

func TestStoreChange_Reloads(t *testing.T) {
	fake := newFake()
	changes := make(chan struct{}, 1)
	m := loaded(t, fake, WithStoreChanges(changes))
	require.Equal(t, 3, fake.Calls("ListSummaries"))

	fake.ListSummariesFunc = mock.Pages(groups[:1])
	model, cmd := m.Update(watcher.ChangedMsg{})
	// Drop the re-armed wait so run does not block on the channel.
	close(changes)
	model = run(t, model, cmd)

	require.Equal(t, 1, model.(Model).coll.Len())
	require.Equal(t, 4, fake.Calls("ListSummaries"))
}

func TestNextStatus_Cycles(t *testing.T) {
	s := domain.GradingStatus("")
	var seen []domain.GradingStatus
	for range handgrading.Statuses {
		s = nextStatus(s)
		seen = append(seen, s)
	}
	require.Equal(t, handgrading.StatusAll, seen[len(seen)-1])
	require.ElementsMatch(t, handgrading.Statuses, seen)
}
