package mock

import (
	"context"
	"sync"

	"github.com/zjrosen/agview/internal/api"
	"github.com/zjrosen/agview/internal/domain"
)

// Client is a fake api.Client.
type Client struct {
	ListSuitesFunc    func(ctx context.Context, projectID int64) ([]domain.Suite, error)
	CreateSuiteFunc   func(ctx context.Context, projectID int64, name string) (domain.Suite, error)
	UpdateSuiteFunc   func(ctx context.Context, suite domain.Suite) (domain.Suite, error)
	DeleteSuiteFunc   func(ctx context.Context, suite domain.Suite) error
	CreateCaseFunc    func(ctx context.Context, suiteID int64, name string) (domain.Case, error)
	CloneCaseFunc     func(ctx context.Context, src domain.Case, name string) (domain.Case, error)
	UpdateCaseFunc    func(ctx context.Context, c domain.Case) (domain.Case, error)
	DeleteCaseFunc    func(ctx context.Context, c domain.Case) error
	CreateCommandFunc func(ctx context.Context, caseID int64, name, cmd string) (domain.Command, error)
	UpdateCommandFunc func(ctx context.Context, cmd domain.Command) (domain.Command, error)
	DeleteCommandFunc func(ctx context.Context, cmd domain.Command) error

	ListSummariesFunc     func(ctx context.Context, projectID int64, pageNum, pageSize int) (domain.Page[domain.GroupSummary], error)
	ListStaffFunc         func(ctx context.Context, courseID int64) ([]domain.User, error)
	GetOrCreateResultFunc func(ctx context.Context, groupID int64) (domain.HandgradingResult, bool, error)
	UpdateResultFunc      func(ctx context.Context, result domain.HandgradingResult) (domain.HandgradingResult, error)

	SuiteResultsFunc func(ctx context.Context, submissionID int64, category domain.FeedbackCategory) ([]domain.SuiteResultFeedback, error)
	SetupOutputFunc  func(ctx context.Context, submissionID, suiteResultID int64, stream domain.OutputStream, category domain.FeedbackCategory) (*string, error)

	mu     sync.Mutex
	calls  map[string]int
	nextID int64
}

var _ api.Client = (*Client)(nil)

// NewClient creates a mock whose generated ids start after startID.
func NewClient(startID int64) *Client {
	return &Client{calls: make(map[string]int), nextID: startID}
}

func (c *Client) record(method string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[method]++
	c.nextID++
	return c.nextID
}

// Calls returns how many times method was invoked.
func (c *Client) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// Reset clears the call counters.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = make(map[string]int)
}

func (c *Client) ListSuites(ctx context.Context, projectID int64) ([]domain.Suite, error) {
	c.record("ListSuites")
	if c.ListSuitesFunc != nil {
		return c.ListSuitesFunc(ctx, projectID)
	}
	return nil, nil
}

func (c *Client) CreateSuite(ctx context.Context, projectID int64, name string) (domain.Suite, error) {
	next := c.record("CreateSuite")
	if c.CreateSuiteFunc != nil {
		return c.CreateSuiteFunc(ctx, projectID, name)
	}
	return domain.Suite{ID: next, ProjectID: projectID, Name: name}, nil
}

func (c *Client) UpdateSuite(ctx context.Context, suite domain.Suite) (domain.Suite, error) {
	c.record("UpdateSuite")
	if c.UpdateSuiteFunc != nil {
		return c.UpdateSuiteFunc(ctx, suite)
	}
	return suite, nil
}

func (c *Client) DeleteSuite(ctx context.Context, suite domain.Suite) error {
	c.record("DeleteSuite")
	if c.DeleteSuiteFunc != nil {
		return c.DeleteSuiteFunc(ctx, suite)
	}
	return nil
}

func (c *Client) CreateCase(ctx context.Context, suiteID int64, name string) (domain.Case, error) {
	next := c.record("CreateCase")
	if c.CreateCaseFunc != nil {
		return c.CreateCaseFunc(ctx, suiteID, name)
	}
	return domain.Case{ID: next, SuiteID: suiteID, Name: name}, nil
}

func (c *Client) CloneCase(ctx context.Context, src domain.Case, name string) (domain.Case, error) {
	next := c.record("CloneCase")
	if c.CloneCaseFunc != nil {
		return c.CloneCaseFunc(ctx, src, name)
	}
	clone := src.Clone()
	clone.ID = next
	clone.Name = name
	for i := range clone.Commands {
		clone.Commands[i].ID = c.record("CloneCase.command")
		clone.Commands[i].CaseID = next
	}
	return clone, nil
}

func (c *Client) UpdateCase(ctx context.Context, in domain.Case) (domain.Case, error) {
	c.record("UpdateCase")
	if c.UpdateCaseFunc != nil {
		return c.UpdateCaseFunc(ctx, in)
	}
	return in, nil
}

func (c *Client) DeleteCase(ctx context.Context, in domain.Case) error {
	c.record("DeleteCase")
	if c.DeleteCaseFunc != nil {
		return c.DeleteCaseFunc(ctx, in)
	}
	return nil
}

func (c *Client) CreateCommand(ctx context.Context, caseID int64, name, cmd string) (domain.Command, error) {
	next := c.record("CreateCommand")
	if c.CreateCommandFunc != nil {
		return c.CreateCommandFunc(ctx, caseID, name, cmd)
	}
	return domain.Command{ID: next, CaseID: caseID, Name: name, Cmd: cmd}, nil
}

func (c *Client) UpdateCommand(ctx context.Context, in domain.Command) (domain.Command, error) {
	c.record("UpdateCommand")
	if c.UpdateCommandFunc != nil {
		return c.UpdateCommandFunc(ctx, in)
	}
	return in, nil
}

func (c *Client) DeleteCommand(ctx context.Context, in domain.Command) error {
	c.record("DeleteCommand")
	if c.DeleteCommandFunc != nil {
		return c.DeleteCommandFunc(ctx, in)
	}
	return nil
}

func (c *Client) ListSummaries(ctx context.Context, projectID int64, pageNum, pageSize int) (domain.Page[domain.GroupSummary], error) {
	c.record("ListSummaries")
	if c.ListSummariesFunc != nil {
		return c.ListSummariesFunc(ctx, projectID, pageNum, pageSize)
	}
	return domain.Page[domain.GroupSummary]{}, nil
}

func (c *Client) ListStaff(ctx context.Context, courseID int64) ([]domain.User, error) {
	c.record("ListStaff")
	if c.ListStaffFunc != nil {
		return c.ListStaffFunc(ctx, courseID)
	}
	return nil, nil
}

func (c *Client) GetOrCreateResult(ctx context.Context, groupID int64) (domain.HandgradingResult, bool, error) {
	next := c.record("GetOrCreateResult")
	if c.GetOrCreateResultFunc != nil {
		return c.GetOrCreateResultFunc(ctx, groupID)
	}
	return domain.HandgradingResult{ID: next, GroupID: groupID}, true, nil
}

func (c *Client) UpdateResult(ctx context.Context, result domain.HandgradingResult) (domain.HandgradingResult, error) {
	c.record("UpdateResult")
	if c.UpdateResultFunc != nil {
		return c.UpdateResultFunc(ctx, result)
	}
	return result, nil
}

func (c *Client) SuiteResults(ctx context.Context, submissionID int64, category domain.FeedbackCategory) ([]domain.SuiteResultFeedback, error) {
	c.record("SuiteResults")
	if c.SuiteResultsFunc != nil {
		return c.SuiteResultsFunc(ctx, submissionID, category)
	}
	return nil, nil
}

func (c *Client) SetupOutput(ctx context.Context, submissionID, suiteResultID int64, stream domain.OutputStream, category domain.FeedbackCategory) (*string, error) {
	c.record("SetupOutput")
	if c.SetupOutputFunc != nil {
		return c.SetupOutputFunc(ctx, submissionID, suiteResultID, stream, category)
	}
	return nil, nil
}

// Pages returns a ListSummariesFunc serving pages in order; page n (1-based)
// is pages[n-1] and every page but the last reports a next cursor.
func Pages(pages ...[]domain.GroupSummary) func(context.Context, int64, int, int) (domain.Page[domain.GroupSummary], error) {
	total := 0
	for _, p := range pages {
		total += len(p)
	}
	return func(_ context.Context, _ int64, pageNum, _ int) (domain.Page[domain.GroupSummary], error) {
		if pageNum < 1 || pageNum > len(pages) {
			return domain.Page[domain.GroupSummary]{Count: total}, nil
		}
		page := domain.Page[domain.GroupSummary]{Count: total, Results: pages[pageNum-1]}
		if pageNum < len(pages) {
			next := "next"
			page.Next = &next
		}
		return page, nil
	}
}
