// Package api defines the autograder client used by the navigator, the
// handgrading dashboard and the setup output viewer, plus decorators that
// trace calls and publish confirmed mutations on the change bus.
package api

import (
	"context"

	"github.com/zjrosen/agview/internal/domain"
)

// SuiteClient reads and mutates the suite/case/command tree.
type SuiteClient interface {
	// ListSuites returns the project's suites with their cases and commands, in order.
	ListSuites(ctx context.Context, projectID int64) ([]domain.Suite, error)

	CreateSuite(ctx context.Context, projectID int64, name string) (domain.Suite, error)
	UpdateSuite(ctx context.Context, suite domain.Suite) (domain.Suite, error)
	DeleteSuite(ctx context.Context, suite domain.Suite) error

	CreateCase(ctx context.Context, suiteID int64, name string) (domain.Case, error)
	// CloneCase copies a case (and its commands) to the end of the same suite.
	CloneCase(ctx context.Context, src domain.Case, name string) (domain.Case, error)
	UpdateCase(ctx context.Context, c domain.Case) (domain.Case, error)
	DeleteCase(ctx context.Context, c domain.Case) error

	CreateCommand(ctx context.Context, caseID int64, name, cmd string) (domain.Command, error)
	UpdateCommand(ctx context.Context, cmd domain.Command) (domain.Command, error)
	DeleteCommand(ctx context.Context, cmd domain.Command) error
}

// HandgradingClient serves the handgrading dashboard.
type HandgradingClient interface {
	// ListSummaries returns one page of group summaries. pageNum starts at 1.
	ListSummaries(ctx context.Context, projectID int64, pageNum, pageSize int) (domain.Page[domain.GroupSummary], error)
	ListStaff(ctx context.Context, courseID int64) ([]domain.User, error)
	// GetOrCreateResult returns the group's result; created reports whether
	// this call made it.
	GetOrCreateResult(ctx context.Context, groupID int64) (result domain.HandgradingResult, created bool, err error)
	UpdateResult(ctx context.Context, result domain.HandgradingResult) (domain.HandgradingResult, error)
}

// OutputClient reads suite results and their setup output.
type OutputClient interface {
	SuiteResults(ctx context.Context, submissionID int64, category domain.FeedbackCategory) ([]domain.SuiteResultFeedback, error)
	// SetupOutput returns nil when the server has no output for the stream.
	SetupOutput(ctx context.Context, submissionID, suiteResultID int64, stream domain.OutputStream, category domain.FeedbackCategory) (*string, error)
}

// Client is the full autograder API.
type Client interface {
	SuiteClient
	HandgradingClient
	OutputClient
}
