package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/store/sqlite"
)

// DefaultCourseID is the course of the builder's project.
const DefaultCourseID = 1

// Fixture reports what Build inserted.
type Fixture struct {
	ProjectID int64
	CourseID  int64
	GroupIDs  []int64
	Suites    []domain.Suite
}

// Builder accumulates test data and inserts it in the correct order.
type Builder struct {
	t        *testing.T
	db       *sqlite.DB
	courseID int64
	staff    []string
	groups   []groupData
	suites   []suiteData
	results  []sqlite.SuiteResult
}

// NewBuilder creates a builder for the given store.
func NewBuilder(t *testing.T, db *sqlite.DB) *Builder {
	t.Helper()
	return &Builder{t: t, db: db, courseID: DefaultCourseID}
}

// WithStaff adds course staff usernames.
func (b *Builder) WithStaff(usernames ...string) *Builder {
	b.staff = append(b.staff, usernames...)
	return b
}

// WithGroup adds a group with optional configuration.
func (b *Builder) WithGroup(opts ...GroupOption) *Builder {
	var g groupData
	for _, opt := range opts {
		opt(&g)
	}
	b.groups = append(b.groups, g)
	return b
}

// WithSuite adds a suite with its cases.
func (b *Builder) WithSuite(name string, cases ...CaseData) *Builder {
	b.suites = append(b.suites, suiteData{name: name, cases: cases})
	return b
}

// WithSuiteResult adds a suite result row.
func (b *Builder) WithSuiteResult(r sqlite.SuiteResult) *Builder {
	b.results = append(b.results, r)
	return b
}

// Build inserts all accumulated data into the store.
func (b *Builder) Build() Fixture {
	b.t.Helper()
	ctx := context.Background()
	seed := b.db.Seeder()
	backend := b.db.Backend()

	projectID, err := seed.Project(ctx, b.courseID, "project")
	require.NoError(b.t, err)
	fx := Fixture{ProjectID: projectID, CourseID: b.courseID}

	require.NoError(b.t, seed.Staff(ctx, b.courseID, b.staff...))

	for _, g := range b.groups {
		id, err := seed.Group(ctx, projectID, g.members, g.numSubmissions, g.result)
		require.NoError(b.t, err)
		fx.GroupIDs = append(fx.GroupIDs, id)
	}

	// Suites go through the backend so ids come out in creation order.
	for _, s := range b.suites {
		suite, err := backend.CreateSuite(ctx, projectID, s.name)
		require.NoError(b.t, err)
		for _, c := range s.cases {
			created, err := backend.CreateCase(ctx, suite.ID, c.Name)
			require.NoError(b.t, err)
			for _, name := range c.Commands {
				cmd, err := backend.CreateCommand(ctx, created.ID, name, "echo "+name)
				require.NoError(b.t, err)
				created.Commands = append(created.Commands, cmd)
			}
			suite.Cases = append(suite.Cases, created)
		}
		fx.Suites = append(fx.Suites, suite)
	}

	for _, r := range b.results {
		_, err := seed.SuiteResult(ctx, r)
		require.NoError(b.t, err)
	}
	return fx
}
