package sqlite

import (
	"context"
	"fmt"

	"github.com/zjrosen/agview/internal/domain"
)

// Seeder writes fixture rows that have no api.Client operation: projects,
// staff, groups and suite results. The seed command and tests use it.
type Seeder struct {
	db *DB
}

// Seeder returns a Seeder for the store.
func (db *DB) Seeder() *Seeder {
	return &Seeder{db: db}
}

// Project inserts a project and returns its id.
func (s *Seeder) Project(ctx context.Context, courseID int64, name string) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx, `INSERT INTO projects (course_id, name) VALUES (?, ?)`, courseID, name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert project: %w", err)
	}
	return res.LastInsertId()
}

// Staff adds usernames to the course staff. Existing entries are kept.
func (s *Seeder) Staff(ctx context.Context, courseID int64, usernames ...string) error {
	for _, u := range usernames {
		_, err := s.db.conn.ExecContext(ctx,
			`INSERT OR IGNORE INTO course_staff (course_id, username) VALUES (?, ?)`, courseID, u)
		if err != nil {
			return fmt.Errorf("failed to insert staff %q: %w", u, err)
		}
	}
	return nil
}

// Group inserts a group and, when result is non-nil, its handgrading result.
func (s *Seeder) Group(ctx context.Context, projectID int64, members []string, numSubmissions int, result *domain.ResultSummary) (int64, error) {
	encoded, err := encodeMembers(members)
	if err != nil {
		return 0, fmt.Errorf("failed to encode members: %w", err)
	}
	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO student_groups (project_id, members, num_submissions) VALUES (?, ?, ?)`,
		projectID, encoded, numSubmissions)
	if err != nil {
		return 0, fmt.Errorf("failed to insert group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	if result == nil {
		return id, nil
	}
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO handgrading_results (group_id, submission_id, finished_grading, total_points, total_points_possible)
		 VALUES (?, ?, ?, ?, ?)`,
		id, id, result.FinishedGrading, result.TotalPoints, result.TotalPointsPossible)
	if err != nil {
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}
	return id, nil
}

// SuiteResult describes a suite_results row.
type SuiteResult struct {
	SubmissionID int64
	SuiteName    string
	SetupName    string
	ReturnCode   *int
	TimedOut     *bool
	Stdout       *string
	Stderr       *string
	Settings     domain.SuiteFeedbackSettings
}

// SuiteResult inserts a suite result and returns its id.
func (s *Seeder) SuiteResult(ctx context.Context, r SuiteResult) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO suite_results (submission_id, suite_name, setup_name, setup_return_code, setup_timed_out,
			setup_stdout, setup_stderr, show_setup_return_code, show_setup_timed_out, show_setup_stdout, show_setup_stderr)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SubmissionID, r.SuiteName, r.SetupName, r.ReturnCode, r.TimedOut, r.Stdout, r.Stderr,
		r.Settings.ShowSetupReturnCode, r.Settings.ShowSetupTimedOut,
		r.Settings.ShowSetupStdout, r.Settings.ShowSetupStderr)
	if err != nil {
		return 0, fmt.Errorf("failed to insert suite result: %w", err)
	}
	return res.LastInsertId()
}
