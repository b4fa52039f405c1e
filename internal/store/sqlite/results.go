package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/zjrosen/agview/internal/domain"
)

const suiteResultColumns = `id, submission_id, suite_name, setup_name, setup_return_code, setup_timed_out,
	setup_stdout, setup_stderr, show_setup_return_code, show_setup_timed_out, show_setup_stdout, show_setup_stderr`

func scanSuiteResult(scanner interface{ Scan(...any) error }) (suiteResultModel, error) {
	var m suiteResultModel
	err := scanner.Scan(
		&m.ID, &m.SubmissionID, &m.SuiteName, &m.SetupName, &m.SetupReturnCode, &m.SetupTimedOut,
		&m.SetupStdout, &m.SetupStderr,
		&m.Settings.ShowSetupReturnCode, &m.Settings.ShowSetupTimedOut,
		&m.Settings.ShowSetupStdout, &m.Settings.ShowSetupStderr,
	)
	return m, err
}

// SuiteResults returns the submission's suite results as seen under category.
func (b *Backend) SuiteResults(ctx context.Context, submissionID int64, category domain.FeedbackCategory) ([]domain.SuiteResultFeedback, error) {
	if !category.Valid() {
		return nil, domain.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid feedback category: %q", category))
	}
	rows, err := b.db.QueryContext(ctx,
		`SELECT `+suiteResultColumns+` FROM suite_results WHERE submission_id = ? ORDER BY id`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suite results: %w", err)
	}
	var out []domain.SuiteResultFeedback
	for rows.Next() {
		m, err := scanSuiteResult(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan suite result: %w", err)
		}
		out = append(out, m.toFeedback(category))
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}
	return out, nil
}

// SetupOutput returns one setup stream, or nil when the command produced
// none. Streams hidden under category are reported as 403.
func (b *Backend) SetupOutput(ctx context.Context, submissionID, suiteResultID int64, stream domain.OutputStream, category domain.FeedbackCategory) (*string, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT `+suiteResultColumns+` FROM suite_results WHERE id = ? AND submission_id = ?`,
		suiteResultID, submissionID)
	m, err := scanSuiteResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("suite result", suiteResultID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load suite result: %w", err)
	}

	settings := m.settingsFor(category)
	switch stream {
	case domain.StreamStdout:
		if !settings.ShowSetupStdout {
			return nil, domain.NewHTTPError(http.StatusForbidden, "Setup stdout is hidden.")
		}
		return m.SetupStdout, nil
	case domain.StreamStderr:
		if !settings.ShowSetupStderr {
			return nil, domain.NewHTTPError(http.StatusForbidden, "Setup stderr is hidden.")
		}
		return m.SetupStderr, nil
	default:
		return nil, domain.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Unknown stream: %q", stream))
	}
}
