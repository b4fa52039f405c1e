package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/zjrosen/agview/internal/domain"
)

const groupColumns = `g.id, g.project_id, g.members, g.num_submissions,
	r.id, r.finished_grading, r.total_points, r.total_points_possible`

func scanGroup(scanner interface{ Scan(...any) error }) (groupModel, error) {
	var m groupModel
	err := scanner.Scan(
		&m.ID, &m.ProjectID, &m.Members, &m.NumSubmissions,
		&m.ResultID, &m.FinishedGrading, &m.TotalPoints, &m.TotalPointsPossible,
	)
	return m, err
}

// ListSummaries pages through the project's groups in id order. pageNum
// starts at 1.
func (b *Backend) ListSummaries(ctx context.Context, projectID int64, pageNum, pageSize int) (domain.Page[domain.GroupSummary], error) {
	if pageNum < 1 || pageSize < 1 {
		return domain.Page[domain.GroupSummary]{}, domain.NewHTTPError(http.StatusBadRequest, "Invalid page.")
	}

	var count int
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM student_groups WHERE project_id = ?`, projectID).Scan(&count)
	if err != nil {
		return domain.Page[domain.GroupSummary]{}, fmt.Errorf("failed to count groups: %w", err)
	}
	offset := (pageNum - 1) * pageSize
	if offset > 0 && offset >= count {
		return domain.Page[domain.GroupSummary]{}, domain.NewHTTPError(http.StatusNotFound, "Invalid page.")
	}

	rows, err := b.db.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM student_groups g
		 LEFT JOIN handgrading_results r ON r.group_id = g.id
		 WHERE g.project_id = ? ORDER BY g.id LIMIT ? OFFSET ?`,
		projectID, pageSize, offset)
	if err != nil {
		return domain.Page[domain.GroupSummary]{}, fmt.Errorf("failed to query groups: %w", err)
	}

	page := domain.Page[domain.GroupSummary]{Count: count, Results: []domain.GroupSummary{}}
	for rows.Next() {
		m, err := scanGroup(rows)
		if err != nil {
			_ = rows.Close()
			return domain.Page[domain.GroupSummary]{}, fmt.Errorf("failed to scan group: %w", err)
		}
		g, err := m.toDomain()
		if err != nil {
			_ = rows.Close()
			return domain.Page[domain.GroupSummary]{}, fmt.Errorf("failed to decode members of group %d: %w", m.ID, err)
		}
		page.Results = append(page.Results, g)
	}
	if err := closeRows(rows); err != nil {
		return domain.Page[domain.GroupSummary]{}, err
	}

	if offset+pageSize < count {
		next := fmt.Sprintf("/projects/%d/handgrading_results/?page_num=%d&page_size=%d", projectID, pageNum+1, pageSize)
		page.Next = &next
	}
	if pageNum > 1 {
		prev := fmt.Sprintf("/projects/%d/handgrading_results/?page_num=%d&page_size=%d", projectID, pageNum-1, pageSize)
		page.Previous = &prev
	}
	return page, nil
}

// ListStaff returns the course staff ordered by username.
func (b *Backend) ListStaff(ctx context.Context, courseID int64) ([]domain.User, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT rowid, username FROM course_staff WHERE course_id = ? ORDER BY username`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		users = append(users, u)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}
	return users, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadResult(ctx context.Context, q rowQuerier, groupID int64) (domain.HandgradingResult, error) {
	var r domain.HandgradingResult
	err := q.QueryRowContext(ctx,
		`SELECT id, group_id, submission_id, finished_grading, total_points, total_points_possible
		 FROM handgrading_results WHERE group_id = ?`, groupID).
		Scan(&r.ID, &r.GroupID, &r.SubmissionID, &r.FinishedGrading, &r.TotalPoints, &r.TotalPointsPossible)
	return r, err
}

// GetOrCreateResult returns the group's result, creating an empty one if
// none exists. Groups without submissions are rejected like the server does.
func (b *Backend) GetOrCreateResult(ctx context.Context, groupID int64) (_ domain.HandgradingResult, created bool, err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.HandgradingResult{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var numSubmissions int
	err = tx.QueryRowContext(ctx, `SELECT num_submissions FROM student_groups WHERE id = ?`, groupID).Scan(&numSubmissions)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HandgradingResult{}, false, notFound("group", groupID)
	}
	if err != nil {
		return domain.HandgradingResult{}, false, fmt.Errorf("failed to look up group: %w", err)
	}
	if numSubmissions == 0 {
		err = domain.NewHTTPError(http.StatusBadRequest, "Group has no submissions.")
		return domain.HandgradingResult{}, false, err
	}

	r, err := loadResult(ctx, tx, groupID)
	switch {
	case err == nil:
		if err = tx.Commit(); err != nil {
			return domain.HandgradingResult{}, false, fmt.Errorf("failed to commit: %w", err)
		}
		return r, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return domain.HandgradingResult{}, false, fmt.Errorf("failed to load result: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO handgrading_results (group_id, submission_id) VALUES (?, ?)`, groupID, groupID)
	if err != nil {
		return domain.HandgradingResult{}, false, fmt.Errorf("failed to insert result: %w", err)
	}
	r, err = loadResult(ctx, tx, groupID)
	if err != nil {
		return domain.HandgradingResult{}, false, fmt.Errorf("failed to load result: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return domain.HandgradingResult{}, false, fmt.Errorf("failed to commit: %w", err)
	}
	return r, true, nil
}

// UpdateResult saves the editable fields of a result.
func (b *Backend) UpdateResult(ctx context.Context, result domain.HandgradingResult) (domain.HandgradingResult, error) {
	res, err := b.db.ExecContext(ctx,
		`UPDATE handgrading_results SET finished_grading = ?, total_points = ?, total_points_possible = ?
		 WHERE id = ?`,
		result.FinishedGrading, result.TotalPoints, result.TotalPointsPossible, result.ID)
	if err != nil {
		return domain.HandgradingResult{}, fmt.Errorf("failed to update result: %w", err)
	}
	if err := requireRow(res, "handgrading result", result.ID); err != nil {
		return domain.HandgradingResult{}, err
	}
	var groupID int64
	if err := b.db.QueryRowContext(ctx, `SELECT group_id FROM handgrading_results WHERE id = ?`, result.ID).Scan(&groupID); err != nil {
		return domain.HandgradingResult{}, fmt.Errorf("failed to reload result: %w", err)
	}
	r, err := loadResult(ctx, b.db, groupID)
	if err != nil {
		return domain.HandgradingResult{}, fmt.Errorf("failed to reload result: %w", err)
	}
	return r, nil
}
