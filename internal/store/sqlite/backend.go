package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zjrosen/agview/internal/api"
	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/log"
)

// Backend implements api.Client on top of the store. Failures are reported
// as *domain.HTTPError with the status the server would have used.
type Backend struct {
	db *sql.DB
}

var _ api.Client = (*Backend)(nil)

func notFound(kind string, id int64) error {
	return domain.NewHTTPError(http.StatusNotFound, fmt.Sprintf("%s %d not found.", kind, id))
}

func blankName() error {
	return domain.NewHTTPError(http.StatusBadRequest, "name: This field may not be blank.")
}

// requireRow turns a zero-rows result into a 404.
func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

func (b *Backend) exists(ctx context.Context, table string, id int64) (bool, error) {
	var one int
	err := b.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ListSuites returns the project's suites with their cases and commands,
// each level in creation order.
func (b *Backend) ListSuites(ctx context.Context, projectID int64) ([]domain.Suite, error) {
	ok, err := b.exists(ctx, "projects", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up project: %w", err)
	}
	if !ok {
		return nil, notFound("project", projectID)
	}

	rows, err := b.db.QueryContext(ctx,
		`SELECT id, project_id, name FROM suites WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suites: %w", err)
	}
	var suites []domain.Suite
	suiteIdx := make(map[int64]int)
	for rows.Next() {
		var s domain.Suite
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan suite: %w", err)
		}
		suiteIdx[s.ID] = len(suites)
		suites = append(suites, s)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = b.db.QueryContext(ctx,
		`SELECT c.id, c.suite_id, c.name FROM cases c
		 JOIN suites s ON s.id = c.suite_id
		 WHERE s.project_id = ? ORDER BY c.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	type casePos struct{ suite, index int }
	casePosByID := make(map[int64]casePos)
	for rows.Next() {
		var c domain.Case
		if err := rows.Scan(&c.ID, &c.SuiteID, &c.Name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		si := suiteIdx[c.SuiteID]
		casePosByID[c.ID] = casePos{si, len(suites[si].Cases)}
		suites[si].Cases = append(suites[si].Cases, c)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = b.db.QueryContext(ctx,
		`SELECT m.id, m.case_id, m.name, m.cmd FROM commands m
		 JOIN cases c ON c.id = m.case_id
		 JOIN suites s ON s.id = c.suite_id
		 WHERE s.project_id = ? ORDER BY m.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	for rows.Next() {
		var cmd domain.Command
		if err := rows.Scan(&cmd.ID, &cmd.CaseID, &cmd.Name, &cmd.Cmd); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		pos := casePosByID[cmd.CaseID]
		c := &suites[pos.suite].Cases[pos.index]
		c.Commands = append(c.Commands, cmd)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	log.Debug(log.CatDB, "Listed suites", "project", projectID, "suites", len(suites))
	return suites, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("failed to iterate rows: %w", err)
	}
	return rows.Close()
}

func (b *Backend) CreateSuite(ctx context.Context, projectID int64, name string) (domain.Suite, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Suite{}, blankName()
	}
	ok, err := b.exists(ctx, "projects", projectID)
	if err != nil {
		return domain.Suite{}, fmt.Errorf("failed to look up project: %w", err)
	}
	if !ok {
		return domain.Suite{}, notFound("project", projectID)
	}
	res, err := b.db.ExecContext(ctx, `INSERT INTO suites (project_id, name) VALUES (?, ?)`, projectID, name)
	if err != nil {
		return domain.Suite{}, fmt.Errorf("failed to insert suite: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Suite{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return domain.Suite{ID: id, ProjectID: projectID, Name: name}, nil
}

func (b *Backend) UpdateSuite(ctx context.Context, suite domain.Suite) (domain.Suite, error) {
	if strings.TrimSpace(suite.Name) == "" {
		return domain.Suite{}, blankName()
	}
	res, err := b.db.ExecContext(ctx, `UPDATE suites SET name = ? WHERE id = ?`, suite.Name, suite.ID)
	if err != nil {
		return domain.Suite{}, fmt.Errorf("failed to update suite: %w", err)
	}
	if err := requireRow(res, "suite", suite.ID); err != nil {
		return domain.Suite{}, err
	}
	var out domain.Suite
	err = b.db.QueryRowContext(ctx, `SELECT id, project_id, name FROM suites WHERE id = ?`, suite.ID).
		Scan(&out.ID, &out.ProjectID, &out.Name)
	if err != nil {
		return domain.Suite{}, fmt.Errorf("failed to reload suite: %w", err)
	}
	return out, nil
}

func (b *Backend) DeleteSuite(ctx context.Context, suite domain.Suite) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM suites WHERE id = ?`, suite.ID)
	if err != nil {
		return fmt.Errorf("failed to delete suite: %w", err)
	}
	return requireRow(res, "suite", suite.ID)
}

func (b *Backend) CreateCase(ctx context.Context, suiteID int64, name string) (domain.Case, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Case{}, blankName()
	}
	ok, err := b.exists(ctx, "suites", suiteID)
	if err != nil {
		return domain.Case{}, fmt.Errorf("failed to look up suite: %w", err)
	}
	if !ok {
		return domain.Case{}, notFound("suite", suiteID)
	}
	res, err := b.db.ExecContext(ctx, `INSERT INTO cases (suite_id, name) VALUES (?, ?)`, suiteID, name)
	if err != nil {
		return domain.Case{}, fmt.Errorf("failed to insert case: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Case{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return domain.Case{ID: id, SuiteID: suiteID, Name: name}, nil
}

// CloneCase copies src's row and commands in one transaction. The copy is
// read from the store, not from src.
func (b *Backend) CloneCase(ctx context.Context, src domain.Case, name string) (_ domain.Case, err error) {
	if strings.TrimSpace(name) == "" {
		return domain.Case{}, blankName()
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Case{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var suiteID int64
	err = tx.QueryRowContext(ctx, `SELECT suite_id FROM cases WHERE id = ?`, src.ID).Scan(&suiteID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Case{}, notFound("case", src.ID)
	}
	if err != nil {
		return domain.Case{}, fmt.Errorf("failed to look up case: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO cases (suite_id, name) VALUES (?, ?)`, suiteID, name)
	if err != nil {
		return domain.Case{}, fmt.Errorf("failed to insert case: %w", err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return domain.Case{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO commands (case_id, name, cmd)
		 SELECT ?, name, cmd FROM commands WHERE case_id = ? ORDER BY id`, newID, src.ID)
	if err != nil {
		return domain.Case{}, fmt.Errorf("failed to copy commands: %w", err)
	}

	clone := domain.Case{ID: newID, SuiteID: suiteID, Name: name}
	rows, err := tx.QueryContext(ctx, `SELECT id, case_id, name, cmd FROM commands WHERE case_id = ? ORDER BY id`, newID)
	if err != nil {
		return domain.Case{}, fmt.Errorf("failed to query commands: %w", err)
	}
	for rows.Next() {
		var cmd domain.Command
		if err = rows.Scan(&cmd.ID, &cmd.CaseID, &cmd.Name, &cmd.Cmd); err != nil {
			_ = rows.Close()
			return domain.Case{}, fmt.Errorf("failed to scan command: %w", err)
		}
		clone.Commands = append(clone.Commands, cmd)
	}
	if err = closeRows(rows); err != nil {
		return domain.Case{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Case{}, fmt.Errorf("failed to commit clone: %w", err)
	}
	return clone, nil
}

func (b *Backend) UpdateCase(ctx context.Context, c domain.Case) (domain.Case, error) {
	if strings.TrimSpace(c.Name) == "" {
		return domain.Case{}, blankName()
	}
	res, err := b.db.ExecContext(ctx, `UPDATE cases SET name = ? WHERE id = ?`, c.Name, c.ID)
	if err != nil {
		return domain.Case{}, fmt.Errorf("failed to update case: %w", err)
	}
	if err := requireRow(res, "case", c.ID); err != nil {
		return domain.Case{}, err
	}
	var out domain.Case
	err = b.db.QueryRowContext(ctx, `SELECT id, suite_id, name FROM cases WHERE id = ?`, c.ID).
		Scan(&out.ID, &out.SuiteID, &out.Name)
	if err != nil {
		return domain.Case{}, fmt.Errorf("failed to reload case: %w", err)
	}
	return out, nil
}

func (b *Backend) DeleteCase(ctx context.Context, c domain.Case) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM cases WHERE id = ?`, c.ID)
	if err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}
	return requireRow(res, "case", c.ID)
}

func (b *Backend) CreateCommand(ctx context.Context, caseID int64, name, cmd string) (domain.Command, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Command{}, blankName()
	}
	ok, err := b.exists(ctx, "cases", caseID)
	if err != nil {
		return domain.Command{}, fmt.Errorf("failed to look up case: %w", err)
	}
	if !ok {
		return domain.Command{}, notFound("case", caseID)
	}
	res, err := b.db.ExecContext(ctx, `INSERT INTO commands (case_id, name, cmd) VALUES (?, ?, ?)`, caseID, name, cmd)
	if err != nil {
		return domain.Command{}, fmt.Errorf("failed to insert command: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Command{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return domain.Command{ID: id, CaseID: caseID, Name: name, Cmd: cmd}, nil
}

func (b *Backend) UpdateCommand(ctx context.Context, cmd domain.Command) (domain.Command, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return domain.Command{}, blankName()
	}
	res, err := b.db.ExecContext(ctx, `UPDATE commands SET name = ?, cmd = ? WHERE id = ?`, cmd.Name, cmd.Cmd, cmd.ID)
	if err != nil {
		return domain.Command{}, fmt.Errorf("failed to update command: %w", err)
	}
	if err := requireRow(res, "command", cmd.ID); err != nil {
		return domain.Command{}, err
	}
	var out domain.Command
	err = b.db.QueryRowContext(ctx, `SELECT id, case_id, name, cmd FROM commands WHERE id = ?`, cmd.ID).
		Scan(&out.ID, &out.CaseID, &out.Name, &out.Cmd)
	if err != nil {
		return domain.Command{}, fmt.Errorf("failed to reload command: %w", err)
	}
	return out, nil
}

func (b *Backend) DeleteCommand(ctx context.Context, cmd domain.Command) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM commands WHERE id = ?`, cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to delete command: %w", err)
	}
	return requireRow(res, "command", cmd.ID)
}
