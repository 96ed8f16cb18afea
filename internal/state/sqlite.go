package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and runs pending
// migrations. Use ":memory:" for an in-memory store.
func Open(path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	if path == ":memory:" {
		dsn = path + "?_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging state database: %w", err)
	}
	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRun records the start of a solve.
func (s *SQLiteStore) CreateRun(model, dataFile, solver string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Model:     model,
		DataFile:  dataFile,
		Solver:    solver,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (id, model, data_file, solver, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Model, run.DataFile, run.Solver, string(run.Status), run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	return run, nil
}

// CompleteRun marks the run finished with the solver's verdict.
func (s *SQLiteStore) CompleteRun(id, solveStatus string, objective float64) error {
	res, err := s.db.Exec(`
		UPDATE runs
		SET status = ?, solve_status = ?, objective = ?, completed_at = ?
		WHERE id = ?`,
		string(RunStatusCompleted), solveStatus, objective, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}
	return mustAffect(res, id)
}

// FailRun marks the run failed and records the error.
func (s *SQLiteStore) FailRun(id string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := s.db.Exec(`
		UPDATE runs
		SET status = ?, error = ?, completed_at = ?
		WHERE id = ?`,
		string(RunStatusFailed), msg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failing run: %w", err)
	}
	return mustAffect(res, id)
}

// GetRun retrieves one run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, model, data_file, solver, status, solve_status,
		       objective, started_at, completed_at, error
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q not found", id)
	}
	return run, err
}

// ListRuns retrieves the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, model, data_file, solver, status, solve_status,
		       objective, started_at, completed_at, error
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveScenarioResults stores the per-scenario costs of a run.
func (s *SQLiteStore) SaveScenarioResults(runID string, results []ScenarioResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("saving scenario results: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO scenario_results (run_id, scenario, probability, cost)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("saving scenario results: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.Exec(runID, r.Scenario, r.Probability, r.Cost); err != nil {
			return fmt.Errorf("saving scenario %s: %w", r.Scenario, err)
		}
	}
	return tx.Commit()
}

// ListScenarioResults returns the scenario costs of a run in scenario
// name order.
func (s *SQLiteStore) ListScenarioResults(runID string) ([]ScenarioResult, error) {
	rows, err := s.db.Query(`
		SELECT run_id, scenario, probability, cost
		FROM scenario_results WHERE run_id = ? ORDER BY scenario`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing scenario results: %w", err)
	}
	defer rows.Close()

	var out []ScenarioResult
	for rows.Next() {
		var r ScenarioResult
		if err := rows.Scan(&r.RunID, &r.Scenario, &r.Probability, &r.Cost); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var status string
	var solveStatus, errMsg sql.NullString
	var objective sql.NullFloat64
	var completedAt sql.NullTime
	err := row.Scan(&run.ID, &run.Model, &run.DataFile, &run.Solver, &status,
		&solveStatus, &objective, &run.StartedAt, &completedAt, &errMsg)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.SolveStatus = solveStatus.String
	run.Objective = objective.Float64
	run.Error = errMsg.String
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

func mustAffect(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %q not found", id)
	}
	return nil
}
