// Package state records solve runs and their scenario costs in a local
// SQLite database, so results can be listed and compared later.
package state

import "time"

// RunStatus tracks the lifecycle of a solve run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded solve.
type Run struct {
	ID          string
	Model       string
	DataFile    string
	Solver      string
	Status      RunStatus
	SolveStatus string
	Objective   float64
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// ScenarioResult is the realized cost of one scenario in a run.
type ScenarioResult struct {
	RunID       string
	Scenario    string
	Probability float64
	Cost        float64
}

// Store persists runs and their scenario results.
type Store interface {
	CreateRun(model, dataFile, solver string) (*Run, error)
	CompleteRun(id, solveStatus string, objective float64) error
	FailRun(id string, runErr error) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)
	SaveScenarioResults(runID string, results []ScenarioResult) error
	ListScenarioResults(runID string) ([]ScenarioResult, error)
	Close() error
}
