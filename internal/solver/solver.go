// Package solver runs external MILP solvers on a problem and parses
// their solution files back into variable assignments. Each adapter
// shells out to a command-line binary, so the corresponding solver must
// be installed and on PATH (or pointed at via Options.Binary).
package solver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/watertools/wsp/internal/lp"
)

// Status classifies the solver's verdict.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusUnknown    Status = "unknown"
)

// Result is a parsed solver run.
type Result struct {
	Status    Status
	Objective float64
	Values    lp.Point
	Runtime   time.Duration

	// Raw solver log, kept for diagnostics.
	Log string
}

// Err reports infeasible and unbounded verdicts as errors so callers
// cannot mistake them for a solution.
func (r *Result) Err() error {
	switch r.Status {
	case StatusInfeasible, StatusUnbounded:
		return fmt.Errorf("no solution: problem is %s", r.Status)
	}
	return nil
}

// Options controls a single solve.
type Options struct {
	// Binary overrides the adapter's default executable name.
	Binary string

	// Args are extra command-line arguments passed through verbatim.
	Args []string

	// TimeLimit bounds the solver run; zero means no limit.
	TimeLimit time.Duration

	// WorkDir receives the model and solution files. Empty means a
	// fresh temporary directory, removed unless KeepFiles is set.
	WorkDir string

	// KeepFiles leaves the model and solution files on disk.
	KeepFiles bool

	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func (o Options) binary(fallback string) string {
	if o.Binary != "" {
		return o.Binary
	}
	return fallback
}

// Solver is one external solver adapter.
type Solver interface {
	// Name is the registry key, e.g. "cbc".
	Name() string

	// SupportsBilinear reports whether the solver accepts products of
	// variables. MPS-only solvers do not.
	SupportsBilinear() bool

	// Solve writes the model, runs the binary, and parses the result.
	Solve(ctx context.Context, prob *lp.Problem, opts Options) (*Result, error)
}

var registry = map[string]Solver{}

// Register adds a solver to the registry. Called from adapter init.
func Register(s Solver) {
	registry[s.Name()] = s
}

// Get returns a registered solver by name.
func Get(name string) (Solver, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown solver %q (available: %v)", name, Names())
	}
	return s, nil
}

// Names lists the registered solvers in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
