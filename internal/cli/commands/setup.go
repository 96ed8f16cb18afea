package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/watertools/wsp/internal/cli/config"
	"github.com/watertools/wsp/internal/ef"
	"github.com/watertools/wsp/internal/lp"
	"github.com/watertools/wsp/internal/portfolio"
	"github.com/watertools/wsp/internal/presolve"
	"github.com/watertools/wsp/internal/solver"
	"github.com/watertools/wsp/internal/state"
)

// getConfig returns the configuration loaded by the root command.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Model:        config.DefaultModel,
		Solver:       config.DefaultSolver,
		StatePath:    config.DefaultStateFile,
		OutputFormat: config.DefaultOutput,
		RiskAlpha:    config.DefaultRiskAlpha,
	}
}

// loadModel reads and validates the configured data file.
func loadModel(cfg *config.Config) (portfolio.Model, error) {
	if err := cfg.RequireDataFile(); err != nil {
		return nil, err
	}
	return portfolio.Load(cfg.Model, cfg.DataFile)
}

// buildProgram assembles the deterministic equivalent, with the CVaR
// term applied when configured.
func buildProgram(cfg *config.Config, m portfolio.Model) (*ef.Program, error) {
	pr, err := m.ExtensiveForm()
	if err != nil {
		return nil, fmt.Errorf("building extensive form: %w", err)
	}
	if cfg.CVaRWeight > 0 {
		if err := pr.ApplyCVaR(ef.CVaR{Weight: cfg.CVaRWeight, Alpha: cfg.RiskAlpha}); err != nil {
			return nil, fmt.Errorf("applying risk term: %w", err)
		}
	}
	return pr, nil
}

// pickSolver resolves the configured solver and rejects combinations
// that cannot work.
func pickSolver(cfg *config.Config, prob *lp.Problem) (solver.Solver, error) {
	s, err := solver.Get(cfg.Solver)
	if err != nil {
		return nil, err
	}
	if prob.HasBilinear() && !s.SupportsBilinear() {
		return nil, fmt.Errorf("the %s model has products of variables; solver %q cannot handle them (use gurobi)",
			cfg.Model, cfg.Solver)
	}
	return s, nil
}

// solverOptions translates the configuration into per-solve options.
func solverOptions(cfg *config.Config, logger *slog.Logger) (solver.Options, error) {
	limit, err := cfg.TimeLimitDuration()
	if err != nil {
		return solver.Options{}, err
	}
	return solver.Options{
		Binary:    cfg.SolverBin,
		Args:      cfg.SolverArgs,
		TimeLimit: limit,
		WorkDir:   cfg.WorkDir,
		KeepFiles: cfg.KeepFiles,
		Logger:    logger,
	}, nil
}

// solveProblem runs one solve, optionally shrinking the problem first.
// The reported objective and point always refer to the original
// problem. An infeasible or unbounded verdict comes back as an error.
func solveProblem(ctx context.Context, cfg *config.Config, s solver.Solver, prob *lp.Problem, opts solver.Options) (*solver.Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	target := prob
	var red *presolve.Reduced
	if cfg.Presolve {
		var err error
		red, err = presolve.Apply(prob, presolve.Defaults())
		if err != nil {
			return nil, fmt.Errorf("presolve: %w", err)
		}
		logger.Debug("presolve finished",
			"rows_removed", red.RowsRemoved,
			"cols_removed", red.ColsRemoved,
			"iterations", red.Iterations)
		target = red.Problem
	}

	res, err := s.Solve(ctx, target, opts)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	if red != nil {
		res.Values = red.Postsolve(res.Values)
		if obj, err := prob.ObjectiveValue(res.Values); err == nil {
			res.Objective = obj
		}
	}
	return res, nil
}

// openStore opens the run history database, creating its directory.
func openStore(cfg *config.Config) (*state.SQLiteStore, error) {
	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
	}
	return state.Open(cfg.StatePath)
}

// outWriter returns the destination for command output and a cleanup
// function.
func outWriter(cfg *config.Config, cmd *cobra.Command) (io.Writer, func() error, error) {
	if cfg.OutFile == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(cfg.OutFile)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
