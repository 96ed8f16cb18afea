package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/watertools/wsp/internal/cli/config"
	"github.com/watertools/wsp/internal/solution"
	"github.com/watertools/wsp/internal/state"
)

// NewSolveCommand creates the solve command.
func NewSolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "solve",
		Short: "Solve the stochastic portfolio model",
		Long: `Build the deterministic equivalent of the configured model and solve
it with an external solver. The solved portfolio is reported per tree
node, and the run is recorded in the history database.`,
		Example: `  # Solve the two-stage model with cbc
  wsp solve --data two_stage.json

  # Three-stage model (bilinear) needs gurobi
  wsp solve --model three-stage --data three_stage.json --solver gurobi

  # Risk-averse objective
  wsp solve --data two_stage.json --cvar-weight 0.5 --risk-alpha 0.9

  # Write the full solution as CSV
  wsp solve --data two_stage.json -o csv --out-file solution.csv`,
		Args: cobra.NoArgs,
		RunE: runSolve,
	}
}

func runSolve(cmd *cobra.Command, _ []string) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	m, err := loadModel(cfg)
	if err != nil {
		return err
	}
	pr, err := buildProgram(cfg, m)
	if err != nil {
		return err
	}
	stats := pr.Problem.Stats()
	logger.Debug("built extensive form",
		"cols", stats.Cols,
		"integer_cols", stats.IntegerCols,
		"rows", stats.Rows,
		"bilinear_rows", stats.BilinearRows)

	s, err := pickSolver(cfg, pr.Problem)
	if err != nil {
		return err
	}
	opts, err := solverOptions(cfg, logger)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.CreateRun(cfg.Model, cfg.DataFile, s.Name())
	if err != nil {
		return err
	}

	res, err := solveProblem(cmd.Context(), cfg, s, pr.Problem, opts)
	if err != nil {
		if ferr := store.FailRun(run.ID, err); ferr != nil {
			logger.Warn("could not record failed run", "error", ferr)
		}
		return err
	}

	rep, err := solution.Build(cfg.Model, s.Name(), pr, res)
	if err != nil {
		return err
	}

	if err := store.CompleteRun(run.ID, string(res.Status), res.Objective); err != nil {
		logger.Warn("could not record run", "error", err)
	}
	results := make([]state.ScenarioResult, 0, len(rep.Scenarios))
	for _, sc := range rep.Scenarios {
		results = append(results, state.ScenarioResult{
			RunID:       run.ID,
			Scenario:    sc.Scenario,
			Probability: sc.Probability,
			Cost:        sc.Cost,
		})
	}
	if err := store.SaveScenarioResults(run.ID, results); err != nil {
		logger.Warn("could not record scenario results", "error", err)
	}

	w, closeOut, err := outWriter(cfg, cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	switch cfg.OutputFormat {
	case "csv":
		return rep.WriteCSV(w)
	case "json":
		return rep.WriteJSON(w)
	default:
		rep.RenderSummary(w)
		fmt.Fprintf(w, "\nrun recorded: %s\n", run.ID)
		return nil
	}
}
