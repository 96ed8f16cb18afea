package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/watertools/wsp/internal/cli/config"
	"github.com/watertools/wsp/internal/ef"
	"github.com/watertools/wsp/internal/lp"
	"github.com/watertools/wsp/internal/portfolio"
	"github.com/watertools/wsp/internal/solver"
	"golang.org/x/sync/errgroup"
)

// measures holds the classic stochastic-programming value metrics.
type measures struct {
	RP   float64 `json:"rp"`   // expected cost of the stochastic solution
	EV   float64 `json:"ev"`   // cost of the mean-shortage problem
	EEV  float64 `json:"eev"`  // expected cost of using the EV decisions
	VSS  float64 `json:"vss"`  // EEV - RP
	EWS  float64 `json:"ews"`  // expected wait-and-see cost
	EVPI float64 `json:"evpi"` // RP - EWS
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Compute EVPI and VSS for the configured model",
		Long: `Quantify the value of modeling uncertainty.

Solves the stochastic program (RP), the mean-shortage problem (EV), the
stochastic program with the EV first-stage decisions forced (EEV), and
one wait-and-see problem per scenario (WS). Reports

  VSS  = EEV - RP    the cost of planning for the mean
  EVPI = RP  - EWS   what perfect foresight would be worth`,
		Example: `  wsp evaluate --data two_stage.json
  wsp evaluate --model three-stage --data three_stage.json --solver gurobi`,
		Args: cobra.NoArgs,
		RunE: runEvaluate,
	}
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	m, err := loadModel(cfg)
	if err != nil {
		return err
	}
	pr, err := m.ExtensiveForm()
	if err != nil {
		return fmt.Errorf("building extensive form: %w", err)
	}
	s, err := pickSolver(cfg, pr.Problem)
	if err != nil {
		return err
	}
	opts, err := solverOptions(cfg, logger)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var ms measures

	// Here-and-now: the stochastic program itself.
	rpRes, err := solveProblem(ctx, cfg, s, pr.Problem, opts)
	if err != nil {
		return fmt.Errorf("solving stochastic program: %w", err)
	}
	ms.RP = rpRes.Objective
	logger.Debug("solved stochastic program", "objective", ms.RP)

	// Mean-shortage problem and its decisions forced on the tree.
	evProb, err := m.ExpectedValueProblem()
	if err != nil {
		return err
	}
	evRes, err := solveProblem(ctx, cfg, s, evProb, opts)
	if err != nil {
		return fmt.Errorf("solving mean-shortage problem: %w", err)
	}
	ms.EV = evRes.Objective

	eevRes, err := solveWithFixedFirstStage(ctx, cfg, s, pr, evRes.Values, opts)
	if err != nil {
		return fmt.Errorf("evaluating mean-shortage decisions: %w", err)
	}
	ms.EEV = eevRes.Objective
	ms.VSS = ms.EEV - ms.RP

	// Wait-and-see: one deterministic solve per scenario, in parallel.
	ews, err := expectedWaitAndSee(ctx, cfg, s, m, pr, opts)
	if err != nil {
		return err
	}
	ms.EWS = ews
	ms.EVPI = ms.RP - ms.EWS

	w, closeOut, err := outWriter(cfg, cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	if cfg.OutputFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ms)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Measure", "Value"})
	t.AppendRow(table.Row{"RP (stochastic solution)", fmt.Sprintf("%.4f", ms.RP)})
	t.AppendRow(table.Row{"EV (mean-shortage problem)", fmt.Sprintf("%.4f", ms.EV)})
	t.AppendRow(table.Row{"EEV (EV decisions evaluated)", fmt.Sprintf("%.4f", ms.EEV)})
	t.AppendRow(table.Row{"EWS (expected wait-and-see)", fmt.Sprintf("%.4f", ms.EWS)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"VSS = EEV - RP", fmt.Sprintf("%.4f", ms.VSS)})
	t.AppendRow(table.Row{"EVPI = RP - EWS", fmt.Sprintf("%.4f", ms.EVPI)})
	t.Render()
	return nil
}

// solveWithFixedFirstStage re-solves the extensive form with the
// root-stage decisions pinned to the given point.
func solveWithFixedFirstStage(ctx context.Context, cfg *config.Config, s solver.Solver, pr *ef.Program, fixed lp.Point, opts solver.Options) (*solver.Result, error) {
	clone := pr.Problem.Clone()
	for _, v := range clone.Variables() {
		if _, _, node := ef.ParseVarName(v.Name); node != "" {
			continue
		}
		val, ok := fixed[v.Name]
		if !ok {
			continue
		}
		if v.Kind != lp.Continuous {
			val = math.Round(val)
		}
		v.Lo, v.Up = val, val
	}
	return solveProblem(ctx, cfg, s, clone, opts)
}

// expectedWaitAndSee solves one deterministic problem per scenario and
// returns the probability-weighted objective.
func expectedWaitAndSee(ctx context.Context, cfg *config.Config, s solver.Solver, m portfolio.Model, pr *ef.Program, opts solver.Options) (float64, error) {
	scenarios := pr.Tree.Scenarios()

	// Parallel solves must not share a scratch directory.
	opts.WorkDir = ""

	var mu sync.Mutex
	total := 0.0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, sc := range scenarios {
		sc := sc
		g.Go(func() error {
			prob, err := m.Deterministic(sc.Name)
			if err != nil {
				return err
			}
			res, err := solveProblem(ctx, cfg, s, prob, opts)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			mu.Lock()
			total += sc.Probability * res.Objective
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}
