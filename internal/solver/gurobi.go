package solver

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/watertools/wsp/internal/lp"
)

func init() { Register(gurobiSolver{}) }

// gurobiSolver drives gurobi_cl. It is the only adapter that accepts
// bilinear terms: the model goes in as LP format with product sections
// and NonConvex=2 is set automatically.
type gurobiSolver struct{}

func (gurobiSolver) Name() string           { return "gurobi" }
func (gurobiSolver) SupportsBilinear() bool { return true }

func (s gurobiSolver) Solve(ctx context.Context, prob *lp.Problem, opts Options) (*Result, error) {
	ws, err := newWorkspace(opts)
	if err != nil {
		return nil, err
	}
	defer ws.cleanup()

	model, err := ws.writeLP(prob, "model.lp")
	if err != nil {
		return nil, err
	}
	solPath := ws.path("model.sol")

	args := []string{"ResultFile=" + solPath}
	if prob.HasBilinear() {
		args = append(args, "NonConvex=2")
	}
	if opts.TimeLimit > 0 {
		args = append(args, fmt.Sprintf("TimeLimit=%g", opts.TimeLimit.Seconds()))
	}
	args = append(args, opts.Args...)
	args = append(args, model)

	out, elapsed, err := runCommand(ctx, opts, opts.binary("gurobi_cl"), args...)
	if err != nil {
		return nil, err
	}

	res := &Result{Status: gurobiStatus(out), Runtime: elapsed, Log: out, Values: lp.Point{}}
	if res.Status == StatusInfeasible || res.Status == StatusUnbounded {
		return res, nil
	}
	if err := parseGurobiSol(solPath, res); err != nil {
		return nil, fmt.Errorf("parsing gurobi solution: %w\nsolver output:\n%s", err, out)
	}
	fillMissing(res, prob)
	return res, nil
}

// parseGurobiSol reads the .sol file: "# Objective value = v" followed
// by "name value" lines.
func parseGurobiSol(path string, res *Result) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if i := strings.Index(line, "Objective value ="); i >= 0 {
				v := strings.TrimSpace(line[i+len("Objective value ="):])
				if obj, err := strconv.ParseFloat(v, 64); err == nil {
					res.Objective = obj
				}
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		val, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		res.Values[fields[0]] = val
	}
	return sc.Err()
}

func gurobiStatus(out string) Status {
	switch {
	case strings.Contains(out, "Optimal solution found"):
		return StatusOptimal
	case strings.Contains(out, "Model is infeasible"):
		return StatusInfeasible
	case strings.Contains(out, "Model is unbounded"):
		return StatusUnbounded
	case strings.Contains(out, "Time limit reached"):
		return StatusFeasible
	default:
		return StatusUnknown
	}
}
