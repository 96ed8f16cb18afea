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

func init() { Register(cbcSolver{}) }

// cbcSolver drives the COIN-OR branch-and-cut standalone binary. The
// model goes in as free MPS, the solution comes back from the text file
// written by the "solution" command.
type cbcSolver struct{}

func (cbcSolver) Name() string           { return "cbc" }
func (cbcSolver) SupportsBilinear() bool { return false }

func (s cbcSolver) Solve(ctx context.Context, prob *lp.Problem, opts Options) (*Result, error) {
	if prob.HasBilinear() {
		return nil, fmt.Errorf("cbc cannot solve problems with bilinear terms")
	}
	ws, err := newWorkspace(opts)
	if err != nil {
		return nil, err
	}
	defer ws.cleanup()

	model, err := ws.writeMPS(prob, "model.mps")
	if err != nil {
		return nil, err
	}
	solPath := ws.path("solution.txt")

	args := []string{model, "printingOptions", "all"}
	args = append(args, opts.Args...)
	args = append(args, "solve", "solution", solPath)

	out, elapsed, err := runCommand(ctx, opts, opts.binary("cbc"), args...)
	if err != nil {
		return nil, err
	}

	res, err := parseCbcSolution(solPath)
	if err != nil {
		return nil, fmt.Errorf("parsing cbc solution: %w\nsolver output:\n%s", err, out)
	}
	res.Runtime = elapsed
	res.Log = out
	fillMissing(res, prob)
	return res, nil
}

// parseCbcSolution reads the file written by cbc's "solution" command:
// a status line followed by one row per nonbasic entry, "index name
// value reducedcost".
func parseCbcSolution(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res := &Result{Status: StatusUnknown, Values: lp.Point{}}
	sc := bufio.NewScanner(f)
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			res.Status = cbcStatus(line)
			if i := strings.Index(line, "objective value"); i >= 0 {
				v := strings.TrimSpace(line[i+len("objective value"):])
				if obj, err := strconv.ParseFloat(strings.Fields(v)[0], 64); err == nil {
					res.Objective = obj
				}
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		val, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}
		res.Values[fields[1]] = val
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if first {
		return nil, fmt.Errorf("empty solution file")
	}
	return res, nil
}

func cbcStatus(line string) Status {
	low := strings.ToLower(line)
	switch {
	case strings.HasPrefix(low, "optimal"):
		return StatusOptimal
	case strings.Contains(low, "infeasible"):
		return StatusInfeasible
	case strings.Contains(low, "unbounded"):
		return StatusUnbounded
	case strings.HasPrefix(low, "stopped") && strings.Contains(low, "objective"):
		return StatusFeasible
	default:
		return StatusUnknown
	}
}

// fillMissing zeroes variables the solver omitted from its solution
// file so callers always see a complete point.
func fillMissing(res *Result, prob *lp.Problem) {
	for _, v := range prob.Variables() {
		if _, ok := res.Values[v.Name]; !ok {
			res.Values[v.Name] = 0
		}
	}
}
