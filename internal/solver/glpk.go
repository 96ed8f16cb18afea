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

func init() { Register(glpkSolver{}) }

// glpkSolver drives glpsol and parses the solution file written by -w.
type glpkSolver struct{}

func (glpkSolver) Name() string           { return "glpk" }
func (glpkSolver) SupportsBilinear() bool { return false }

func (s glpkSolver) Solve(ctx context.Context, prob *lp.Problem, opts Options) (*Result, error) {
	if prob.HasBilinear() {
		return nil, fmt.Errorf("glpk cannot solve problems with bilinear terms")
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

	args := []string{"--freemps", model, "-w", solPath}
	if opts.TimeLimit > 0 {
		args = append(args, "--tmlim", strconv.Itoa(int(opts.TimeLimit.Seconds())))
	}
	args = append(args, opts.Args...)

	out, elapsed, err := runCommand(ctx, opts, opts.binary("glpsol"), args...)
	if err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(prob.Variables()))
	for _, v := range prob.Variables() {
		cols = append(cols, v.Name)
	}
	res, err := parseGlpkSolution(solPath, cols)
	if err != nil {
		return nil, fmt.Errorf("parsing glpsol solution: %w\nsolver output:\n%s", err, out)
	}
	res.Runtime = elapsed
	res.Log = out
	fillMissing(res, prob)
	return res, nil
}

// parseGlpkSolution reads the machine-readable file written by -w.
// MIP solutions carry "s mip m n stat obj" with one "j <col> <value>"
// line per column; basic LP solutions carry "s bas m n pstat dstat obj"
// with "j <col> <status> <prim> <dual>" lines. Columns are identified
// by their 1-based position in the model file, which matches the order
// the MPS writer emits them in.
func parseGlpkSolution(path string, cols []string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res := &Result{Status: StatusUnknown, Values: lp.Point{}}
	kind := ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "s":
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed status line %q", sc.Text())
			}
			kind = fields[1]
			switch kind {
			case "mip":
				if len(fields) < 6 {
					return nil, fmt.Errorf("malformed mip status line %q", sc.Text())
				}
				res.Status = glpkMipStatus(fields[4])
				res.Objective, _ = strconv.ParseFloat(fields[5], 64)
			case "bas":
				if len(fields) < 7 {
					return nil, fmt.Errorf("malformed bas status line %q", sc.Text())
				}
				res.Status = glpkBasStatus(fields[4], fields[5])
				res.Objective, _ = strconv.ParseFloat(fields[6], 64)
			default:
				return nil, fmt.Errorf("unsupported solution kind %q", kind)
			}
		case "j":
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed column line %q", sc.Text())
			}
			idx, err := strconv.Atoi(fields[1])
			if err != nil || idx < 1 || idx > len(cols) {
				return nil, fmt.Errorf("column index %q out of range [1,%d]", fields[1], len(cols))
			}
			valField := fields[2]
			if kind == "bas" {
				if len(fields) < 4 {
					return nil, fmt.Errorf("malformed column line %q", sc.Text())
				}
				valField = fields[3]
			}
			v, err := strconv.ParseFloat(valField, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: bad value %q", cols[idx-1], valField)
			}
			res.Values[cols[idx-1]] = v
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if kind == "" {
		return nil, fmt.Errorf("no solution status in %s", path)
	}
	return res, nil
}

func glpkMipStatus(s string) Status {
	switch s {
	case "o":
		return StatusOptimal
	case "f":
		return StatusFeasible
	case "n":
		return StatusInfeasible
	default:
		return StatusUnknown
	}
}

// glpkBasStatus maps the primal/dual status pair of a basic solution.
// Primal feasible with no dual feasible point means unbounded.
func glpkBasStatus(p, d string) Status {
	switch {
	case p == "f" && d == "f":
		return StatusOptimal
	case p == "f" && d == "n":
		return StatusUnbounded
	case p == "f":
		return StatusFeasible
	case p == "i", p == "n":
		return StatusInfeasible
	default:
		return StatusUnknown
	}
}
