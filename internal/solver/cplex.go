package solver

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/watertools/wsp/internal/lp"
)

func init() { Register(cplexSolver{}) }

// cplexSolver drives the interactive CPLEX binary through a command
// file and parses the XML solution it writes.
type cplexSolver struct{}

func (cplexSolver) Name() string           { return "cplex" }
func (cplexSolver) SupportsBilinear() bool { return false }

// cplexSolution mirrors the CPLEXSolution XML document written by the
// "write ... sol" command.
type cplexSolution struct {
	XMLName xml.Name `xml:"CPLEXSolution"`
	Header  struct {
		ProblemName     string  `xml:"problemName,attr"`
		ObjValue        float64 `xml:"objectiveValue,attr"`
		SolStatusValue  int     `xml:"solutionStatusValue,attr"`
		SolStatusString string  `xml:"solutionStatusString,attr"`
		SolMethodString string  `xml:"solutionMethodString,attr"`
		PrimalFeasible  int     `xml:"primalFeasible,attr"`
		DualFeasible    int     `xml:"dualFeasible,attr"`
	} `xml:"header"`
	Variables []struct {
		Name  string  `xml:"name,attr"`
		Index int     `xml:"index,attr"`
		Value float64 `xml:"value,attr"`
	} `xml:"variables>variable"`
}

func (s cplexSolver) Solve(ctx context.Context, prob *lp.Problem, opts Options) (*Result, error) {
	if prob.HasBilinear() {
		return nil, fmt.Errorf("cplex adapter cannot solve problems with bilinear terms")
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
	solPath := ws.path("solution.sol")

	cmdPath := ws.path("commands.txt")
	f, err := os.Create(cmdPath)
	if err != nil {
		return nil, fmt.Errorf("creating command file: %w", err)
	}
	fmt.Fprintln(f, "read", model, "mps")
	if opts.TimeLimit > 0 {
		fmt.Fprintln(f, "set timelimit", int(opts.TimeLimit/time.Second))
	}
	for _, a := range opts.Args {
		fmt.Fprintln(f, a)
	}
	fmt.Fprintln(f, "optimize")
	fmt.Fprintln(f, "write", solPath, "sol")
	f.Close()

	out, elapsed, err := runCommand(ctx, opts, opts.binary("cplex"), "-f", cmdPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(solPath)
	if err != nil {
		return nil, fmt.Errorf("reading cplex solution: %w\nsolver output:\n%s", err, out)
	}
	res, err := parseCplexSolution(data)
	if err != nil {
		return nil, fmt.Errorf("parsing cplex solution: %w", err)
	}
	res.Runtime = elapsed
	res.Log = out
	fillMissing(res, prob)
	return res, nil
}

func parseCplexSolution(data []byte) (*Result, error) {
	var soln cplexSolution
	if err := xml.Unmarshal(data, &soln); err != nil {
		return nil, err
	}
	res := &Result{
		Status:    cplexStatus(soln.Header.SolStatusValue),
		Objective: soln.Header.ObjValue,
		Values:    make(lp.Point, len(soln.Variables)),
	}
	for _, v := range soln.Variables {
		res.Values[v.Name] = v.Value
	}
	return res, nil
}

// cplexStatus maps CPX status codes to the common classification.
// 1/101/102 are optimal (LP, MIP, MIP within tolerance), 3/103
// infeasible, 2/118 unbounded, 107 a feasible incumbent at the limit.
func cplexStatus(code int) Status {
	switch code {
	case 1, 101, 102:
		return StatusOptimal
	case 3, 103:
		return StatusInfeasible
	case 2, 118:
		return StatusUnbounded
	case 107:
		return StatusFeasible
	default:
		return StatusUnknown
	}
}
