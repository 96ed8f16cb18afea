// Package ef assembles the deterministic equivalent (extensive form) of a
// stochastic program: per-node variable copies over a scenario tree,
// probability-weighted stage costs, and an optional weighted-CVaR term.
// The model-specific row structure is contributed by the portfolio
// builders; this package owns naming, the scenario cost ledger, and the
// risk extension.
package ef

import (
	"fmt"
	"strings"

	"github.com/watertools/wsp/internal/lp"
	"github.com/watertools/wsp/internal/scenario"
)

// nodeSep separates the base variable name from the owning tree node.
const nodeSep = "@"

// VarName formats a first-stage (root) variable: GROUP(INDEX).
func VarName(group, index string) string {
	return fmt.Sprintf("%s(%s)", group, index)
}

// NodeVarName formats a variable copy owned by a non-root tree node:
// GROUP(INDEX)@NODE.
func NodeVarName(group, index, node string) string {
	return VarName(group, index) + nodeSep + node
}

// ParseVarName splits a variable name back into group, index and node.
// The node is empty for root-stage variables. Names that do not follow
// the GROUP(INDEX) convention come back with an empty index.
func ParseVarName(name string) (group, index, node string) {
	if at := strings.LastIndex(name, nodeSep); at >= 0 {
		node = name[at+len(nodeSep):]
		name = name[:at]
	}
	open := strings.Index(name, "(")
	if open < 0 || !strings.HasSuffix(name, ")") {
		return name, "", node
	}
	return name[:open], name[open+1 : len(name)-1], node
}

// ScenarioCost is the total-cost expression of one leaf scenario,
// accumulated across the stages on its path.
type ScenarioCost struct {
	Prob     float64
	Terms    map[string]float64
	Bilinear []lp.BilinearTerm
}

// AddTerm accumulates a linear cost term.
func (sc *ScenarioCost) AddTerm(varName string, coef float64) {
	if coef == 0 {
		return
	}
	sc.Terms[varName] += coef
}

// AddBilinear accumulates a bilinear cost term.
func (sc *ScenarioCost) AddBilinear(x, y string, coef float64) {
	if coef == 0 {
		return
	}
	sc.Bilinear = append(sc.Bilinear, lp.BilinearTerm{X: x, Y: y, Coef: coef})
}

// At evaluates the cost expression at a point. Variables missing from
// the point count as zero.
func (sc *ScenarioCost) At(pt lp.Point) float64 {
	total := 0.0
	for name, coef := range sc.Terms {
		total += coef * pt[name]
	}
	for _, b := range sc.Bilinear {
		total += b.Coef * pt[b.X] * pt[b.Y]
	}
	return total
}

// Program is a deterministic equivalent ready for export or solving.
type Program struct {
	Problem *lp.Problem
	Tree    *scenario.Tree

	// ScenarioCosts maps leaf scenario name to its total-cost expression.
	ScenarioCosts map[string]*ScenarioCost
}

// NewProgram wraps a problem and its tree.
func NewProgram(p *lp.Problem, t *scenario.Tree) *Program {
	return &Program{
		Problem:       p,
		Tree:          t,
		ScenarioCosts: make(map[string]*ScenarioCost),
	}
}

// Cost returns (creating if needed) the cost ledger for a scenario.
func (pr *Program) Cost(name string, prob float64) *ScenarioCost {
	sc, ok := pr.ScenarioCosts[name]
	if !ok {
		sc = &ScenarioCost{Prob: prob, Terms: make(map[string]float64)}
		pr.ScenarioCosts[name] = sc
	}
	return sc
}

// Validate checks the program's problem and tree together.
func (pr *Program) Validate() error {
	if err := pr.Tree.Validate(); err != nil {
		return fmt.Errorf("scenario tree: %w", err)
	}
	if err := pr.Problem.Validate(); err != nil {
		return err
	}
	for name := range pr.ScenarioCosts {
		if _, ok := pr.Tree.Node(name); !ok {
			return fmt.Errorf("scenario cost ledger references unknown node %q", name)
		}
	}
	return nil
}
