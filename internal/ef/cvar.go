package ef

// cvar.go - weighted conditional value-at-risk extension, matching the
// --generate-weighted-cvar / --cvar-weight / --risk-alpha invocation the
// three-stage model documents.

import (
	"fmt"
	"math"

	"github.com/watertools/wsp/internal/lp"
)

// CVaR configures the risk term added to the objective.
type CVaR struct {
	// Weight multiplies the CVaR term; 0 disables it.
	Weight float64
	// Alpha is the confidence level in (0,1), e.g. 0.95.
	Alpha float64
}

const (
	cvarEtaVar    = "CVAR_ETA"
	cvarExcessVar = "CVAR_EXCESS"
	cvarRowPrefix = "CVaRExcess"
)

// AuxiliaryGroup reports whether a variable group belongs to a
// reformulation (the CVaR eta and excess columns) rather than the
// model. Reports leave these out.
func AuxiliaryGroup(group string) bool {
	return group == cvarEtaVar || group == cvarExcessVar
}

// ApplyCVaR augments the objective with weight * (eta + 1/(1-alpha) *
// sum_s p_s * excess_s) where excess_s >= cost_s - eta for every leaf
// scenario. A zero weight leaves the program untouched.
func (pr *Program) ApplyCVaR(c CVaR) error {
	if c.Weight == 0 {
		return nil
	}
	if c.Weight < 0 {
		return fmt.Errorf("cvar weight must be non-negative, got %g", c.Weight)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("cvar alpha must be in (0,1), got %g", c.Alpha)
	}
	if len(pr.ScenarioCosts) == 0 {
		return fmt.Errorf("program has no scenario costs to apply cvar to")
	}

	p := pr.Problem
	if _, err := p.AddVariable(cvarEtaVar, lp.Continuous, math.Inf(-1), math.Inf(1)); err != nil {
		return err
	}
	p.AddObjectiveCoef(cvarEtaVar, c.Weight)

	tail := c.Weight / (1 - c.Alpha)
	for _, s := range pr.Tree.Scenarios() {
		sc, ok := pr.ScenarioCosts[s.Name]
		if !ok {
			return fmt.Errorf("scenario %q has no cost ledger", s.Name)
		}
		excess := NodeVarName(cvarExcessVar, "NU", s.Name)
		if _, err := p.AddVariable(excess, lp.Continuous, 0, math.Inf(1)); err != nil {
			return err
		}
		p.AddObjectiveCoef(excess, tail*sc.Prob)

		// cost_s - eta - excess_s <= 0
		row, err := p.AddConstraint(cvarRowPrefix+nodeSep+s.Name, lp.LE, 0)
		if err != nil {
			return err
		}
		for name, coef := range sc.Terms {
			row.AddCoef(name, coef)
		}
		for _, b := range sc.Bilinear {
			row.AddBilinear(b.X, b.Y, b.Coef)
		}
		row.AddCoef(cvarEtaVar, -1)
		row.AddCoef(excess, -1)
	}

	return nil
}
