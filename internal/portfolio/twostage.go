package portfolio

// twostage.go - two-stage stochastic program: integer long-term actions
// shared across scenarios, continuous short-term actions per scenario.

import (
	"fmt"
	"math"

	"github.com/watertools/wsp/internal/ef"
	"github.com/watertools/wsp/internal/lp"
	"github.com/watertools/wsp/internal/scenario"
)

// Variable group names used in tree nodes and solution output.
const (
	GroupLTAction = "LT_ACTION"
	GroupMTExp    = "MT_EXP"
	GroupSTQ      = "ST_Q"
)

// Stage cost labels.
const (
	CostFirstStage  = "FirstStageCost"
	CostSecondStage = "SecondStageCost"
	CostThirdStage  = "ThirdStageCost"
)

// Tree builds the two-stage scenario tree: a root owning the long-term
// actions and one leaf per shortage outcome.
func (d *TwoStageData) Tree() (*scenario.Tree, error) {
	t := scenario.New()
	if _, err := t.AddRoot("Root", CostFirstStage, []string{GroupLTAction}); err != nil {
		return nil, err
	}
	for _, name := range d.scenarioNames() {
		if _, err := t.AddChild("Root", name, d.ShortageP[name], CostSecondStage, []string{GroupSTQ}); err != nil {
			return nil, err
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ExtensiveForm builds the deterministic equivalent: one copy of the
// long-term actions, one copy of the short-term actions per scenario,
// and a probability-weighted objective.
func (d *TwoStageData) ExtensiveForm() (*ef.Program, error) {
	tree, err := d.Tree()
	if err != nil {
		return nil, err
	}
	p := lp.New("two_stage_water_portfolio")
	pr := ef.NewProgram(p, tree)

	// First-stage variables and capacity rows.
	for _, i := range sortedKeys(d.LTMax) {
		name := ef.VarName(GroupLTAction, i)
		if _, err := p.AddVariable(name, lp.Integer, 0, math.Inf(1)); err != nil {
			return nil, err
		}
		row, err := p.AddConstraint(fmt.Sprintf("LongTermMax(%s)", i), lp.LE, d.LTMax[i])
		if err != nil {
			return nil, err
		}
		row.SetCoef(name, 1)
		p.AddObjectiveCoef(name, d.LTCost[i])
	}

	for _, s := range tree.Scenarios() {
		if err := d.addScenario(pr, s); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}

	if err := pr.Validate(); err != nil {
		return nil, err
	}
	return pr, nil
}

// addScenario instantiates the second-stage variables and rows for one
// shortage outcome.
func (d *TwoStageData) addScenario(pr *ef.Program, s scenario.Scenario) error {
	p := pr.Problem
	prob := s.Probability
	shortage := d.ShortageQ[s.Name][shortageKey]
	cost := pr.Cost(s.Name, prob)

	for _, i := range sortedKeys(d.LTMax) {
		cost.AddTerm(ef.VarName(GroupLTAction, i), d.LTCost[i])
	}

	meet, err := p.AddConstraint("MeetShortage@"+s.Name, lp.GE, shortage)
	if err != nil {
		return err
	}
	for _, i := range sortedKeys(d.LTMax) {
		meet.AddCoef(ef.VarName(GroupLTAction, i), d.LTYield[i])
	}

	for _, j := range sortedKeys(d.STMax) {
		name := ef.NodeVarName(GroupSTQ, j, s.Name)
		if _, err := p.AddVariable(name, lp.Continuous, 0, math.Inf(1)); err != nil {
			return err
		}
		meet.AddCoef(name, 1)
		row, err := p.AddConstraint(fmt.Sprintf("ShortTermMax(%s)@%s", j, s.Name), lp.LE, d.STMax[j])
		if err != nil {
			return err
		}
		row.SetCoef(name, 1)
		p.AddObjectiveCoef(name, prob*d.STCost[j])
		cost.AddTerm(name, d.STCost[j])
	}

	// A restriction consumes retrofit capacity not already built.
	restrict, err := p.AddConstraint("ShortTermRestrict@"+s.Name, lp.LE, d.LTMax[keyLSRetro])
	if err != nil {
		return err
	}
	restrict.SetCoef(ef.NodeVarName(GroupSTQ, keyLSRestrict, s.Name), 1)
	restrict.SetCoef(ef.VarName(GroupLTAction, keyLSRetro), 1)

	// An option can only be exercised if it was purchased.
	option, err := p.AddConstraint("ShortTermOption@"+s.Name, lp.LE, 0)
	if err != nil {
		return err
	}
	option.SetCoef(ef.NodeVarName(GroupSTQ, keyExOption, s.Name), 1)
	option.SetCoef(ef.VarName(GroupLTAction, keyOption), -1)

	return nil
}

// Deterministic builds the single-scenario program in which the named
// shortage outcome is known in advance (the wait-and-see problem).
func (d *TwoStageData) Deterministic(scenarioName string) (*lp.Problem, error) {
	q, ok := d.ShortageQ[scenarioName]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", scenarioName)
	}
	return d.buildSingle("two_stage_ws_"+scenarioName, q[shortageKey])
}

// ExpectedValueProblem builds the deterministic program with the
// probability-weighted mean shortage.
func (d *TwoStageData) ExpectedValueProblem() (*lp.Problem, error) {
	return d.buildSingle("two_stage_ev", d.MeanShortage())
}

// Shortages maps scenario name to its shortage volume.
func (d *TwoStageData) Shortages() map[string]float64 {
	out := make(map[string]float64, len(d.ShortageQ))
	for name, q := range d.ShortageQ {
		out[name] = q[shortageKey]
	}
	return out
}

// MeanShortage returns the expected shortage over all scenarios.
func (d *TwoStageData) MeanShortage() float64 {
	mean := 0.0
	for name, prob := range d.ShortageP {
		mean += prob * d.ShortageQ[name][shortageKey]
	}
	return mean
}

// buildSingle assembles the deterministic model for one known shortage.
func (d *TwoStageData) buildSingle(name string, shortage float64) (*lp.Problem, error) {
	p := lp.New(name)

	meet, err := p.AddConstraint("MeetShortage", lp.GE, shortage)
	if err != nil {
		return nil, err
	}

	for _, i := range sortedKeys(d.LTMax) {
		vn := ef.VarName(GroupLTAction, i)
		if _, err := p.AddVariable(vn, lp.Integer, 0, math.Inf(1)); err != nil {
			return nil, err
		}
		row, err := p.AddConstraint(fmt.Sprintf("LongTermMax(%s)", i), lp.LE, d.LTMax[i])
		if err != nil {
			return nil, err
		}
		row.SetCoef(vn, 1)
		meet.AddCoef(vn, d.LTYield[i])
		p.AddObjectiveCoef(vn, d.LTCost[i])
	}

	for _, j := range sortedKeys(d.STMax) {
		vn := ef.VarName(GroupSTQ, j)
		if _, err := p.AddVariable(vn, lp.Continuous, 0, math.Inf(1)); err != nil {
			return nil, err
		}
		row, err := p.AddConstraint(fmt.Sprintf("ShortTermMax(%s)", j), lp.LE, d.STMax[j])
		if err != nil {
			return nil, err
		}
		row.SetCoef(vn, 1)
		meet.AddCoef(vn, 1)
		p.AddObjectiveCoef(vn, d.STCost[j])
	}

	restrict, err := p.AddConstraint("ShortTermRestrict", lp.LE, d.LTMax[keyLSRetro])
	if err != nil {
		return nil, err
	}
	restrict.SetCoef(ef.VarName(GroupSTQ, keyLSRestrict), 1)
	restrict.SetCoef(ef.VarName(GroupLTAction, keyLSRetro), 1)

	option, err := p.AddConstraint("ShortTermOption", lp.LE, 0)
	if err != nil {
		return nil, err
	}
	option.SetCoef(ef.VarName(GroupSTQ, keyExOption), 1)
	option.SetCoef(ef.VarName(GroupLTAction, keyOption), -1)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
