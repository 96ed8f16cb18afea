package portfolio

// threestage.go - three-stage stochastic program: long-term actions,
// then mid-term expansion fractions per hydrologic projection, then
// short-term actions per shortage outcome. Expansion fractions
// multiply integer actions, so the extensive form carries bilinear
// terms and needs a solver that accepts nonconvex quadratics.

import (
	"fmt"
	"math"

	"github.com/watertools/wsp/internal/ef"
	"github.com/watertools/wsp/internal/lp"
	"github.com/watertools/wsp/internal/scenario"
)

// Fixed cost charged per unit of expansion fraction, independent of
// the underlying action size.
const mtExpPenalty = 1000.0

// Tree builds the three-stage scenario tree: root, one node per
// projection, one leaf per shortage outcome under each projection.
func (d *ThreeStageData) Tree() (*scenario.Tree, error) {
	t := scenario.New()
	if _, err := t.AddRoot("Root", CostFirstStage, []string{GroupLTAction}); err != nil {
		return nil, err
	}
	for _, proj := range d.projectionNames() {
		if _, err := t.AddChild("Root", proj, d.ProjectionP[proj], CostSecondStage, []string{GroupMTExp}); err != nil {
			return nil, err
		}
		for _, sh := range d.shortageNames(proj) {
			if _, err := t.AddChild(proj, sh, d.ShortageP[proj][sh], CostThirdStage, []string{GroupSTQ}); err != nil {
				return nil, err
			}
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ExtensiveForm builds the deterministic equivalent across all
// projection and shortage outcomes.
func (d *ThreeStageData) ExtensiveForm() (*ef.Program, error) {
	tree, err := d.Tree()
	if err != nil {
		return nil, err
	}
	p := lp.New("three_stage_water_portfolio")
	pr := ef.NewProgram(p, tree)

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

	for _, proj := range d.projectionNames() {
		if err := d.addProjection(pr, proj); err != nil {
			return nil, fmt.Errorf("projection %s: %w", proj, err)
		}
	}

	if err := pr.Validate(); err != nil {
		return nil, err
	}
	return pr, nil
}

// addProjection instantiates the mid-term expansion variables for one
// projection node and the third-stage rows for its shortage leaves.
func (d *ThreeStageData) addProjection(pr *ef.Program, proj string) error {
	p := pr.Problem
	projProb := d.ProjectionP[proj]

	for _, i := range sortedKeys(d.MTMax) {
		name := ef.NodeVarName(GroupMTExp, i, proj)
		if _, err := p.AddVariable(name, lp.Continuous, 0, 1); err != nil {
			return err
		}
		row, err := p.AddConstraint(fmt.Sprintf("MidTermMax(%s)@%s", i, proj), lp.LE, d.MTMax[i])
		if err != nil {
			return err
		}
		row.SetCoef(name, 1)
	}

	// Expansion cost scales with the expanded yield, plus a fixed
	// charge per fraction of expansion undertaken.
	for _, i := range sortedKeys(d.LTMax) {
		lt := ef.VarName(GroupLTAction, i)
		mt := ef.NodeVarName(GroupMTExp, i, proj)
		p.AddObjectiveBilinear(lt, mt, projProb*d.MTCost[i]*d.LTYield[i])
		p.AddObjectiveCoef(mt, projProb*mtExpPenalty)
	}

	ltRetro := ef.VarName(GroupLTAction, keyLSRetro)
	mtRetro := ef.NodeVarName(GroupMTExp, keyLSRetro, proj)

	// Expanding the retrofit program cannot exceed its remaining room.
	retro, err := p.AddConstraint("MidTermLSRetro@"+proj, lp.LE, d.LTMax[keyLSRetro])
	if err != nil {
		return err
	}
	retro.SetCoef(ltRetro, 1)
	retro.AddBilinear(ltRetro, mtRetro, 1)

	for _, sh := range d.shortageNames(proj) {
		if err := d.addShortage(pr, proj, sh); err != nil {
			return fmt.Errorf("shortage %s: %w", sh, err)
		}
	}
	return nil
}

// addShortage instantiates the short-term variables and rows for one
// shortage leaf under the given projection.
func (d *ThreeStageData) addShortage(pr *ef.Program, proj, sh string) error {
	p := pr.Problem
	prob := d.ProjectionP[proj] * d.ShortageP[proj][sh]
	shortage := d.ShortageQ[proj][sh][shortageKey]
	cost := pr.Cost(sh, prob)

	for _, i := range sortedKeys(d.LTMax) {
		lt := ef.VarName(GroupLTAction, i)
		mt := ef.NodeVarName(GroupMTExp, i, proj)
		cost.AddTerm(lt, d.LTCost[i])
		cost.AddBilinear(lt, mt, d.MTCost[i]*d.LTYield[i])
		cost.AddTerm(mt, mtExpPenalty)
	}

	meet, err := p.AddConstraint("MeetShortage@"+sh, lp.GE, shortage)
	if err != nil {
		return err
	}
	for _, i := range sortedKeys(d.LTMax) {
		lt := ef.VarName(GroupLTAction, i)
		meet.AddCoef(lt, d.LTYield[i])
		meet.AddBilinear(lt, ef.NodeVarName(GroupMTExp, i, proj), d.LTYield[i])
	}

	for _, j := range sortedKeys(d.STMax) {
		name := ef.NodeVarName(GroupSTQ, j, sh)
		if _, err := p.AddVariable(name, lp.Continuous, 0, math.Inf(1)); err != nil {
			return err
		}
		meet.AddCoef(name, 1)
		row, err := p.AddConstraint(fmt.Sprintf("ShortTermMax(%s)@%s", j, sh), lp.LE, d.STMax[j])
		if err != nil {
			return err
		}
		row.SetCoef(name, 1)
		p.AddObjectiveCoef(name, prob*d.STCost[j])
		cost.AddTerm(name, d.STCost[j])
	}

	ltRetro := ef.VarName(GroupLTAction, keyLSRetro)
	mtRetro := ef.NodeVarName(GroupMTExp, keyLSRetro, proj)

	// Restrictions draw on retrofit room left after building and
	// expanding, scaled back to action units by the retrofit yield.
	restrict, err := p.AddConstraint("ShortTermRestrict@"+sh, lp.LE, d.LTMax[keyLSRetro])
	if err != nil {
		return err
	}
	restrict.SetCoef(ef.NodeVarName(GroupSTQ, keyLSRestrict, sh), 1/d.LTYield[keyLSRetro])
	restrict.SetCoef(ltRetro, 1)
	restrict.AddBilinear(ltRetro, mtRetro, 1)

	ltOpt, err := p.AddConstraint("LTOption@"+sh, lp.LE, 0)
	if err != nil {
		return err
	}
	ltOpt.SetCoef(ef.NodeVarName(GroupSTQ, keyExLTOption, sh), 1)
	ltOpt.SetCoef(ef.VarName(GroupLTAction, keyOption), -1)

	// Exercising the expanded option requires both holding it and
	// having expanded it.
	mtOpt, err := p.AddConstraint("MTOption@"+sh, lp.LE, 0)
	if err != nil {
		return err
	}
	mtOpt.SetCoef(ef.NodeVarName(GroupSTQ, keyExMTOption, sh), 1)
	mtOpt.AddBilinear(ef.VarName(GroupLTAction, keyOption), ef.NodeVarName(GroupMTExp, keyOption, proj), -1)

	return nil
}

// Deterministic builds the single-path program in which both the
// projection and the shortage outcome are known in advance.
func (d *ThreeStageData) Deterministic(scenarioName string) (*lp.Problem, error) {
	for _, proj := range d.projectionNames() {
		if q, ok := d.ShortageQ[proj][scenarioName]; ok {
			return d.buildSingle("three_stage_ws_"+scenarioName, q[shortageKey])
		}
	}
	return nil, fmt.Errorf("unknown scenario %q", scenarioName)
}

// ExpectedValueProblem builds the single-path program with the
// probability-weighted mean shortage.
func (d *ThreeStageData) ExpectedValueProblem() (*lp.Problem, error) {
	return d.buildSingle("three_stage_ev", d.MeanShortage())
}

// Shortages maps leaf scenario name to its shortage volume.
func (d *ThreeStageData) Shortages() map[string]float64 {
	out := make(map[string]float64)
	for _, q := range d.ShortageQ {
		for sh, vals := range q {
			out[sh] = vals[shortageKey]
		}
	}
	return out
}

// MeanShortage returns the expected shortage over all leaves.
func (d *ThreeStageData) MeanShortage() float64 {
	mean := 0.0
	for proj, probs := range d.ShortageP {
		for sh, prob := range probs {
			mean += d.ProjectionP[proj] * prob * d.ShortageQ[proj][sh][shortageKey]
		}
	}
	return mean
}

// buildSingle assembles the deterministic model for one known shortage.
func (d *ThreeStageData) buildSingle(name string, shortage float64) (*lp.Problem, error) {
	p := lp.New(name)

	meet, err := p.AddConstraint("MeetShortage", lp.GE, shortage)
	if err != nil {
		return nil, err
	}

	for _, i := range sortedKeys(d.LTMax) {
		lt := ef.VarName(GroupLTAction, i)
		if _, err := p.AddVariable(lt, lp.Integer, 0, math.Inf(1)); err != nil {
			return nil, err
		}
		row, err := p.AddConstraint(fmt.Sprintf("LongTermMax(%s)", i), lp.LE, d.LTMax[i])
		if err != nil {
			return nil, err
		}
		row.SetCoef(lt, 1)
		p.AddObjectiveCoef(lt, d.LTCost[i])
	}

	for _, i := range sortedKeys(d.MTMax) {
		mt := ef.VarName(GroupMTExp, i)
		if _, err := p.AddVariable(mt, lp.Continuous, 0, 1); err != nil {
			return nil, err
		}
		row, err := p.AddConstraint(fmt.Sprintf("MidTermMax(%s)", i), lp.LE, d.MTMax[i])
		if err != nil {
			return nil, err
		}
		row.SetCoef(mt, 1)
	}

	for _, i := range sortedKeys(d.LTMax) {
		lt := ef.VarName(GroupLTAction, i)
		mt := ef.VarName(GroupMTExp, i)
		meet.AddCoef(lt, d.LTYield[i])
		meet.AddBilinear(lt, mt, d.LTYield[i])
		p.AddObjectiveBilinear(lt, mt, d.MTCost[i]*d.LTYield[i])
		p.AddObjectiveCoef(mt, mtExpPenalty)
	}

	for _, j := range sortedKeys(d.STMax) {
		st := ef.VarName(GroupSTQ, j)
		if _, err := p.AddVariable(st, lp.Continuous, 0, math.Inf(1)); err != nil {
			return nil, err
		}
		meet.AddCoef(st, 1)
		row, err := p.AddConstraint(fmt.Sprintf("ShortTermMax(%s)", j), lp.LE, d.STMax[j])
		if err != nil {
			return nil, err
		}
		row.SetCoef(st, 1)
		p.AddObjectiveCoef(st, d.STCost[j])
	}

	ltRetro := ef.VarName(GroupLTAction, keyLSRetro)
	mtRetro := ef.VarName(GroupMTExp, keyLSRetro)

	retro, err := p.AddConstraint("MidTermLSRetro", lp.LE, d.LTMax[keyLSRetro])
	if err != nil {
		return nil, err
	}
	retro.SetCoef(ltRetro, 1)
	retro.AddBilinear(ltRetro, mtRetro, 1)

	restrict, err := p.AddConstraint("ShortTermRestrict", lp.LE, d.LTMax[keyLSRetro])
	if err != nil {
		return nil, err
	}
	restrict.SetCoef(ef.VarName(GroupSTQ, keyLSRestrict), 1/d.LTYield[keyLSRetro])
	restrict.SetCoef(ltRetro, 1)
	restrict.AddBilinear(ltRetro, mtRetro, 1)

	ltOpt, err := p.AddConstraint("LTOption", lp.LE, 0)
	if err != nil {
		return nil, err
	}
	ltOpt.SetCoef(ef.VarName(GroupSTQ, keyExLTOption), 1)
	ltOpt.SetCoef(ef.VarName(GroupLTAction, keyOption), -1)

	mtOpt, err := p.AddConstraint("MTOption", lp.LE, 0)
	if err != nil {
		return nil, err
	}
	mtOpt.SetCoef(ef.VarName(GroupSTQ, keyExMTOption), 1)
	mtOpt.AddBilinear(ef.VarName(GroupLTAction, keyOption), ef.VarName(GroupMTExp, keyOption), -1)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
