package solution

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watertools/wsp/internal/ef"
	"github.com/watertools/wsp/internal/lp"
	"github.com/watertools/wsp/internal/scenario"
	"github.com/watertools/wsp/internal/solver"
)

func buildProgram(t *testing.T) *ef.Program {
	t.Helper()
	tr := scenario.New()
	_, err := tr.AddRoot("Root", "FirstStageCost", []string{"LT_ACTION"})
	require.NoError(t, err)
	_, err = tr.AddChild("Root", "DRY", 0.4, "SecondStageCost", []string{"ST_Q"})
	require.NoError(t, err)
	_, err = tr.AddChild("Root", "WET", 0.6, "SecondStageCost", []string{"ST_Q"})
	require.NoError(t, err)

	p := lp.New("test")
	_, err = p.AddVariable("LT_ACTION(RECLAIM)", lp.Integer, 0, 10)
	require.NoError(t, err)
	_, err = p.AddVariable("ST_Q(TRANSFER)@DRY", lp.Continuous, 0, 25)
	require.NoError(t, err)
	_, err = p.AddVariable("ST_Q(TRANSFER)@WET", lp.Continuous, 0, 25)
	require.NoError(t, err)

	pr := ef.NewProgram(p, tr)
	dry := pr.Cost("DRY", 0.4)
	dry.AddTerm("LT_ACTION(RECLAIM)", 340)
	dry.AddTerm("ST_Q(TRANSFER)@DRY", 260)
	wet := pr.Cost("WET", 0.6)
	wet.AddTerm("LT_ACTION(RECLAIM)", 340)
	return pr
}

func solvedResult() *solver.Result {
	return &solver.Result{
		Status:    solver.StatusOptimal,
		Objective: 4960,
		Runtime:   125 * time.Millisecond,
		Values: lp.Point{
			"LT_ACTION(RECLAIM)":  10,
			"ST_Q(TRANSFER)@DRY":  15,
			"ST_Q(TRANSFER)@WET":  0,
			"CVAR_ETA":            200, // auxiliary, would land on the root
			"CVAR_EXCESS(NU)@DRY": 0,   // auxiliary, names a real leaf
			"CVAR_EXCESS(NU)@BAD": 3,   // auxiliary, not a tree node
		},
	}
}

func TestBuild(t *testing.T) {
	pr := buildProgram(t)
	rep, err := Build("two-stage", "cbc", pr, solvedResult())
	require.NoError(t, err)

	assert.Equal(t, "two-stage", rep.Model)
	assert.Equal(t, "cbc", rep.Solver)
	assert.Equal(t, solver.StatusOptimal, rep.Status)
	assert.Equal(t, 4960.0, rep.Objective)

	// risk reformulation columns are dropped even when they name real
	// tree nodes
	require.Len(t, rep.Rows, 3)
	for _, row := range rep.Rows {
		assert.NotEqual(t, "CVAR_ETA", row.Variable)
		assert.NotEqual(t, "CVAR_EXCESS", row.Variable)
	}

	// rows sorted by stage, then node
	assert.Equal(t, Row{Stage: 1, Node: "Root", Variable: "LT_ACTION", Index: "RECLAIM", Value: 10}, rep.Rows[0])
	assert.Equal(t, "DRY", rep.Rows[1].Node)
	assert.Equal(t, "WET", rep.Rows[2].Node)

	require.Len(t, rep.Scenarios, 2)
	costs := map[string]ScenarioCost{}
	for _, s := range rep.Scenarios {
		costs[s.Scenario] = s
	}
	assert.InDelta(t, 340*10+260*15, costs["DRY"].Cost, 1e-9)
	assert.InDelta(t, 3400, costs["WET"].Cost, 1e-9)
	assert.InDelta(t, 0.4, costs["DRY"].Probability, 1e-12)

	assert.InDelta(t, 0.4*7300+0.6*3400, rep.ExpectedCost(), 1e-9)

	// stage costs cover every node on each scenario's path and sum to
	// the scenario totals
	require.Len(t, rep.StageCosts, 4)
	byKey := map[string]StageCost{}
	sums := map[string]float64{}
	for _, c := range rep.StageCosts {
		byKey[c.Scenario+"/"+c.Node] = c
		sums[c.Scenario] += c.Cost
	}
	assert.Equal(t, StageCost{Scenario: "DRY", Stage: 1, Node: "Root", Label: "FirstStageCost", Cost: 3400}, byKey["DRY/Root"])
	assert.Equal(t, StageCost{Scenario: "DRY", Stage: 2, Node: "DRY", Label: "SecondStageCost", Cost: 3900}, byKey["DRY/DRY"])
	assert.InDelta(t, 0.0, byKey["WET/WET"].Cost, 1e-9)
	assert.InDelta(t, costs["DRY"].Cost, sums["DRY"], 1e-9)
	assert.InDelta(t, costs["WET"].Cost, sums["WET"], 1e-9)
}

func TestBuild_BilinearStageCost(t *testing.T) {
	tr := scenario.New()
	_, err := tr.AddRoot("Root", "FirstStageCost", []string{"LT_ACTION"})
	require.NoError(t, err)
	_, err = tr.AddChild("Root", "P_DRY", 1, "SecondStageCost", []string{"MT_EXP"})
	require.NoError(t, err)
	_, err = tr.AddChild("P_DRY", "D_15", 1, "ThirdStageCost", []string{"ST_Q"})
	require.NoError(t, err)

	p := lp.New("test")
	_, err = p.AddVariable("LT_ACTION(OPTION)", lp.Integer, 0, 5)
	require.NoError(t, err)
	_, err = p.AddVariable("MT_EXP(OPTION)@P_DRY", lp.Continuous, 0, 1)
	require.NoError(t, err)

	pr := ef.NewProgram(p, tr)
	sc := pr.Cost("D_15", 1)
	sc.AddBilinear("LT_ACTION(OPTION)", "MT_EXP(OPTION)@P_DRY", 60)

	rep, err := Build("three-stage", "gurobi", pr, &solver.Result{
		Status: solver.StatusOptimal,
		Values: lp.Point{"LT_ACTION(OPTION)": 2, "MT_EXP(OPTION)@P_DRY": 0.5},
	})
	require.NoError(t, err)

	// the product of a root and a stage-2 variable is charged at stage 2
	require.Len(t, rep.StageCosts, 3)
	byNode := map[string]StageCost{}
	for _, c := range rep.StageCosts {
		byNode[c.Node] = c
	}
	assert.InDelta(t, 0.0, byNode["Root"].Cost, 1e-9)
	assert.InDelta(t, 60.0, byNode["P_DRY"].Cost, 1e-9)
	assert.InDelta(t, 0.0, byNode["D_15"].Cost, 1e-9)
	assert.Equal(t, "SecondStageCost", byNode["P_DRY"].Label)
}

func TestWriteCSV(t *testing.T) {
	pr := buildProgram(t)
	rep, err := Build("two-stage", "cbc", pr, solvedResult())
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, rep.WriteCSV(&sb))
	out := sb.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// header + 3 variable rows + 2 stage cost rows per scenario
	require.Len(t, lines, 8)
	assert.Equal(t, "stage,node,variable,index,value", lines[0])
	assert.Equal(t, "1,Root,LT_ACTION,RECLAIM,10", lines[1])
	assert.Contains(t, out, "1,Root,FirstStageCost,DRY,3400")
	assert.Contains(t, out, "2,DRY,SecondStageCost,DRY,3900")
	assert.Contains(t, out, "2,WET,SecondStageCost,WET,0")
}

func TestWriteJSON(t *testing.T) {
	pr := buildProgram(t)
	rep, err := Build("two-stage", "cbc", pr, solvedResult())
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, rep.WriteJSON(&sb))
	assert.Contains(t, sb.String(), `"model": "two-stage"`)
	assert.Contains(t, sb.String(), `"objective": 4960`)
}

func TestRenderSummary(t *testing.T) {
	pr := buildProgram(t)
	rep, err := Build("two-stage", "cbc", pr, solvedResult())
	require.NoError(t, err)

	var sb strings.Builder
	rep.RenderSummary(&sb)
	out := sb.String()

	assert.Contains(t, out, "model: two-stage")
	assert.Contains(t, out, "objective: 4960")
	assert.Contains(t, out, "LT_ACTION")
	assert.Contains(t, out, "expected")
}
