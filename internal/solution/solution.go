// Package solution turns a solver result into reports: per-node
// variable values organized along the scenario tree, scenario costs,
// and CSV/JSON/table renderings.
package solution

import (
	"fmt"
	"sort"
	"time"

	"github.com/watertools/wsp/internal/ef"
	"github.com/watertools/wsp/internal/scenario"
	"github.com/watertools/wsp/internal/solver"
)

// Row is one variable value attributed to a tree node.
type Row struct {
	Stage    int     `json:"stage"`
	Node     string  `json:"node"`
	Variable string  `json:"variable"`
	Index    string  `json:"index"`
	Value    float64 `json:"value"`
}

// ScenarioCost is the realized cost along one root-to-leaf path.
type ScenarioCost struct {
	Scenario    string  `json:"scenario"`
	Probability float64 `json:"probability"`
	Cost        float64 `json:"cost"`
}

// StageCost is one stage's share of a scenario's realized cost,
// attributed to the tree node deciding that stage.
type StageCost struct {
	Scenario string  `json:"scenario"`
	Stage    int     `json:"stage"`
	Node     string  `json:"node"`
	Label    string  `json:"label"`
	Cost     float64 `json:"cost"`
}

// Report is a solved model organized for output.
type Report struct {
	Model     string         `json:"model"`
	Solver    string         `json:"solver"`
	Status    solver.Status  `json:"status"`
	Objective float64        `json:"objective"`
	Runtime   time.Duration  `json:"runtime_ns"`
	Rows       []Row          `json:"rows"`
	Scenarios  []ScenarioCost `json:"scenarios"`
	StageCosts []StageCost    `json:"stage_costs"`
}

// Build attributes every solved variable to its tree node and computes
// the realized cost of each scenario.
func Build(model, solverName string, pr *ef.Program, res *solver.Result) (*Report, error) {
	rep := &Report{
		Model:     model,
		Solver:    solverName,
		Status:    res.Status,
		Objective: res.Objective,
		Runtime:   res.Runtime,
	}

	root := pr.Tree.Root()
	if root == "" {
		return nil, fmt.Errorf("scenario tree has no root")
	}

	for name, value := range res.Values {
		group, index, node := ef.ParseVarName(name)
		if ef.AuxiliaryGroup(group) {
			continue
		}
		if node == "" {
			node = root
		}
		n, ok := pr.Tree.Node(node)
		if !ok {
			// not attached to the tree, e.g. a solver-side artifact
			continue
		}
		rep.Rows = append(rep.Rows, Row{
			Stage:    n.Stage,
			Node:     node,
			Variable: group,
			Index:    index,
			Value:    value,
		})
	}
	sort.Slice(rep.Rows, func(i, j int) bool {
		a, b := rep.Rows[i], rep.Rows[j]
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		if a.Node != b.Node {
			return a.Node < b.Node
		}
		if a.Variable != b.Variable {
			return a.Variable < b.Variable
		}
		return a.Index < b.Index
	})

	for _, s := range pr.Tree.Scenarios() {
		cost, ok := pr.ScenarioCosts[s.Name]
		if !ok {
			continue
		}
		rep.Scenarios = append(rep.Scenarios, ScenarioCost{
			Scenario:    s.Name,
			Probability: s.Probability,
			Cost:        cost.At(res.Values),
		})

		// Split the scenario cost across the stages on its path. Linear
		// terms belong to the node owning the variable; a product term
		// is charged at the deeper of its two owners.
		perNode := make(map[string]float64, len(s.Path))
		for name, coef := range cost.Terms {
			perNode[termNode(pr.Tree, root, name)] += coef * res.Values[name]
		}
		for _, b := range cost.Bilinear {
			node := deeperNode(pr.Tree, termNode(pr.Tree, root, b.X), termNode(pr.Tree, root, b.Y))
			perNode[node] += b.Coef * res.Values[b.X] * res.Values[b.Y]
		}
		for _, name := range s.Path {
			n, ok := pr.Tree.Node(name)
			if !ok {
				continue
			}
			rep.StageCosts = append(rep.StageCosts, StageCost{
				Scenario: s.Name,
				Stage:    n.Stage,
				Node:     name,
				Label:    n.CostLabel,
				Cost:     perNode[name],
			})
		}
	}
	return rep, nil
}

// termNode attributes a cost term to the tree node owning its variable.
// Root-stage variables carry no node suffix and belong to the root.
func termNode(t *scenario.Tree, root, varName string) string {
	if _, _, node := ef.ParseVarName(varName); node != "" {
		if _, ok := t.Node(node); ok {
			return node
		}
	}
	return root
}

func deeperNode(t *scenario.Tree, a, b string) string {
	na, _ := t.Node(a)
	nb, _ := t.Node(b)
	if nb != nil && (na == nil || nb.Stage > na.Stage) {
		return b
	}
	return a
}

// ExpectedCost returns the probability-weighted sum of scenario costs.
func (r *Report) ExpectedCost() float64 {
	total := 0.0
	for _, s := range r.Scenarios {
		total += s.Probability * s.Cost
	}
	return total
}
