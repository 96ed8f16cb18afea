package solution

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteCSV writes one line per variable value, then the realized stage
// costs along each scenario's path. Stage cost lines carry the stage
// cost label in the variable column and the scenario in the index
// column.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"stage", "node", "variable", "index", "value"}); err != nil {
		return err
	}
	for _, row := range r.Rows {
		rec := []string{
			strconv.Itoa(row.Stage),
			row.Node,
			row.Variable,
			row.Index,
			ftoa(row.Value),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	for _, c := range r.StageCosts {
		rec := []string{strconv.Itoa(c.Stage), c.Node, c.Label, c.Scenario, ftoa(c.Cost)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// RenderSummary prints the run header and the solved variables as
// tables.
func (r *Report) RenderSummary(w io.Writer) {
	fmt.Fprintf(w, "model: %s  solver: %s  status: %s\n", r.Model, r.Solver, r.Status)
	fmt.Fprintf(w, "objective: %s  runtime: %s\n\n", ftoa(r.Objective), r.Runtime)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Stage", "Node", "Variable", "Index", "Value"})
	for _, row := range r.Rows {
		if row.Value == 0 {
			continue
		}
		t.AppendRow(table.Row{row.Stage, row.Node, row.Variable, row.Index, ftoa(row.Value)})
	}
	t.Render()

	if len(r.Scenarios) == 0 {
		return
	}
	fmt.Fprintln(w)
	st := table.NewWriter()
	st.SetOutputMirror(w)
	st.SetStyle(table.StyleLight)
	st.AppendHeader(table.Row{"Scenario", "Probability", "Cost"})
	for _, s := range r.Scenarios {
		st.AppendRow(table.Row{s.Scenario, ftoa(s.Probability), ftoa(s.Cost)})
	}
	st.AppendFooter(table.Row{"expected", "", ftoa(r.ExpectedCost())})
	st.Render()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
