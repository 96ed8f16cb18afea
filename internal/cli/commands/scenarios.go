package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewScenariosCommand creates the scenarios command.
func NewScenariosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List scenarios with probabilities and shortages",
		Long: `List each root-to-leaf path of the scenario tree with its joint
probability and the shortage volume realized at the leaf.`,
		Example: `  wsp scenarios --data two_stage.json`,
		Args:    cobra.NoArgs,
		RunE:    runScenarios,
	}
}

func runScenarios(cmd *cobra.Command, _ []string) error {
	cfg := getConfig()

	m, err := loadModel(cfg)
	if err != nil {
		return err
	}
	t, err := m.Tree()
	if err != nil {
		return err
	}
	shortages := m.Shortages()

	w, closeOut, err := outWriter(cfg, cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Scenario", "Path", "Probability", "Shortage"})
	totalProb := 0.0
	expected := 0.0
	for _, s := range t.Scenarios() {
		q := shortages[s.Name]
		tw.AppendRow(table.Row{
			s.Name,
			strings.Join(s.Path, " > "),
			fmt.Sprintf("%.4f", s.Probability),
			fmt.Sprintf("%.2f", q),
		})
		totalProb += s.Probability
		expected += s.Probability * q
	}
	tw.AppendFooter(table.Row{"total", "", fmt.Sprintf("%.4f", totalProb), fmt.Sprintf("%.2f", expected)})
	tw.Render()
	return nil
}
