package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the data file and model structure",
		Long: `Load the data file, validate it, build the scenario tree and the
deterministic equivalent, and report the model dimensions. Nothing is
solved.`,
		Example: `  wsp check --data two_stage.json`,
		Args:    cobra.NoArgs,
		RunE:    runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg := getConfig()
	out := cmd.OutOrStdout()

	m, err := loadModel(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "data file: ok (%s)\n", cfg.DataFile)

	t, err := m.Tree()
	if err != nil {
		return fmt.Errorf("scenario tree: %w", err)
	}
	fmt.Fprintf(out, "scenario tree: ok (%d nodes, %d stages, %d scenarios)\n",
		t.NodeCount(), t.Stages(), len(t.Scenarios()))

	pr, err := buildProgram(cfg, m)
	if err != nil {
		return fmt.Errorf("extensive form: %w", err)
	}
	stats := pr.Problem.Stats()
	fmt.Fprintf(out, "extensive form: ok (%d cols, %d integer, %d rows, %d nonzeros",
		stats.Cols, stats.IntegerCols, stats.Rows, stats.NonZeros)
	if stats.BilinearRows > 0 {
		fmt.Fprintf(out, ", %d bilinear rows", stats.BilinearRows)
	}
	fmt.Fprintln(out, ")")

	if pr.Problem.HasBilinear() {
		fmt.Fprintln(out, "note: products of variables present; solve with gurobi")
	}
	return nil
}
