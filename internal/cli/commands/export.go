package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/watertools/wsp/internal/lp"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Format   string
	Scenario string
	Mean     bool
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the model as an MPS or LP file",
		Long: `Write the deterministic equivalent (or a single-scenario variant) in a
standard solver input format, for solving or inspecting outside wsp.

MPS cannot express products of variables; the three-stage model must be
exported as LP.`,
		Example: `  # Extensive form as free MPS on stdout
  wsp export --data two_stage.json

  # LP format to a file
  wsp export --data two_stage.json --format lp --out-file model.lp

  # Wait-and-see problem for one scenario
  wsp export --data two_stage.json --scenario S_20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "mps", "Output format (mps|lp)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "Export the wait-and-see problem for one scenario")
	cmd.Flags().BoolVar(&opts.Mean, "mean", false, "Export the mean-shortage problem")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	cfg := getConfig()

	m, err := loadModel(cfg)
	if err != nil {
		return err
	}

	var prob *lp.Problem
	switch {
	case opts.Scenario != "" && opts.Mean:
		return fmt.Errorf("--scenario and --mean are mutually exclusive")
	case opts.Scenario != "":
		prob, err = m.Deterministic(opts.Scenario)
	case opts.Mean:
		prob, err = m.ExpectedValueProblem()
	default:
		pr, perr := buildProgram(cfg, m)
		if perr != nil {
			return perr
		}
		prob = pr.Problem
	}
	if err != nil {
		return err
	}

	w, closeOut, err := outWriter(cfg, cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	switch opts.Format {
	case "mps":
		if prob.HasBilinear() {
			return fmt.Errorf("this model has products of variables; export it with --format lp")
		}
		return prob.WriteMPS(w)
	case "lp":
		return prob.WriteLP(w)
	default:
		return fmt.Errorf("unknown format %q (expected mps or lp)", opts.Format)
	}
}
