package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit int
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded solve runs",
		Long: `List recent solve runs from the history database, newest first.
With a run ID, show that run and its per-scenario costs.`,
		Example: `  # Recent runs
  wsp runs

  # One run in detail
  wsp runs 6b1f0c0e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions, args []string) error {
	cfg := getConfig()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		run, err := store.GetRun(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run %s\n", run.ID)
		fmt.Fprintf(out, "  model:     %s\n", run.Model)
		fmt.Fprintf(out, "  data:      %s\n", run.DataFile)
		fmt.Fprintf(out, "  solver:    %s\n", run.Solver)
		fmt.Fprintf(out, "  status:    %s", run.Status)
		if run.SolveStatus != "" {
			fmt.Fprintf(out, " (%s)", run.SolveStatus)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  objective: %g\n", run.Objective)
		fmt.Fprintf(out, "  started:   %s\n", run.StartedAt.Format(time.RFC3339))
		if run.CompletedAt != nil {
			fmt.Fprintf(out, "  duration:  %s\n", run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond))
		}
		if run.Error != "" {
			fmt.Fprintf(out, "  error:     %s\n", run.Error)
		}

		results, err := store.ListScenarioResults(run.ID)
		if err != nil {
			return err
		}
		if len(results) > 0 {
			fmt.Fprintln(out)
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Scenario", "Probability", "Cost"})
			for _, r := range results {
				t.AppendRow(table.Row{r.Scenario, fmt.Sprintf("%.4f", r.Probability), fmt.Sprintf("%.4f", r.Cost)})
			}
			t.Render()
		}
		return nil
	}

	runs, err := store.ListRuns(opts.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Model", "Solver", "Status", "Objective", "Started"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.Model,
			run.Solver,
			string(run.Status),
			fmt.Sprintf("%g", run.Objective),
			run.StartedAt.Format("2006-01-02 15:04:05"),
		})
	}
	t.Render()
	return nil
}
