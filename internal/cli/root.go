// Package cli provides the command-line interface for wsp.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/watertools/wsp/internal/cli/commands"
	"github.com/watertools/wsp/internal/cli/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wsp",
		Short: "wsp - stochastic water supply portfolio planning",
		Long: `wsp builds and solves stochastic water supply portfolio models.

A portfolio mixes long-term actions (contracts, retrofits, options)
with short-term actions (spot transfers, restrictions) against
uncertain shortages. wsp assembles the deterministic equivalent of the
two-stage or three-stage formulation, hands it to an external MILP
solver, and reports the optimal portfolio per scenario.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := config.NewLogger(cfg.Verbose)
			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./wsp.yaml)")
	rootCmd.PersistentFlags().StringP("model", "m", "", "Model formulation (two-stage|three-stage)")
	rootCmd.PersistentFlags().StringP("data", "d", "", "Path to model data file (JSON)")
	rootCmd.PersistentFlags().StringP("solver", "s", "", "Solver to use (cbc|cplex|glpk|gurobi)")
	rootCmd.PersistentFlags().String("solver-bin", "", "Override the solver executable path")
	rootCmd.PersistentFlags().StringSlice("solver-args", nil, "Extra arguments passed to the solver")
	rootCmd.PersistentFlags().String("time-limit", "", "Solver time limit, e.g. 5m")
	rootCmd.PersistentFlags().Float64("cvar-weight", 0, "Weight of CVaR in the objective (0 disables)")
	rootCmd.PersistentFlags().Float64("risk-alpha", 0, "CVaR confidence level")
	rootCmd.PersistentFlags().Bool("presolve", false, "Reduce the problem before solving")
	rootCmd.PersistentFlags().Bool("keep-files", false, "Keep solver model and solution files")
	rootCmd.PersistentFlags().String("work-dir", "", "Directory for solver files (implies --keep-files)")
	rootCmd.PersistentFlags().String("state", "", "Path to run history database")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|csv|json)")
	rootCmd.PersistentFlags().String("out-file", "", "Write output to file instead of stdout")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "csv", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("model", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"two-stage", "three-stage"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewSolveCommand())
	rootCmd.AddCommand(commands.NewEvaluateCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewTreeCommand())
	rootCmd.AddCommand(commands.NewScenariosCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
