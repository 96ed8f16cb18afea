// Package config provides configuration management for the wsp CLI.
//
// Configuration is layered: built-in defaults, then a wsp.yaml file,
// then WSP_-prefixed environment variables, then command-line flags.
package config

// Defaults applied before any other configuration source.
const (
	DefaultModel     = "two-stage"
	DefaultSolver    = "cbc"
	DefaultStateFile = ".wsp/state.db"
	DefaultOutput    = "table"
	DefaultRiskAlpha = 0.95
)

// Config holds all CLI configuration options.
type Config struct {
	// Model selects the portfolio formulation: two-stage or three-stage.
	Model string `koanf:"model"`

	// DataFile is the JSON file holding the model parameters.
	DataFile string `koanf:"data_file"`

	Solver     string   `koanf:"solver"`
	SolverBin  string   `koanf:"solver_bin"`
	SolverArgs []string `koanf:"solver_args"`

	// TimeLimit bounds each solver run, e.g. "5m". Empty means none.
	TimeLimit string `koanf:"time_limit"`

	// CVaRWeight blends conditional value-at-risk into the objective;
	// zero keeps the pure expected-cost objective.
	CVaRWeight float64 `koanf:"cvar_weight"`
	RiskAlpha  float64 `koanf:"risk_alpha"`

	Presolve  bool   `koanf:"presolve"`
	KeepFiles bool   `koanf:"keep_files"`
	WorkDir   string `koanf:"work_dir"`

	OutputFormat string `koanf:"output"`
	OutFile      string `koanf:"out_file"`

	StatePath string `koanf:"state_path"`
	Verbose   bool   `koanf:"verbose"`

	// ProjectRoot is derived, not read from any source.
	ProjectRoot string `koanf:"-"`
}
