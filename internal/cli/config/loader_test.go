package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (not available before Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func newFlagSet() *pflag.FlagSet {
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("model", "", "")
	f.StringP("data", "d", "", "")
	f.String("solver", "", "")
	f.String("state", "", "")
	f.String("output", "", "")
	f.Float64("risk-alpha", 0, "")
	return f
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "wsp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(ResetConfig)
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultSolver, cfg.Solver)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultRiskAlpha, cfg.RiskAlpha)
	assert.False(t, cfg.Presolve)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	t.Cleanup(ResetConfig)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadConfig_File(t *testing.T) {
	t.Cleanup(ResetConfig)
	dir := t.TempDir()
	writeConfig(t, dir, `
model: three-stage
data_file: data/three_stage.json
solver: gurobi
presolve: true
`)
	chdir(t, dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "three-stage", cfg.Model)
	assert.Equal(t, "gurobi", cfg.Solver)
	assert.True(t, cfg.Presolve)
	assert.NotEmpty(t, GetConfigFileUsed())

	// relative data_file resolves against the config file directory
	assert.True(t, filepath.IsAbs(cfg.DataFile), "expected an absolute path, got %s", cfg.DataFile)
	assert.True(t, strings.HasSuffix(cfg.DataFile, filepath.Join("data", "three_stage.json")), "got %s", cfg.DataFile)
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	writeConfig(t, root, "model: three-stage\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "three-stage", cfg.Model)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Cleanup(ResetConfig)
	dir := t.TempDir()
	writeConfig(t, dir, "solver: cbc\n")
	chdir(t, dir)
	t.Setenv("WSP_SOLVER", "glpk")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "glpk", cfg.Solver)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Cleanup(ResetConfig)
	chdir(t, t.TempDir())
	t.Setenv("WSP_SOLVER", "glpk")

	flags := newFlagSet()
	require.NoError(t, flags.Parse([]string{"--solver", "cplex", "--risk-alpha", "0.9"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "cplex", cfg.Solver)
	assert.Equal(t, 0.9, cfg.RiskAlpha)
}

func TestLoadConfig_UnsetFlagsIgnored(t *testing.T) {
	t.Cleanup(ResetConfig)
	chdir(t, t.TempDir())

	flags := newFlagSet()
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	// the zero-valued, unchanged flags must not clobber the defaults
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultRiskAlpha, cfg.RiskAlpha)
}

func TestLoadConfig_ShortFlagNamesMapped(t *testing.T) {
	t.Cleanup(ResetConfig)
	chdir(t, t.TempDir())

	flags := newFlagSet()
	require.NoError(t, flags.Parse([]string{"--data", "portfolio.json", "--state", "runs.db"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	// --data and --state map onto data_file and state_path, kept verbatim
	assert.Equal(t, "portfolio.json", cfg.DataFile)
	assert.Equal(t, "runs.db", cfg.StatePath)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Model:        DefaultModel,
			Solver:       DefaultSolver,
			OutputFormat: DefaultOutput,
			RiskAlpha:    DefaultRiskAlpha,
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		errSub string
	}{
		{"missing model", func(c *Config) { c.Model = "" }, "model is required"},
		{"missing solver", func(c *Config) { c.Solver = "" }, "solver is required"},
		{"bad output", func(c *Config) { c.OutputFormat = "xml" }, "invalid output format"},
		{"alpha too big", func(c *Config) { c.RiskAlpha = 1 }, "risk_alpha"},
		{"negative cvar weight", func(c *Config) { c.CVaRWeight = -0.1 }, "cvar_weight"},
		{"bad time limit", func(c *Config) { c.TimeLimit = "fast" }, "time_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestConfig_RequireDataFile(t *testing.T) {
	c := &Config{}
	assert.ErrorContains(t, c.RequireDataFile(), "no data file")

	c.DataFile = filepath.Join(t.TempDir(), "absent.json")
	assert.Error(t, c.RequireDataFile())

	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	c.DataFile = path
	assert.NoError(t, c.RequireDataFile())
}

func TestConfig_TimeLimitDuration(t *testing.T) {
	c := &Config{}
	d, err := c.TimeLimitDuration()
	require.NoError(t, err)
	assert.Zero(t, d)

	c.TimeLimit = "90s"
	d, err = c.TimeLimitDuration()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", d.String())
}
