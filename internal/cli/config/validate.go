package config

import (
	"fmt"
	"os"
	"time"
)

var validOutputs = map[string]bool{"table": true, "csv": true, "json": true}

// Validate checks the configuration for values that no command could
// work with. Presence of the data file is checked separately so help
// output works without one.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Solver == "" {
		return fmt.Errorf("solver is required")
	}
	if !validOutputs[c.OutputFormat] {
		return fmt.Errorf("invalid output format %q (expected table, csv, or json)", c.OutputFormat)
	}
	if c.RiskAlpha <= 0 || c.RiskAlpha >= 1 {
		return fmt.Errorf("risk_alpha must be in (0, 1), got %g", c.RiskAlpha)
	}
	if c.CVaRWeight < 0 {
		return fmt.Errorf("cvar_weight must not be negative, got %g", c.CVaRWeight)
	}
	if _, err := c.TimeLimitDuration(); err != nil {
		return err
	}
	return nil
}

// RequireDataFile checks that a data file is configured and exists.
func (c *Config) RequireDataFile() error {
	if c.DataFile == "" {
		return fmt.Errorf("no data file configured (use --data or set data_file in wsp.yaml)")
	}
	if _, err := os.Stat(c.DataFile); err != nil {
		return fmt.Errorf("data file %s: %w", c.DataFile, err)
	}
	return nil
}

// TimeLimitDuration parses the configured time limit.
func (c *Config) TimeLimitDuration() (time.Duration, error) {
	if c.TimeLimit == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TimeLimit)
	if err != nil {
		return 0, fmt.Errorf("invalid time_limit %q: %w", c.TimeLimit, err)
	}
	return d, nil
}
