package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "wsp", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	subs := map[string]bool{}
	for _, c := range cmd.Commands() {
		subs[c.Name()] = true
	}
	for _, name := range []string{"solve", "evaluate", "export", "tree", "scenarios", "check", "runs", "watch", "version"} {
		assert.True(t, subs[name], "expected subcommand %q", name)
	}
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	cmd := NewRootCmd()
	flags := cmd.PersistentFlags()

	for _, name := range []string{
		"config", "model", "data", "solver", "solver-bin", "solver-args",
		"time-limit", "cvar-weight", "risk-alpha", "presolve", "keep-files",
		"work-dir", "state", "verbose", "output", "out-file",
	} {
		require.NotNil(t, flags.Lookup(name), "expected persistent flag %q", name)
	}

	// short forms
	assert.NotNil(t, flags.ShorthandLookup("m"))
	assert.NotNil(t, flags.ShorthandLookup("d"))
	assert.NotNil(t, flags.ShorthandLookup("s"))
	assert.NotNil(t, flags.ShorthandLookup("o"))
	assert.NotNil(t, flags.ShorthandLookup("v"))
}
