package solver

// run.go - shared plumbing for the command-line adapters: scratch
// directories, model file writing, and process execution.

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/watertools/wsp/internal/lp"
)

// workspace is a scratch directory holding the model and solution files
// for one solve.
type workspace struct {
	dir  string
	keep bool
}

func newWorkspace(opts Options) (*workspace, error) {
	if opts.WorkDir != "" {
		if err := os.MkdirAll(opts.WorkDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating work dir: %w", err)
		}
		return &workspace{dir: opts.WorkDir, keep: true}, nil
	}
	dir, err := os.MkdirTemp("", "wsp-solve-")
	if err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	return &workspace{dir: dir, keep: opts.KeepFiles}, nil
}

func (w *workspace) path(name string) string {
	return filepath.Join(w.dir, name)
}

func (w *workspace) cleanup() {
	if !w.keep {
		os.RemoveAll(w.dir)
	}
}

// writeMPS writes the problem in free MPS format to the workspace.
func (w *workspace) writeMPS(prob *lp.Problem, name string) (string, error) {
	path := w.path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating model file: %w", err)
	}
	defer f.Close()
	if err := prob.WriteMPS(f); err != nil {
		return "", fmt.Errorf("writing model: %w", err)
	}
	return path, nil
}

// writeLP writes the problem in LP format to the workspace.
func (w *workspace) writeLP(prob *lp.Problem, name string) (string, error) {
	path := w.path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating model file: %w", err)
	}
	defer f.Close()
	if err := prob.WriteLP(f); err != nil {
		return "", fmt.Errorf("writing model: %w", err)
	}
	return path, nil
}

// runCommand executes the solver binary and returns its combined
// output. A nonzero exit is not an error by itself; several solvers
// exit nonzero on infeasible models, so callers decide from the parsed
// output.
func runCommand(ctx context.Context, opts Options, bin string, args ...string) (string, time.Duration, error) {
	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}

	logger := opts.logger()
	logger.Debug("running solver", "binary", bin, "args", args)

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		return buf.String(), elapsed, fmt.Errorf("solver %s: %w", bin, ctx.Err())
	}
	if _, ok := err.(*exec.ExitError); err != nil && !ok {
		return buf.String(), elapsed, fmt.Errorf("running %s: %w", bin, err)
	}

	logger.Debug("solver finished", "binary", bin, "elapsed", elapsed)
	return buf.String(), elapsed, nil
}
