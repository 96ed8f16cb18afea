package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/watertools/wsp/internal/cli/config"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-solve whenever the data file changes",
		Long: `Watch the data file and re-solve the model on every change. Useful
while iterating on parameter estimates: edit the JSON, see the new
portfolio immediately.`,
		Example: `  wsp watch --data two_stage.json`,
		Args:    cobra.NoArgs,
		RunE:    runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	out := cmd.OutOrStdout()

	if err := cfg.RequireDataFile(); err != nil {
		return err
	}

	solveOnce := func() {
		if err := runSolve(cmd, nil); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "solve failed: %v\n", err)
		}
	}
	solveOnce()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory, not the file: editors replace files on
	// save, which drops a watch on the file itself.
	dir := filepath.Dir(cfg.DataFile)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	target := filepath.Clean(cfg.DataFile)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	fmt.Fprintf(out, "watching %s (Ctrl+C to stop)\n", cfg.DataFile)

	var debounce *time.Timer
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case <-sig:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				fmt.Fprintf(out, "\nchange detected: %s\n", filepath.Base(event.Name))
				solveOnce()
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
