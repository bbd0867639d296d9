package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	datalchemy "github.com/StarGazerM/datalchemy"
	"github.com/StarGazerM/datalchemy/engine"
	"github.com/StarGazerM/datalchemy/internal/loader"
)

var (
	watchMode bool
	plainMode bool
)

var runCmd = &cobra.Command{
	Use:   "run <program.yaml>",
	Short: "Evaluate a program and print its output relations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !watchMode {
			return runOnce(path)
		}
		return watchAndRun(cmd.Context(), path)
	},
}

func init() {
	runCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-run whenever the program document changes")
	runCmd.Flags().BoolVar(&plainMode, "plain", false, "print facts one per line instead of tables")
}

func evalOptions() []engine.Option {
	return []engine.Option{
		engine.WithLogger(logger),
		engine.WithParallelism(parallelism),
		engine.WithFactLimit(factLimit),
	}
}

func runOnce(path string) error {
	prog, err := loader.Load(path)
	if err != nil {
		return err
	}
	res, stats, err := datalchemy.RunWithStats(prog, evalOptions()...)
	if err != nil {
		return err
	}
	logger.Debug("evaluation finished",
		zap.String("program", prog.Name),
		zap.Int("strata", len(stats.Strata)),
	)
	fmt.Print(renderResult(prog, res, plainMode))
	return nil
}

// watchAndRun evaluates the document now and again on every change. Each run
// starts from scratch; there is no incremental state between runs.
func watchAndRun(parent context.Context, path string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	// Watch the directory: editors often replace the file on save, which
	// would drop a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	rerun := func() {
		if err := runOnce(abs); err != nil {
			logger.Warn("evaluation failed", zap.String("program", abs), zap.Error(err))
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	rerun()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != abs || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("program changed", zap.String("path", ev.Name))
			rerun()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}
