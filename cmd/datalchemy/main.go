// Package main implements the datalchemy CLI: it loads a program document,
// runs the evaluator, and prints the output relations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/StarGazerM/datalchemy/internal/logging"
)

var (
	// Global flags
	verbose     bool
	parallelism int
	factLimit   int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "datalchemy",
	Short: "Bottom-up Datalog evaluator",
	Long: `datalchemy evaluates Datalog programs: declarations, facts and safe
Horn rules are read from a YAML document, the least fixed point is computed
by stratified semi-naive iteration, and the declared output relations are
printed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine progress at debug level")
	rootCmd.PersistentFlags().IntVar(&parallelism, "parallelism", 1, "goroutines per evaluation round")
	rootCmd.PersistentFlags().IntVar(&factLimit, "fact-limit", 0, "abort once the store exceeds this many tuples (0 = no limit)")
	rootCmd.AddCommand(runCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
