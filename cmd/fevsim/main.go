package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rpgo/escape-velocity/internal/calculation"
	"github.com/rpgo/escape-velocity/internal/domain"
	"github.com/rpgo/escape-velocity/internal/logging"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fevsim",
		Short: "Financial escape velocity Monte Carlo simulator",
		Long: `fevsim forecasts an investment portfolio under random returns and
spending, then reports how often assets run out and how often asset
income plus passive income outgrows expenses for good.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: error, warn, info, debug, trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newValidateCmd(),
		newExampleConfigCmd(),
	)
	return rootCmd
}

// newCommandLogger builds the engine logger from the --log-level flag.
// Logs go to stderr so report output stays clean.
func newCommandLogger(cmd *cobra.Command) calculation.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.NewSlogAdapter(logging.NewLogger(level, cmd.ErrOrStderr()))
}

// exitCode maps typed simulation errors to distinct process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfig):
		return 2
	case errors.Is(err, domain.ErrDomain):
		return 3
	case errors.Is(err, domain.ErrNumeric):
		return 4
	default:
		return 1
	}
}
