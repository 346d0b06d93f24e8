package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"injekt/internal/config"
	"injekt/internal/version"
)

// errReported marks a command whose problems were already printed as
// diagnostics; main only sets the exit status.
var errReported = errors.New("errors reported")

var (
	traceCleanup   = func() {}
	profileCleanup = func() {}
)

// finishTrace flushes the tracer and stops the profilers once.
func finishTrace() {
	traceCleanup()
	profileCleanup()
	traceCleanup, profileCleanup = func() {}, func() {}
}

var rootCmd = &cobra.Command{
	Use:           "injekt",
	Short:         "Compile-time dependency injection resolver",
	Long:          `injekt resolves injection requests of a world description into plans and explains how every value is produced`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		stopProfiling, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		profileCleanup = stopProfiling
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		finishTrace()
	},
}

func main() {
	rootCmd.Version = version.Version

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "injekt: %v\n", err)
		os.Exit(2)
	}
	if err := setupRoot(cfg).Execute(); err != nil {
		// PersistentPostRun не вызывается при ошибке RunE
		finishTrace()
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "injekt: %v\n", err)
		}
		os.Exit(1)
	}
}

// setupRoot registers the global flags and the command tree. It must run
// once per process.
func setupRoot(cfg *config.Config) *cobra.Command {
	registerPersistentFlags(rootCmd, cfg)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	return rootCmd
}

// registerPersistentFlags sets up the global flags with defaults taken from
// the environment and .injekt.env.
func registerPersistentFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.PersistentFlags()
	flags.String("color", cfg.Color, "colorize output (auto|on|off)")
	flags.Bool("quiet", cfg.Quiet, "suppress non-essential output")
	flags.Bool("timings", cfg.Timings, "show timing information")
	flags.Int("max-diagnostics", cfg.MaxDiagnostics, "maximum number of diagnostics per file")
	flags.String("trace", cfg.Trace, "trace output file (- for stderr)")
	flags.String("trace-level", cfg.TraceLevel, "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", cfg.TraceMode, "trace storage mode (stream|ring|both)")
	flags.Int("trace-ring-size", cfg.TraceRingSize, "events kept by the ring tracer")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 disables)")
	flags.Int("jobs", cfg.Jobs, "max files resolved in parallel (0=auto)")
	flags.String("ui", cfg.UI, "progress view for many files (auto|on|off)")
	flags.String("cache-dir", cfg.CacheDir, "plan cache directory (default $XDG_CACHE_HOME/injekt)")
	flags.Bool("no-cache", cfg.NoCache, "do not read or write the plan cache")
	flags.Bool("no-warnings", false, "drop warnings from diagnostics")
	flags.Bool("warnings-as-errors", false, "treat warnings as errors")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
