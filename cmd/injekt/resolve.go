package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] <world.toml|world.yaml>...",
	Short: "Resolve every call site of the given worlds",
	Long:  `Resolve every call site of the given world files and report failures as diagnostics. Exits with status 1 when any error is found.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	opts, err := readRunOptions(cmd)
	if err != nil {
		return err
	}

	res, err := runFiles(cmd, args, opts, format == "pretty")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := printJSON(out, res, opts); err != nil {
			return err
		}
	} else {
		printPretty(out, res, opts)
		if !opts.quiet {
			printSummaryLine(out, res)
		}
		if opts.timings {
			printTimingsDiagnostic(cmd.ErrOrStderr(), res, opts)
		}
	}
	if res.HasErrors() {
		return errReported
	}
	return nil
}
