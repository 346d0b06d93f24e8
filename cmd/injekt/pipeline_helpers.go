package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"injekt/internal/diag"
	"injekt/internal/pipeline"
	"injekt/internal/plan"
)

// runOptions are the persistent flags every resolving command reads.
type runOptions struct {
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
	jobs           int
	ui             switchMode
	cacheDir       string
	noCache        bool
	warnings       diag.WarningPolicy
}

func readRunOptions(cmd *cobra.Command) (runOptions, error) {
	var opts runOptions
	flags := cmd.Root().PersistentFlags()

	colorStr, err := flags.GetString("color")
	if err != nil {
		return opts, fmt.Errorf("failed to get color flag: %w", err)
	}
	colorMode, err := readSwitch("color", colorStr)
	if err != nil {
		return opts, err
	}
	opts.color = shouldUseColor(colorMode)

	uiStr, err := flags.GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readSwitch("ui", uiStr); err != nil {
		return opts, err
	}
	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.cacheDir, err = flags.GetString("cache-dir"); err != nil {
		return opts, fmt.Errorf("failed to get cache-dir flag: %w", err)
	}
	if opts.noCache, err = flags.GetBool("no-cache"); err != nil {
		return opts, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	noWarnings, err := flags.GetBool("no-warnings")
	if err != nil {
		return opts, fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	warningsAsErrors, err := flags.GetBool("warnings-as-errors")
	if err != nil {
		return opts, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if opts.warnings, err = diag.NewWarningPolicy(noWarnings, warningsAsErrors); err != nil {
		return opts, err
	}
	return opts, nil
}

// openCache returns nil when caching is disabled or the directory cannot
// be prepared; a broken cache only costs speed.
func openCache(cmd *cobra.Command, opts runOptions) *plan.DiskCache {
	if opts.noCache {
		return nil
	}
	cache, err := plan.OpenDiskCache(opts.cacheDir)
	if err != nil {
		if !opts.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: plan cache disabled: %v\n", err)
		}
		return nil
	}
	return cache
}

// runFiles resolves files, with the progress view when allowed and useful.
func runFiles(cmd *cobra.Command, files []string, opts runOptions, allowUI bool) (pipeline.Result, error) {
	baseDir, err := os.Getwd()
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("failed to get working directory: %w", err)
	}
	req := pipeline.Request{
		Files:          files,
		BaseDir:        baseDir,
		Jobs:           opts.jobs,
		MaxDiagnostics: opts.maxDiagnostics,
		Cache:          openCache(cmd, opts),
		Warnings:       opts.warnings,
	}
	if allowUI && !opts.quiet && len(files) > 1 && shouldUseTUI(opts.ui) {
		return runWithUI(cmd.Context(), "resolving", req)
	}
	return pipeline.Run(cmd.Context(), &req)
}

// singleFile runs the pipeline on one world and returns its plans, printing
// diagnostics when resolution failed.
func singleFile(cmd *cobra.Command, path string, opts runOptions) (*plan.Set, pipeline.Result, error) {
	res, err := runFiles(cmd, []string{path}, opts, false)
	if err != nil {
		return nil, res, err
	}
	if len(res.Files) != 1 {
		return nil, res, fmt.Errorf("no world in %s", path)
	}
	f := res.Files[0]
	if f.Bag.HasErrors() || f.Plans == nil {
		printPretty(cmd.ErrOrStderr(), res, opts)
		return nil, res, errReported
	}
	return f.Plans, res, nil
}
