package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"injekt/internal/plan"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the plan cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached plan set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readRunOptions(cmd)
		if err != nil {
			return err
		}
		cache, err := plan.OpenDiskCache(opts.cacheDir)
		if err != nil {
			return err
		}
		if err := cache.DropAll(); err != nil {
			return err
		}
		if !opts.quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "cleaned %s\n", cache.Dir())
		}
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the plan cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readRunOptions(cmd)
		if err != nil {
			return err
		}
		dir := opts.cacheDir
		if dir == "" {
			if dir, err = plan.DefaultDir(); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cachePathCmd)
}
