package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"injekt/internal/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan [flags] <world>",
	Short: "Write the resolution plans of a world",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	planCmd.Flags().String("format", "", "plan encoding (json|msgpack); msgpack for .mp outputs, json otherwise")
}

func runPlan(cmd *cobra.Command, args []string) error {
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format == "" {
		format = "json"
		if strings.HasSuffix(outPath, ".mp") || strings.HasSuffix(outPath, ".msgpack") {
			format = "msgpack"
		}
	}
	if format != "json" && format != "msgpack" {
		return fmt.Errorf("unsupported format %q (must be json or msgpack)", format)
	}
	opts, err := readRunOptions(cmd)
	if err != nil {
		return err
	}

	set, res, err := singleFile(cmd, args[0], opts)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}
	if format == "msgpack" {
		err = plan.Encode(out, set)
	} else {
		err = plan.EncodeJSON(out, set)
	}
	if err != nil {
		return fmt.Errorf("failed to write plans: %w", err)
	}
	if opts.timings {
		fmt.Fprint(cmd.ErrOrStderr(), stageTimer(res).Summary())
	}
	return nil
}
