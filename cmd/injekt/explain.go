package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"injekt/internal/plan"
)

var explainCmd = &cobra.Command{
	Use:   "explain [flags] <world>",
	Short: "Print how each requested value is produced",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

func init() {
	explainCmd.Flags().String("callsite", "", "explain only this call site")
}

func runExplain(cmd *cobra.Command, args []string) error {
	callsite, err := cmd.Flags().GetString("callsite")
	if err != nil {
		return fmt.Errorf("failed to get callsite flag: %w", err)
	}
	opts, err := readRunOptions(cmd)
	if err != nil {
		return err
	}

	set, res, err := singleFile(cmd, args[0], opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	eo := plan.ExplainOpts{Color: opts.color}
	if callsite != "" {
		p, ok := set.Find(callsite)
		if !ok {
			return fmt.Errorf("%s has no call site %q", args[0], callsite)
		}
		plan.Explain(out, p, eo)
	} else {
		for i := range set.Plans {
			if i > 0 {
				fmt.Fprintln(out)
			}
			plan.Explain(out, &set.Plans[i], eo)
		}
	}
	if opts.timings {
		fmt.Fprint(cmd.ErrOrStderr(), stageTimer(res).Summary())
	}
	return nil
}
