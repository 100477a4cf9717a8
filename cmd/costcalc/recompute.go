package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donis3/costcalc/internal/cli"
)

func recomputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Re-run every aggregation pass",
		Long: `Re-run every aggregation pass against the current rates and settings.
Only tables whose derived values changed are written.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, closeStore, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			ran := eng.Recompute(cmd.Context())
			names := make([]string, len(ran))
			for i, stage := range ran {
				names[i] = string(stage)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Recomputed "+strings.Join(names, " → ")))
			return nil
		},
	}
}
