package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/donis3/costcalc/internal/cli"
	"github.com/donis3/costcalc/internal/model"
)

func recipesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "Work with recipes",
	}
	cmd.AddCommand(recipesScaleCmd())
	return cmd
}

func recipesScaleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scale <id> <yield>",
		Short: "Show a recipe rescaled to a new yield",
		Long: `Show the material amounts and weights of a recipe rescaled to a new yield.
The stored recipe is not changed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			yield, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			eng, closeStore, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			scaled, err := eng.ScaleRecipe(id, yield)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), scaled)
			}

			names := make(map[int]string)
			for _, m := range eng.Materials() {
				names[m.ID] = m.Name
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s × %s", scaled.Name, formatNumber(scaled.Yield, 2))))
			return cli.WriteTable(out, []string{"Material", "Amount", "Unit", "Weight"}, scaleRows(scaled, names))
		},
	}
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func scaleRows(r model.Recipe, names map[int]string) [][]string {
	rows := make([][]string, 0, len(r.Materials))
	for _, line := range r.Materials {
		name, ok := names[line.MaterialID]
		if !ok {
			name = "#" + strconv.Itoa(line.MaterialID)
		}
		rows = append(rows, []string{name, formatNumber(line.Amount, 4), line.Unit, formatNumber(line.Weight, 4)})
	}
	return rows
}
