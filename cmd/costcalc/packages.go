package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/donis3/costcalc/internal/cli"
	"github.com/donis3/costcalc/internal/currency"
	"github.com/donis3/costcalc/internal/engine"
)

func packagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "Work with packages",
	}
	cmd.AddCommand(packagesCostsCmd())
	return cmd
}

func packagesCostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "costs <id>",
		Short: "Show the cost breakdown of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			eng, closeStore, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			table, err := eng.PackageCostTable(id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), table)
			}

			pkg, _ := eng.Package(id)
			def := eng.DefaultCurrency()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(pkg.Name))
			if err := cli.WriteTable(out,
				[]string{"Item", "Type", "Price", "Per box", "Unit cost", "Tax", "With tax"},
				costRows(table, def)); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nTotal: %s (%s with tax)\n",
				currency.Format(pkg.Cost, def), currency.Format(pkg.CostWithTax, def))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func costRows(table []engine.CostTableRow, def string) [][]string {
	rows := make([][]string, 0, len(table))
	for _, row := range table {
		perBox := "-"
		if row.BoxCapacity > 1 {
			perBox = strconv.Itoa(row.BoxCapacity)
		}
		rows = append(rows, []string{
			row.Name,
			string(row.PackageType),
			currency.Format(row.Price, row.Currency),
			perBox,
			currency.Format(row.UnitCost, def),
			currency.Format(row.Tax, def),
			currency.Format(row.CostWithTax, def),
		})
	}
	return rows
}
