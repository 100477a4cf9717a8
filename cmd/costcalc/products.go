package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donis3/costcalc/internal/cli"
	"github.com/donis3/costcalc/internal/currency"
	"github.com/donis3/costcalc/internal/engine"
	"github.com/donis3/costcalc/internal/model"
)

func productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Work with end products",
	}
	cmd.AddCommand(productsAddCmd())
	return cmd
}

func productsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Bind a recipe to a package as a sellable end product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipeID, _ := cmd.Flags().GetInt("recipe")
			packageID, _ := cmd.Flags().GetInt("package")
			commercial, _ := cmd.Flags().GetString("commercial-name")
			notes, _ := cmd.Flags().GetString("notes")

			eng, closeStore, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			product, err := eng.DispatchEndProduct(cmd.Context(), engine.ActionAdd, model.EndProduct{
				Name:           args[0],
				CommercialName: commercial,
				Notes:          notes,
				RecipeID:       recipeID,
				PackageID:      packageID,
			})
			if err != nil {
				return fmt.Errorf("failed to add end product: %w", err)
			}

			def := eng.DefaultCurrency()
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %q (id %d): %s, %s with tax",
				product.Name, product.ID,
				currency.Format(product.Cost.Total, def),
				currency.Format(product.Cost.TotalWithTax, def))))
			return nil
		},
	}
	cmd.Flags().Int("recipe", 0, "recipe id")
	cmd.Flags().Int("package", 0, "package id")
	cmd.Flags().String("commercial-name", "", "name printed on the label")
	cmd.Flags().String("notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("recipe")
	_ = cmd.MarkFlagRequired("package")
	return cmd
}
