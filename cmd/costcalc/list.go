package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donis3/costcalc/internal/cli"
	"github.com/donis3/costcalc/internal/currency"
	"github.com/donis3/costcalc/internal/engine"
	"github.com/donis3/costcalc/internal/model"
	"github.com/donis3/costcalc/internal/recipe"
)

// Collection names accepted by list and delete.
const (
	collectionMaterials = "materials"
	collectionRecipes   = "recipes"
	collectionPackages  = "packages"
	collectionProducts  = "products"
	collectionExpenses  = "expenses"
	collectionEmployees = "employees"
)

var collections = []string{
	collectionMaterials,
	collectionRecipes,
	collectionPackages,
	collectionProducts,
	collectionExpenses,
	collectionEmployees,
}

func validCollection(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing collection, one of: %s", strings.Join(collections, ", "))
	}
	if !slices.Contains(collections, args[0]) {
		return fmt.Errorf("unknown collection %q, one of: %s", args[0], strings.Join(collections, ", "))
	}
	return nil
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "list <collection>",
		Short:     "List a collection with its derived costs",
		Long:      `List materials, recipes, packages, products, expenses or employees.`,
		ValidArgs: collections,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), validCollection),
		RunE:      runList,
	}
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	eng, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), collectionData(eng, args[0]))
	}

	headers, rows := collectionTable(eng, args[0])
	out := cmd.OutOrStdout()
	title := strings.ToUpper(args[0][:1]) + args[0][1:]
	fmt.Fprintln(out, cli.FormatTitle(title))
	if len(rows) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("Nothing here yet. Use 'costcalc import' to add data."))
		return nil
	}
	return cli.WriteTable(out, headers, rows)
}

func collectionData(eng *engine.Engine, name string) any {
	switch name {
	case collectionMaterials:
		return eng.Materials()
	case collectionRecipes:
		return eng.Recipes()
	case collectionPackages:
		return eng.Packages()
	case collectionProducts:
		return eng.EndProducts()
	case collectionExpenses:
		return eng.Expenses()
	default:
		return eng.Employees()
	}
}

func collectionTable(eng *engine.Engine, name string) ([]string, [][]string) {
	def := eng.DefaultCurrency()
	var rows [][]string

	switch name {
	case collectionMaterials:
		for _, m := range eng.Materials() {
			latest := "-"
			if p, ok := m.LatestPrice(); ok {
				latest = currency.Format(p.Amount, def)
			}
			rows = append(rows, []string{strconv.Itoa(m.ID), m.Name, m.Unit,
				currency.Format(m.Price, m.Currency), formatNumber(m.Tax, 0) + "%", latest})
		}
		return []string{"ID", "Name", "Unit", "Price", "Tax", "Price (" + def + ")"}, rows

	case collectionRecipes:
		for _, r := range eng.Recipes() {
			uc := r.LatestUnitCost()
			rows = append(rows, []string{strconv.Itoa(r.ID), r.Name, formatNumber(r.Yield, 2),
				strconv.Itoa(len(r.Materials)), formatNumber(uc.Cost, recipe.CostPlaces),
				formatNumber(uc.CostWithTax, recipe.CostPlaces)})
		}
		return []string{"ID", "Name", "Yield", "Lines", "Unit cost", "With tax"}, rows

	case collectionPackages:
		for _, p := range eng.Packages() {
			change := "-"
			if len(p.CostHistory) > 0 {
				change = cli.FormatChange(p.CostHistory[0].Change)
			}
			rows = append(rows, []string{strconv.Itoa(p.ID), p.Name, string(p.ProductType),
				formatNumber(p.PackageCapacity, 2), currency.Format(p.Cost, def),
				currency.Format(p.CostWithTax, def), change})
		}
		return []string{"ID", "Name", "Product", "Capacity", "Cost", "With tax", "Change"}, rows

	case collectionProducts:
		for _, p := range eng.EndProducts() {
			rows = append(rows, []string{strconv.Itoa(p.ID), p.Name, strconv.Itoa(p.RecipeID),
				strconv.Itoa(p.PackageID), currency.Format(p.Cost.Total, def),
				currency.Format(p.Cost.TotalWithTax, def)})
		}
		return []string{"ID", "Name", "Recipe", "Package", "Total", "With tax"}, rows

	case collectionExpenses:
		for _, x := range eng.Expenses() {
			yearly := x.Cost[model.PeriodYear]
			rows = append(rows, []string{strconv.Itoa(x.ID), x.Category, x.Name, string(x.Period),
				currency.Format(x.Price, x.Currency), currency.Format(yearly.Amount, yearly.Currency)})
		}
		return []string{"ID", "Category", "Name", "Period", "Price", "Yearly"}, rows

	default:
		for _, emp := range eng.Employees() {
			rows = append(rows, []string{emp.ID, emp.Name, emp.Department,
				currency.Format(emp.Gross, emp.Currency), currency.Format(emp.Net, emp.Currency)})
		}
		return []string{"ID", "Name", "Department", "Gross", "Net"}, rows
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "delete <collection> <id>",
		Short:     "Delete an entity",
		ValidArgs: collections,
		Args:      cobra.MatchAll(cobra.ExactArgs(2), validCollection),
		RunE:      runDelete,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eng, closeStore, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	name, rawID := args[0], args[1]
	var deleted string
	if name == collectionEmployees {
		emp, err := eng.DispatchEmployee(ctx, engine.ActionDelete, model.Employee{ID: rawID})
		if err != nil {
			return err
		}
		deleted = emp.Name
	} else {
		id, err := parseID(rawID)
		if err != nil {
			return err
		}
		if deleted, err = deleteByID(cmd, eng, name, id); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %q from %s", deleted, name)))
	return nil
}

func deleteByID(cmd *cobra.Command, eng *engine.Engine, name string, id int) (string, error) {
	ctx := cmd.Context()
	switch name {
	case collectionMaterials:
		m, err := eng.DispatchMaterial(ctx, engine.ActionDelete, model.Material{ID: id})
		return m.Name, err
	case collectionRecipes:
		r, err := eng.DispatchRecipe(ctx, engine.ActionDelete, model.Recipe{ID: id})
		return r.Name, err
	case collectionPackages:
		p, err := eng.DispatchPackage(ctx, engine.ActionDelete, model.Package{ID: id})
		return p.Name, err
	case collectionProducts:
		p, err := eng.DispatchEndProduct(ctx, engine.ActionDelete, model.EndProduct{ID: id})
		return p.Name, err
	default:
		x, err := eng.DispatchExpense(ctx, engine.ActionDelete, model.Expense{ID: id})
		return x.Name, err
	}
}
