package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/donis3/costcalc/internal/cli"
	"github.com/donis3/costcalc/internal/common"
	"github.com/donis3/costcalc/internal/engine"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import collections from a JSON file",
		Long: `Replace collections with the ones in a JSON file.

The file holds any of the keys materials, recipes, packages, endProducts,
expenses and employees. Collections missing from the file are left alone.
Every entity is validated before anything is written.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
	cmd.Flags().Bool("dry-run", false, "validate the file without saving")
	return cmd
}

func readState(path string) (engine.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.State{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var state engine.State
	if err := json.Unmarshal(data, &state); err != nil {
		return engine.State{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return state, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	state, err := readState(args[0])
	if err != nil {
		return err
	}

	var target *engine.Engine
	if dryRun {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		target = engine.New(nil, settings)
	} else {
		eng, closeStore, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer closeStore()
		target = eng
	}

	if err := target.Import(ctx, state); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	common.LogInfo("Imported collections", common.Fields{"file": args[0], "dry_run": dryRun})

	out := cmd.OutOrStdout()
	summary := fmt.Sprintf("%d materials, %d recipes, %d packages, %d end products, %d expenses, %d employees",
		len(state.Materials), len(state.Recipes), len(state.Packages),
		len(state.EndProducts), len(state.Expenses), len(state.Employees))
	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo("Valid: "+summary))
		return nil
	}
	fmt.Fprintln(out, cli.FormatSuccess("Imported "+summary))
	return nil
}
