package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donis3/costcalc/internal/model"
)

func setupTestConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("database.path", filepath.Join(t.TempDir(), "costcalc.db"))
	viper.Set("currency.default", "TRY")
	viper.Set("currency.enabled", []string{"TRY", "USD", "EUR"})
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeImportFile(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "import.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

const sampleImport = `{
  "materials": [
    {"materialId": 0, "name": "Glycerin", "unit": "kg", "currency": "USD", "price": 2, "tax": 20}
  ],
  "recipes": [
    {"recipeId": 0, "name": "Soap base", "yield": 4,
     "materials": [{"materialId": 0, "amount": 2, "unit": "kg"}]}
  ],
  "packages": [
    {"packageId": 0, "name": "Bottle 1L", "productType": "liquid", "packageCapacity": 1,
     "items": [
       {"name": "Bottle", "itemCurrency": "TRY", "packageType": "container", "itemPrice": 5},
       {"name": "Carton", "itemCurrency": "TRY", "packageType": "box", "itemPrice": 24, "boxCapacity": 12}
     ]}
  ]
}`

func TestRootCommandStructure(t *testing.T) {
	root := newRootCmd()

	expected := map[string][]string{
		"rates":     {"add", "show", "convert", "fetch", "watch", "reset", "default"},
		"import":    nil,
		"list":      nil,
		"delete":    nil,
		"recipes":   {"scale"},
		"packages":  {"costs"},
		"products":  {"add"},
		"totals":    nil,
		"recompute": nil,
		"migrate":   nil,
		"version":   nil,
	}

	for name, subs := range expected {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{name})
			require.NoError(t, err)
			require.Equal(t, name, cmd.Name())
			for _, sub := range subs {
				found := false
				for _, c := range cmd.Commands() {
					if c.Name() == sub {
						found = true
					}
				}
				assert.True(t, found, "missing subcommand %s %s", name, sub)
			}
		})
	}

	for _, flag := range []string{"config", "env-file", "log-level", "log-format"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestValidCollection(t *testing.T) {
	cmd := &cobra.Command{}
	assert.NoError(t, validCollection(cmd, []string{"materials"}))
	assert.Error(t, validCollection(cmd, []string{"invoices"}))
	assert.Error(t, validCollection(cmd, nil))
}

func TestVersionCommand(t *testing.T) {
	setupTestConfig(t)
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "costcalc dev")
}

func TestImportListAndScale(t *testing.T) {
	setupTestConfig(t)
	path := writeImportFile(t, sampleImport)

	_, err := executeCommand(t, "rates", "add", "USD", "30")
	require.NoError(t, err)

	out, err := executeCommand(t, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 materials, 1 recipes, 1 packages")

	out, err = executeCommand(t, "list", "recipes", "--json")
	require.NoError(t, err)
	var recipes []model.Recipe
	require.NoError(t, json.Unmarshal([]byte(out), &recipes))
	require.Len(t, recipes, 1)
	require.NotEmpty(t, recipes[0].UnitCosts)
	assert.InDelta(t, 30.0, recipes[0].UnitCosts[0].Cost, 1e-9, "2 kg at 60 TRY over a yield of 4")

	out, err = executeCommand(t, "list", "packages", "--json")
	require.NoError(t, err)
	var packages []model.Package
	require.NoError(t, json.Unmarshal([]byte(out), &packages))
	require.Len(t, packages, 1)
	assert.InDelta(t, 7.0, packages[0].Cost, 1e-9, "bottle plus a twelfth of the carton")

	out, err = executeCommand(t, "recipes", "scale", "0", "8", "--json")
	require.NoError(t, err)
	var scaled model.Recipe
	require.NoError(t, json.Unmarshal([]byte(out), &scaled))
	require.Len(t, scaled.Materials, 1)
	assert.InDelta(t, 4.0, scaled.Materials[0].Amount, 1e-9)

	out, err = executeCommand(t, "list", "recipes", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &recipes))
	assert.InDelta(t, 4.0, recipes[0].Yield, 1e-9, "scaling does not persist")
}

func TestProductsAddAndDelete(t *testing.T) {
	setupTestConfig(t)
	path := writeImportFile(t, sampleImport)

	_, err := executeCommand(t, "import", path)
	require.NoError(t, err)

	out, err := executeCommand(t, "products", "add", "Soap 1L", "--recipe", "0", "--package", "0")
	require.NoError(t, err)
	assert.Contains(t, out, `"Soap 1L"`)

	_, err = executeCommand(t, "products", "add", "Soap again", "--recipe", "0", "--package", "0")
	assert.Error(t, err, "a recipe and package pair is used once")

	out, err = executeCommand(t, "delete", "products", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Soap 1L")

	_, err = executeCommand(t, "delete", "products", "0")
	assert.Error(t, err)

	_, err = executeCommand(t, "delete", "invoices", "0")
	assert.Error(t, err)
}

func TestImportDryRunDoesNotPersist(t *testing.T) {
	setupTestConfig(t)
	path := writeImportFile(t, sampleImport)

	out, err := executeCommand(t, "import", "--dry-run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Valid")

	out, err = executeCommand(t, "list", "materials", "--json")
	require.NoError(t, err)
	var materials []model.Material
	require.NoError(t, json.Unmarshal([]byte(out), &materials))
	assert.Empty(t, materials)
}

func TestImportRejectsInvalidFile(t *testing.T) {
	setupTestConfig(t)

	_, err := executeCommand(t, "import", writeImportFile(t, `{"materials": [{"name": ""}]}`))
	assert.ErrorIs(t, err, model.ErrInvalidMaterial)

	_, err = executeCommand(t, "import", writeImportFile(t, `not json`))
	assert.Error(t, err)
}

func TestRatesConvertAndReset(t *testing.T) {
	setupTestConfig(t)

	_, err := executeCommand(t, "rates", "add", "USD", "30")
	require.NoError(t, err)

	out, err := executeCommand(t, "rates", "convert", "10", "USD")
	require.NoError(t, err)
	assert.Contains(t, out, "300.00")

	out, err = executeCommand(t, "rates", "show", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"USD"`)

	_, err = executeCommand(t, "rates", "reset")
	assert.Error(t, err, "reset needs --force")

	_, err = executeCommand(t, "rates", "reset", "--force")
	require.NoError(t, err)

	out, err = executeCommand(t, "rates", "convert", "10", "USD")
	require.NoError(t, err)
	assert.Contains(t, out, "10.00")
}

func TestRatesFetchNeedsProvider(t *testing.T) {
	setupTestConfig(t)
	_, err := executeCommand(t, "rates", "fetch")
	assert.Error(t, err)
}

func TestTotalsAndMigrate(t *testing.T) {
	setupTestConfig(t)

	out, err := executeCommand(t, "totals", "--json")
	require.NoError(t, err)
	var totals model.CompanyTotals
	require.NoError(t, json.Unmarshal([]byte(out), &totals))
	assert.Equal(t, "TRY", totals.Currency)

	_, err = executeCommand(t, "totals", "--per", "fortnight")
	assert.Error(t, err)

	out, err = executeCommand(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Latest version")

	out, err = executeCommand(t, "recompute")
	require.NoError(t, err)
	assert.Contains(t, out, "Recomputed")
}

func TestTotalsPerPeriod(t *testing.T) {
	setupTestConfig(t)
	viper.Set("company.labour_departments", []string{"Production"})
	path := writeImportFile(t, `{
  "expenses": [
    {"expenseId": 0, "name": "Rent", "category": "Building", "period": "m", "currency": "TRY", "price": 100, "quantity": 1}
  ],
  "employees": [
    {"name": "Ada", "email": "ada@example.com", "department": "Production", "currency": "TRY", "gross": 24000, "net": 18000},
    {"name": "Cem", "email": "cem@example.com", "department": "Office", "currency": "EUR", "gross": 3600, "net": 2400}
  ]
}`)
	_, err := executeCommand(t, "import", path)
	require.NoError(t, err)

	out, err := executeCommand(t, "totals", "--json")
	require.NoError(t, err)
	var totals model.CompanyTotals
	require.NoError(t, json.Unmarshal([]byte(out), &totals))
	assert.Equal(t, 1200.0, totals.Expenses)
	assert.Equal(t, 24000.0, totals.LabourGross)
	assert.Equal(t, 3600.0, totals.SalariesGross, "EUR wages without a rate count at face value")

	out, err = executeCommand(t, "totals", "--per", "m")
	require.NoError(t, err)
	assert.Contains(t, out, "per month")
	assert.Contains(t, out, "₺100.00")
	assert.Contains(t, out, "₺2,000.00", "annual wages are divided by twelve")
	assert.Contains(t, out, "₺1,500.00")
	assert.Contains(t, out, "₺300.00")
	assert.Contains(t, out, "₺200.00")
}

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 10.0, percentChange(100, 110), 1e-9)
	assert.Zero(t, percentChange(0, 50))
}
