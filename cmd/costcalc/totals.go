package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donis3/costcalc/internal/cli"
	"github.com/donis3/costcalc/internal/currency"
	"github.com/donis3/costcalc/internal/model"
	"github.com/donis3/costcalc/internal/period"
)

func totalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show yearly company overhead and labour",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			per, _ := cmd.Flags().GetString("per")
			target := model.Period(per)
			if !target.Valid() {
				return fmt.Errorf("invalid period %q, one of y, m, w, d, h", per)
			}

			eng, closeStore, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			totals := eng.Totals()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), totals)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTotals(totals, target))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print JSON")
	cmd.Flags().String("per", "y", "period to express totals in (y, m, w, d, h)")
	return cmd
}

// renderTotals expresses every yearly figure, wages included, per the target period.
func renderTotals(t model.CompanyTotals, per model.Period) string {
	code := t.Currency
	line := func(label string, yearly float64) string {
		return fmt.Sprintf("%-18s %s", label, currency.Format(period.FromAnnual(yearly, per), code))
	}

	lines := []string{
		line("Expenses", t.Expenses),
		line("Expenses with tax", t.ExpensesWithTax),
		line("Labour (gross)", t.LabourGross),
		line("Labour (net)", t.LabourNet),
		line("Salaries (gross)", t.SalariesGross),
		line("Salaries (net)", t.SalariesNet),
	}
	if len(t.History) > 1 {
		curr, prev := t.History[0], t.History[1]
		lines = append(lines, "", fmt.Sprintf("Since %s: overhead %s, labour %s",
			prev.Date.Local().Format("2006-01-02"),
			cli.FormatChange(percentChange(prev.Overhead, curr.Overhead)),
			cli.FormatChange(percentChange(prev.Labour, curr.Labour))))
	}
	return cli.RenderBox(cli.ChartIcon+" Company totals per "+periodName(per), strings.Join(lines, "\n"))
}

func percentChange(prev, next float64) float64 {
	if prev == 0 {
		return 0
	}
	return (next - prev) / prev * 100
}

func periodName(p model.Period) string {
	switch p {
	case model.PeriodMonth:
		return "month"
	case model.PeriodWeek:
		return "week"
	case model.PeriodDay:
		return "day"
	case model.PeriodHour:
		return "hour"
	default:
		return "year"
	}
}
