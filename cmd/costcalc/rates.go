package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/donis3/costcalc/internal/cli"
	"github.com/donis3/costcalc/internal/common"
	"github.com/donis3/costcalc/internal/config"
	"github.com/donis3/costcalc/internal/currency"
	"github.com/donis3/costcalc/internal/engine"
	"github.com/donis3/costcalc/internal/ratefeed"
)

var _ ratefeed.Sink = (*engine.Engine)(nil)

func ratesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Manage currency rates",
		Long: `Record, inspect and fetch currency rates against the default currency.

A rate says how many units of the default currency one unit of a foreign
currency is worth. Every change re-prices materials, packages and totals.`,
	}

	cmd.AddCommand(ratesAddCmd())
	cmd.AddCommand(ratesShowCmd())
	cmd.AddCommand(ratesConvertCmd())
	cmd.AddCommand(ratesFetchCmd())
	cmd.AddCommand(ratesWatchCmd())
	cmd.AddCommand(ratesResetCmd())
	cmd.AddCommand(ratesDefaultCmd())
	return cmd
}

func ratesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <currency> <rate>",
		Short: "Record a rate observation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			eng, closeStore, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			changed, err := eng.AddRate(cmd.Context(), args[0], rate)
			if err != nil {
				return fmt.Errorf("failed to add rate: %w", err)
			}
			code := strings.ToUpper(args[0])
			if !changed {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("%s rate unchanged", code)))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("1 %s = %s %s", code,
				formatNumber(eng.Rates().CurrentRate(code), 2), eng.DefaultCurrency())))
			return nil
		},
	}
}

func ratesShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [currency...]",
		Short: "Show current rates and their history",
		RunE: func(cmd *cobra.Command, args []string) error {
			depth, _ := cmd.Flags().GetInt("depth")
			asJSON, _ := cmd.Flags().GetBool("json")

			eng, closeStore, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if !cmd.Flags().Changed("depth") {
				depth = eng.Settings().RateHistoryDisplayed
			}
			codes := args
			if len(codes) == 0 {
				codes = eng.Settings().Currencies
			}

			infos := make([]currency.RateInfo, 0, len(codes))
			for _, code := range codes {
				if strings.EqualFold(code, eng.DefaultCurrency()) {
					continue
				}
				infos = append(infos, eng.Rates().RateWithHistory(code, depth))
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), infos)
			}
			return printRates(cmd, eng.DefaultCurrency(), infos)
		},
	}
	cmd.Flags().Int("depth", 0, "number of older observations to show (default: currency.history_displayed)")
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func printRates(cmd *cobra.Command, defaultCode string, infos []currency.RateInfo) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle("Rates in "+defaultCode))
	if len(infos) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No foreign currencies enabled."))
		return nil
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{
			info.Currency,
			formatNumber(info.Rate, 2),
			formatDate(info.Date),
			formatRateHistory(info),
		})
	}
	return cli.WriteTable(out, []string{"Currency", "Rate", "Updated", "History"}, rows)
}

func formatRateHistory(info currency.RateInfo) string {
	if len(info.History) == 0 {
		return "-"
	}
	parts := make([]string, len(info.History))
	for i, h := range info.History {
		parts[i] = formatNumber(h.Rate, 2)
	}
	return strings.Join(parts, " → ")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func ratesConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <amount> <from> [to]",
		Short: "Convert an amount between currencies",
		Long:  `Convert an amount through the default currency. The target defaults to the default currency.`,
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			to := ""
			if len(args) == 3 {
				to = args[2]
			}
			exact, _ := cmd.Flags().GetBool("exact")

			eng, closeStore, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			from := strings.ToUpper(args[1])
			if !eng.Rates().Convertible(from) {
				slog.Warn("No usable rate, amount left unconverted", "currency", from)
			}
			res := eng.Rates().Convert(amt, from, to, !exact)
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", currency.Format(amt, from), currency.Format(res.Amount, res.Currency))
			return nil
		},
	}
	cmd.Flags().Bool("exact", false, "do not round the result")
	return cmd
}

func newWatcher(settings config.Settings, sink ratefeed.Sink) (*ratefeed.Watcher, error) {
	if settings.RatesBaseURL == "" {
		return nil, fmt.Errorf("%w: rates.base_url", common.ErrMissingConfig)
	}
	source := ratefeed.NewHTTPSource(settings.RatesBaseURL, settings.RatesAPIKey, settings.RatesTimeout)
	return ratefeed.NewWatcher(source, sink, settings.RatesSchedule, settings.Currencies), nil
}

func ratesFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch current rates from the configured provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, closeStore, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			watcher, err := newWatcher(eng.Settings(), eng)
			if err != nil {
				return err
			}
			changed, err := watcher.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%d rate(s) updated", changed)))
			return nil
		},
	}
}

func ratesWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Fetch rates on the configured schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, closeStore, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			watcher, err := newWatcher(eng.Settings(), eng)
			if err != nil {
				return err
			}
			if _, err := watcher.RunOnce(ctx); err != nil {
				slog.Error("Initial rate fetch failed", "error", err)
			}
			if err := watcher.Start(); err != nil {
				return err
			}

			<-ctx.Done()
			slog.Info("Stopping rate watcher")
			stopped := watcher.Stop()
			select {
			case <-stopped.Done():
			case <-time.After(30 * time.Second):
				slog.Warn("Rate fetch still running, exiting anyway")
			}
			return nil
		},
	}
}

func ratesResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the whole rate history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				return fmt.Errorf("refusing to clear rate history without --force")
			}

			eng, closeStore, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			eng.ResetRates(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Rate history cleared"))
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "confirm clearing every stored rate")
	return cmd
}

func ratesDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default <currency>",
		Short: "Change the default currency",
		Long: `Change the currency every derived cost is expressed in. Stored rates target
the old default and are cleared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := eng.SetDefaultCurrency(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Default currency is now "+eng.DefaultCurrency()))
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Set currency.default in your config to keep it on the next run"))
			return nil
		},
	}
}
