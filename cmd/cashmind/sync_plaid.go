package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/cashmind/internal/cli"
	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/plaid"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync transactions from connected banks",
	}

	plaidCmd := &cobra.Command{
		Use:   "plaid",
		Short: "Sync transactions from Plaid",
		Long: `Fetch transactions from the Plaid item configured under plaid.* and
store the ones not seen before. Pending transactions are skipped.`,
		Example: `  cashmind sync plaid --days 60
  cashmind sync plaid --start 2024-01-01 --end 2024-03-31`,
		RunE: runSyncPlaid,
	}
	plaidCmd.Flags().IntP("days", "d", 30, "Number of days to sync (used if start/end are not given)")
	plaidCmd.Flags().StringP("start", "s", "", "Start date (YYYY-MM-DD)")
	plaidCmd.Flags().StringP("end", "e", "", "End date (YYYY-MM-DD)")
	plaidCmd.Flags().Bool("list-accounts", false, "List the linked accounts without syncing")

	cmd.AddCommand(plaidCmd)
	return cmd
}

func loadPlaidConfig() (plaid.Config, error) {
	cfg := plaid.Config{Environment: "sandbox"}
	if err := viper.UnmarshalKey("plaid", &cfg); err != nil {
		return plaid.Config{}, fmt.Errorf("%w: plaid: %w", common.ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// syncWindow resolves the date range from explicit dates or a day count ending today.
func syncWindow(start, end string, days int, now time.Time) (time.Time, time.Time, error) {
	if start == "" && end == "" {
		if days <= 0 {
			days = 30
		}
		return now.AddDate(0, 0, -days), now, nil
	}

	from, err := time.ParseInLocation(model.DateLayout, start, now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start date %q", common.ErrInvalidInput, start)
	}
	to := now
	if end != "" {
		if to, err = time.ParseInLocation(model.DateLayout, end, now.Location()); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end date %q", common.ErrInvalidInput, end)
		}
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start date must be before end date", common.ErrInvalidInput)
	}
	return from, to, nil
}

func runSyncPlaid(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	flags := cmd.Flags()

	days, _ := flags.GetInt("days")
	start, _ := flags.GetString("start")
	end, _ := flags.GetString("end")
	listAccounts, _ := flags.GetBool("list-accounts")

	cfg, err := loadPlaidConfig()
	if err != nil {
		return err
	}
	client, err := plaid.NewClient(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create Plaid client: %w", err)
	}

	if listAccounts {
		return printAccounts(ctx, cmd, client)
	}

	from, to, err := syncWindow(start, end, days, time.Now())
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	slog.Info("Syncing transactions from Plaid",
		"start", from.Format(model.DateLayout),
		"end", to.Format(model.DateLayout))

	bar := cli.NewProgressBar(out, -1, "Sincronizando")
	result, err := plaid.Sync(ctx, client, store, from, to, func(n int) { _ = bar.Add(n) })
	_ = bar.Finish()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Sincronizados %d movimientos nuevos de %d (%d ya existían)",
		result.Inserted, result.Fetched, result.Duplicates())))
	return nil
}

func printAccounts(ctx context.Context, cmd *cobra.Command, fetcher plaid.TransactionFetcher) error {
	accounts, err := fetcher.GetAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}
	if len(accounts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No hay cuentas vinculadas"))
		return nil
	}

	var b strings.Builder
	for i, id := range accounts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, id)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Cuentas", strings.TrimRight(b.String(), "\n")))
	return nil
}
