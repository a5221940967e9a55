package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/cashmind/internal/cli"
	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/config"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/service"
	"github.com/Veraticus/cashmind/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reports",
	}

	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Export a report to Google Sheets",
		Long: `Write a report with summary, transactions, categories, monthly flow,
budgets, goals and financial health tabs to a Google Sheets spreadsheet.

Authenticate with a service account (sheets.service_account_path) or with
OAuth2. Run once with --auth to log in through the browser; the token is
kept in ~/.config/cashmind/sheets_token.json.`,
		Example: `  cashmind export sheets --auth
  cashmind export sheets --month 2024-03
  cashmind export sheets --from 2024-01-01 --to 2024-03-31`,
		RunE: runExportSheets,
	}
	sheetsCmd.Flags().String("month", "", "Month to export as YYYY-MM (default: current month)")
	sheetsCmd.Flags().String("from", "", "Start date (YYYY-MM-DD), overrides --month")
	sheetsCmd.Flags().String("to", "", "End date, inclusive (YYYY-MM-DD)")
	sheetsCmd.Flags().Bool("auth", false, "Log in with Google through the browser first")

	cmd.AddCommand(sheetsCmd)
	return cmd
}

// exportPeriod resolves the report window. --to is inclusive on the command line.
func exportPeriod(month, from, to string, now time.Time) (service.DateRange, error) {
	if from == "" {
		m, err := parseMonth(month, now)
		if err != nil {
			return service.DateRange{}, err
		}
		return service.MonthRange(m), nil
	}

	start, err := time.Parse(model.DateLayout, from)
	if err != nil {
		return service.DateRange{}, fmt.Errorf("%w: invalid from date %q", common.ErrInvalidInput, from)
	}
	end := now
	if to != "" {
		if end, err = time.Parse(model.DateLayout, to); err != nil {
			return service.DateRange{}, fmt.Errorf("%w: invalid to date %q", common.ErrInvalidInput, to)
		}
	}
	end = time.Date(end.Year(), end.Month(), end.Day()+1, 0, 0, 0, 0, time.UTC)
	if !start.Before(end) {
		return service.DateRange{}, fmt.Errorf("%w: from date must not be after to date", common.ErrInvalidInput)
	}
	return service.DateRange{Start: start, End: end}, nil
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	flags := cmd.Flags()

	month, _ := flags.GetString("month")
	from, _ := flags.GetString("from")
	to, _ := flags.GetString("to")
	auth, _ := flags.GetBool("auth")

	period, err := exportPeriod(month, from, to, time.Now())
	if err != nil {
		return err
	}

	tokenFile := defaultTokenFile()
	if auth {
		clientID := viper.GetString("sheets.client_id")
		clientSecret := viper.GetString("sheets.client_secret")
		if clientID == "" || clientSecret == "" {
			return common.NewUserError("Configurá sheets.client_id y sheets.client_secret para iniciar sesión",
				fmt.Errorf("%w: sheets OAuth client", common.ErrMissingConfig))
		}
		token, err := sheets.GetOrCreateToken(ctx, sheets.OAuth2Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenFile:    tokenFile,
		}, func(url string) {
			fmt.Fprintln(out, cli.FormatInfo("Abrí este enlace en el navegador para autorizar CashMind:"))
			fmt.Fprintln(out, url)
		})
		if err != nil {
			return fmt.Errorf("google login failed: %w", err)
		}
		viper.Set("sheets.refresh_token", token.RefreshToken)
	} else if viper.GetString("sheets.refresh_token") == "" {
		if token, err := sheets.LoadToken(tokenFile); err == nil && token.RefreshToken != "" {
			viper.Set("sheets.refresh_token", token.RefreshToken)
		}
	}

	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return common.NewUserError("Google Sheets no está configurado. Usá --auth o sheets.service_account_path",
			fmt.Errorf("%w: %w", common.ErrMissingConfig, err))
	}

	writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	report, id, err := sheets.Export(ctx, store, writer, period)
	if err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exportados %d movimientos", len(report.Transactions))))
	fmt.Fprintf(out, "https://docs.google.com/spreadsheets/d/%s\n", id)
	return nil
}
