package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cashmind/internal/cli"
	"github.com/Veraticus/cashmind/internal/health"
	"github.com/Veraticus/cashmind/internal/llm"
)

func healthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show the financial health score",
		Long: `Score a month's finances on savings rate, fixed expenses, budget adherence
and month-over-month trend. The result is stored as that month's snapshot.`,
		RunE: runHealthScore,
	}
	cmd.Flags().String("month", "", "Month to score as YYYY-MM (default: current month)")

	history := &cobra.Command{
		Use:   "history",
		Short: "Show the stored monthly scores",
		RunE:  runHealthHistory,
	}
	history.Flags().Int("months", health.HistoryMonths, "Number of months to show")

	advice := &cobra.Command{
		Use:   "advice",
		Short: "Show personalised advice for the current month",
		RunE:  runHealthAdvice,
	}
	advice.Flags().Bool("refresh", false, "Generate new advice instead of using the cached one")

	cmd.AddCommand(history, advice)
	return cmd
}

// newHealthService builds the scoring service. advisor may be nil when no advice is needed.
func newHealthService(store health.Store, advisor health.Advisor) (*health.Service, error) {
	cfg, err := loadHealthConfig()
	if err != nil {
		return nil, err
	}
	return health.NewService(store, advisor, cfg, slog.Default()), nil
}

func runHealthScore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	raw, _ := cmd.Flags().GetString("month")

	month, err := parseMonth(raw, time.Now())
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	svc, err := newHealthService(store, nil)
	if err != nil {
		return err
	}

	res, err := svc.EvaluateMonth(ctx, month)
	if err != nil {
		return fmt.Errorf("failed to score month: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderHealth(res))
	return nil
}

func runHealthHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	months, _ := cmd.Flags().GetInt("months")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	svc, err := newHealthService(store, nil)
	if err != nil {
		return err
	}

	snapshots, err := svc.History(ctx, months)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderHistory(snapshots))
	return nil
}

func runHealthAdvice(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	refresh, _ := cmd.Flags().GetBool("refresh")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	gateway, err := newGateway(slog.Default())
	if err != nil {
		return err
	}
	defer gateway.Close()

	svc, err := newHealthService(store, llm.NewAdvisor(gateway))
	if err != nil {
		return err
	}

	advice, err := svc.Advice(ctx, refresh)
	if err != nil {
		return fmt.Errorf("failed to get advice: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(cli.GoalIcon+" Consejo del mes", advice))
	return nil
}
