package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/service"
)

// Source is the slice of storage an export reads.
type Source interface {
	GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error)
	GetBudgets(ctx context.Context) ([]model.Budget, error)
	GetGoals(ctx context.Context) ([]model.Goal, error)
	GetHealthSnapshots(ctx context.Context, since time.Time) ([]model.HealthSnapshot, error)
}

// Export loads the period from src, builds the report and hands it to w.
// It returns the report and the id reported by the writer.
func Export(ctx context.Context, src Source, w ReportWriter, period service.DateRange) (*Report, string, error) {
	if !period.Start.Before(period.End) {
		return nil, "", fmt.Errorf("start date must be before end date")
	}

	start, end := period.Start, period.End
	txns, err := src.GetTransactions(ctx, service.TransactionFilter{StartDate: &start, EndDate: &end})
	if err != nil {
		return nil, "", fmt.Errorf("failed to load transactions: %w", err)
	}
	budgets, err := src.GetBudgets(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load budgets: %w", err)
	}
	goals, err := src.GetGoals(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load goals: %w", err)
	}
	snapshots, err := src.GetHealthSnapshots(ctx, service.MonthRange(start).Start)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load health history: %w", err)
	}

	report := BuildReport(ReportInput{
		Period:       period,
		Transactions: txns,
		Budgets:      budgets,
		Goals:        goals,
		Health:       snapshots,
	})

	id, err := w.Write(ctx, report)
	if err != nil {
		return report, "", err
	}
	return report, id, nil
}
