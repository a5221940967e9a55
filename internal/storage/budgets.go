package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
)

// CreateBudget inserts a budget and fills in its ID.
func (s *SQLiteStorage) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if budget != nil && budget.Period == "" {
		budget.Period = model.PeriodMonthly
	}
	if err := validateBudget(budget); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (name, category, amount_limit, period) VALUES (?, ?, ?, ?)
	`, budget.Name, budget.Category, budget.Limit.StringFixed(2), string(budget.Period))
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read budget id: %w", err)
	}
	budget.ID = id
	budget.CreatedAt = s.now()

	s.notify(model.ChangeBudgets, 1)
	return nil
}

// GetBudgets returns every budget ordered by category.
func (s *SQLiteStorage) GetBudgets(ctx context.Context) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, amount_limit, period, created_at
		FROM budgets
		ORDER BY category, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		var (
			b      model.Budget
			period string
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Category, &b.Limit, &period, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		b.Period = model.BudgetPeriod(period)
		budgets = append(budgets, b)
	}

	return budgets, rows.Err()
}

// DeleteBudget removes a budget by ID.
func (s *SQLiteStorage) DeleteBudget(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM budgets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %d: %w", id, common.ErrNotFound)
	}

	s.notify(model.ChangeBudgets, 1)
	return nil
}
