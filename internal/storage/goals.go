package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/shopspring/decimal"
)

const goalColumns = `id, name, description, target_amount, current_amount, deadline, created_at`

// CreateGoal inserts a goal and fills in its ID.
func (s *SQLiteStorage) CreateGoal(ctx context.Context, goal *model.Goal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGoal(goal); err != nil {
		return err
	}

	var deadline any
	if goal.Deadline != nil {
		deadline = goal.Deadline.Format(model.DateLayout)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (name, description, target_amount, current_amount, deadline)
		VALUES (?, ?, ?, ?, ?)
	`, goal.Name, goal.Description, goal.TargetAmount.StringFixed(2), goal.CurrentAmount.StringFixed(2), deadline)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read goal id: %w", err)
	}
	goal.ID = id
	goal.CreatedAt = s.now()

	s.notify(model.ChangeGoals, 1)
	return nil
}

// GetGoals returns every goal ordered by creation.
func (s *SQLiteStorage) GetGoals(ctx context.Context) ([]model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+goalColumns+" FROM goals ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// GetGoal retrieves a goal by ID.
func (s *SQLiteStorage) GetGoal(ctx context.Context, id int64) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}
	return s.getGoalTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getGoalTx(ctx context.Context, q queryable, id int64) (*model.Goal, error) {
	g, err := scanGoal(q.QueryRowContext(ctx, "SELECT "+goalColumns+" FROM goals WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("goal %d: %w", id, common.ErrNotFound)
	}
	return g, err
}

// ContributeToGoal adds amount to the goal's current balance and records the contribution.
func (s *SQLiteStorage) ContributeToGoal(ctx context.Context, id int64, amount decimal.Decimal) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "goalId"); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: contribution", ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	goal, err := s.getGoalTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	goal.CurrentAmount = goal.CurrentAmount.Add(amount)
	if _, err := tx.ExecContext(ctx, "UPDATE goals SET current_amount = ? WHERE id = ?",
		goal.CurrentAmount.StringFixed(2), id); err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO goal_contributions (goal_id, amount) VALUES (?, ?)",
		id, amount.StringFixed(2)); err != nil {
		return nil, fmt.Errorf("failed to record contribution: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit contribution: %w", err)
	}

	s.notify(model.ChangeGoals, 1)
	return goal, nil
}

func scanGoal(row rowScanner) (*model.Goal, error) {
	var (
		g        model.Goal
		deadline sql.NullString
	)
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.TargetAmount, &g.CurrentAmount, &deadline, &g.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan goal: %w", err)
	}
	if deadline.Valid && deadline.String != "" {
		d, err := time.Parse(model.DateLayout, deadline.String)
		if err != nil {
			return nil, fmt.Errorf("%w: goal %d has invalid deadline %q", common.ErrDatabaseCorrupted, g.ID, deadline.String)
		}
		g.Deadline = &d
	}
	return &g, nil
}
