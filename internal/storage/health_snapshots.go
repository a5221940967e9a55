package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
)

const snapshotColumns = `month, savings_rate_score, fixed_expenses_score, budget_adherence_score,
	trend_score, overall_score, overall_status, cached_advice, advice_generated_at, created_at, updated_at`

// UpsertHealthSnapshot stores the scores for snapshot.Month, replacing earlier scores for that month.
// Cached advice is preserved unless the new snapshot carries its own.
func (s *SQLiteStorage) UpsertHealthSnapshot(ctx context.Context, snapshot *model.HealthSnapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO health_snapshots (
			month, savings_rate_score, fixed_expenses_score, budget_adherence_score,
			trend_score, overall_score, overall_status, cached_advice, advice_generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(month) DO UPDATE SET
			savings_rate_score = excluded.savings_rate_score,
			fixed_expenses_score = excluded.fixed_expenses_score,
			budget_adherence_score = excluded.budget_adherence_score,
			trend_score = excluded.trend_score,
			overall_score = excluded.overall_score,
			overall_status = excluded.overall_status,
			cached_advice = CASE WHEN excluded.cached_advice != '' THEN excluded.cached_advice ELSE health_snapshots.cached_advice END,
			advice_generated_at = COALESCE(excluded.advice_generated_at, health_snapshots.advice_generated_at)
	`,
		monthKey(snapshot.Month),
		snapshot.SavingsRateScore,
		snapshot.FixedExpensesScore,
		snapshot.BudgetAdherenceScore,
		snapshot.TrendScore,
		snapshot.OverallScore,
		snapshot.OverallStatus,
		snapshot.CachedAdvice,
		snapshot.AdviceGeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert health snapshot: %w", err)
	}
	return nil
}

// GetHealthSnapshot returns the snapshot for the month containing month.
func (s *SQLiteStorage) GetHealthSnapshot(ctx context.Context, month time.Time) (*model.HealthSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+snapshotColumns+" FROM health_snapshots WHERE month = ?", monthKey(month))
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("health snapshot %s: %w", monthKey(month), common.ErrNotFound)
	}
	return snap, err
}

// GetHealthSnapshots returns snapshots from the month of since onwards, oldest first.
func (s *SQLiteStorage) GetHealthSnapshots(ctx context.Context, since time.Time) ([]model.HealthSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+snapshotColumns+" FROM health_snapshots WHERE month >= ? ORDER BY month", monthKey(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query health snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []model.HealthSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots, rows.Err()
}

// UpdateHealthAdvice caches generated advice on an existing snapshot.
func (s *SQLiteStorage) UpdateHealthAdvice(ctx context.Context, month time.Time, advice string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(advice, "advice"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE health_snapshots SET cached_advice = ?, advice_generated_at = ? WHERE month = ?",
		advice, at, monthKey(month))
	if err != nil {
		return fmt.Errorf("failed to update health advice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("health snapshot %s: %w", monthKey(month), common.ErrNotFound)
	}
	return nil
}

func scanSnapshot(row rowScanner) (*model.HealthSnapshot, error) {
	var (
		snap      model.HealthSnapshot
		month     string
		generated sql.NullTime
	)
	err := row.Scan(
		&month,
		&snap.SavingsRateScore,
		&snap.FixedExpensesScore,
		&snap.BudgetAdherenceScore,
		&snap.TrendScore,
		&snap.OverallScore,
		&snap.OverallStatus,
		&snap.CachedAdvice,
		&generated,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan health snapshot: %w", err)
	}

	m, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid snapshot month %q", common.ErrDatabaseCorrupted, month)
	}
	snap.Month = m
	if generated.Valid {
		t := generated.Time
		snap.AdviceGeneratedAt = &t
	}
	return &snap, nil
}
