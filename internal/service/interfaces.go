// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/cashmind/internal/model"
	"github.com/shopspring/decimal"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time // inclusive
	EndDate   *time.Time // exclusive
	Type      model.TransactionType
	Category  string
	Limit     int
	Offset    int
}

// ChangeListener receives store change notifications after commit.
type ChangeListener func(model.ChangeEvent)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error

	// Budget operations
	CreateBudget(ctx context.Context, budget *model.Budget) error
	GetBudgets(ctx context.Context) ([]model.Budget, error)
	DeleteBudget(ctx context.Context, id int64) error

	// Goal operations
	CreateGoal(ctx context.Context, goal *model.Goal) error
	GetGoals(ctx context.Context) ([]model.Goal, error)
	GetGoal(ctx context.Context, id int64) (*model.Goal, error)
	ContributeToGoal(ctx context.Context, id int64, amount decimal.Decimal) (*model.Goal, error)

	// Health snapshot operations
	UpsertHealthSnapshot(ctx context.Context, snapshot *model.HealthSnapshot) error
	GetHealthSnapshot(ctx context.Context, month time.Time) (*model.HealthSnapshot, error)
	GetHealthSnapshots(ctx context.Context, since time.Time) ([]model.HealthSnapshot, error)
	UpdateHealthAdvice(ctx context.Context, month time.Time, advice string, at time.Time) error

	// Payslip operations
	SavePayslip(ctx context.Context, payslip *model.Payslip, salary *model.Transaction) error
	GetPayslips(ctx context.Context) ([]model.Payslip, error)
	GetPayslip(ctx context.Context, id int64) (*model.Payslip, error)
	DeletePayslip(ctx context.Context, id int64) error

	// Change notifications
	OnChange(listener ChangeListener)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// DateRange represents a time period with start and end dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// MonthRange returns the calendar month containing t, end exclusive. The
// bounds are UTC midnights, matching how transaction dates are stored; the
// month is taken from t's own calendar date.
func MonthRange(t time.Time) DateRange {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: start, End: start.AddDate(0, 1, 0)}
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
