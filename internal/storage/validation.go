// Package storage provides the data persistence layer for CashMind.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/cashmind/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidID          = errors.New("id must be positive")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidBudget      = errors.New("invalid budget")
	ErrInvalidGoal        = errors.New("invalid goal")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidSnapshot    = errors.New("invalid health snapshot")
	ErrInvalidPayslip     = errors.New("invalid payslip")
	ErrSchemaMismatch     = errors.New("database schema version mismatch")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidID, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.Description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	if !txn.Amount.IsPositive() {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, ErrInvalidAmount)
	}
	if !txn.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, txn.Type)
	}
	return nil
}

// validateBudget validates a budget.
func validateBudget(budget *model.Budget) error {
	if budget == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if strings.TrimSpace(budget.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidBudget)
	}
	if strings.TrimSpace(budget.Category) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidBudget)
	}
	if !budget.Limit.IsPositive() {
		return fmt.Errorf("%w: %w", ErrInvalidBudget, ErrInvalidAmount)
	}
	if !budget.Period.Valid() {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidBudget, budget.Period)
	}
	return nil
}

// validateGoal validates a goal.
func validateGoal(goal *model.Goal) error {
	if goal == nil {
		return fmt.Errorf("%w: goal", ErrNilParameter)
	}
	if strings.TrimSpace(goal.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidGoal)
	}
	if !goal.TargetAmount.IsPositive() {
		return fmt.Errorf("%w: %w", ErrInvalidGoal, ErrInvalidAmount)
	}
	if goal.CurrentAmount.IsNegative() {
		return fmt.Errorf("%w: negative current amount", ErrInvalidGoal)
	}
	return nil
}

// validateSnapshot validates a health snapshot.
func validateSnapshot(snapshot *model.HealthSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParameter)
	}
	if snapshot.Month.IsZero() {
		return fmt.Errorf("%w: missing month", ErrInvalidSnapshot)
	}
	for name, score := range map[string]int{
		"savings_rate":     snapshot.SavingsRateScore,
		"fixed_expenses":   snapshot.FixedExpensesScore,
		"budget_adherence": snapshot.BudgetAdherenceScore,
		"trend":            snapshot.TrendScore,
		"overall":          snapshot.OverallScore,
	} {
		if score < 0 || score > 100 {
			return fmt.Errorf("%w: %s score %d out of range", ErrInvalidSnapshot, name, score)
		}
	}
	return nil
}

// validatePayslip validates a payslip and its lines.
func validatePayslip(p *model.Payslip) error {
	if p == nil {
		return fmt.Errorf("%w: payslip", ErrNilParameter)
	}
	if p.Month.IsZero() {
		return fmt.Errorf("%w: missing month", ErrInvalidPayslip)
	}
	if !p.NetSalary.IsPositive() {
		return fmt.Errorf("%w: net salary: %w", ErrInvalidPayslip, ErrInvalidAmount)
	}
	if p.GrossSalary.IsNegative() {
		return fmt.Errorf("%w: negative gross salary", ErrInvalidPayslip)
	}
	for i, d := range p.Deductions {
		if strings.TrimSpace(d.Name) == "" || d.Amount.IsNegative() {
			return fmt.Errorf("%w: deduction at index %d", ErrInvalidPayslip, i)
		}
	}
	for i, b := range p.Bonuses {
		if strings.TrimSpace(b.Name) == "" || b.Amount.IsNegative() {
			return fmt.Errorf("%w: bonus at index %d", ErrInvalidPayslip, i)
		}
	}
	return nil
}
