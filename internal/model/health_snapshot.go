package model

import "time"

// HealthSnapshot stores the evaluated health score for one calendar month.
type HealthSnapshot struct {
	Month                time.Time // first day of the evaluated month
	CreatedAt            time.Time
	UpdatedAt            time.Time
	AdviceGeneratedAt    *time.Time
	OverallStatus        string
	CachedAdvice         string
	SavingsRateScore     int
	FixedExpensesScore   int
	BudgetAdherenceScore int
	TrendScore           int
	OverallScore         int
}

// ChangeKind identifies which aggregate a store mutation touched.
type ChangeKind string

// Change kinds emitted by the store.
const (
	ChangeTransactions ChangeKind = "transactions"
	ChangeBudgets      ChangeKind = "budgets"
	ChangeGoals        ChangeKind = "goals"
	ChangePayslips     ChangeKind = "payslips"
)

// ChangeEvent is emitted after a committed store mutation.
type ChangeEvent struct {
	At    time.Time
	Kind  ChangeKind
	Count int
}
