package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod is the recurrence of a budget limit.
type BudgetPeriod string

// Budget periods.
const (
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
)

// Valid reports whether p is a known period.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Budget caps spending for one expense category over a period.
type Budget struct {
	CreatedAt time.Time
	Limit     decimal.Decimal
	Name      string
	Category  string
	Period    BudgetPeriod
	ID        int64
}

var (
	weeksPerMonth = decimal.NewFromInt(52).Div(decimal.NewFromInt(12))
	monthsPerYear = decimal.NewFromInt(12)
)

// MonthlyLimit normalises the limit to a one-month window.
func (b *Budget) MonthlyLimit() decimal.Decimal {
	switch b.Period {
	case PeriodWeekly:
		return b.Limit.Mul(weeksPerMonth)
	case PeriodYearly:
		return b.Limit.Div(monthsPerYear)
	default:
		return b.Limit
	}
}
