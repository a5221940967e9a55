package sheets

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/service"
)

// ReportInput is everything an export reads from storage.
type ReportInput struct {
	Period       service.DateRange // end exclusive
	Transactions []model.Transaction
	Budgets      []model.Budget
	Goals        []model.Goal
	Health       []model.HealthSnapshot
}

// CategorySummaryRow totals one category of one transaction type.
type CategorySummaryRow struct {
	Total    decimal.Decimal
	Share    decimal.Decimal // percentage of the type's total
	Type     model.TransactionType
	Category string
	Count    int
}

// MonthlyFlowRow is one calendar month of the period.
type MonthlyFlowRow struct {
	Month          time.Time
	Income         decimal.Decimal
	Expenses       decimal.Decimal
	Net            decimal.Decimal
	RunningBalance decimal.Decimal
}

// BudgetRow compares a budget against spending in the period's last month.
type BudgetRow struct {
	Budget       model.Budget
	MonthlyLimit decimal.Decimal
	Spent        decimal.Decimal
	Remaining    decimal.Decimal
}

// Report is the computed content of an export.
type Report struct {
	Period          service.DateRange
	TotalIncome     decimal.Decimal
	TotalExpenses   decimal.Decimal
	Transactions    []model.Transaction
	CategorySummary []CategorySummaryRow
	MonthlyFlow     []MonthlyFlowRow
	Budgets         []BudgetRow
	Goals           []model.Goal
	Health          []model.HealthSnapshot
}

// Net is income minus expenses over the period.
func (r *Report) Net() decimal.Decimal {
	return r.TotalIncome.Sub(r.TotalExpenses)
}

// BuildReport aggregates the input. Transactions outside the period are ignored.
func BuildReport(in ReportInput) *Report {
	r := &Report{
		Period:  in.Period,
		Goals:   in.Goals,
		Health:  in.Health,
		Budgets: make([]BudgetRow, 0, len(in.Budgets)),
	}

	for _, t := range in.Transactions {
		if t.Date.Before(in.Period.Start) || !t.Date.Before(in.Period.End) {
			continue
		}
		r.Transactions = append(r.Transactions, t)
		if t.IsIncome() {
			r.TotalIncome = r.TotalIncome.Add(t.Amount)
		} else {
			r.TotalExpenses = r.TotalExpenses.Add(t.Amount)
		}
	}
	sort.SliceStable(r.Transactions, func(i, j int) bool {
		return r.Transactions[i].Date.After(r.Transactions[j].Date)
	})

	r.CategorySummary = categorySummary(r.Transactions, r.TotalIncome, r.TotalExpenses)
	r.MonthlyFlow = monthlyFlow(r.Transactions, in.Period)

	lastMonth := service.MonthRange(in.Period.End.AddDate(0, 0, -1))
	spent := make(map[string]decimal.Decimal)
	for _, t := range r.Transactions {
		if t.IsExpense() && !t.Date.Before(lastMonth.Start) && t.Date.Before(lastMonth.End) {
			spent[t.Category] = spent[t.Category].Add(t.Amount)
		}
	}
	for _, b := range in.Budgets {
		limit := b.MonthlyLimit().Round(2)
		r.Budgets = append(r.Budgets, BudgetRow{
			Budget:       b,
			MonthlyLimit: limit,
			Spent:        spent[b.Category],
			Remaining:    limit.Sub(spent[b.Category]),
		})
	}

	return r
}

func categorySummary(txns []model.Transaction, income, expenses decimal.Decimal) []CategorySummaryRow {
	type key struct {
		t model.TransactionType
		c string
	}
	index := make(map[key]int)
	var rows []CategorySummaryRow

	for _, t := range txns {
		k := key{t.Type, t.Category}
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, CategorySummaryRow{Type: t.Type, Category: t.Category})
		}
		rows[i].Count++
		rows[i].Total = rows[i].Total.Add(t.Amount)
	}

	hundred := decimal.NewFromInt(100)
	for i := range rows {
		total := expenses
		if rows[i].Type == model.TypeIncome {
			total = income
		}
		if total.IsPositive() {
			rows[i].Share = rows[i].Total.Div(total).Mul(hundred).Round(1)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Type != rows[j].Type {
			return rows[i].Type == model.TypeIncome
		}
		return rows[i].Total.GreaterThan(rows[j].Total)
	})
	return rows
}

func monthlyFlow(txns []model.Transaction, period service.DateRange) []MonthlyFlowRow {
	var rows []MonthlyFlowRow
	index := make(map[time.Time]int)
	for m := service.MonthRange(period.Start).Start; m.Before(period.End); m = m.AddDate(0, 1, 0) {
		index[m] = len(rows)
		rows = append(rows, MonthlyFlowRow{Month: m})
	}

	for _, t := range txns {
		i, ok := index[service.MonthRange(t.Date).Start]
		if !ok {
			continue
		}
		if t.IsIncome() {
			rows[i].Income = rows[i].Income.Add(t.Amount)
		} else {
			rows[i].Expenses = rows[i].Expenses.Add(t.Amount)
		}
	}

	balance := decimal.Zero
	for i := range rows {
		rows[i].Net = rows[i].Income.Sub(rows[i].Expenses)
		balance = balance.Add(rows[i].Net)
		rows[i].RunningBalance = balance
	}
	return rows
}
