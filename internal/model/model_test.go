package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionData_ToTransaction(t *testing.T) {
	data := TransactionData{
		Amount:      1234.567,
		Description: "Supermercado",
		Date:        "2024-03-05",
		Type:        TypeExpense,
		Category:    "food",
	}

	txn, err := data.ToTransaction(SourceChat)
	require.NoError(t, err)
	assert.Equal(t, "1234.57", txn.Amount.StringFixed(2))
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), txn.Date)
	assert.Equal(t, SourceChat, txn.Source)
	assert.Empty(t, txn.Hash, "storage assigns the hash")
	assert.False(t, txn.IsImported())
	assert.True(t, txn.IsExpense())

	data.Date = "05/03/2024"
	_, err = data.ToTransaction(SourceChat)
	assert.Error(t, err)
}

func TestTransaction_GenerateHash(t *testing.T) {
	base := Transaction{
		Date:        time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("25.5"),
		Description: "Café",
		Type:        TypeExpense,
	}
	same := base
	same.Amount = decimal.RequireFromString("25.50")
	same.Notes = "notes are not part of the identity"
	assert.Equal(t, base.GenerateHash(), same.GenerateHash())

	income := base
	income.Type = TypeIncome
	assert.NotEqual(t, base.GenerateHash(), income.GenerateHash())

	external := base
	external.ExternalID = "FIT1"
	assert.NotEqual(t, base.GenerateHash(), external.GenerateHash())
}

func TestTransaction_IsImported(t *testing.T) {
	assert.True(t, (&Transaction{Source: SourceOFX}).IsImported())
	assert.True(t, (&Transaction{Source: SourcePlaid}).IsImported())
	assert.True(t, (&Transaction{Source: SourceManual, ExternalID: "FIT1"}).IsImported())
	assert.False(t, (&Transaction{Source: SourceChat}).IsImported())
	assert.False(t, (&Transaction{Source: SourceManual}).IsImported())
}

func TestBudget_MonthlyLimit(t *testing.T) {
	tests := []struct {
		period BudgetPeriod
		limit  string
		want   string
	}{
		{PeriodMonthly, "1200", "1200.00"},
		{PeriodYearly, "1200", "100.00"},
		{PeriodWeekly, "1200", "5200.00"},
		{"", "300", "300.00"},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			b := Budget{Period: tt.period, Limit: decimal.RequireFromString(tt.limit)}
			assert.Equal(t, tt.want, b.MonthlyLimit().StringFixed(2))
		})
	}
}

func TestGoal_ProgressAndRemaining(t *testing.T) {
	g := Goal{TargetAmount: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(250)}
	assert.Equal(t, "25", g.Progress().String())
	assert.Equal(t, "750", g.Remaining().String())

	g.CurrentAmount = decimal.NewFromInt(1500)
	assert.Equal(t, "100", g.Progress().String())
	assert.True(t, g.Remaining().IsZero())

	empty := Goal{}
	assert.True(t, empty.Progress().IsZero())
}

func TestGoalData_ToGoal(t *testing.T) {
	g := GoalData{Name: "Viaje", TargetAmount: 500000, Deadline: "2025-07-01"}.ToGoal()
	require.NotNil(t, g.Deadline)
	assert.Equal(t, time.July, g.Deadline.Month())
	assert.True(t, g.CurrentAmount.IsZero())

	g = GoalData{Name: "Viaje", TargetAmount: 1, Deadline: "pronto"}.ToGoal()
	assert.Nil(t, g.Deadline)
}

func TestPendingAction_MarshalJSON(t *testing.T) {
	action := NewPendingAction(BudgetData{Name: "Comida", Category: "food", Limit: 80000, Period: PeriodMonthly})
	assert.Equal(t, ActionCreateBudget, action.Kind)

	raw, err := json.Marshal(action)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"create_budget","data":{"name":"Comida","category":"food","limit":80000,"period":"monthly"}}`, string(raw))
}

func TestCategories(t *testing.T) {
	assert.True(t, IsValidCategory(TypeExpense, "food"))
	assert.False(t, IsValidCategory(TypeIncome, "food"))
	assert.True(t, IsValidCategory(TypeIncome, CategoryOther))
	assert.Equal(t, "Salario", CategoryLabel(TypeIncome, "salary"))
	assert.Equal(t, "unknown", CategoryLabel(TypeExpense, "unknown"))
	assert.Equal(t, "ingreso", TypeIncome.Label())
	assert.False(t, TransactionType("transfer").Valid())
}

func TestParseMonthName(t *testing.T) {
	tests := []struct {
		in   string
		want time.Month
		ok   bool
	}{
		{"enero", time.January, true},
		{" Junio ", time.June, true},
		{"SEPTIEMBRE", time.September, true},
		{"setiembre", time.September, true},
		{"12", time.December, true},
		{"07", time.July, true},
		{"13", 0, false},
		{"june", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMonthName(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "Diciembre", MonthName(time.December))
	assert.Empty(t, MonthName(0))
}

func TestPayslip_SalaryTransaction(t *testing.T) {
	p := Payslip{
		Month:       PayslipMonth(2024, time.March),
		NetSalary:   decimal.RequireFromString("830000.50"),
		GrossSalary: decimal.NewFromInt(1_000_000),
		Deductions: []Deduction{
			{Name: "Jubilación", Amount: decimal.NewFromInt(110_000)},
			{Name: "Obra social", Amount: decimal.NewFromInt(30_000)},
		},
		Bonuses: []Bonus{{Name: "Presentismo", Amount: decimal.NewFromInt(80_000)}},
	}

	txn := p.SalaryTransaction()
	assert.Equal(t, "Sueldo Marzo 2024", txn.Description)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), txn.Date)
	assert.True(t, txn.Amount.Equal(p.NetSalary))
	assert.Equal(t, TypeIncome, txn.Type)
	assert.Equal(t, "salary", txn.Category)
	assert.Equal(t, SourcePayslip, txn.Source)
	assert.Equal(t, "Generado desde recibo - Sin empleador", txn.Notes)
	assert.False(t, txn.IsImported())
	assert.True(t, IsValidCategory(TypeIncome, txn.Category))

	assert.Equal(t, "140000", p.TotalDeductions().String())
	assert.Equal(t, "80000", p.TotalBonuses().String())

	p.Employer = "Acme SA"
	assert.Equal(t, "Generado desde recibo - Acme SA", p.SalaryTransaction().Notes)
}
