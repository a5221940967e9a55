package health

import (
	"testing"
	"time"

	"github.com/Veraticus/cashmind/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var june = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func txn(date string, amount float64, typ model.TransactionType, category string) model.Transaction {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return model.Transaction{Date: d, Amount: decimal.NewFromFloat(amount), Type: typ, Category: category, Description: category}
}

func healthyJune() []model.Transaction {
	return []model.Transaction{
		txn("2024-06-01", 1000, model.TypeIncome, "salary"),
		txn("2024-06-02", 300, model.TypeExpense, "housing"),
		txn("2024-06-03", 100, model.TypeExpense, "food"),
		txn("2024-06-10", 100, model.TypeExpense, "food"),
		txn("2024-06-20", 100, model.TypeExpense, "food"),
		txn("2024-06-30", 100, model.TypeExpense, "food"),
	}
}

func TestEvaluate_NoHistoryNeedsOnboarding(t *testing.T) {
	res := Evaluate(Input{Month: june}, DefaultConfig())

	assert.True(t, res.NeedsOnboarding)
	assert.Nil(t, res.Breakdown)
	assert.Zero(t, res.OverallScore)
	assert.Empty(t, res.OverallStatus)
	require.NotNil(t, res.Onboarding)
	assert.Equal(t, OnboardingStatus{
		IncomeCount: 0, ExpenseCount: 0, BudgetCount: 0,
		IncomeRequired: 1, ExpenseRequired: 5, BudgetRequired: 0,
	}, *res.Onboarding)
}

func TestEvaluate_OnboardingCountsUpToMonthEnd(t *testing.T) {
	txns := []model.Transaction{
		txn("2024-05-01", 1000, model.TypeIncome, "salary"),
		txn("2024-05-02", 10, model.TypeExpense, "food"),
		txn("2024-06-02", 10, model.TypeExpense, "food"),
		txn("2024-06-30", 10, model.TypeExpense, "food"),
		txn("2024-07-01", 10, model.TypeExpense, "food"),
		txn("2024-07-02", 10, model.TypeExpense, "food"),
	}
	res := Evaluate(Input{Month: june, Transactions: txns}, DefaultConfig())

	require.True(t, res.NeedsOnboarding)
	assert.Equal(t, 1, res.Onboarding.IncomeCount)
	assert.Equal(t, 3, res.Onboarding.ExpenseCount)
}

func TestEvaluate_BudgetRequirement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Requirements.Budgets = 3
	budgets := []model.Budget{{Category: "food", Limit: decimal.NewFromInt(500), Period: model.PeriodMonthly}}

	res := Evaluate(Input{Month: june, Transactions: healthyJune(), Budgets: budgets}, cfg)

	require.True(t, res.NeedsOnboarding)
	assert.Equal(t, 1, res.Onboarding.BudgetCount)
	assert.Equal(t, 3, res.Onboarding.BudgetRequired)
}

func TestEvaluate_HealthyMonth(t *testing.T) {
	budgets := []model.Budget{{Category: "food", Limit: decimal.NewFromInt(500), Period: model.PeriodMonthly}}

	res := Evaluate(Input{Month: june, Transactions: healthyJune(), Budgets: budgets}, DefaultConfig())

	require.False(t, res.NeedsOnboarding)
	assert.Nil(t, res.Onboarding)
	require.NotNil(t, res.Breakdown)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), res.Month)

	b := res.Breakdown
	assert.True(t, b.SavingsRate.Value.Equal(decimal.NewFromInt(30)), b.SavingsRate.Value.String())
	assert.Equal(t, 100, b.SavingsRate.Score)
	assert.True(t, b.FixedExpenses.Value.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 100, b.FixedExpenses.Score)
	assert.Equal(t, 100, b.BudgetAdherence.Score)
	assert.True(t, b.Trend.Value.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 100, b.Trend.Score)
	assert.Equal(t, 100, res.OverallScore)
	assert.Equal(t, StatusGreen, res.OverallStatus)
}

func TestEvaluate_MonthInNonUTCZone(t *testing.T) {
	art := time.FixedZone("ART", -3*60*60)
	budgets := []model.Budget{{Category: "food", Limit: decimal.NewFromInt(500), Period: model.PeriodMonthly}}

	res := Evaluate(Input{
		Month:        time.Date(2024, 6, 15, 12, 0, 0, 0, art),
		Transactions: healthyJune(),
		Budgets:      budgets,
	}, DefaultConfig())

	require.False(t, res.NeedsOnboarding)
	require.NotNil(t, res.Breakdown)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), res.Month)
	assert.True(t, res.Breakdown.SavingsRate.Value.Equal(decimal.NewFromInt(30)), res.Breakdown.SavingsRate.Value.String())
	assert.Equal(t, StatusGreen, res.Breakdown.SavingsRate.Status)
	assert.Equal(t, StatusGreen, res.OverallStatus)
}

func TestEvaluate_LateEveningWestOfUTCStaysInMonth(t *testing.T) {
	// 2024-06-30 22:00 ART is already July in UTC.
	art := time.FixedZone("ART", -3*60*60)

	res := Evaluate(Input{
		Month:        time.Date(2024, 6, 30, 22, 0, 0, 0, art),
		Transactions: healthyJune(),
	}, DefaultConfig())

	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), res.Month)
	require.NotNil(t, res.Breakdown)
	assert.True(t, res.Breakdown.SavingsRate.Value.Equal(decimal.NewFromInt(30)))
}

func TestEvaluate_WeightedAggregate(t *testing.T) {
	// savings 10% -> 50, fixed 50% -> 66, budgets 1/2 -> 50, trend -8% -> 59
	txns := []model.Transaction{
		txn("2024-05-01", 1000, model.TypeIncome, "salary"),
		txn("2024-05-02", 891.3, model.TypeExpense, "food"),
		txn("2024-06-01", 1000, model.TypeIncome, "salary"),
		txn("2024-06-02", 500, model.TypeExpense, "housing"),
		txn("2024-06-03", 100, model.TypeExpense, "food"),
		txn("2024-06-04", 100, model.TypeExpense, "food"),
		txn("2024-06-05", 100, model.TypeExpense, "food"),
		txn("2024-06-06", 100, model.TypeExpense, "entertainment"),
	}
	budgets := []model.Budget{
		{Category: "food", Limit: decimal.NewFromInt(100), Period: model.PeriodMonthly},
		{Category: "entertainment", Limit: decimal.NewFromInt(150), Period: model.PeriodMonthly},
	}

	res := Evaluate(Input{Month: june, Transactions: txns, Budgets: budgets}, DefaultConfig())
	require.NotNil(t, res.Breakdown)

	b := res.Breakdown
	assert.Equal(t, 50, b.SavingsRate.Score)
	assert.Equal(t, StatusYellow, b.SavingsRate.Status)
	assert.Equal(t, 66, b.FixedExpenses.Score)
	assert.Equal(t, 50, b.BudgetAdherence.Score)
	assert.Equal(t, 59, b.Trend.Score)
	assert.Equal(t, StatusYellow, b.Trend.Status)

	want := (b.SavingsRate.Score*30 + b.FixedExpenses.Score*25 + b.BudgetAdherence.Score*25 + b.Trend.Score*20) / 100
	assert.Equal(t, want, res.OverallScore)
	assert.Equal(t, StatusFor(want), res.OverallStatus)
}

func TestEvaluate_Weights(t *testing.T) {
	budgets := []model.Budget{{Category: "food", Limit: decimal.NewFromInt(1), Period: model.PeriodMonthly}}
	in := Input{Month: june, Transactions: healthyJune(), Budgets: budgets}

	trendOnly := DefaultConfig()
	trendOnly.Weights = Weights{Trend: 100}
	assert.Equal(t, 100, Evaluate(in, trendOnly).OverallScore)

	budgetOnly := DefaultConfig()
	budgetOnly.Weights = Weights{BudgetAdherence: 100}
	assert.Equal(t, 0, Evaluate(in, budgetOnly).OverallScore)

	invalid := DefaultConfig()
	invalid.Weights = Weights{SavingsRate: 50, Trend: 40}
	// defaults: 100*30 + 100*25 + 0*25 + 100*20
	assert.Equal(t, 75, Evaluate(in, invalid).OverallScore)
}

func TestWeights_Valid(t *testing.T) {
	assert.True(t, DefaultWeights().Valid())
	assert.True(t, Weights{Trend: 100}.Valid())
	assert.False(t, Weights{SavingsRate: 110, Trend: -10}.Valid())
	assert.False(t, Weights{}.Valid())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		want  Status
		score int
	}{
		{score: 100, want: StatusGreen},
		{score: 70, want: StatusGreen},
		{score: 69, want: StatusYellow},
		{score: 40, want: StatusYellow},
		{score: 39, want: StatusRed},
		{score: 0, want: StatusRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.score), "score %d", tt.score)
	}
}

func TestSavingsRate(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expenses int64
		score    int
	}{
		{name: "twenty percent", expenses: 80, score: 100, status: StatusGreen},
		{name: "fifteen percent", expenses: 85, score: 75, status: StatusYellow},
		{name: "ten percent", expenses: 90, score: 50, status: StatusYellow},
		{name: "five percent", expenses: 95, score: 25, status: StatusRed},
		{name: "overspent", expenses: 120, score: 0, status: StatusRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := savingsRate(totals{income: decimal.NewFromInt(100), expenses: decimal.NewFromInt(tt.expenses)})
			assert.Equal(t, tt.score, m.Score)
			assert.Equal(t, tt.status, m.Status)
		})
	}

	noIncome := savingsRate(totals{expenses: decimal.NewFromInt(50)})
	assert.Equal(t, Metric{Value: decimal.Zero, Score: 0, Status: StatusRed}, noIncome)
}

func TestFixedExpenses(t *testing.T) {
	fixed := DefaultConfig().FixedCategories
	tests := []struct {
		name   string
		status Status
		spend  float64
		score  int
	}{
		{name: "at forty", spend: 40, score: 100, status: StatusGreen},
		{name: "mid yellow", spend: 47.5, score: 75, status: StatusYellow},
		{name: "at fifty five", spend: 55, score: 50, status: StatusYellow},
		{name: "sixty", spend: 60, score: 40, status: StatusRed},
		{name: "everything", spend: 100, score: 0, status: StatusRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := fixedExpenses(totals{
				income:     decimal.NewFromInt(100),
				byCategory: map[string]decimal.Decimal{"housing": decimal.NewFromFloat(tt.spend), "food": decimal.NewFromInt(1000)},
			}, fixed)
			assert.Equal(t, tt.score, m.Score)
			assert.Equal(t, tt.status, m.Status)
		})
	}
}

func TestBudgetAdherence(t *testing.T) {
	spend := totals{byCategory: map[string]decimal.Decimal{
		"food":          decimal.NewFromInt(400),
		"entertainment": decimal.NewFromInt(200),
		"shopping":      decimal.NewFromInt(50),
	}}
	monthly := func(category string, limit int64) model.Budget {
		return model.Budget{Category: category, Limit: decimal.NewFromInt(limit), Period: model.PeriodMonthly}
	}

	tests := []struct {
		name    string
		status  Status
		budgets []model.Budget
		score   int
	}{
		{name: "no budgets", budgets: nil, score: 0, status: StatusRed},
		{name: "all within", budgets: []model.Budget{monthly("food", 400), monthly("shopping", 100)}, score: 100, status: StatusGreen},
		{name: "three of four", budgets: []model.Budget{
			monthly("food", 500), monthly("shopping", 100), monthly("health", 10), monthly("entertainment", 100),
		}, score: 91, status: StatusYellow},
		{name: "half", budgets: []model.Budget{monthly("food", 500), monthly("entertainment", 100)}, score: 50, status: StatusYellow},
		{name: "one of three", budgets: []model.Budget{
			monthly("food", 399), monthly("entertainment", 100), monthly("shopping", 60),
		}, score: 33, status: StatusRed},
		{name: "weekly limit normalised", budgets: []model.Budget{
			{Category: "food", Limit: decimal.NewFromInt(100), Period: model.PeriodWeekly},
		}, score: 100, status: StatusGreen},
		{name: "yearly limit normalised", budgets: []model.Budget{
			{Category: "food", Limit: decimal.NewFromInt(1200), Period: model.PeriodYearly},
		}, score: 0, status: StatusRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := budgetAdherence(spend, tt.budgets)
			assert.Equal(t, tt.score, m.Score)
			assert.Equal(t, tt.status, m.Status)
		})
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		previous int64
		current  int64
		score    int
	}{
		{name: "improved", previous: 100, current: 110, score: 100, status: StatusGreen},
		{name: "stable", previous: 100, current: 97, score: 75, status: StatusGreen},
		{name: "slightly worse", previous: 100, current: 92, score: 60, status: StatusYellow},
		{name: "worse", previous: 100, current: 80, score: 10, status: StatusRed},
		{name: "much worse", previous: 100, current: 50, score: 0, status: StatusRed},
		{name: "smaller deficit", previous: -100, current: -50, score: 100, status: StatusGreen},
		{name: "bigger deficit", previous: -100, current: -200, score: 0, status: StatusRed},
		{name: "both zero", previous: 0, current: 0, score: 75, status: StatusGreen},
		{name: "from zero to savings", previous: 0, current: 10, score: 100, status: StatusGreen},
		{name: "from zero to deficit", previous: 0, current: -10, score: 0, status: StatusRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := trend(decimal.NewFromInt(tt.current), decimal.NewFromInt(tt.previous))
			assert.Equal(t, tt.score, m.Score)
			assert.Equal(t, tt.status, m.Status)
		})
	}
}

func TestResult_Snapshot(t *testing.T) {
	res := Result{
		Month: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Breakdown: &Breakdown{
			SavingsRate:     Metric{Score: 10},
			FixedExpenses:   Metric{Score: 20},
			BudgetAdherence: Metric{Score: 30},
			Trend:           Metric{Score: 40},
		},
		OverallScore:  23,
		OverallStatus: StatusRed,
	}
	assert.Equal(t, model.HealthSnapshot{
		Month:                res.Month,
		SavingsRateScore:     10,
		FixedExpensesScore:   20,
		BudgetAdherenceScore: 30,
		TrendScore:           40,
		OverallScore:         23,
		OverallStatus:        "red",
	}, res.Snapshot())
}
