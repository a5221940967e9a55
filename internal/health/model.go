// Package health scores a user's monthly finances and keeps a per-month history.
package health

import (
	"time"

	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/service"
	"github.com/shopspring/decimal"
)

// Status is the traffic-light band of a score.
type Status string

// Score bands.
const (
	StatusGreen  Status = "green"
	StatusYellow Status = "yellow"
	StatusRed    Status = "red"
)

// StatusFor maps an aggregate 0-100 score to its band.
func StatusFor(score int) Status {
	switch {
	case score >= 70:
		return StatusGreen
	case score >= 40:
		return StatusYellow
	default:
		return StatusRed
	}
}

// Metric is one scored indicator. Value is a percentage.
type Metric struct {
	Value  decimal.Decimal `json:"value"`
	Status Status          `json:"status"`
	Score  int             `json:"score"`
}

// Breakdown holds the four sub-scores.
type Breakdown struct {
	SavingsRate     Metric `json:"savingsRate"`
	FixedExpenses   Metric `json:"fixedExpenses"`
	BudgetAdherence Metric `json:"budgetAdherence"`
	Trend           Metric `json:"trend"`
}

// OnboardingStatus reports how much history exists against what scoring needs.
type OnboardingStatus struct {
	IncomeCount     int `json:"incomeCount"`
	ExpenseCount    int `json:"expenseCount"`
	BudgetCount     int `json:"budgetCount"`
	IncomeRequired  int `json:"incomeRequired"`
	ExpenseRequired int `json:"expenseRequired"`
	BudgetRequired  int `json:"budgetRequired"`
}

// Weights are the percentage contributions of each sub-score to the aggregate.
type Weights struct {
	SavingsRate     int `mapstructure:"savings_rate"`
	FixedExpenses   int `mapstructure:"fixed_expenses"`
	BudgetAdherence int `mapstructure:"budget_adherence"`
	Trend           int `mapstructure:"trend"`
}

// DefaultWeights returns the 30/25/25/20 split.
func DefaultWeights() Weights {
	return Weights{SavingsRate: 30, FixedExpenses: 25, BudgetAdherence: 25, Trend: 20}
}

// Valid reports whether every weight is non-negative and they sum to 100.
func (w Weights) Valid() bool {
	if w.SavingsRate < 0 || w.FixedExpenses < 0 || w.BudgetAdherence < 0 || w.Trend < 0 {
		return false
	}
	return w.SavingsRate+w.FixedExpenses+w.BudgetAdherence+w.Trend == 100
}

// Requirements are the minimum history counts before scores are produced.
type Requirements struct {
	Income   int `mapstructure:"income"`
	Expenses int `mapstructure:"expenses"`
	Budgets  int `mapstructure:"budgets"`
}

// Config tunes the scoring model.
type Config struct {
	FixedCategories []string     `mapstructure:"fixed_categories"`
	Weights         Weights      `mapstructure:"weights"`
	Requirements    Requirements `mapstructure:"requirements"`
}

// DefaultConfig returns the stock model settings.
func DefaultConfig() Config {
	return Config{
		Weights:         DefaultWeights(),
		Requirements:    Requirements{Income: 1, Expenses: 5, Budgets: 0},
		FixedCategories: []string{"housing", "utilities", "transportation"},
	}
}

func (c Config) normalized() Config {
	if !c.Weights.Valid() {
		c.Weights = DefaultWeights()
	}
	if c.Requirements.Income < 0 {
		c.Requirements.Income = 0
	}
	if c.Requirements.Expenses < 0 {
		c.Requirements.Expenses = 0
	}
	if c.Requirements.Budgets < 0 {
		c.Requirements.Budgets = 0
	}
	if len(c.FixedCategories) == 0 {
		c.FixedCategories = DefaultConfig().FixedCategories
	}
	return c
}

// Input is the data snapshot one evaluation runs over.
// Transactions may span any history; only those dated before the end of Month count.
type Input struct {
	Month        time.Time
	Transactions []model.Transaction
	Budgets      []model.Budget
}

// Result is the outcome of one evaluation. Breakdown is nil while onboarding is needed.
type Result struct {
	Month           time.Time         `json:"month"`
	Breakdown       *Breakdown        `json:"breakdown,omitempty"`
	Onboarding      *OnboardingStatus `json:"onboarding,omitempty"`
	OverallStatus   Status            `json:"overallStatus,omitempty"`
	OverallScore    int               `json:"overallScore"`
	NeedsOnboarding bool              `json:"needsOnboarding"`
}

// Snapshot converts a scored result into its stored form.
func (r Result) Snapshot() model.HealthSnapshot {
	snap := model.HealthSnapshot{
		Month:         r.Month,
		OverallScore:  r.OverallScore,
		OverallStatus: string(r.OverallStatus),
	}
	if r.Breakdown != nil {
		snap.SavingsRateScore = r.Breakdown.SavingsRate.Score
		snap.FixedExpensesScore = r.Breakdown.FixedExpenses.Score
		snap.BudgetAdherenceScore = r.Breakdown.BudgetAdherence.Score
		snap.TrendScore = r.Breakdown.Trend.Score
	}
	return snap
}

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// totals are the per-month aggregates the metrics read.
type totals struct {
	byCategory map[string]decimal.Decimal
	income     decimal.Decimal
	expenses   decimal.Decimal
}

func (t totals) net() decimal.Decimal {
	return t.income.Sub(t.expenses)
}

func monthTotals(txns []model.Transaction, r service.DateRange) totals {
	t := totals{byCategory: make(map[string]decimal.Decimal)}
	for i := range txns {
		txn := &txns[i]
		if txn.Date.Before(r.Start) || !txn.Date.Before(r.End) {
			continue
		}
		switch txn.Type {
		case model.TypeIncome:
			t.income = t.income.Add(txn.Amount)
		case model.TypeExpense:
			t.expenses = t.expenses.Add(txn.Amount)
			t.byCategory[txn.Category] = t.byCategory[txn.Category].Add(txn.Amount)
		}
	}
	return t
}

// Evaluate scores the month containing in.Month. It never fails: missing
// history yields the onboarding variant instead of scores.
func Evaluate(in Input, cfg Config) Result {
	cfg = cfg.normalized()
	current := service.MonthRange(in.Month)
	previous := service.MonthRange(current.Start.AddDate(0, -1, 0))

	res := Result{Month: current.Start}

	onboarding := onboardingStatus(in, current.End, cfg.Requirements)
	if onboarding.IncomeCount < onboarding.IncomeRequired ||
		onboarding.ExpenseCount < onboarding.ExpenseRequired ||
		onboarding.BudgetCount < onboarding.BudgetRequired {
		res.NeedsOnboarding = true
		res.Onboarding = &onboarding
		return res
	}

	cur := monthTotals(in.Transactions, current)
	prev := monthTotals(in.Transactions, previous)

	b := &Breakdown{
		SavingsRate:     savingsRate(cur),
		FixedExpenses:   fixedExpenses(cur, cfg.FixedCategories),
		BudgetAdherence: budgetAdherence(cur, in.Budgets),
		Trend:           trend(cur.net(), prev.net()),
	}

	w := cfg.Weights
	res.Breakdown = b
	res.OverallScore = (b.SavingsRate.Score*w.SavingsRate +
		b.FixedExpenses.Score*w.FixedExpenses +
		b.BudgetAdherence.Score*w.BudgetAdherence +
		b.Trend.Score*w.Trend) / 100
	res.OverallStatus = StatusFor(res.OverallScore)
	return res
}

func onboardingStatus(in Input, end time.Time, req Requirements) OnboardingStatus {
	s := OnboardingStatus{
		BudgetCount:     len(in.Budgets),
		IncomeRequired:  req.Income,
		ExpenseRequired: req.Expenses,
		BudgetRequired:  req.Budgets,
	}
	for i := range in.Transactions {
		if !in.Transactions[i].Date.Before(end) {
			continue
		}
		switch in.Transactions[i].Type {
		case model.TypeIncome:
			s.IncomeCount++
		case model.TypeExpense:
			s.ExpenseCount++
		}
	}
	return s
}

// score truncates toward zero and clamps into [0, 100].
func score(d decimal.Decimal) int {
	n := d.IntPart()
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return int(n)
}

// savingsRate is (income - expenses) / income as a percentage.
// Green from 20%, yellow from 10%.
func savingsRate(t totals) Metric {
	if !t.income.IsPositive() {
		return Metric{Value: zero, Score: 0, Status: StatusRed}
	}
	v := t.net().Div(t.income).Mul(hundred)

	switch {
	case v.GreaterThanOrEqual(decimal.NewFromInt(20)):
		return Metric{Value: v, Score: 100, Status: StatusGreen}
	case v.GreaterThanOrEqual(decimal.NewFromInt(10)):
		return Metric{Value: v, Score: score(v.Sub(decimal.NewFromInt(10)).Mul(decimal.NewFromInt(5)).Add(decimal.NewFromInt(50))), Status: StatusYellow}
	default:
		return Metric{Value: v, Score: score(v.Mul(decimal.NewFromInt(5))), Status: StatusRed}
	}
}

// fixedExpenses is spend in fixed categories over income as a percentage.
// Green up to 40%, yellow up to 55%.
func fixedExpenses(t totals, categories []string) Metric {
	if !t.income.IsPositive() {
		return Metric{Value: zero, Score: 0, Status: StatusRed}
	}
	fixed := zero
	for _, c := range categories {
		fixed = fixed.Add(t.byCategory[c])
	}
	r := fixed.Div(t.income).Mul(hundred)

	switch {
	case r.LessThanOrEqual(decimal.NewFromInt(40)):
		return Metric{Value: r, Score: 100, Status: StatusGreen}
	case r.LessThanOrEqual(decimal.NewFromInt(55)):
		penalty := r.Sub(decimal.NewFromInt(40)).Mul(decimal.NewFromInt(50)).Div(decimal.NewFromInt(15))
		return Metric{Value: r, Score: score(hundred.Sub(penalty)), Status: StatusYellow}
	default:
		penalty := r.Sub(decimal.NewFromInt(55)).Mul(decimal.NewFromInt(2))
		return Metric{Value: r, Score: score(decimal.NewFromInt(50).Sub(penalty)), Status: StatusRed}
	}
}

// budgetAdherence is the share of budgets whose category spend stayed within
// the monthly limit. Green from 80%, yellow from 50%.
func budgetAdherence(t totals, budgets []model.Budget) Metric {
	if len(budgets) == 0 {
		return Metric{Value: zero, Score: 0, Status: StatusRed}
	}
	within := 0
	for i := range budgets {
		if t.byCategory[budgets[i].Category].LessThanOrEqual(budgets[i].MonthlyLimit()) {
			within++
		}
	}
	a := decimal.NewFromInt(int64(within)).Div(decimal.NewFromInt(int64(len(budgets)))).Mul(hundred)

	switch {
	case a.GreaterThanOrEqual(decimal.NewFromInt(80)):
		return Metric{Value: a, Score: 100, Status: StatusGreen}
	case a.GreaterThanOrEqual(decimal.NewFromInt(50)):
		bonus := a.Sub(decimal.NewFromInt(50)).Mul(decimal.NewFromInt(50)).Div(decimal.NewFromInt(30))
		return Metric{Value: a, Score: score(decimal.NewFromInt(50).Add(bonus)), Status: StatusYellow}
	default:
		return Metric{Value: a, Score: score(a), Status: StatusRed}
	}
}

// trend is the percentage change of net savings against the previous month,
// measured over |previous| so an improvement is positive whatever the sign.
func trend(current, previous decimal.Decimal) Metric {
	var v decimal.Decimal
	switch {
	case previous.IsZero() && current.IsZero():
		return Metric{Value: zero, Score: 75, Status: StatusGreen}
	case previous.IsZero() && current.IsPositive():
		v = hundred
	case previous.IsZero():
		v = hundred.Neg()
	default:
		v = current.Sub(previous).Div(previous.Abs()).Mul(hundred)
	}

	switch {
	case v.GreaterThanOrEqual(decimal.NewFromInt(5)):
		return Metric{Value: v, Score: 100, Status: StatusGreen}
	case v.GreaterThanOrEqual(decimal.NewFromInt(-5)):
		return Metric{Value: v, Score: 75, Status: StatusGreen}
	case v.GreaterThanOrEqual(decimal.NewFromInt(-10)):
		return Metric{Value: v, Score: score(v.Add(decimal.NewFromInt(10)).Mul(decimal.NewFromInt(5)).Add(decimal.NewFromInt(50))), Status: StatusYellow}
	default:
		return Metric{Value: v, Score: score(decimal.NewFromInt(50).Add(v.Mul(decimal.NewFromInt(2)))), Status: StatusRed}
	}
}
