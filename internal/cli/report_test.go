package cli

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/cashmind/internal/health"
	"github.com/Veraticus/cashmind/internal/model"
)

func metric(value float64, score int) health.Metric {
	return health.Metric{Value: decimal.NewFromFloat(value), Score: score, Status: health.StatusFor(score)}
}

func TestRenderHealth(t *testing.T) {
	month := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	t.Run("scored month", func(t *testing.T) {
		out := RenderHealth(health.Result{
			Month: month,
			Breakdown: &health.Breakdown{
				SavingsRate:     metric(25, 100),
				FixedExpenses:   metric(45, 60),
				BudgetAdherence: metric(100, 100),
				Trend:           metric(-5, 20),
			},
			OverallScore:  73,
			OverallStatus: health.StatusGreen,
		})

		assert.Contains(t, out, "Salud financiera de 03/2024")
		assert.Contains(t, out, "Tasa de ahorro")
		assert.Contains(t, out, "25.0%")
		assert.Contains(t, out, "Puntaje general: 73/100")
		assert.Contains(t, out, "● verde")
		assert.Contains(t, out, "● amarillo")
		assert.Contains(t, out, "● rojo")
	})

	t.Run("onboarding", func(t *testing.T) {
		out := RenderHealth(health.Result{
			Month:           month,
			NeedsOnboarding: true,
			Onboarding: &health.OnboardingStatus{
				IncomeCount: 1, IncomeRequired: 1,
				ExpenseCount: 2, ExpenseRequired: 5,
			},
		})

		assert.Contains(t, out, "Todavía faltan datos")
		assert.Contains(t, out, SuccessIcon+" Ingresos registrados: 1/1")
		assert.Contains(t, out, ErrorIcon+" Gastos registrados: 2/5")
		assert.NotContains(t, out, "Puntaje general")
	})
}

func TestRenderHistory(t *testing.T) {
	assert.Contains(t, RenderHistory(nil), "Sin historial todavía.")

	out := RenderHistory([]model.HealthSnapshot{
		{Month: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), OverallScore: 55, OverallStatus: "yellow"},
		{Month: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), OverallScore: 81, OverallStatus: "green"},
	})
	assert.Contains(t, out, "01/2024")
	assert.Contains(t, out, "02/2024")
	assert.Contains(t, out, "81")
}

func TestRenderTransactions(t *testing.T) {
	assert.Contains(t, RenderTransactions(nil), "No hay movimientos.")

	date := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	out := RenderTransactions([]model.Transaction{
		{ID: 1, Date: date, Amount: decimal.NewFromInt(250000), Description: "Sueldo", Type: model.TypeIncome, Category: "salary"},
		{ID: 2, Date: date, Amount: decimal.NewFromInt(5000), Description: "Supermercado", Type: model.TypeExpense, Category: "food"},
	})

	assert.Contains(t, out, "2024-03-05")
	assert.Contains(t, out, "Supermercado")
	assert.Contains(t, out, "-$ 5.000,00")
	assert.Contains(t, out, "Ingresos: $ 250.000,00")
	assert.Contains(t, out, "Gastos: $ 5.000,00")
	assert.Contains(t, out, "Neto: $ 245.000,00")
}

func TestRenderBudgets(t *testing.T) {
	assert.Contains(t, RenderBudgets(nil), "No hay presupuestos.")

	out := RenderBudgets([]model.Budget{
		{ID: 3, Name: "Comida", Category: "food", Period: model.PeriodWeekly, Limit: decimal.NewFromInt(20000)},
	})
	assert.Contains(t, out, "Comida")
	assert.Contains(t, out, "semanal")
	assert.Contains(t, out, "$ 20.000,00")
}

func TestRenderGoals(t *testing.T) {
	assert.Contains(t, RenderGoals(nil), "No hay metas.")

	deadline := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	out := RenderGoals([]model.Goal{
		{ID: 7, Name: "Viaje", TargetAmount: decimal.NewFromInt(100000), CurrentAmount: decimal.NewFromInt(25000), Deadline: &deadline},
	})
	assert.Contains(t, out, "Viaje")
	assert.Contains(t, out, "(#7)")
	assert.Contains(t, out, "25%")
	assert.Contains(t, out, "█████░░░░░░░░░░░░░░░")
	assert.Contains(t, out, "vence 2025-01-31")
}

func TestRenderPayslips(t *testing.T) {
	assert.Contains(t, RenderPayslips(nil), "No hay recibos de sueldo.")

	pct := decimal.NewFromInt(11)
	txnID := int64(42)
	p := model.Payslip{
		ID:            5,
		Month:         model.PayslipMonth(2024, time.June),
		Employer:      "Acme SA",
		GrossSalary:   decimal.NewFromInt(1000000),
		NetSalary:     decimal.NewFromInt(830000),
		TransactionID: &txnID,
		Deductions: []model.Deduction{
			{Name: "Jubilación", Amount: decimal.NewFromInt(110000), Percentage: &pct},
		},
		Bonuses: []model.Bonus{{Name: "Presentismo", Amount: decimal.NewFromInt(80000)}},
	}

	out := RenderPayslips([]model.Payslip{p})
	assert.Contains(t, out, "Junio 2024")
	assert.Contains(t, out, "Acme SA")
	assert.Contains(t, out, "$ 830.000,00")

	detail := RenderPayslip(p)
	assert.Contains(t, detail, "Recibo Junio 2024")
	assert.Contains(t, detail, "Jubilación (11%)")
	assert.Contains(t, detail, "Presentismo")
	assert.Contains(t, detail, "Total descuentos")
	assert.Contains(t, detail, "movimiento #42")
}

func TestRenderCategories(t *testing.T) {
	out := RenderCategories()
	assert.Contains(t, out, "Gastos")
	assert.Contains(t, out, "Ingresos")
	assert.Contains(t, out, "healthcare")
	assert.Contains(t, out, "salary")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "corto", truncate("corto", 10))
	assert.Equal(t, "supermerc…", truncate("supermercado chino", 10))
}
