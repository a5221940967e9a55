package sheets

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashmind/internal/model"
)

// Tab titles, in spreadsheet order.
const (
	TabSummary      = "Resumen"
	TabTransactions = "Movimientos"
	TabCategories   = "Categorías"
	TabMonthlyFlow  = "Flujo mensual"
	TabBudgets      = "Presupuestos"
	TabGoals        = "Metas"
	TabHealth       = "Salud financiera"
)

// Tab is one sheet's worth of values. The first row is the header.
type Tab struct {
	Title           string
	Values          [][]any
	CurrencyColumns []int64
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func day(t time.Time) string {
	return t.Format(model.DateLayout)
}

// Tabs renders the report into sheet values.
func (r *Report) Tabs() []Tab {
	return []Tab{
		r.summaryTab(),
		r.transactionsTab(),
		r.categoriesTab(),
		r.monthlyFlowTab(),
		r.budgetsTab(),
		r.goalsTab(),
		r.healthTab(),
	}
}

func (r *Report) summaryTab() Tab {
	last := r.Period.End.AddDate(0, 0, -1)
	return Tab{
		Title: TabSummary,
		Values: [][]any{
			{"Concepto", "Valor"},
			{"Desde", day(r.Period.Start)},
			{"Hasta", day(last)},
			{"Ingresos", money(r.TotalIncome)},
			{"Gastos", money(r.TotalExpenses)},
			{"Neto", money(r.Net())},
			{"Movimientos", len(r.Transactions)},
		},
	}
}

func (r *Report) transactionsTab() Tab {
	values := make([][]any, 0, len(r.Transactions)+1)
	values = append(values, []any{"Fecha", "Tipo", "Categoría", "Descripción", "Monto", "Origen", "Notas"})
	for _, t := range r.Transactions {
		amount := t.Amount
		if t.IsExpense() {
			amount = amount.Neg()
		}
		values = append(values, []any{
			day(t.Date),
			t.Type.Label(),
			model.CategoryLabel(t.Type, t.Category),
			t.Description,
			money(amount),
			string(t.Source),
			t.Notes,
		})
	}
	return Tab{Title: TabTransactions, Values: values, CurrencyColumns: []int64{4}}
}

func (r *Report) categoriesTab() Tab {
	values := [][]any{{"Tipo", "Categoría", "Cantidad", "Total", "% del tipo"}}
	for _, row := range r.CategorySummary {
		share, _ := row.Share.Float64()
		values = append(values, []any{
			row.Type.Label(),
			model.CategoryLabel(row.Type, row.Category),
			row.Count,
			money(row.Total),
			share,
		})
	}
	return Tab{Title: TabCategories, Values: values, CurrencyColumns: []int64{3}}
}

func (r *Report) monthlyFlowTab() Tab {
	values := [][]any{{"Mes", "Ingresos", "Gastos", "Neto", "Acumulado"}}
	for _, row := range r.MonthlyFlow {
		values = append(values, []any{
			row.Month.Format("2006-01"),
			money(row.Income),
			money(row.Expenses),
			money(row.Net),
			money(row.RunningBalance),
		})
	}
	return Tab{Title: TabMonthlyFlow, Values: values, CurrencyColumns: []int64{1, 2, 3, 4}}
}

func (r *Report) budgetsTab() Tab {
	values := [][]any{{"Nombre", "Categoría", "Período", "Límite", "Límite mensual", "Gastado", "Disponible"}}
	for _, row := range r.Budgets {
		values = append(values, []any{
			row.Budget.Name,
			model.CategoryLabel(model.TypeExpense, row.Budget.Category),
			string(row.Budget.Period),
			money(row.Budget.Limit),
			money(row.MonthlyLimit),
			money(row.Spent),
			money(row.Remaining),
		})
	}
	return Tab{Title: TabBudgets, Values: values, CurrencyColumns: []int64{3, 4, 5, 6}}
}

func (r *Report) goalsTab() Tab {
	values := [][]any{{"Meta", "Objetivo", "Ahorrado", "Falta", "Progreso %", "Vence"}}
	for i := range r.Goals {
		g := &r.Goals[i]
		deadline := ""
		if g.Deadline != nil {
			deadline = day(*g.Deadline)
		}
		progress, _ := g.Progress().Round(1).Float64()
		values = append(values, []any{
			g.Name,
			money(g.TargetAmount),
			money(g.CurrentAmount),
			money(g.Remaining()),
			progress,
			deadline,
		})
	}
	return Tab{Title: TabGoals, Values: values, CurrencyColumns: []int64{1, 2, 3}}
}

func (r *Report) healthTab() Tab {
	values := [][]any{{"Mes", "Puntaje", "Semáforo", "Ahorro", "Gastos fijos", "Presupuestos", "Tendencia"}}
	for _, s := range r.Health {
		values = append(values, []any{
			s.Month.Format("2006-01"),
			s.OverallScore,
			s.OverallStatus,
			s.SavingsRateScore,
			s.FixedExpensesScore,
			s.BudgetAdherenceScore,
			s.TrendScore,
		})
	}
	return Tab{Title: TabHealth, Values: values}
}
