package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/health"
	"github.com/Veraticus/cashmind/internal/model"
)

var statusLabels = map[health.Status]string{
	health.StatusGreen:  "verde",
	health.StatusYellow: "amarillo",
	health.StatusRed:    "rojo",
}

// StatusStyle returns the traffic-light style of a health status.
func StatusStyle(s health.Status) lipgloss.Style {
	switch s {
	case health.StatusGreen:
		return SuccessStyle
	case health.StatusYellow:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

func statusBadge(s health.Status) string {
	return StatusStyle(s).Render("● " + statusLabels[s])
}

// RenderHealth renders the current month's score, or the onboarding checklist.
func RenderHealth(res health.Result) string {
	title := fmt.Sprintf("%s Salud financiera de %s", ChartIcon, res.Month.Format("01/2006"))

	if res.NeedsOnboarding || res.Breakdown == nil {
		return RenderBox(title, renderOnboarding(res.Onboarding))
	}

	b := res.Breakdown
	rows := [][2]string{
		{"Tasa de ahorro", renderMetric(b.SavingsRate)},
		{"Gastos fijos", renderMetric(b.FixedExpenses)},
		{"Cumplimiento de presupuestos", renderMetric(b.BudgetAdherence)},
		{"Tendencia mensual", renderMetric(b.Trend)},
	}

	var sb strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&sb, "%-30s %s\n", row[0], row[1])
	}
	sb.WriteString("\n")
	sb.WriteString(BoldStyle.Render(fmt.Sprintf("Puntaje general: %d/100", res.OverallScore)))
	sb.WriteString("  " + statusBadge(res.OverallStatus))

	return RenderBox(title, sb.String())
}

func renderMetric(m health.Metric) string {
	return fmt.Sprintf("%6s%%  %3d pts  %s", m.Value.StringFixed(1), m.Score, statusBadge(m.Status))
}

func renderOnboarding(o *health.OnboardingStatus) string {
	var sb strings.Builder
	sb.WriteString(FormatInfo("Todavía faltan datos para calcular tu puntaje.") + "\n\n")
	if o == nil {
		return sb.String()
	}

	items := []struct {
		label    string
		have     int
		required int
	}{
		{"Ingresos registrados", o.IncomeCount, o.IncomeRequired},
		{"Gastos registrados", o.ExpenseCount, o.ExpenseRequired},
		{"Presupuestos creados", o.BudgetCount, o.BudgetRequired},
	}
	for _, item := range items {
		mark := ErrorStyle.Render(ErrorIcon)
		if item.have >= item.required {
			mark = SuccessStyle.Render(SuccessIcon)
		}
		fmt.Fprintf(&sb, "%s %s: %d/%d\n", mark, item.label, item.have, item.required)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderHistory renders one line per stored month, oldest first.
func RenderHistory(snapshots []model.HealthSnapshot) string {
	if len(snapshots) == 0 {
		return SubtleStyle.Render("Sin historial todavía.")
	}

	var sb strings.Builder
	sb.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-8s %7s %7s %7s %7s %7s", "Mes", "Total", "Ahorro", "Fijos", "Presup.", "Tend.")))
	sb.WriteString("\n")
	for _, s := range snapshots {
		status := health.Status(s.OverallStatus)
		line := fmt.Sprintf("%-8s %7d %7d %7d %7d %7d", s.Month.Format("01/2006"),
			s.OverallScore, s.SavingsRateScore, s.FixedExpensesScore, s.BudgetAdherenceScore, s.TrendScore)
		sb.WriteString(StatusStyle(status).Render(line))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderTransactions renders a transaction listing with income and expense totals.
func RenderTransactions(txns []model.Transaction) string {
	if len(txns) == 0 {
		return SubtleStyle.Render("No hay movimientos.")
	}

	var sb strings.Builder
	sb.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-6s %-10s %-32s %-15s %16s", "ID", "Fecha", "Descripción", "Categoría", "Monto")))
	sb.WriteString("\n")

	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range txns {
		amount := t.Amount
		style := ErrorStyle
		if t.IsIncome() {
			income = income.Add(t.Amount)
			style = SuccessStyle
		} else {
			expenses = expenses.Add(t.Amount)
			amount = amount.Neg()
		}
		fmt.Fprintf(&sb, "%-6d %-10s %-32s %-15s %s\n",
			t.ID, t.Date.Format(model.DateLayout), truncate(t.Description, 32), model.CategoryLabel(t.Type, t.Category),
			style.Render(fmt.Sprintf("%16s", chat.FormatDecimal(amount))))
	}

	fmt.Fprintf(&sb, "\nIngresos: %s   Gastos: %s   Neto: %s",
		SuccessStyle.Render(chat.FormatDecimal(income)),
		ErrorStyle.Render(chat.FormatDecimal(expenses)),
		BoldStyle.Render(chat.FormatDecimal(income.Sub(expenses))))
	return sb.String()
}

// RenderBudgets renders the budget listing.
func RenderBudgets(budgets []model.Budget) string {
	if len(budgets) == 0 {
		return SubtleStyle.Render("No hay presupuestos.")
	}

	var sb strings.Builder
	sb.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-6s %-24s %-15s %-8s %16s", "ID", "Nombre", "Categoría", "Período", "Límite")))
	sb.WriteString("\n")
	for _, b := range budgets {
		fmt.Fprintf(&sb, "%-6d %-24s %-15s %-8s %16s\n",
			b.ID, truncate(b.Name, 24), model.CategoryLabel(model.TypeExpense, b.Category), periodLabel(b.Period), chat.FormatDecimal(b.Limit))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderGoals renders goals with a progress bar each.
func RenderGoals(goals []model.Goal) string {
	if len(goals) == 0 {
		return SubtleStyle.Render("No hay metas.")
	}

	var sb strings.Builder
	for _, g := range goals {
		progress := g.Progress()
		fmt.Fprintf(&sb, "%s %s %s\n", GoalIcon, BoldStyle.Render(g.Name), SubtleStyle.Render(fmt.Sprintf("(#%d)", g.ID)))
		fmt.Fprintf(&sb, "   %s %s%%  %s / %s", progressBar(progress, 20), progress.StringFixed(0),
			chat.FormatDecimal(g.CurrentAmount), chat.FormatDecimal(g.TargetAmount))
		if g.Deadline != nil {
			fmt.Fprintf(&sb, "  vence %s", g.Deadline.Format(model.DateLayout))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderPayslips renders the payslip listing.
func RenderPayslips(payslips []model.Payslip) string {
	if len(payslips) == 0 {
		return SubtleStyle.Render("No hay recibos de sueldo.")
	}

	var sb strings.Builder
	sb.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-6s %-16s %-24s %16s %16s", "ID", "Mes", "Empleador", "Bruto", "Neto")))
	sb.WriteString("\n")
	for _, p := range payslips {
		fmt.Fprintf(&sb, "%-6d %-16s %-24s %16s %s\n",
			p.ID, p.Period(), truncate(p.Employer, 24), chat.FormatDecimal(p.GrossSalary),
			SuccessStyle.Render(fmt.Sprintf("%16s", chat.FormatDecimal(p.NetSalary))))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderPayslip renders one payslip with its deduction and bonus lines.
func RenderPayslip(p model.Payslip) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", BoldStyle.Render("Recibo "+p.Period()), SubtleStyle.Render(fmt.Sprintf("(#%d)", p.ID)))
	if p.Employer != "" {
		fmt.Fprintf(&sb, "  Empleador: %s\n", p.Employer)
	}
	if p.Position != "" {
		fmt.Fprintf(&sb, "  Puesto:    %s\n", p.Position)
	}
	fmt.Fprintf(&sb, "  Bruto:     %s\n", chat.FormatDecimal(p.GrossSalary))

	if len(p.Bonuses) > 0 {
		sb.WriteString("\n" + BoldStyle.Render("Adicionales") + "\n")
		for _, b := range p.Bonuses {
			fmt.Fprintf(&sb, "  %-32s %16s\n", truncate(b.Name, 32), SuccessStyle.Render(chat.FormatDecimal(b.Amount)))
		}
	}
	if len(p.Deductions) > 0 {
		sb.WriteString("\n" + BoldStyle.Render("Descuentos") + "\n")
		for _, d := range p.Deductions {
			name := d.Name
			if d.Percentage != nil {
				name = fmt.Sprintf("%s (%s%%)", name, d.Percentage.String())
			}
			fmt.Fprintf(&sb, "  %-32s %16s\n", truncate(name, 32), ErrorStyle.Render(chat.FormatDecimal(d.Amount.Neg())))
		}
		fmt.Fprintf(&sb, "  %-32s %16s\n", "Total descuentos", chat.FormatDecimal(p.TotalDeductions().Neg()))
	}

	fmt.Fprintf(&sb, "\n  Neto:      %s", BoldStyle.Render(chat.FormatDecimal(p.NetSalary)))
	if p.TransactionID != nil {
		fmt.Fprintf(&sb, "\n  %s", SubtleStyle.Render(fmt.Sprintf("Ingreso registrado como movimiento #%d", *p.TransactionID)))
	}
	return sb.String()
}

// RenderCategories renders both category registries.
func RenderCategories() string {
	var sb strings.Builder
	sb.WriteString(BoldStyle.Render("Gastos") + "\n")
	for _, c := range model.ExpenseCategories {
		fmt.Fprintf(&sb, "  %-15s %s\n", c.Value, c.Label)
	}
	sb.WriteString("\n" + BoldStyle.Render("Ingresos") + "\n")
	for _, c := range model.IncomeCategories {
		fmt.Fprintf(&sb, "  %-15s %s\n", c.Value, c.Label)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func progressBar(pct decimal.Decimal, width int) string {
	filled := int(pct.Mul(decimal.NewFromInt(int64(width))).Div(decimal.NewFromInt(100)).IntPart())
	filled = max(0, min(width, filled))
	return SuccessStyle.Render(strings.Repeat("█", filled)) + SubtleStyle.Render(strings.Repeat("░", width-filled))
}

func periodLabel(p model.BudgetPeriod) string {
	switch p {
	case model.PeriodWeekly:
		return "semanal"
	case model.PeriodYearly:
		return "anual"
	default:
		return "mensual"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
