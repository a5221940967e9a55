package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/cashmind/internal/health"
)

// Advisor implements health.Advisor with a language model.
type Advisor struct {
	client Client
}

// NewAdvisor creates an advisor on top of client.
func NewAdvisor(client Client) *Advisor {
	return &Advisor{client: client}
}

// Advise writes short advice for a scored month.
func (a *Advisor) Advise(ctx context.Context, res health.Result) (string, error) {
	if res.Breakdown == nil {
		return "", fmt.Errorf("no scores to advise on")
	}

	b := res.Breakdown
	metrics := []adviceMetric{
		{Name: "Tasa de ahorro", Value: b.SavingsRate.Value.InexactFloat64(), Status: string(b.SavingsRate.Status)},
		{Name: "Gastos fijos", Value: b.FixedExpenses.Value.InexactFloat64(), Status: string(b.FixedExpenses.Status)},
		{Name: "Cumplimiento de presupuestos", Value: b.BudgetAdherence.Value.InexactFloat64(), Status: string(b.BudgetAdherence.Status)},
		{Name: "Tendencia mensual", Value: b.Trend.Value.InexactFloat64(), Status: string(b.Trend.Status)},
	}

	out, err := a.client.Complete(ctx, Request{
		Prompt:      advicePrompt(metrics, string(res.OverallStatus)),
		MaxTokens:   512,
		Temperature: 0.7,
		Cacheable:   true,
	})
	if err != nil {
		return "", err
	}

	advice := strings.TrimSpace(out)
	if advice == "" {
		return "", fmt.Errorf("empty advice")
	}
	return advice, nil
}
