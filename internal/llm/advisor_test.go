package llm

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashmind/internal/health"
)

func scoredResult() health.Result {
	return health.Result{
		OverallScore:  58,
		OverallStatus: health.StatusYellow,
		Breakdown: &health.Breakdown{
			SavingsRate:     health.Metric{Value: decimal.NewFromFloat(12.345), Status: health.StatusYellow, Score: 61},
			FixedExpenses:   health.Metric{Value: decimal.NewFromInt(62), Status: health.StatusRed, Score: 30},
			BudgetAdherence: health.Metric{Value: decimal.NewFromInt(100), Status: health.StatusGreen, Score: 100},
			Trend:           health.Metric{Value: decimal.NewFromFloat(-2.5), Status: health.StatusGreen, Score: 80},
		},
	}
}

func TestAdvisor_Advise(t *testing.T) {
	client := &scriptedClient{replies: []string{"  1. Bajá los gastos fijos.\n2. Ahorrá más.  "}}

	advice, err := NewAdvisor(client).Advise(context.Background(), scoredResult())
	require.NoError(t, err)
	assert.Equal(t, "1. Bajá los gastos fijos.\n2. Ahorrá más.", advice)

	req := client.requests[0]
	assert.False(t, req.JSON)
	assert.Equal(t, 512, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	assert.Contains(t, req.Prompt, "- Tasa de ahorro: 12.3% (semáforo: amarillo)")
	assert.Contains(t, req.Prompt, "- Gastos fijos: 62.0% (semáforo: rojo)")
	assert.Contains(t, req.Prompt, "- Tendencia mensual: -2.5% (semáforo: verde)")
	assert.Contains(t, req.Prompt, "Estado general: amarillo")
}

func TestAdvisor_Errors(t *testing.T) {
	_, err := NewAdvisor(&scriptedClient{replies: []string{"x"}}).Advise(context.Background(), health.Result{NeedsOnboarding: true})
	assert.Error(t, err)

	_, err = NewAdvisor(&scriptedClient{replies: []string{"   "}}).Advise(context.Background(), scoredResult())
	assert.Error(t, err)
}
