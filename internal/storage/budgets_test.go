package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgets(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	food := &model.Budget{Name: "Comida", Category: "food", Limit: decimal.NewFromInt(50000)}
	require.NoError(t, store.CreateBudget(ctx, food))
	assert.Equal(t, model.PeriodMonthly, food.Period)

	fun := &model.Budget{Name: "Salidas", Category: "entertainment", Limit: decimal.NewFromInt(5000), Period: model.PeriodWeekly}
	require.NoError(t, store.CreateBudget(ctx, fun))

	budgets, err := store.GetBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.Equal(t, "entertainment", budgets[0].Category)
	assert.Equal(t, model.PeriodWeekly, budgets[0].Period)
	assert.True(t, budgets[1].Limit.Equal(decimal.NewFromInt(50000)))

	require.NoError(t, store.DeleteBudget(ctx, fun.ID))
	assert.ErrorIs(t, store.DeleteBudget(ctx, fun.ID), common.ErrNotFound)

	budgets, err = store.GetBudgets(ctx)
	require.NoError(t, err)
	assert.Len(t, budgets, 1)
}

func TestCreateBudget_Invalid(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	tests := []struct {
		budget  *model.Budget
		wantErr error
		name    string
	}{
		{name: "nil", budget: nil, wantErr: ErrNilParameter},
		{name: "no name", budget: &model.Budget{Category: "food", Limit: decimal.NewFromInt(1)}, wantErr: ErrInvalidBudget},
		{name: "no category", budget: &model.Budget{Name: "x", Limit: decimal.NewFromInt(1)}, wantErr: ErrInvalidBudget},
		{name: "zero limit", budget: &model.Budget{Name: "x", Category: "food"}, wantErr: ErrInvalidAmount},
		{name: "bad period", budget: &model.Budget{Name: "x", Category: "food", Limit: decimal.NewFromInt(1), Period: "daily"}, wantErr: ErrInvalidBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.CreateBudget(ctx, tt.budget), tt.wantErr)
		})
	}
}
