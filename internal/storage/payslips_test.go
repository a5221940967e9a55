package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/service"
)

func junePayslip() *model.Payslip {
	pct := decimal.NewFromInt(11)
	return &model.Payslip{
		Month:       model.PayslipMonth(2024, time.June),
		GrossSalary: decimal.NewFromInt(1_000_000),
		NetSalary:   decimal.NewFromInt(830_000),
		Employer:    "Acme SA",
		Position:    "Analista",
		Deductions: []model.Deduction{
			{Name: "Jubilación", Amount: decimal.NewFromInt(110_000), Percentage: &pct, Category: model.DeductionRetirement},
			{Name: "Obra social", Amount: decimal.NewFromInt(30_000), Category: model.DeductionHealth},
			{Name: "Ley 19032", Amount: decimal.NewFromInt(30_000), Category: "pami"},
		},
		Bonuses: []model.Bonus{
			{Name: "Presentismo", Amount: decimal.NewFromInt(80_000), Type: model.BonusRegular},
		},
	}
}

func TestSavePayslip_WithSalary(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	var events []model.ChangeKind
	store.OnChange(func(e model.ChangeEvent) { events = append(events, e.Kind) })

	p := junePayslip()
	salary := p.SalaryTransaction()
	require.NoError(t, store.SavePayslip(ctx, p, &salary))
	assert.Positive(t, p.ID)
	require.NotNil(t, p.TransactionID)
	assert.Equal(t, salary.ID, *p.TransactionID)
	assert.Equal(t, []model.ChangeKind{model.ChangeTransactions, model.ChangePayslips}, events)

	got, err := store.GetPayslip(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-06", got.Month.Format("2006-01"))
	assert.Equal(t, "Acme SA", got.Employer)
	assert.Equal(t, "830000.00", got.NetSalary.StringFixed(2))
	require.Len(t, got.Deductions, 3)
	require.NotNil(t, got.Deductions[0].Percentage)
	assert.Equal(t, "11", got.Deductions[0].Percentage.String())
	assert.Nil(t, got.Deductions[1].Percentage)
	assert.Equal(t, model.DeductionOther, got.Deductions[2].Category)
	require.Len(t, got.Bonuses, 1)
	assert.Equal(t, model.BonusRegular, got.Bonuses[0].Type)

	txn, err := store.GetTransactionByID(ctx, *got.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "Sueldo Junio 2024", txn.Description)
	assert.Equal(t, "2024-06-15", txn.Date.Format(model.DateLayout))
	assert.Equal(t, model.TypeIncome, txn.Type)
	assert.Equal(t, "salary", txn.Category)
	assert.Equal(t, model.SourcePayslip, txn.Source)
	assert.Equal(t, "Generado desde recibo - Acme SA", txn.Notes)
}

func TestSavePayslip_WithoutSalary(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	p := junePayslip()
	require.NoError(t, store.SavePayslip(ctx, p, nil))
	assert.Nil(t, p.TransactionID)

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestSavePayslip_Duplicate(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	first := junePayslip()
	salary := first.SalaryTransaction()
	require.NoError(t, store.SavePayslip(ctx, first, &salary))

	again := junePayslip()
	salary = again.SalaryTransaction()
	err := store.SavePayslip(ctx, again, &salary)
	require.ErrorIs(t, err, common.ErrDuplicateEntry)

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txns, 1, "the rejected slip must not leave its salary behind")

	other := junePayslip()
	other.Employer = "Otra SRL"
	require.NoError(t, store.SavePayslip(ctx, other, nil))
}

func TestSavePayslip_Validation(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	tests := []struct {
		mutate func(*model.Payslip)
		name   string
	}{
		{name: "missing month", mutate: func(p *model.Payslip) { p.Month = time.Time{} }},
		{name: "zero net", mutate: func(p *model.Payslip) { p.NetSalary = decimal.Zero }},
		{name: "negative gross", mutate: func(p *model.Payslip) { p.GrossSalary = decimal.NewFromInt(-1) }},
		{name: "unnamed deduction", mutate: func(p *model.Payslip) { p.Deductions[0].Name = " " }},
		{name: "negative bonus", mutate: func(p *model.Payslip) { p.Bonuses[0].Amount = decimal.NewFromInt(-5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := junePayslip()
			tt.mutate(p)
			assert.ErrorIs(t, store.SavePayslip(ctx, p, nil), ErrInvalidPayslip)
		})
	}

	assert.ErrorIs(t, store.SavePayslip(ctx, nil, nil), ErrNilParameter)
}

func TestGetPayslips_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	for _, m := range []time.Month{time.April, time.June, time.May} {
		p := junePayslip()
		p.Month = model.PayslipMonth(2024, m)
		require.NoError(t, store.SavePayslip(ctx, p, nil))
	}

	payslips, err := store.GetPayslips(ctx)
	require.NoError(t, err)
	require.Len(t, payslips, 3)
	assert.Equal(t, "2024-06", payslips[0].Month.Format("2006-01"))
	assert.Equal(t, "2024-04", payslips[2].Month.Format("2006-01"))
	for _, p := range payslips {
		assert.Len(t, p.Deductions, 3)
		assert.Len(t, p.Bonuses, 1)
	}
}

func TestDeletePayslip(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	p := junePayslip()
	salary := p.SalaryTransaction()
	require.NoError(t, store.SavePayslip(ctx, p, &salary))

	require.NoError(t, store.DeletePayslip(ctx, p.ID))

	_, err := store.GetPayslip(ctx, p.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = store.GetTransactionByID(ctx, salary.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	var lines int
	require.NoError(t, store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payslip_deductions").Scan(&lines))
	assert.Zero(t, lines)

	assert.ErrorIs(t, store.DeletePayslip(ctx, p.ID), common.ErrNotFound)
}

func TestDeleteTransaction_UnlinksPayslip(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	p := junePayslip()
	salary := p.SalaryTransaction()
	require.NoError(t, store.SavePayslip(ctx, p, &salary))
	require.NoError(t, store.DeleteTransaction(ctx, salary.ID))

	got, err := store.GetPayslip(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TransactionID)
}
