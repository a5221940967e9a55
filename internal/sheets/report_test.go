package sheets

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/service"
	"github.com/Veraticus/cashmind/internal/storage"
)

func date(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func txn(day string, typ model.TransactionType, category, description string, amount int64) model.Transaction {
	t := model.Transaction{
		Date:        date(day),
		Amount:      decimal.NewFromInt(amount),
		Description: description,
		Category:    category,
		Type:        typ,
		Source:      model.SourceManual,
	}
	t.Hash = t.GenerateHash()
	return t
}

func testPeriod() service.DateRange {
	return service.DateRange{Start: date("2024-01-01"), End: date("2024-03-01")}
}

func testInput() ReportInput {
	return ReportInput{
		Period: testPeriod(),
		Transactions: []model.Transaction{
			txn("2024-01-05", model.TypeIncome, "salary", "Sueldo enero", 1000),
			txn("2024-01-10", model.TypeExpense, "food", "Super", 300),
			txn("2024-02-05", model.TypeIncome, "salary", "Sueldo febrero", 1000),
			txn("2024-02-07", model.TypeExpense, "food", "Super", 200),
			txn("2024-02-20", model.TypeExpense, "housing", "Alquiler", 600),
			txn("2024-03-02", model.TypeExpense, "food", "Fuera de rango", 999),
		},
		Budgets: []model.Budget{
			{Name: "Comida", Category: "food", Period: model.PeriodMonthly, Limit: decimal.NewFromInt(250)},
			{Name: "Casa", Category: "housing", Period: model.PeriodYearly, Limit: decimal.NewFromInt(12000)},
		},
		Goals: []model.Goal{
			{Name: "Viaje", TargetAmount: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(250)},
		},
		Health: []model.HealthSnapshot{
			{Month: date("2024-02-01"), OverallScore: 55, OverallStatus: "yellow"},
		},
	}
}

func TestBuildReport(t *testing.T) {
	r := BuildReport(testInput())

	require.Len(t, r.Transactions, 5, "out of range transaction dropped")
	assert.Equal(t, "2024-02-20", r.Transactions[0].Date.Format(model.DateLayout), "newest first")
	assert.Equal(t, "2000", r.TotalIncome.String())
	assert.Equal(t, "1100", r.TotalExpenses.String())
	assert.Equal(t, "900", r.Net().String())

	require.Len(t, r.CategorySummary, 3)
	assert.Equal(t, model.TypeIncome, r.CategorySummary[0].Type)
	assert.Equal(t, "100", r.CategorySummary[0].Share.String())
	assert.Equal(t, "housing", r.CategorySummary[1].Category)
	assert.Equal(t, "54.5", r.CategorySummary[1].Share.String())
	assert.Equal(t, "food", r.CategorySummary[2].Category)
	assert.Equal(t, 2, r.CategorySummary[2].Count)

	require.Len(t, r.MonthlyFlow, 2)
	assert.Equal(t, "700", r.MonthlyFlow[0].Net.String())
	assert.Equal(t, "200", r.MonthlyFlow[1].Net.String())
	assert.Equal(t, "900", r.MonthlyFlow[1].RunningBalance.String())

	require.Len(t, r.Budgets, 2)
	assert.Equal(t, "200", r.Budgets[0].Spent.String(), "only February counts")
	assert.Equal(t, "50", r.Budgets[0].Remaining.String())
	assert.Equal(t, "1000", r.Budgets[1].MonthlyLimit.String())
	assert.Equal(t, "400", r.Budgets[1].Remaining.String())
}

func TestReport_Tabs(t *testing.T) {
	tabs := BuildReport(testInput()).Tabs()

	titles := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		titles = append(titles, tab.Title)
		require.NotEmpty(t, tab.Values, tab.Title)
		for _, col := range tab.CurrencyColumns {
			assert.Less(t, int(col), len(tab.Values[0]), tab.Title)
		}
	}
	assert.Equal(t, []string{TabSummary, TabTransactions, TabCategories, TabMonthlyFlow, TabBudgets, TabGoals, TabHealth}, titles)

	summary := tabs[0].Values
	assert.Equal(t, []any{"Hasta", "2024-02-29"}, summary[2])
	assert.Equal(t, []any{"Neto", 900.0}, summary[5])

	movements := tabs[1].Values
	require.Len(t, movements, 6)
	assert.Equal(t, []any{"2024-02-20", "gasto", "Vivienda", "Alquiler", -600.0, "manual", ""}, movements[1])

	goals := tabs[5].Values
	require.Len(t, goals, 2)
	assert.Equal(t, []any{"Viaje", 1000.0, 250.0, 750.0, 25.0, ""}, goals[1])

	health := tabs[6].Values
	assert.Equal(t, []any{"2024-02", 55, "yellow", 0, 0, 0, 0}, health[1])
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "export.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))

	in := testInput()
	_, err = store.SaveTransactions(ctx, in.Transactions)
	require.NoError(t, err)
	for i := range in.Budgets {
		require.NoError(t, store.CreateBudget(ctx, &in.Budgets[i]))
	}

	writer := NewMockWriter()
	report, id, err := Export(ctx, store, writer, testPeriod())
	require.NoError(t, err)
	assert.Equal(t, "mock-spreadsheet", id)
	assert.Equal(t, 1, writer.Calls())
	assert.Same(t, report, writer.LastReport)
	assert.Len(t, report.Transactions, 5)
	assert.Len(t, report.Budgets, 2)

	writeErr := errors.New("quota exceeded")
	writer.WriteFunc = func(context.Context, *Report) (string, error) { return "", writeErr }
	_, _, err = Export(ctx, store, writer, testPeriod())
	assert.ErrorIs(t, err, writeErr)

	_, _, err = Export(ctx, store, writer, service.DateRange{Start: date("2024-03-01"), End: date("2024-01-01")})
	assert.Error(t, err)
}
