package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel/internal/core"
)

func TestAggregateTotalsAndSeries(t *testing.T) {
	rng := core.NewDateRange(core.NewDate(2025, 11, 1), core.NewDate(2025, 11, 30), "Noviembre")
	services := []core.Service{
		{ID: "s1", Date: core.NewDate(2025, 11, 3), Amount: 30000},
		{ID: "s2", Date: core.NewDate(2025, 11, 3), Amount: 20000},
		{ID: "s3", Date: core.NewDate(2025, 11, 20), Amount: 50000},
		{ID: "out", Date: core.NewDate(2025, 12, 1), Amount: 99999},
		{ID: "undated", Amount: 11111},
	}
	expenses := []core.Expense{
		{ID: "e1", Date: core.NewDate(2025, 11, 3), Amount: 5000, Category: "Insumos"},
		{ID: "e2", Date: core.NewDate(2025, 11, 10), Amount: 2500},
		{ID: "e3", Date: core.NewDate(2025, 11, 12), Amount: 1500, Category: "Insumos"},
		{ID: "out", Date: core.NewDate(2025, 10, 31), Amount: 7777, Category: "Insumos"},
	}
	fixed := []core.FixedExpense{{Amount: 45000, DueDay: 15, Status: core.StatusActive}}

	agg := Aggregate(rng, services, expenses, fixed)

	assert.Equal(t, 100000.0, agg.KPIs.Income)
	assert.Equal(t, 3, agg.KPIs.ServicesCount)
	assert.Equal(t, 9000.0, agg.DailyExpenseTotal)
	assert.Equal(t, 45000.0, agg.FixedExpenseTotal)
	assert.Equal(t, 54000.0, agg.KPIs.Expenses)
	assert.Equal(t, 46000.0, agg.KPIs.Profit)
	assert.InDelta(t, 0.46, agg.KPIs.Margin, 1e-12)
	assert.InDelta(t, 100000.0/3, agg.KPIs.AvgTicket, 1e-9)
	assert.Equal(t, 3, agg.DailyExpenseCount)

	require.Len(t, agg.ByDay, 30)
	var income, expense float64
	for _, b := range agg.ByDay {
		income += b.Income
		expense += b.Expense
		assert.Equal(t, b.Income-b.Expense, b.Profit)
	}
	assert.InDelta(t, agg.KPIs.Income, income, 1e-9)
	assert.InDelta(t, agg.KPIs.Expenses, expense, 1e-9)

	day3 := agg.ByDay[2]
	assert.Equal(t, core.NewDate(2025, 11, 3), day3.Date)
	assert.Equal(t, 50000.0, day3.Income)
	assert.Equal(t, 5000.0, day3.Expense)
	assert.Equal(t, 45000.0, agg.ByDay[14].Expense)

	assert.Equal(t, []core.CategoryTotal{
		{Name: "Insumos", Value: 6500},
		{Name: UncategorizedLabel, Value: 2500},
		{Name: FixedExpensesLabel, Value: 45000},
	}, agg.ExpensesByCategory)
}

func TestAggregateMergesFixedIntoExistingCategory(t *testing.T) {
	rng := core.NewDateRange(core.NewDate(2025, 11, 1), core.NewDate(2025, 11, 30), "")
	expenses := []core.Expense{
		{Date: core.NewDate(2025, 11, 2), Amount: 100, Category: FixedExpensesLabel},
		{Date: core.NewDate(2025, 11, 3), Amount: 50, Category: "Otros"},
	}
	fixed := []core.FixedExpense{{Amount: 1000, DueDay: 5, Status: core.StatusActive}}

	agg := Aggregate(rng, nil, expenses, fixed)
	assert.Equal(t, []core.CategoryTotal{
		{Name: FixedExpensesLabel, Value: 1100},
		{Name: "Otros", Value: 50},
	}, agg.ExpensesByCategory)
}

func TestAggregateNoFixedEntryWhenZero(t *testing.T) {
	rng := core.NewDateRange(core.NewDate(2025, 11, 1), core.NewDate(2025, 11, 14), "")
	fixed := []core.FixedExpense{{Amount: 45000, DueDay: 15, Status: core.StatusActive}}

	agg := Aggregate(rng, nil, nil, fixed)
	assert.Equal(t, 0.0, agg.FixedExpenseTotal)
	assert.NotNil(t, agg.ExpensesByCategory)
	assert.Empty(t, agg.ExpensesByCategory)
}

func TestAggregateInvalidRange(t *testing.T) {
	rng := core.NewDateRange(core.NewDate(2025, 11, 30), core.NewDate(2025, 11, 1), "")
	services := []core.Service{{Date: core.NewDate(2025, 11, 10), Amount: 10}}

	agg := Aggregate(rng, services, nil, nil)
	assert.Equal(t, 0.0, agg.KPIs.Income)
	assert.NotNil(t, agg.ByDay)
	assert.Empty(t, agg.ByDay)
}

func TestNewKPISetZeroDenominators(t *testing.T) {
	k := NewKPISet(0, 500, 0)
	assert.Equal(t, -500.0, k.Profit)
	assert.Equal(t, 0.0, k.Margin)
	assert.Equal(t, 0.0, k.AvgTicket)
	assert.Nil(t, k.Deltas)
}
