package metrics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel/internal/core"
)

func TestRecentActivityOrderingAndLabels(t *testing.T) {
	services := []core.Service{
		{ID: "s1", Date: core.NewDate(2025, 11, 5), Amount: 100, PetName: "Toby", CustomerName: "Ana", ServiceName: "Corte", PaymentMethod: "Efectivo"},
		{ID: "s2", Date: core.NewDate(2025, 11, 7), Amount: 200},
		{ID: "nodate", Amount: 300},
	}
	expenses := []core.Expense{
		{ID: "e1", Date: core.NewDate(2025, 11, 7), Amount: 50, Description: "Shampoo", Category: "Insumos", Supplier: "Sur"},
		{ID: "e2", Date: core.NewDate(2025, 11, 6), Amount: 20},
	}

	items := RecentActivity(services, expenses, DefaultActivityLimit)
	require.Len(t, items, 4)

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"s2", "e1", "e2", "s1"}, ids)

	assert.Equal(t, core.KindService, items[0].Kind)
	assert.Equal(t, serviceTitle, items[0].Title)
	assert.Equal(t, "", items[0].Subtitle)
	assert.Equal(t, NoPaymentLabel, items[0].PaymentMethod)

	assert.Equal(t, core.KindExpense, items[1].Kind)
	assert.Equal(t, "Shampoo", items[1].Title)
	assert.Equal(t, "Insumos · Sur", items[1].Subtitle)

	assert.Equal(t, expenseTitle, items[2].Title)
	assert.Equal(t, UncategorizedLabel, items[2].Subtitle)

	assert.Equal(t, "Corte", items[3].Title)
	assert.Equal(t, "Toby · Ana", items[3].Subtitle)
	assert.Equal(t, "Efectivo", items[3].PaymentMethod)
}

func TestRecentActivityCap(t *testing.T) {
	var services []core.Service
	for i := 1; i <= 15; i++ {
		services = append(services, core.Service{ID: fmt.Sprint(i), Date: core.NewDate(2025, 11, i), Amount: 1})
	}

	items := RecentActivity(services, nil, DefaultActivityLimit)
	require.Len(t, items, 10)
	assert.Equal(t, "15", items[0].ID)
	assert.Equal(t, "6", items[9].ID)

	assert.NotNil(t, RecentActivity(nil, nil, DefaultActivityLimit))
}
