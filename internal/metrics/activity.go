package metrics

import (
	"sort"
	"strings"

	"panel/internal/core"
)

const DefaultActivityLimit = 10

const (
	serviceTitle = "Servicio"
	expenseTitle = "Gasto"
)

// RecentActivity merges dated services and expenses, newest first, capped
// at limit. On equal dates services come before expenses and input order is
// kept.
func RecentActivity(services []core.Service, expenses []core.Expense, limit int) []core.ActivityItem {
	items := make([]core.ActivityItem, 0, len(services)+len(expenses))
	for _, s := range services {
		if s.Date.IsEmpty() {
			continue
		}
		items = append(items, core.ActivityItem{
			ID:            s.ID,
			Kind:          core.KindService,
			Date:          s.Date,
			Title:         firstNonEmpty(s.ServiceName, serviceTitle),
			Subtitle:      joinNonEmpty(s.PetName, s.CustomerName),
			Amount:        s.Amount,
			PaymentMethod: paymentLabel(s.PaymentMethod),
		})
	}
	for _, e := range expenses {
		if e.Date.IsEmpty() {
			continue
		}
		items = append(items, core.ActivityItem{
			ID:            e.ID,
			Kind:          core.KindExpense,
			Date:          e.Date,
			Title:         firstNonEmpty(e.Description, e.Category, expenseTitle),
			Subtitle:      joinNonEmpty(categoryLabel(e.Category), e.Supplier),
			Amount:        e.Amount,
			PaymentMethod: paymentLabel(e.PaymentMethod),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})

	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func paymentLabel(method string) string {
	return firstNonEmpty(method, NoPaymentLabel)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " · ")
}
