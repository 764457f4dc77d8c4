package metrics

import (
	"fmt"

	"panel/internal/core"
)

// UpcomingWindowDays is how far after the range end a fixed expense due
// date still counts as upcoming.
const UpcomingWindowDays = 7

// Alerts evaluates the alert rules in order:
//  1. negative profit (danger)
//  2. expenses above income (danger)
//  3. active fixed expenses due within UpcomingWindowDays of rangeEnd,
//     in rangeEnd's month (one warning with the count)
func Alerts(kpis core.KPISet, fixed []core.FixedExpense, rangeEnd core.Date) []core.Alert {
	alerts := []core.Alert{}

	if kpis.Profit < 0 {
		alerts = append(alerts, core.Alert{
			Tone:        core.ToneDanger,
			Title:       "Periodo en pérdida",
			Description: "La utilidad del periodo es negativa.",
		})
	}
	if kpis.Expenses > kpis.Income {
		alerts = append(alerts, core.Alert{
			Tone:        core.ToneDanger,
			Title:       "Gastos superan ingresos",
			Description: "El total de gastos del periodo es mayor que el total de ingresos.",
		})
	}

	if n := countUpcoming(fixed, rangeEnd); n > 0 {
		alerts = append(alerts, core.Alert{
			Tone:        core.ToneWarning,
			Title:       "Gastos fijos próximos",
			Description: upcomingDescription(n),
		})
	}
	return alerts
}

// countUpcoming counts active fixed expenses whose due date in rangeEnd's
// month lies 0 to UpcomingWindowDays days after rangeEnd. Due days past the
// end of that month are skipped.
func countUpcoming(fixed []core.FixedExpense, rangeEnd core.Date) int {
	if rangeEnd.IsEmpty() {
		return 0
	}
	last := core.DaysIn(rangeEnd.Year(), rangeEnd.Month())
	var n int
	for _, f := range fixed {
		if !f.Active() || f.DueDay <= 0 || f.DueDay > last {
			continue
		}
		due := core.NewDate(rangeEnd.Year(), rangeEnd.Month(), f.DueDay)
		diff := core.DaysBetween(rangeEnd, due)
		if diff >= 0 && diff <= UpcomingWindowDays {
			n++
		}
	}
	return n
}

func upcomingDescription(n int) string {
	if n == 1 {
		return "1 gasto fijo vence en los próximos 7 días."
	}
	return fmt.Sprintf("%d gastos fijos vencen en los próximos 7 días.", n)
}
