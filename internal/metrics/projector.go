package metrics

import "panel/internal/core"

// Project spreads the active fixed expenses over days: each one contributes
// its amount on every day whose day-of-month equals its due day. A due day
// past the end of a month never matches that month.
func Project(fixed []core.FixedExpense, days []core.Date) map[core.Date]float64 {
	out := make(map[core.Date]float64)
	for _, f := range fixed {
		if !f.Active() || f.DueDay <= 0 {
			continue
		}
		for _, d := range days {
			if d.Day() == f.DueDay {
				out[d] += f.Amount
			}
		}
	}
	return out
}

// projectedTotal sums the projection in day order so the result does not
// depend on map iteration.
func projectedTotal(projection map[core.Date]float64, days []core.Date) float64 {
	var total float64
	for _, d := range days {
		total += projection[d]
	}
	return total
}
