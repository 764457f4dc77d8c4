package metrics

import (
	"math"

	"panel/internal/core"
)

// Delta returns the relative change from previous to current. A previous
// value of zero (or NaN) yields 0.
func Delta(current, previous float64) float64 {
	if previous == 0 || math.IsNaN(previous) {
		return 0
	}
	return (current - previous) / math.Abs(previous)
}

// Deltas compares every KPI of current against previous.
func Deltas(current, previous core.KPISet) *core.KPIDeltas {
	return &core.KPIDeltas{
		Income:        Delta(current.Income, previous.Income),
		Expenses:      Delta(current.Expenses, previous.Expenses),
		Profit:        Delta(current.Profit, previous.Profit),
		Margin:        Delta(current.Margin, previous.Margin),
		ServicesCount: Delta(float64(current.ServicesCount), float64(previous.ServicesCount)),
		AvgTicket:     Delta(current.AvgTicket, previous.AvgTicket),
	}
}
