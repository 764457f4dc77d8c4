package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"panel/internal/core"
)

func TestDelta(t *testing.T) {
	tests := []struct {
		name              string
		current, previous float64
		want              float64
	}{
		{name: "doubling", current: 100, previous: 50, want: 1.0},
		{name: "halving", current: 50, previous: 100, want: -0.5},
		{name: "zero previous", current: 123, previous: 0, want: 0},
		{name: "nan previous", current: 5, previous: math.NaN(), want: 0},
		{name: "negative previous", current: -50, previous: -100, want: 0.5},
		{name: "unchanged", current: 7, previous: 7, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Delta(tt.current, tt.previous), 1e-12)
		})
	}
}

func TestDeltas(t *testing.T) {
	cur := NewKPISet(200, 100, 4)
	prev := NewKPISet(100, 100, 2)

	d := Deltas(cur, prev)
	assert.InDelta(t, 1.0, d.Income, 1e-12)
	assert.InDelta(t, 0.0, d.Expenses, 1e-12)
	assert.InDelta(t, 0.0, d.Profit, 1e-12) // previous profit is 0
	assert.InDelta(t, 0.0, d.Margin, 1e-12)
	assert.InDelta(t, 1.0, d.ServicesCount, 1e-12)
	assert.InDelta(t, 0.0, d.AvgTicket, 1e-12)

	assert.Equal(t, &core.KPIDeltas{}, Deltas(core.KPISet{}, core.KPISet{}))
}
