// This file implements the strategies used to read slash-separated dates
// such as "03/04/2025", where the order of day and month is not encoded in
// the value itself.

package core

import (
	"fmt"
	"sort"
)

const (
	SlashDayFirstUnlessImpossible = "day-first-unless-impossible"
	SlashDayFirst                 = "day-first"
	SlashMonthFirst               = "month-first"
)

// SlashOrder is the strategy interface for resolving the first two
// components of a slash date into day and month.
type SlashOrder interface {
	// Resolve returns the day and month for the components as written.
	Resolve(first, second int) (day, month int)
	Name() string
}

// DayFirstUnlessImpossible reads P1/P2 as day/month unless only P2 can be
// a day (P2 > 12 and P1 <= 12). When both are <= 12 the reading is a guess.
type DayFirstUnlessImpossible struct{}

func (DayFirstUnlessImpossible) Resolve(first, second int) (int, int) {
	if first <= 12 && second > 12 {
		return second, first
	}
	return first, second
}

func (DayFirstUnlessImpossible) Name() string { return SlashDayFirstUnlessImpossible }

// DayFirst always reads day/month.
type DayFirst struct{}

func (DayFirst) Resolve(first, second int) (int, int) { return first, second }

func (DayFirst) Name() string { return SlashDayFirst }

// MonthFirst always reads month/day.
type MonthFirst struct{}

func (MonthFirst) Resolve(first, second int) (int, int) { return second, first }

func (MonthFirst) Name() string { return SlashMonthFirst }

// slashOrders maps configuration names to strategies. Read-only.
var slashOrders = map[string]SlashOrder{
	SlashDayFirstUnlessImpossible: DayFirstUnlessImpossible{},
	SlashDayFirst:                 DayFirst{},
	SlashMonthFirst:               MonthFirst{},
}

// SlashOrderByName returns the strategy registered under name.
// An empty name selects the default strategy.
func SlashOrderByName(name string) (SlashOrder, error) {
	if name == "" {
		return DayFirstUnlessImpossible{}, nil
	}
	order, ok := slashOrders[name]
	if !ok {
		return nil, fmt.Errorf("unknown slash date order: %s", name)
	}
	return order, nil
}

// SlashOrderNames lists the registered strategy names in sorted order.
func SlashOrderNames() []string {
	names := make([]string, 0, len(slashOrders))
	for name := range slashOrders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
