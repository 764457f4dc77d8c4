// Package metrics turns normalized records into a reporting snapshot for a
// date range. Every function here is pure; nothing is shared between calls.
package metrics

import (
	"panel/internal/core"
	"panel/internal/records"
)

// PreviousContext carries the records of the period a snapshot is compared
// against.
type PreviousContext struct {
	Range   core.DateRange  `json:"range"`
	Current records.Bundle `json:"current"`
}

type Assembler struct {
	dates         core.DateParser
	activityLimit int
}

type Option func(*Assembler)

func WithDateParser(p core.DateParser) Option {
	return func(a *Assembler) { a.dates = p }
}

// WithActivityLimit caps the recent activity feed. Negative values are
// ignored.
func WithActivityLimit(n int) Option {
	return func(a *Assembler) {
		if n >= 0 {
			a.activityLimit = n
		}
	}
}

func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		dates:         core.DefaultDateParser(),
		activityLimit: DefaultActivityLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DateParser returns the parser used to read record dates.
func (a *Assembler) DateParser() core.DateParser {
	return a.dates
}

// period is one independent computation over a bundle.
type period struct {
	agg      Aggregation
	services []core.Service
	expenses []core.Expense
	fixed    []core.FixedExpense
	diag     core.Diagnostics
}

func (a *Assembler) compute(rng core.DateRange, bundle records.Bundle, catalog records.Catalog) period {
	p := period{
		services: records.NormalizeServices(bundle.Services, a.dates),
		expenses: records.NormalizeExpenses(bundle.Expenses, a.dates, catalog),
		fixed:    records.ActiveFixedExpenses(records.NormalizeFixedExpenses(bundle.FixedExpenses, catalog)),
	}
	p.agg = Aggregate(rng, p.services, p.expenses, p.fixed)
	p.diag = a.diagnose(bundle)
	return p
}

func (a *Assembler) diagnose(bundle records.Bundle) core.Diagnostics {
	var d core.Diagnostics
	for _, c := range []records.Collection{bundle.Services, bundle.Expenses} {
		for _, r := range c {
			if _, ok := records.RecordDate(r, a.dates); !ok {
				d.UndatedRecords++
			}
			if records.DateIsAmbiguous(r, a.dates) {
				d.AmbiguousDates++
			}
		}
	}
	return d
}

// Assemble builds the snapshot for rng from the current bundle. When prev
// is set, the previous period is computed on its own and only its KPI set
// is used, for the deltas.
func (a *Assembler) Assemble(rng core.DateRange, current records.Bundle, prev *PreviousContext, categories records.Collection) core.Snapshot {
	catalog := records.NewCatalog(categories)
	cur := a.compute(rng, current, catalog)

	kpis := cur.agg.KPIs
	if prev != nil {
		before := a.compute(prev.Range, prev.Current, catalog)
		kpis.Deltas = Deltas(cur.agg.KPIs, before.agg.KPIs)
	}

	return core.Snapshot{
		Range: rng,
		KPIs:  kpis,
		Series: core.Series{
			ByDay:              cur.agg.ByDay,
			ExpensesByCategory: cur.agg.ExpensesByCategory,
		},
		RecentActivity: RecentActivity(cur.services, cur.expenses, a.activityLimit),
		Alerts:         Alerts(kpis, cur.fixed, rng.To),
		Empty:          isEmpty(cur.agg),
		Diagnostics:    cur.diag,
	}
}

// Assemble computes a snapshot with the default assembler.
func Assemble(rng core.DateRange, current records.Bundle, prev *PreviousContext, categories records.Collection) core.Snapshot {
	return NewAssembler().Assemble(rng, current, prev, categories)
}

func isEmpty(agg Aggregation) bool {
	return agg.KPIs.Income == 0 &&
		agg.KPIs.Expenses == 0 &&
		agg.KPIs.ServicesCount == 0 &&
		agg.DailyExpenseCount == 0
}
