package metrics

import "panel/internal/core"

const (
	UncategorizedLabel = "Sin categoría"
	FixedExpensesLabel = "Gastos fijos"
	NoPaymentLabel     = "Sin método"
)

// Aggregation is the result of folding one period's normalized records.
type Aggregation struct {
	KPIs               core.KPISet
	ByDay              []core.DailyBucket
	ExpensesByCategory []core.CategoryTotal

	DailyExpenseTotal float64
	FixedExpenseTotal float64
	DailyExpenseCount int
}

// Aggregate computes the KPI set and series for rng. Services and expenses
// outside rng (or undated) are ignored; fixed expenses are projected over
// the days of rng.
func Aggregate(rng core.DateRange, services []core.Service, expenses []core.Expense, fixed []core.FixedExpense) Aggregation {
	days := core.ExpandRange(rng)
	projection := Project(fixed, days)

	incomeByDay := make(map[core.Date]float64)
	expenseByDay := make(map[core.Date]float64)

	var agg Aggregation
	var income float64
	var servicesCount int
	for _, s := range services {
		if !rng.Contains(s.Date) {
			continue
		}
		income += s.Amount
		servicesCount++
		incomeByDay[s.Date] += s.Amount
	}

	cats := newCategoryTotals()
	for _, e := range expenses {
		if !rng.Contains(e.Date) {
			continue
		}
		agg.DailyExpenseTotal += e.Amount
		agg.DailyExpenseCount++
		expenseByDay[e.Date] += e.Amount
		cats.add(categoryLabel(e.Category), e.Amount)
	}

	agg.FixedExpenseTotal = projectedTotal(projection, days)
	if agg.FixedExpenseTotal > 0 {
		cats.add(FixedExpensesLabel, agg.FixedExpenseTotal)
	}
	agg.ExpensesByCategory = cats.list()

	agg.ByDay = make([]core.DailyBucket, 0, len(days))
	for _, d := range days {
		in := incomeByDay[d]
		out := expenseByDay[d] + projection[d]
		agg.ByDay = append(agg.ByDay, core.DailyBucket{
			Date:    d,
			Income:  in,
			Expense: out,
			Profit:  in - out,
		})
	}

	agg.KPIs = NewKPISet(income, agg.DailyExpenseTotal+agg.FixedExpenseTotal, servicesCount)
	return agg
}

// NewKPISet derives profit, margin and average ticket. Both ratios are 0
// when their denominator is 0.
func NewKPISet(income, expenses float64, servicesCount int) core.KPISet {
	k := core.KPISet{
		Income:        income,
		Expenses:      expenses,
		Profit:        income - expenses,
		ServicesCount: servicesCount,
	}
	if income != 0 {
		k.Margin = k.Profit / income
	}
	if servicesCount > 0 {
		k.AvgTicket = income / float64(servicesCount)
	}
	return k
}

func categoryLabel(name string) string {
	if name == "" {
		return UncategorizedLabel
	}
	return name
}

// categoryTotals sums by name, keeping first-seen order.
type categoryTotals struct {
	index  map[string]int
	totals []core.CategoryTotal
}

func newCategoryTotals() *categoryTotals {
	return &categoryTotals{index: make(map[string]int)}
}

func (c *categoryTotals) add(name string, value float64) {
	if i, ok := c.index[name]; ok {
		c.totals[i].Value += value
		return
	}
	c.index[name] = len(c.totals)
	c.totals = append(c.totals, core.CategoryTotal{Name: name, Value: value})
}

func (c *categoryTotals) list() []core.CategoryTotal {
	if c.totals == nil {
		return []core.CategoryTotal{}
	}
	return c.totals
}
