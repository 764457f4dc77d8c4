package records

import (
	"strings"

	"panel/internal/core"
)

// Catalog resolves category ids to names.
type Catalog map[string]string

// NewCatalog indexes the category records that carry both an id and a name.
func NewCatalog(categories Collection) Catalog {
	cat := make(Catalog, len(categories))
	for _, r := range categories {
		c, ok := NormalizeCategory(r)
		if !ok || c.ID == "" {
			continue
		}
		if _, seen := cat[c.ID]; !seen {
			cat[c.ID] = c.Name
		}
	}
	return cat
}

// Name returns the category name for id, or "" when unknown.
func (c Catalog) Name(id string) string {
	if c == nil || id == "" {
		return ""
	}
	return c[id]
}

// RecordDate reads and parses the date of a service or expense record.
func RecordDate(r Raw, dates core.DateParser) (core.Date, bool) {
	for _, get := range dateChain {
		v := get(r)
		if !truthy(v) {
			continue
		}
		return dates.Parse(v)
	}
	return core.Date{}, false
}

// DateIsAmbiguous reports whether the record's date was read from a slash
// date whose day and month could be swapped.
func DateIsAmbiguous(r Raw, dates core.DateParser) bool {
	return dates.IsAmbiguous(dateChain.Lookup(r))
}

func NormalizeService(r Raw, dates core.DateParser) core.Service {
	d, _ := RecordDate(r, dates)
	return core.Service{
		ID:            idChain.String(r),
		Date:          d,
		Amount:        serviceAmount.Amount(r),
		PetName:       servicePet.String(r),
		CustomerName:  serviceCustomer.String(r),
		PaymentMethod: servicePayment.String(r),
		ServiceName:   serviceName.String(r),
	}
}

// NormalizeExpense maps a daily expense. A category given only by id is
// resolved through the catalog.
func NormalizeExpense(r Raw, dates core.DateParser, catalog Catalog) core.Expense {
	d, _ := RecordDate(r, dates)
	return core.Expense{
		ID:            idChain.String(r),
		Date:          d,
		Amount:        expenseAmount.Amount(r),
		Category:      expenseCategoryName(r, catalog),
		PaymentMethod: expensePayment.String(r),
		Description:   expenseDesc.String(r),
		Supplier:      expenseSupplier.String(r),
	}
}

func NormalizeFixedExpense(r Raw, catalog Catalog) core.FixedExpense {
	return core.FixedExpense{
		ID:            idChain.String(r),
		Amount:        fixedAmount.Amount(r),
		DueDay:        asDueDay(fixedDueDay.Lookup(r)),
		Status:        fixedStatusOf(fixedStatus.Lookup(r)),
		Category:      expenseCategoryName(r, catalog),
		PaymentMethod: expensePayment.String(r),
		Name:          fixedName.String(r),
	}
}

// NormalizeCategory maps a catalog entry. Records without a name are
// rejected.
func NormalizeCategory(r Raw) (core.Category, bool) {
	c := core.Category{
		ID:   idChain.String(r),
		Name: categoryName.String(r),
	}
	return c, c.Name != ""
}

func expenseCategoryName(r Raw, catalog Catalog) string {
	if name := expenseCategory.String(r); name != "" {
		return name
	}
	return catalog.Name(expenseCategoryID.String(r))
}

func fixedStatusOf(v any) core.FixedStatus {
	switch t := v.(type) {
	case bool:
		if t {
			return core.StatusActive
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "active", "activo", "activa":
			return core.StatusActive
		}
	}
	return core.StatusInactive
}

// InRange reports whether d is set and falls inside rng, endpoints included.
func InRange(d core.Date, rng core.DateRange) bool {
	return rng.Contains(d)
}

// WithinRange keeps the records whose date parses and falls inside rng.
func WithinRange(c Collection, rng core.DateRange, dates core.DateParser) Collection {
	out := make(Collection, 0, len(c))
	for _, r := range c {
		if d, ok := RecordDate(r, dates); ok && InRange(d, rng) {
			out = append(out, r)
		}
	}
	return out
}

func NormalizeServices(c Collection, dates core.DateParser) []core.Service {
	out := make([]core.Service, 0, len(c))
	for _, r := range c {
		out = append(out, NormalizeService(r, dates))
	}
	return out
}

func NormalizeExpenses(c Collection, dates core.DateParser, catalog Catalog) []core.Expense {
	out := make([]core.Expense, 0, len(c))
	for _, r := range c {
		out = append(out, NormalizeExpense(r, dates, catalog))
	}
	return out
}

func NormalizeFixedExpenses(c Collection, catalog Catalog) []core.FixedExpense {
	out := make([]core.FixedExpense, 0, len(c))
	for _, r := range c {
		out = append(out, NormalizeFixedExpense(r, catalog))
	}
	return out
}

// ActiveFixedExpenses keeps the fixed expenses with an active status.
func ActiveFixedExpenses(fixed []core.FixedExpense) []core.FixedExpense {
	out := make([]core.FixedExpense, 0, len(fixed))
	for _, f := range fixed {
		if f.Active() {
			out = append(out, f)
		}
	}
	return out
}
