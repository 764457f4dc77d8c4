// Package records holds the raw, loosely shaped records read from the data
// sources and maps them into the canonical core types.
package records

import (
	"encoding/json"
	"fmt"
)

// Raw is a single record as delivered by a source. Field names vary between
// sources (snake_case or camelCase, nested objects or flat scalars).
type Raw map[string]any

// Collection is a list of raw records. In JSON it may be written as an
// array or as an object carrying an "items" array.
type Collection []Raw

// Bundle groups the three record lists a period is computed from.
type Bundle struct {
	Services      Collection `json:"services"`
	Expenses      Collection `json:"expenses"`
	FixedExpenses Collection `json:"fixedExpenses"`
}

func (c *Collection) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decode collection: %w", err)
	}
	*c = CollectionOf(v)
	return nil
}

func (b *Bundle) UnmarshalJSON(data []byte) error {
	var aux struct {
		Services       Collection `json:"services"`
		Expenses       Collection `json:"expenses"`
		DailyExpenses  Collection `json:"dailyExpenses"`
		FixedExpenses  Collection `json:"fixedExpenses"`
		FixedExpenses2 Collection `json:"fixed_expenses"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decode bundle: %w", err)
	}
	b.Services = aux.Services
	b.Expenses = aux.Expenses
	if len(b.Expenses) == 0 {
		b.Expenses = aux.DailyExpenses
	}
	b.FixedExpenses = aux.FixedExpenses
	if len(b.FixedExpenses) == 0 {
		b.FixedExpenses = aux.FixedExpenses2
	}
	return nil
}

// CollectionOf converts decoded JSON or in-memory values into a
// Collection. Anything that is not a list of objects (or an object with an
// "items" list) yields an empty collection; non-object elements are
// skipped.
func CollectionOf(v any) Collection {
	switch t := v.(type) {
	case Collection:
		return t
	case []Raw:
		return Collection(t)
	case []map[string]any:
		out := make(Collection, 0, len(t))
		for _, m := range t {
			if m != nil {
				out = append(out, Raw(m))
			}
		}
		return out
	case []any:
		out := make(Collection, 0, len(t))
		for _, item := range t {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, Raw(m))
			case Raw:
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		if items, ok := t["items"]; ok {
			return CollectionOf(items)
		}
	case Raw:
		if items, ok := t["items"]; ok {
			return CollectionOf(items)
		}
	}
	return Collection{}
}

// Len returns the number of records in the bundle.
func (b Bundle) Len() int {
	return len(b.Services) + len(b.Expenses) + len(b.FixedExpenses)
}
