package records

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Accessor reads one candidate location of a logical field.
type Accessor func(Raw) any

// Chain is an ordered list of accessors; the first truthy value wins.
type Chain []Accessor

// Key reads a top-level field.
func Key(name string) Accessor {
	return func(r Raw) any {
		if r == nil {
			return nil
		}
		return r[name]
	}
}

// Path reads a nested field, e.g. Path("category", "name").
func Path(keys ...string) Accessor {
	return func(r Raw) any {
		var cur any = map[string]any(r)
		for _, k := range keys {
			switch m := cur.(type) {
			case map[string]any:
				cur = m[k]
			case Raw:
				cur = m[k]
			default:
				return nil
			}
		}
		return cur
	}
}

// Lookup returns the first truthy value found along the chain, or nil.
func (c Chain) Lookup(r Raw) any {
	for _, get := range c {
		if v := get(r); truthy(v) {
			return v
		}
	}
	return nil
}

// String returns the first value along the chain that has a non-empty text
// form. Nested objects met on the way are skipped.
func (c Chain) String(r Raw) string {
	for _, get := range c {
		if s := asString(get(r)); s != "" {
			return s
		}
	}
	return ""
}

func (c Chain) Amount(r Raw) float64 {
	return asAmount(c.Lookup(r))
}

// Field chains per logical field. Read-only.
var (
	dateChain = Chain{Key("date"), Key("created_at"), Key("createdAt")}
	idChain   = Chain{Key("id"), Key("_id"), Key("uuid")}

	serviceAmount   = Chain{Key("price"), Key("amount"), Key("total")}
	servicePet      = Chain{Key("dogName"), Path("pet", "name"), Key("petName"), Key("pet_name")}
	serviceCustomer = Chain{Key("ownerName"), Path("customer", "name"), Key("customerName"), Key("customer_name")}
	servicePayment  = Chain{Key("paymentMethod"), Path("payment_method", "name"), Path("paymentMethod", "name")}
	serviceName     = Chain{Path("service", "name"), Key("serviceName"), Key("service_name"), Path("service_type", "name"), Key("service")}

	expenseAmount     = Chain{Key("amount"), Key("total")}
	expenseCategory   = Chain{Path("category", "name"), Key("category_name"), Key("categoryName"), Key("category")}
	expenseCategoryID = Chain{Key("category_id"), Key("categoryId"), Path("category", "id")}
	expensePayment    = Chain{Path("payment_method", "name"), Key("paymentMethod"), Path("paymentMethod", "name")}
	expenseDesc       = Chain{Key("description")}
	expenseSupplier   = Chain{Path("supplier", "name"), Key("supplier_name"), Key("supplierName"), Key("supplier")}

	fixedAmount  = Chain{Key("amount")}
	fixedDueDay  = Chain{Key("due_day"), Key("dueDay")}
	fixedStatus  = Chain{Key("status")}
	fixedName    = Chain{Key("name"), Key("description")}
	categoryName = Chain{Key("name"), Key("label"), Key("title")}
)

// truthy mirrors loose truthiness: nil, false, 0, NaN and "" are falsy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

// asString renders scalars as text. Objects (and booleans) have no text
// form and yield "".
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	default:
		return ""
	}
}

// toNumber converts v to a float. ok is false for anything non-numeric.
func toNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// asAmount coerces a monetary value to a non-negative number.
func asAmount(v any) float64 {
	f, ok := toNumber(v)
	if !ok || f < 0 {
		return 0
	}
	return f
}

// asDueDay accepts integral values in 1..31; anything else is 0.
func asDueDay(v any) int {
	f, ok := toNumber(v)
	if !ok || f != math.Trunc(f) || f < 1 || f > 31 {
		return 0
	}
	return int(f)
}
