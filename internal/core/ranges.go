package core

import "fmt"

const PreviousPeriodLabel = "Periodo anterior"

func NewDateRange(from, to Date, label string) DateRange {
	return DateRange{From: from, To: to, Label: label}
}

// MonthRange covers the whole calendar month.
func MonthRange(year, month int, label string) DateRange {
	return DateRange{
		From:  NewDate(year, month, 1),
		To:    NewDate(year, month, DaysIn(year, month)),
		Label: label,
	}
}

// IsEmpty reports whether either endpoint is missing.
func (r DateRange) IsEmpty() bool {
	return r.From.IsEmpty() || r.To.IsEmpty()
}

// Validate checks that both endpoints are set and ordered.
func (r DateRange) Validate() error {
	if r.IsEmpty() {
		return ErrEmptyRange
	}
	if r.From.After(r.To) {
		return fmt.Errorf("%w: from %s is after to %s", ErrInvalidRange, r.From, r.To)
	}
	return nil
}

// Days returns the number of calendar days covered, 0 for an invalid range.
func (r DateRange) Days() int {
	if r.Validate() != nil {
		return 0
	}
	return DaysBetween(r.From, r.To) + 1
}

// Contains reports whether d falls inside the range, endpoints included.
// A missing date is never contained.
func (r DateRange) Contains(d Date) bool {
	if d.IsEmpty() || r.IsEmpty() {
		return false
	}
	return !d.Before(r.From) && !d.After(r.To)
}

func (r DateRange) String() string {
	return r.From.String() + ".." + r.To.String()
}

// ExpandRange lists every day of r in ascending order. It returns an empty
// slice when an endpoint is missing or from is after to.
func ExpandRange(r DateRange) []Date {
	n := r.Days()
	days := make([]Date, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, r.From.AddDays(i))
	}
	return days
}

// PreviousRange returns the period of the same length that ends the day
// before r starts.
func PreviousRange(r DateRange) DateRange {
	n := r.Days()
	if n == 0 {
		return DateRange{Label: PreviousPeriodLabel}
	}
	return DateRange{
		From:  r.From.AddDays(-n),
		To:    r.From.AddDays(-1),
		Label: PreviousPeriodLabel,
	}
}
