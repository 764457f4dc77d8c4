package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusActive   FixedStatus = "active"
	StatusInactive FixedStatus = "inactive"
)

const (
	KindService ActivityKind = "service"
	KindExpense ActivityKind = "expense"
)

const dateLayout = "2006-01-02"

type (
	FixedStatus string

	ActivityKind string

	// Date is a calendar date with no time component. The zero value means
	// "no date".
	Date struct {
		time.Time
	}

	DateRange struct {
		From  Date   `json:"from"`
		To    Date   `json:"to"`
		Label string `json:"label"`
	}

	Service struct {
		ID            string  `json:"id"`
		Date          Date    `json:"date"`
		Amount        float64 `json:"amount"`
		PetName       string  `json:"petName"`
		CustomerName  string  `json:"customerName"`
		PaymentMethod string  `json:"paymentMethod"`
		ServiceName   string  `json:"serviceName"`
	}

	Expense struct {
		ID            string  `json:"id"`
		Date          Date    `json:"date"`
		Amount        float64 `json:"amount"`
		Category      string  `json:"category"`
		PaymentMethod string  `json:"paymentMethod"`
		Description   string  `json:"description"`
		Supplier      string  `json:"supplier"`
	}

	FixedExpense struct {
		ID            string      `json:"id"`
		Amount        float64     `json:"amount"`
		DueDay        int         `json:"dueDay"` // 1-31, 0 when unknown
		Status        FixedStatus `json:"status"`
		Category      string      `json:"category"`
		PaymentMethod string      `json:"paymentMethod"`
		Name          string      `json:"name"`
	}

	Category struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("invalid date range")
	ErrEmptyRange   = errors.New("date range endpoints are required")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the time of day of t, keeping the calendar date in t's location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) Date {
	return DateOf(time.Now().In(loc))
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) AddDays(n int) Date {
	if d.IsEmpty() {
		return d
	}
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

func (d Date) String() string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsEmpty() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(`"`+dateLayout+`"`, s)
	if err != nil {
		return ErrInvalidDate
	}
	*d = DateOf(t)
	return nil
}

// DaysIn returns the number of days of month in year.
func DaysIn(year, month int) int {
	return NewDate(year, month+1, 0).Day()
}

// DaysBetween returns the signed number of calendar days from a to b.
// Both dates are UTC midnight, so whole seconds divide evenly into days
// and ranges longer than a time.Duration can hold still count correctly.
func DaysBetween(a, b Date) int {
	return int((b.Unix() - a.Unix()) / 86400)
}

func (s FixedStatus) IsActive() bool {
	return s == StatusActive
}

func (f FixedExpense) Active() bool {
	return f.Status.IsActive()
}
