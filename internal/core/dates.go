package core

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)

// hyphenLayouts are tried in order for hyphenated values that are not a
// bare YYYY-MM-DD. The calendar date is taken as written, in the value's
// own offset.
var hyphenLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02-Jan-2006",
	"2-Jan-2006",
}

var genericLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
	"Mon, 2 Jan 2006",
}

// DateParser turns the date encodings found in raw records into calendar
// dates. It holds no mutable state and is safe for concurrent use.
type DateParser struct {
	order SlashOrder
}

func NewDateParser(order SlashOrder) DateParser {
	return DateParser{order: order}
}

// DefaultDateParser uses the day-first-unless-impossible slash order.
func DefaultDateParser() DateParser {
	return DateParser{order: DayFirstUnlessImpossible{}}
}

func (p DateParser) slashOrder() SlashOrder {
	if p.order == nil {
		return DayFirstUnlessImpossible{}
	}
	return p.order
}

// SlashOrderName returns the name of the active slash order strategy.
func (p DateParser) SlashOrderName() string {
	return p.slashOrder().Name()
}

// Parse returns the calendar date for v. Unparseable input yields false,
// never an error.
func (p DateParser) Parse(v any) (Date, bool) {
	d, _ := p.parse(v)
	if d.IsEmpty() {
		return Date{}, false
	}
	return d, true
}

// IsAmbiguous reports whether v is a slash date whose day and month could
// be swapped and still form a different date.
func (p DateParser) IsAmbiguous(v any) bool {
	_, ambiguous := p.parse(v)
	return ambiguous
}

func (p DateParser) parse(v any) (Date, bool) {
	switch t := v.(type) {
	case nil:
		return Date{}, false
	case Date:
		return t, false
	case *Date:
		if t == nil {
			return Date{}, false
		}
		return *t, false
	case time.Time:
		return DateOf(t), false
	case *time.Time:
		if t == nil {
			return Date{}, false
		}
		return DateOf(*t), false
	case string:
		return p.parseString(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return p.parseString(t.String())
		}
		return fromUnixMilli(f), false
	case float64:
		return fromUnixMilli(t), false
	case float32:
		return fromUnixMilli(float64(t)), false
	case int:
		return fromUnixMilli(float64(t)), false
	case int64:
		return fromUnixMilli(float64(t)), false
	case int32:
		return fromUnixMilli(float64(t)), false
	default:
		return Date{}, false
	}
}

// fromUnixMilli reads a number as milliseconds since the Unix epoch (UTC).
func fromUnixMilli(ms float64) Date {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return Date{}
	}
	return DateOf(time.UnixMilli(int64(ms)).UTC())
}

func (p DateParser) parseString(raw string) (Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, false
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return civil(y, mo, d), false
	}

	if strings.Contains(s, "-") {
		return parseLayouts(s, hyphenLayouts), false
	}

	if strings.Contains(s, "/") {
		return p.parseSlash(s)
	}

	return parseLayouts(s, genericLayouts), false
}

func (p DateParser) parseSlash(s string) (Date, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Date{}, false
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return Date{}, false
		}
		nums[i] = n
	}

	// YYYY/MM/DD is unambiguous.
	if len(strings.TrimSpace(parts[0])) == 4 {
		return civil(nums[0], nums[1], nums[2]), false
	}

	year := nums[2]
	if year < 100 {
		year += 2000
	}
	day, month := p.slashOrder().Resolve(nums[0], nums[1])
	d := civil(year, month, day)
	ambiguous := !d.IsEmpty() && nums[0] <= 12 && nums[1] <= 12 && nums[0] != nums[1]
	return d, ambiguous
}

func parseLayouts(s string, layouts []string) Date {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t)
		}
	}
	return Date{}
}

// civil builds a date from components, rejecting out-of-range values
// instead of rolling them over.
func civil(year, month, day int) Date {
	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return Date{}
	}
	if day > DaysIn(year, month) {
		return Date{}
	}
	return NewDate(year, month, day)
}
