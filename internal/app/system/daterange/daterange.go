// internal/app/system/daterange/daterange.go
// Package daterange resolves inclusive calendar-date windows from request
// parameters into UTC instant bounds for created_at filtering.
package daterange

import (
	"regexp"
	"time"
)

// DateLayout is the calendar-date layout accepted on the wire.
const DateLayout = "2006-01-02"

// ISOLayout is the instant layout used in exports and bound strings.
const ISOLayout = "2006-01-02T15:04:05.000Z"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Bounds is a resolved date window. Empty FromDate/ToDate mean the side is
// unbounded, in which case the matching instant is nil.
type Bounds struct {
	FromDate string
	ToDate   string

	// From is UTC midnight of FromDate.
	From *time.Time
	// ToExclusive is UTC midnight of the day after ToDate.
	ToExclusive *time.Time
}

// NormalizeDateParam returns value when it is a valid YYYY-MM-DD calendar
// date and "" otherwise. It never fails.
func NormalizeDateParam(value string) string {
	if !datePattern.MatchString(value) {
		return ""
	}
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return ""
	}
	// time.Parse rejects day-of-month overflow, but keep the round trip
	// check so the result is always canonical.
	if t.Format(DateLayout) != value {
		return ""
	}
	return value
}

// GetDateRangeBounds revalidates both ends and swaps them when from is
// later than to.
func GetDateRangeBounds(fromDate, toDate string) Bounds {
	from := NormalizeDateParam(fromDate)
	to := NormalizeDateParam(toDate)
	// Zero-padded dates order lexically.
	if from != "" && to != "" && from > to {
		from, to = to, from
	}

	b := Bounds{FromDate: from, ToDate: to}
	if from != "" {
		t, _ := time.ParseInLocation(DateLayout, from, time.UTC)
		b.From = &t
	}
	if to != "" {
		t, _ := time.ParseInLocation(DateLayout, to, time.UTC)
		next := t.AddDate(0, 0, 1)
		b.ToExclusive = &next
	}
	return b
}

// FromISO is From formatted with ISOLayout, or "" when unbounded.
func (b Bounds) FromISO() string {
	if b.From == nil {
		return ""
	}
	return b.From.Format(ISOLayout)
}

// ToExclusiveISO is ToExclusive formatted with ISOLayout, or "" when unbounded.
func (b Bounds) ToExclusiveISO() string {
	if b.ToExclusive == nil {
		return ""
	}
	return b.ToExclusive.Format(ISOLayout)
}

// Label returns the date for filenames, "all" when that side is unbounded.
func Label(date string) string {
	if date == "" {
		return "all"
	}
	return date
}

// Nullable returns nil for an unbounded side, for JSON responses.
func Nullable(date string) *string {
	if date == "" {
		return nil
	}
	return &date
}
