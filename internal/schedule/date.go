package schedule

import (
	"fmt"
	"time"
)

// Date is a calendar date with no time component. Range queries against the
// gateway operate on Dates; passing a timestamp where a Date is expected is a
// caller error the type system rules out.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{year: year, month: month, day: day}
}

// ParseDate parses strict "YYYY-MM-DD" input.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return Date{}, fmt.Errorf("schedule: invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// String renders the wire format "YYYY-MM-DD".
func (d Date) String() string {
	return d.At(0, 0).Format("2006-01-02")
}

// At anchors a local clock time on this date.
func (d Date) At(hour, minute int) time.Time {
	return time.Date(d.year, d.month, d.day, hour, minute, 0, 0, time.Local)
}

// AddDays returns the date n calendar days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.At(0, 0).AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.At(0, 0).Before(other.At(0, 0))
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// Weekday returns the day of week.
func (d Date) Weekday() time.Weekday {
	return d.At(0, 0).Weekday()
}
