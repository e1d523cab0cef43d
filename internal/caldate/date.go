package caldate

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate is returned when a date string is malformed or names a day
// that does not exist in the proleptic Gregorian calendar.
var ErrInvalidDate = errors.New("invalid date")

// Unit is a calendar step used by Date.Change.
type Unit int

const (
	Year Unit = iota
	Month
	Week
	Day
)

func (u Unit) String() string {
	switch u {
	case Year:
		return "year"
	case Month:
		return "month"
	case Week:
		return "week"
	case Day:
		return "day"
	default:
		return fmt.Sprintf("unit(%d)", int(u))
	}
}

// Date is a calendar day without time or zone. The zero value is not a valid
// date; construct one with New, Parse or FromTime.
type Date struct {
	year  int
	month int
	day   int
}

// New returns the date year-month-day, rejecting days that do not exist
// (day 0, Feb 30, month 13 and so on).
func New(year, month, day int) (Date, error) {
	if month < 1 || month > 12 || day < 1 || day > monthLength(year, month) {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return Date{year: year, month: month, day: day}, nil
}

// MustNew is like New but panics on an invalid date. Intended for constants
// and tests.
func MustNew(year, month, day int) Date {
	d, err := New(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime returns the wall-clock date of t in t's own location.
func FromTime(t time.Time) Date {
	return Date{year: t.Year(), month: int(t.Month()), day: t.Day()}
}

// Today returns the current local date.
func Today() Date {
	return FromTime(time.Now())
}

func (d Date) Year() int  { return d.year }
func (d Date) Month() int { return d.month }
func (d Date) Day() int   { return d.day }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// WithYear returns a copy of d in the given year. Feb 29 has no counterpart
// in a common year and yields ErrInvalidDate.
func (d Date) WithYear(year int) (Date, error) {
	return New(year, d.month, d.day)
}

func (d Date) WithMonth(month int) (Date, error) {
	return New(d.year, month, d.day)
}

func (d Date) WithDay(day int) (Date, error) {
	return New(d.year, d.month, day)
}

// Change returns d moved by amount units. Year and Month steps keep the
// day-of-month when possible and otherwise clamp to the last day of the
// target month (Jan 31 + 1 month = Feb 28/29). Week and Day steps are exact
// day counts.
func (d Date) Change(unit Unit, amount int) Date {
	switch unit {
	case Year:
		return d.addMonths(12 * amount)
	case Month:
		return d.addMonths(amount)
	case Week:
		return d.addDays(7 * amount)
	default:
		return d.addDays(amount)
	}
}

func (d Date) addMonths(n int) Date {
	total := d.year*12 + (d.month - 1) + n
	year := total / 12
	if total%12 < 0 {
		year--
	}
	month := total - year*12 + 1
	day := min(d.day, monthLength(year, month))
	return Date{year: year, month: month, day: day}
}

func (d Date) addDays(n int) Date {
	return fromDayNumber(d.dayNumber() + int64(n))
}

// Weekday returns 1..7 where 1 is Sunday and 7 is Saturday.
func (d Date) Weekday() int {
	return int(d.time().Weekday()) + 1
}

// FirstWeekdayOfMonth returns the Weekday of the 1st of d's month.
func (d Date) FirstWeekdayOfMonth() int {
	return Date{year: d.year, month: d.month, day: 1}.Weekday()
}

// DaysInMonth returns the number of days in d's month.
func (d Date) DaysInMonth() int {
	return monthLength(d.year, d.month)
}

// SubtractDays returns the signed number of days from other to d; positive
// when d is later.
func (d Date) SubtractDays(other Date) int {
	return int(d.dayNumber() - other.dayNumber())
}

// IsPast reports whether d is strictly after other.
func (d Date) IsPast(other Date) bool {
	return d.SubtractDays(other) > 0
}

// IsOnOrPast reports whether d is other or later.
func (d Date) IsOnOrPast(other Date) bool {
	return d.SubtractDays(other) >= 0
}

// IsBeforeNextMonth reports whether d falls before the 1st of the month
// following year-month.
func (d Date) IsBeforeNextMonth(year, month int) bool {
	next := Date{year: year, month: month, day: 1}.addMonths(1)
	return d.SubtractDays(next) < 0
}

// IsInMonth reports whether d lies within year-month.
func (d Date) IsInMonth(year, month int) bool {
	first := Date{year: year, month: month, day: 1}
	last := Date{year: year, month: month, day: monthLength(year, month)}
	return d.IsBetween(first, last)
}

// IsBetween reports whether d lies in [a, b], both ends inclusive.
func (d Date) IsBetween(a, b Date) bool {
	return d.SubtractDays(a) >= 0 && d.SubtractDays(b) <= 0
}

// Compare returns -1, 0 or +1 ordering a before, equal to or after b.
func Compare(a, b Date) int {
	switch diff := a.SubtractDays(b); {
	case diff < 0:
		return -1
	case diff > 0:
		return 1
	default:
		return 0
	}
}

// DaysBetween returns every date from a to b inclusive. It is empty when b
// is before a.
func DaysBetween(a, b Date) []Date {
	n := b.SubtractDays(a)
	if n < 0 {
		return nil
	}
	out := make([]Date, 0, n+1)
	for cur := a; cur.SubtractDays(b) <= 0; cur = cur.addDays(1) {
		out = append(out, cur)
	}
	return out
}

// Time returns midnight of d in loc (time.Local when loc is nil).
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.year, time.Month(d.month), d.day, 0, 0, 0, 0, loc)
}

func (d Date) time() time.Time {
	return time.Date(d.year, time.Month(d.month), d.day, 0, 0, 0, 0, time.UTC)
}

// dayNumber counts days since 1970-01-01. Midnight UTC is always an exact
// multiple of 86400 seconds, so the division never truncates.
func (d Date) dayNumber() int64 {
	return d.time().Unix() / 86400
}

func fromDayNumber(n int64) Date {
	return FromTime(time.Unix(n*86400, 0).UTC())
}

func monthLength(year, month int) int {
	first := Date{year: year, month: month, day: 1}
	next := first.addMonthsUnclamped()
	return int(next.dayNumber() - first.dayNumber())
}

// addMonthsUnclamped steps a 1st-of-month date to the next 1st without
// consulting monthLength.
func (d Date) addMonthsUnclamped() Date {
	if d.month == 12 {
		return Date{year: d.year + 1, month: 1, day: 1}
	}
	return Date{year: d.year, month: d.month + 1, day: 1}
}
