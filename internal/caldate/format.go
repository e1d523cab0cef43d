package caldate

import (
	"fmt"
	"strconv"
)

// Layout selects one of the fixed textual renderings of a Date.
type Layout int

const (
	MonthDayYearLong  Layout = iota // January 5 2024
	MonthDayYearShort               // Jan 5 2024
	MonthYearLong                   // January 2024
	MonthYearShort                  // Jan 2024
	FullLong                        // Friday, 5 January 2024
	FullShort                       // Friday, 5 Jan 2024
	Compact                         // 20240105
	ISO                             // 2024-01-05
)

var (
	monthNames   = [...]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}
	weekdayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
)

// MonthName returns the English name of month 1..12, or its three letter
// abbreviation when short is set. Out of range values map to December, the
// same fallback the month grid has always used.
func MonthName(month int, short bool) string {
	if month < 1 || month > 12 {
		month = 12
	}
	name := monthNames[month-1]
	if short {
		return name[:3]
	}
	return name
}

// WeekdayName returns the name of weekday 1..7 (1 = Sunday). Out of range
// values map to Saturday.
func WeekdayName(weekday int, short bool) string {
	if weekday < 1 || weekday > 7 {
		weekday = 7
	}
	name := weekdayNames[weekday-1]
	if short {
		return name[:3]
	}
	return name
}

// FormatClock renders a time of day either as 24h "15:04" or as 12h
// "3:04 PM".
func FormatClock(hour, minute int, military bool) string {
	if military {
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, suffix)
}

// Format renders d using one of the fixed layouts.
func (d Date) Format(layout Layout) string {
	switch layout {
	case MonthDayYearLong:
		return fmt.Sprintf("%s %d %d", MonthName(d.month, false), d.day, d.year)
	case MonthDayYearShort:
		return fmt.Sprintf("%s %d %d", MonthName(d.month, true), d.day, d.year)
	case MonthYearLong:
		return fmt.Sprintf("%s %d", MonthName(d.month, false), d.year)
	case MonthYearShort:
		return fmt.Sprintf("%s %d", MonthName(d.month, true), d.year)
	case FullLong:
		return fmt.Sprintf("%s, %d %s %d", WeekdayName(d.Weekday(), false), d.day, MonthName(d.month, false), d.year)
	case FullShort:
		return fmt.Sprintf("%s, %d %s %d", WeekdayName(d.Weekday(), false), d.day, MonthName(d.month, true), d.year)
	case Compact:
		return fmt.Sprintf("%04d%02d%02d", d.year, d.month, d.day)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
	}
}

func (d Date) String() string {
	return d.Format(ISO)
}

// Parse reads the 8-digit YYYYMMDD form.
func Parse(s string) (Date, error) {
	if len(s) != 8 || !allDigits(s) {
		return Date{}, fmt.Errorf("%w: %q is not YYYYMMDD", ErrInvalidDate, s)
	}
	year, _ := strconv.Atoi(s[0:4])
	month, _ := strconv.Atoi(s[4:6])
	day, _ := strconv.Atoi(s[6:8])
	return New(year, month, day)
}

// ParseISO reads the YYYY-MM-DD form.
func ParseISO(s string) (Date, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, s)
	}
	return Parse(s[0:4] + s[5:7] + s[8:10])
}

// MarshalText encodes d in ISO form so dates read naturally in JSON.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.Format(ISO)), nil
}

// UnmarshalText accepts either the ISO or the compact form.
func (d *Date) UnmarshalText(b []byte) error {
	s := string(b)
	var (
		parsed Date
		err    error
	)
	if len(s) == 8 {
		parsed, err = Parse(s)
	} else {
		parsed, err = ParseISO(s)
	}
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
