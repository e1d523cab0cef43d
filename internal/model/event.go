package model

import (
	"github.com/samber/mo"

	"nofusscal/internal/caldate"
	"nofusscal/internal/ics"
)

const (
	DefaultTitle    = "No Title"
	DefaultLocation = "No Location"
)

// TimeOfDay is a naive wall-clock time. AllDay marks events without one.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// AllDay is the time-of-day sentinel of all-day events.
var AllDay = TimeOfDay{Hour: -1, Minute: -1}

func (t TimeOfDay) IsAllDay() bool {
	return t == AllDay
}

func (t TimeOfDay) valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// Event is a calendar entry after parsing. StartDate..EndDate is the
// inclusive span of a single occurrence; Rule, when present, repeats it.
type Event struct {
	UID         string
	Title       string
	Location    string
	Description string
	// Color is a CSS3 color name, a hex triplet or an ARGB integer for
	// events built by New. Parsed events carry whatever the file held.
	Color string

	StartDate caldate.Date
	StartTime TimeOfDay
	EndDate   caldate.Date
	EndTime   TimeOfDay

	Rule  mo.Option[Rule]
	Alarm mo.Option[ics.Alarm]
}

// IsAllDay reports whether the event carries no time of day.
func (e Event) IsAllDay() bool {
	return e.StartTime.IsAllDay()
}

// FinalDate is the last date the event can occur on. It is absent for rules
// that repeat forever.
//
//   - no rule:     the end date
//   - UNTIL:       the until date
//   - COUNT n:     the end date advanced by (n-1) intervals
func (e Event) FinalDate() mo.Option[caldate.Date] {
	rule, ok := e.Rule.Get()
	if !ok {
		return mo.Some(e.EndDate)
	}
	switch rule.Limit.Kind {
	case UntilDate:
		return mo.Some(rule.Limit.Until)
	case UntilCount:
		return mo.Some(e.EndDate.Change(rule.Frequency.Unit(), (rule.Limit.Count-1)*rule.Interval))
	default:
		return mo.None[caldate.Date]()
	}
}

// Compare orders events by final date, with never-ending events last.
func Compare(a, b Event) int {
	fa, boundedA := a.FinalDate().Get()
	fb, boundedB := b.FinalDate().Get()
	switch {
	case !boundedA && !boundedB:
		return 0
	case !boundedA:
		return 1
	case !boundedB:
		return -1
	default:
		return caldate.Compare(fa, fb)
	}
}

// TimeLabel renders the time span for display: "all-day" or
// "9:00 AM - 10:30 AM".
func (e Event) TimeLabel(military bool) string {
	if e.IsAllDay() {
		return "all-day"
	}
	return caldate.FormatClock(e.StartTime.Hour, e.StartTime.Minute, military) +
		" - " + caldate.FormatClock(e.EndTime.Hour, e.EndTime.Minute, military)
}
