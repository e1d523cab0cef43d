package model

import "nofusscal/internal/caldate"

// OccurrencesInMonth returns the days of year-month on which the event
// starts, in ascending order.
//
// The walk begins at StartDate and advances one rule interval at a time (one
// day at a time for non-repeating events, so a multi-day event lists every
// day it spans). It stops at the final date or at the first date past the
// queried month, whichever comes first, so unbounded rules still terminate.
func (e Event) OccurrencesInMonth(year, month int) []int {
	final, bounded := e.FinalDate().Get()
	rule, repeating := e.Rule.Get()

	unit, step := caldate.Day, 1
	if repeating {
		unit, step = rule.Frequency.Unit(), max(rule.Interval, 1)
	}

	var days []int
	cur := e.StartDate
	for (!bounded || cur.SubtractDays(final) <= 0) && cur.IsBeforeNextMonth(year, month) {
		if cur.IsInMonth(year, month) && cur.IsOnOrPast(e.StartDate) {
			days = append(days, cur.Day())
		}
		cur = cur.Change(unit, step)
	}
	return days
}
