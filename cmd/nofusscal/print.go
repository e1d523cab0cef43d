package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"nofusscal/internal/caldate"
	"nofusscal/internal/config"
	"nofusscal/internal/lookup"
	"nofusscal/internal/model"
)

// printMonth writes a month grid, days with events marked '*', followed by
// the event list.
func printMonth(w io.Writer, conf *config.Config, year, month int, entries []lookup.Entry) {
	first := caldate.MustNew(year, month, 1)
	fmt.Fprintln(w, first.Format(caldate.MonthYearLong))

	busy := map[int]bool{}
	for _, e := range entries {
		for _, d := range e.Days {
			busy[d] = true
		}
	}

	// Weekdays are 1 = Sunday .. 7 = Saturday.
	weekStart := 1
	if conf.WeekStart == "monday" {
		weekStart = 2
	}
	header := make([]string, 7)
	for i := range header {
		header[i] = fmt.Sprintf("%4s", caldate.WeekdayName((weekStart-1+i)%7+1, true)[:2])
	}
	fmt.Fprintln(w, strings.Join(header, ""))

	lead := (first.FirstWeekdayOfMonth() - weekStart + 7) % 7
	var row strings.Builder
	row.WriteString(strings.Repeat("    ", lead))
	col := lead
	for day := 1; day <= first.DaysInMonth(); day++ {
		mark := " "
		if busy[day] {
			mark = "*"
		}
		fmt.Fprintf(&row, "%3d%s", day, mark)
		col++
		if col == 7 {
			fmt.Fprintln(w, row.String())
			row.Reset()
			col = 0
		}
	}
	if col > 0 {
		fmt.Fprintln(w, row.String())
	}

	fmt.Fprintln(w)
	for _, e := range entries {
		days := make([]string, len(e.Days))
		for i, d := range e.Days {
			days[i] = fmt.Sprint(d)
		}
		fmt.Fprintf(w, "%-12s %s\n", strings.Join(days, ","), describe(conf, e.Event))
	}
}

// printDay writes the events of one day, all-day events first.
func printDay(w io.Writer, conf *config.Config, d caldate.Date, events []model.Event) {
	fmt.Fprintln(w, d.Format(caldate.FullLong))
	if len(events) == 0 {
		fmt.Fprintln(w, "  no events")
		return
	}
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b model.Event) int {
		return startMinutes(a) - startMinutes(b)
	})
	for _, e := range sorted {
		fmt.Fprintf(w, "  %s\n", describe(conf, e))
	}
}

func describe(conf *config.Config, e model.Event) string {
	s := fmt.Sprintf("%s  %s", e.TimeLabel(conf.MilitaryTime), e.Title)
	if e.Location != "" && e.Location != model.DefaultLocation {
		s += " @ " + e.Location
	}
	return s
}

func startMinutes(e model.Event) int {
	if e.IsAllDay() {
		return -1
	}
	return e.StartTime.Hour*60 + e.StartTime.Minute
}
