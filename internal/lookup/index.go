// Package lookup answers "what happens in this month" over a set of events.
package lookup

import (
	"fmt"
	"slices"
	"sort"

	"nofusscal/internal/caldate"
	"nofusscal/internal/model"
)

// Entry is one event together with the days of the queried month it starts
// on.
type Entry struct {
	Days  []int       `json:"days"`
	Event model.Event `json:"event"`
}

// Index holds events sorted by final date, never-ending events last. It is
// immutable once built; callers rebuild it after every change.
type Index struct {
	events []model.Event
	// finals mirrors events; ok is false for never-ending ones.
	finals []finalDate
}

type finalDate struct {
	date caldate.Date
	ok   bool
}

// Build sorts a private copy of events. Events with equal final dates keep
// their input order.
func Build(events []model.Event) *Index {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, model.Compare)

	finals := make([]finalDate, len(sorted))
	for i, e := range sorted {
		d, ok := e.FinalDate().Get()
		finals[i] = finalDate{date: d, ok: ok}
	}
	return &Index{events: sorted, finals: finals}
}

// Lookup returns every event occurring in year-month with its days, in index
// order. Events that ended before the month are skipped with a binary
// search over the sorted final dates.
func (ix *Index) Lookup(year, month int) ([]Entry, error) {
	first, err := caldate.New(year, month, 1)
	if err != nil {
		return nil, fmt.Errorf("lookup %04d-%02d: %w", year, month, err)
	}

	skip := sort.Search(len(ix.finals), func(i int) bool {
		f := ix.finals[i]
		return !f.ok || f.date.IsOnOrPast(first)
	})

	var out []Entry
	for _, e := range ix.events[skip:] {
		if days := e.OccurrencesInMonth(year, month); len(days) > 0 {
			out = append(out, Entry{Days: days, Event: e})
		}
	}
	return out, nil
}

// ByDay returns the events occurring on year-month-day, in index order.
func (ix *Index) ByDay(year, month, day int) ([]model.Event, error) {
	if _, err := caldate.New(year, month, day); err != nil {
		return nil, fmt.Errorf("lookup %04d-%02d-%02d: %w", year, month, day, err)
	}
	entries, err := ix.Lookup(year, month)
	if err != nil {
		return nil, err
	}
	var out []model.Event
	for _, entry := range entries {
		if slices.Contains(entry.Days, day) {
			out = append(out, entry.Event)
		}
	}
	return out, nil
}

// Events returns a copy of the indexed events in index order.
func (ix *Index) Events() []model.Event {
	return slices.Clone(ix.events)
}

func (ix *Index) Len() int {
	return len(ix.events)
}
