package caldate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsImpossibleDays(t *testing.T) {
	tests := []struct {
		name             string
		year, month, day int
		wantErr          bool
	}{
		{"ordinary", 2024, 7, 4, false},
		{"leap day", 2024, 2, 29, false},
		{"leap day in common year", 2023, 2, 29, true},
		{"feb 30", 2024, 2, 30, true},
		{"day zero", 2024, 1, 0, true},
		{"month zero", 2024, 0, 1, true},
		{"month thirteen", 2024, 13, 1, true},
		{"april 31", 2024, 4, 31, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.year, tt.month, tt.day)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDaysInMonth_MatchesGregorianCalendar(t *testing.T) {
	for year := 1900; year <= 2100; year++ {
		for month := 1; month <= 12; month++ {
			want := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
			got := MustNew(year, month, 1).DaysInMonth()
			require.Equal(t, want, got, "%04d-%02d", year, month)
		}
	}

	assert.Equal(t, 29, MustNew(2024, 2, 1).DaysInMonth())
	assert.Equal(t, 29, MustNew(2000, 2, 1).DaysInMonth())
	assert.Equal(t, 28, MustNew(2023, 2, 1).DaysInMonth())
	assert.Equal(t, 28, MustNew(1900, 2, 1).DaysInMonth())
}

func TestWeekday_SundayIsOne(t *testing.T) {
	assert.Equal(t, 2, MustNew(2024, 1, 1).Weekday(), "2024-01-01 is a Monday")
	assert.Equal(t, 1, MustNew(2024, 7, 7).Weekday(), "2024-07-07 is a Sunday")
	assert.Equal(t, 7, MustNew(2024, 7, 6).Weekday(), "2024-07-06 is a Saturday")
	assert.Equal(t, 2, MustNew(2024, 7, 18).FirstWeekdayOfMonth(), "2024-07-01 is a Monday")
}

func TestChange(t *testing.T) {
	tests := []struct {
		name   string
		from   Date
		unit   Unit
		amount int
		want   Date
	}{
		{"day forward across month", MustNew(2024, 1, 31), Day, 1, MustNew(2024, 2, 1)},
		{"day backward across year", MustNew(2024, 1, 1), Day, -1, MustNew(2023, 12, 31)},
		{"week", MustNew(2024, 7, 7), Week, 2, MustNew(2024, 7, 21)},
		{"six weeks", MustNew(2024, 7, 7), Week, 6, MustNew(2024, 8, 18)},
		{"month clamps to leap february", MustNew(2024, 1, 31), Month, 1, MustNew(2024, 2, 29)},
		{"month clamps to common february", MustNew(2023, 1, 31), Month, 1, MustNew(2023, 2, 28)},
		{"month carries into year", MustNew(2024, 11, 15), Month, 3, MustNew(2025, 2, 15)},
		{"negative month carries into year", MustNew(2024, 2, 15), Month, -3, MustNew(2023, 11, 15)},
		{"year from leap day clamps", MustNew(2024, 2, 29), Year, 1, MustNew(2025, 2, 28)},
		{"year", MustNew(2024, 7, 4), Year, -10, MustNew(2014, 7, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.Change(tt.unit, tt.amount))
		})
	}
}

func TestChange_ReversibleForDayAndWeek(t *testing.T) {
	start := MustNew(1999, 12, 25)
	for i := 0; i < 800; i++ {
		d := start.Change(Day, i*3)
		for _, unit := range []Unit{Day, Week} {
			for _, amount := range []int{-400, -7, -1, 0, 1, 13, 365} {
				moved := d.Change(unit, amount)
				_, err := New(moved.Year(), moved.Month(), moved.Day())
				require.NoError(t, err)
				require.Equal(t, d, moved.Change(unit, -amount))
			}
		}
	}
}

func TestChange_ReversibleForMonthWithoutClamping(t *testing.T) {
	d := MustNew(2024, 3, 15)
	for _, unit := range []Unit{Month, Year} {
		for amount := -30; amount <= 30; amount++ {
			assert.Equal(t, d, d.Change(unit, amount).Change(unit, -amount))
		}
	}
}

func TestComparisons(t *testing.T) {
	a := MustNew(2024, 7, 5)
	b := MustNew(2024, 7, 6)

	assert.Equal(t, -1, a.SubtractDays(b))
	assert.Equal(t, 366, MustNew(2025, 1, 1).SubtractDays(MustNew(2024, 1, 1)))
	assert.True(t, b.IsPast(a))
	assert.False(t, a.IsPast(a))
	assert.True(t, a.IsOnOrPast(a))
	assert.True(t, a.IsBetween(a, b))
	assert.True(t, b.IsBetween(a, b))
	assert.False(t, MustNew(2024, 7, 7).IsBetween(a, b))

	assert.True(t, MustNew(2024, 7, 31).IsBeforeNextMonth(2024, 7))
	assert.False(t, MustNew(2024, 8, 1).IsBeforeNextMonth(2024, 7))
	assert.True(t, MustNew(2023, 1, 1).IsBeforeNextMonth(2024, 7))
	assert.True(t, MustNew(2024, 12, 31).IsBeforeNextMonth(2024, 12))
	assert.False(t, MustNew(2025, 1, 1).IsBeforeNextMonth(2024, 12))

	assert.True(t, MustNew(2024, 7, 1).IsInMonth(2024, 7))
	assert.True(t, MustNew(2024, 7, 31).IsInMonth(2024, 7))
	assert.False(t, MustNew(2024, 6, 30).IsInMonth(2024, 7))
	assert.False(t, MustNew(2023, 7, 4).IsInMonth(2024, 7))

	assert.Equal(t, -1, Compare(a, b))
	assert.Equal(t, 0, Compare(a, a))
	assert.Equal(t, 1, Compare(b, a))
}

func TestWithSetters_Revalidate(t *testing.T) {
	d := MustNew(2024, 2, 29)

	_, err := d.WithYear(2023)
	assert.ErrorIs(t, err, ErrInvalidDate)

	got, err := d.WithYear(2028)
	require.NoError(t, err)
	assert.Equal(t, MustNew(2028, 2, 29), got)

	_, err = MustNew(2024, 1, 31).WithMonth(4)
	assert.ErrorIs(t, err, ErrInvalidDate)

	got, err = d.WithDay(1)
	require.NoError(t, err)
	assert.Equal(t, MustNew(2024, 2, 1), got)
}

func TestDaysBetween(t *testing.T) {
	days := DaysBetween(MustNew(2024, 2, 27), MustNew(2024, 3, 2))
	require.Len(t, days, 5)
	assert.Equal(t, MustNew(2024, 2, 29), days[2])
	assert.Equal(t, MustNew(2024, 3, 2), days[4])

	assert.Empty(t, DaysBetween(MustNew(2024, 3, 2), MustNew(2024, 3, 1)))
}
