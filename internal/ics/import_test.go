package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rfcCalendar(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//feed//EN"}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

func TestImport_ReducesToSubset(t *testing.T) {
	body := rfcCalendar(
		"BEGIN:VEVENT",
		"UID:weekly@example.com",
		"DTSTAMP:20240101T000000Z",
		"SUMMARY:Planning",
		"LOCATION:Room 4",
		`DESCRIPTION:Agenda\nBring laptop\, charger`,
		"DTSTART:20240707T090000Z",
		"DTEND:20240707T100000Z",
		"RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=SU;COUNT=4",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"DESCRIPTION:Reminder",
		"TRIGGER:-PT15M",
		"END:VALARM",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:holiday@example.com",
		"DTSTAMP:20240101T000000Z",
		"SUMMARY:Holiday",
		"DTSTART;VALUE=DATE:20240704",
		"RRULE:FREQ=YEARLY;UNTIL=20300704",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"DTSTAMP:20240101T000000Z",
		"SUMMARY:No uid",
		"DTSTART:20240701T090000Z",
		"END:VEVENT",
	)

	components, err := Import(Source{ID: "feed", URL: "https://example.com/secret.ics"}, body)
	require.NoError(t, err)
	require.Len(t, components, 2)

	planning := components[0]
	assert.Equal(t, "weekly@example.com", planning.UID())
	assert.Equal(t, "Planning", planning.TextOr("SUMMARY", ""))
	assert.Equal(t, "Room 4", planning.TextOr("LOCATION", ""))
	assert.Equal(t, `Agenda\nBring laptop, charger`, planning.TextOr("DESCRIPTION", ""), "kept on one content line")
	assert.Equal(t, "Agenda\nBring laptop, charger", UnescapeText(planning.TextOr("DESCRIPTION", "")))

	wantStart := time.Date(2024, 7, 7, 9, 0, 0, 0, time.UTC).In(time.Local).Format(localDateTimeLayout)
	assert.Equal(t, wantStart, planning.TextOr("DTSTART", ""))
	assert.Equal(t, "FREQ=WEEKLY;INTERVAL=2;BYDAY=SU;COUNT=4", planning.TextOr("RRULE", ""))

	alarm, ok := planning.Alarm.Get()
	require.True(t, ok)
	assert.Equal(t, Alarm{Minutes: 15}, alarm)

	holiday := components[1]
	assert.Equal(t, "20240704", holiday.TextOr("DTSTART", ""))
	assert.Equal(t, "20240705", holiday.TextOr("DTEND", ""), "missing all-day DTEND spans one day")
	assert.Equal(t, "FREQ=YEARLY;INTERVAL=1;UNTIL=20300704", holiday.TextOr("RRULE", ""))
}

func TestImport_RejectsEmptyAndInvalid(t *testing.T) {
	_, err := Import(Source{ID: "x"}, nil)
	assert.Error(t, err)

	components, err := Import(Source{ID: "x"}, rfcCalendar(
		"BEGIN:VEVENT",
		"UID:bad-rule",
		"DTSTART:20240707T090000Z",
		"RRULE:FREQ=SOMETIMES",
		"END:VEVENT",
	))
	require.NoError(t, err)
	assert.Empty(t, components)
}

func TestNormalizeRRule(t *testing.T) {
	p, err := normalizeRRule("FREQ=MONTHLY;BYMONTH=1,7")
	require.NoError(t, err)
	assert.Equal(t, "FREQ=MONTHLY;INTERVAL=1;BYMONTH=1,7", p.Raw())

	p, err = normalizeRRule("FREQ=HOURLY;INTERVAL=6")
	require.NoError(t, err)
	assert.Equal(t, "FREQ=DAILY;INTERVAL=6", p.Raw())

	_, err = normalizeRRule("FREQ=DAILY;COUNT=many")
	assert.Error(t, err)
}
