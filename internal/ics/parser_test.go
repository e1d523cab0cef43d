package ics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCalendar = `BEGIN:VCALENDAR
PRODID:-//Simple Mobile Tools//NONSGML Event Calendar//EN
VERSION:2.0
BEGIN:VEVENT
SUMMARY:Canada Flight
UID:2c10be6923a6429dbec43e70f6e5631a1718624251173
X-SMT-CATEGORY-COLOR:-8219500
DTSTART:20240827T235000Z
DTEND:20240827T235000Z
BEGIN:VALARM
DESCRIPTION:Reminder
ACTION:DISPLAY
TRIGGER:-P0DT0H10M0S
END:VALARM
END:VEVENT
BEGIN:VEVENT
UID:standup
SUMMARY:Standup
DTSTART;VALUE=DATE:20240707
DTEND;VALUE=DATE:20240708
RRULE:FREQ=DAILY;INTERVAL=2
END:VEVENT
END:VCALENDAR`

func TestParse_SplitsEventsAndProperties(t *testing.T) {
	components := Parse(sampleCalendar)
	require.Len(t, components, 2)

	flight := components[0]
	require.Len(t, flight.Properties, 5)
	assert.Equal(t, "SUMMARY", flight.Properties[0].Label)
	assert.True(t, flight.Properties[0].IsSingleton())

	summary, err := flight.Value("summary")
	require.NoError(t, err)
	assert.Equal(t, "Canada Flight", summary)

	alarm, ok := flight.Alarm.Get()
	require.True(t, ok)
	assert.Equal(t, Alarm{Minutes: 10}, alarm)

	standup := components[1]
	assert.True(t, standup.Alarm.IsAbsent())

	start, err := standup.Value("DTSTART")
	require.NoError(t, err)
	assert.Equal(t, "20240707", start, "label parameters still match by substring")

	_, err = standup.Value("RRULE")
	assert.ErrorIs(t, err, ErrNotSingleton)

	freq, err := standup.SubValue("RRULE", "freq")
	require.NoError(t, err)
	assert.Equal(t, "DAILY", freq)

	interval, err := standup.SubValue("RRULE", "INTERVAL")
	require.NoError(t, err)
	assert.Equal(t, "2", interval)

	_, err = standup.SubValue("RRULE", "COUNT")
	assert.ErrorIs(t, err, ErrPropertyNotFound)

	_, err = standup.Value("LOCATION")
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestParse_LooseLabelMatching(t *testing.T) {
	components := Parse(sampleCalendar)
	require.NotEmpty(t, components)

	// COLOR matches the vendor X-SMT-CATEGORY-COLOR property.
	color, err := components[0].Text("COLOR")
	require.NoError(t, err)
	assert.Equal(t, "-8219500", color)
}

func TestParse_ToleratesBrokenInput(t *testing.T) {
	text := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"UID:outside-any-event",
		"BEGIN:VEVENT",
		"UID:a",
		"this line has no colon",
		"SUMMARY:Lunch; with team",
		"DESCRIPTION:x=y",
		"BEGIN:VALARM",
		"TRIGGER:garbage",
		"END:VALARM",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:never-closed",
	}, "\r\n")

	components := Parse(text)
	require.Len(t, components, 1)

	c := components[0]
	assert.Equal(t, "a", c.UID())
	assert.Len(t, c.Properties, 3)
	assert.True(t, c.Alarm.IsAbsent())

	_, err := c.Value("SUMMARY")
	assert.ErrorIs(t, err, ErrNotSingleton)

	summary, err := c.Text("SUMMARY")
	require.NoError(t, err)
	assert.Equal(t, "Lunch; with team", summary)

	desc, err := c.Text("DESCRIPTION")
	require.NoError(t, err)
	assert.Equal(t, "x=y", desc)
}

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		in      string
		want    Alarm
		wantErr bool
	}{
		{in: "-P0DT0H10M0S", want: Alarm{Minutes: 10}},
		{in: "-P1DT2H3M4S", want: Alarm{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}},
		{in: "-PT15M", want: Alarm{Minutes: 15}},
		{in: "-P2D", want: Alarm{Days: 2}},
		{in: "-PT1H30M", want: Alarm{Hours: 1, Minutes: 30}},
		{in: "soon", wantErr: true},
		{in: "-P1W", wantErr: true},
		{in: "-PT99999999999999999999M", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTrigger(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, mustTrigger(t, got.Trigger()))
		})
	}
}

func mustTrigger(t *testing.T, s string) Alarm {
	t.Helper()
	a, err := ParseTrigger(s)
	require.NoError(t, err)
	return a
}
