package ics

import (
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize_Layout(t *testing.T) {
	components := []Component{
		{
			Properties: []Property{
				NewProperty("UID", "one"),
				NewProperty("SUMMARY", "Dentist"),
				{Label: "RRULE", Values: []Value{{Label: "FREQ", Word: "WEEKLY"}, {Label: "INTERVAL", Word: "2"}}},
			},
			Alarm: mo.Some(Alarm{Minutes: 10}),
		},
		{
			// Tombstoned: no UID.
			Properties: []Property{NewProperty("SUMMARY", "Deleted")},
		},
	}

	want := "BEGIN:VCALENDAR\n" +
		"PRODID:-//test//EN\n" +
		"VERSION:1.0\n" +
		"BEGIN:VEVENT\n" +
		"UID:one\n" +
		"SUMMARY:Dentist\n" +
		"RRULE:FREQ=WEEKLY;INTERVAL=2\n" +
		"BEGIN:VALARM\n" +
		"DESCRIPTION:Reminder\n" +
		"ACTION:DISPLAY\n" +
		"TRIGGER:-P0DT0H10M0S\n" +
		"END:VALARM\n" +
		"END:VEVENT\n" +
		"END:VCALENDAR"

	assert.Equal(t, want, Serialize(components, "-//test//EN"))
}

func TestSerialize_DefaultProductID(t *testing.T) {
	out := Serialize(nil, "")
	assert.Equal(t, "BEGIN:VCALENDAR\nPRODID:"+DefaultProductID+"\nVERSION:1.0\nEND:VCALENDAR", out)
}

func TestSerialize_RoundTrip(t *testing.T) {
	components := Parse(sampleCalendar)
	require.Len(t, components, 2)

	again := Parse(Serialize(components, ""))
	assert.Equal(t, components, again)
}

func TestSerialize_TextStaysOnOneLine(t *testing.T) {
	desc := "line1\nRRULE:FREQ=DAILY\nEND:VEVENT\nBEGIN:VEVENT\nUID:evil\r\nback\\slash"
	components := []Component{{Properties: []Property{
		NewProperty("UID", "a"),
		NewTextProperty("DESCRIPTION", desc),
	}}}

	text := Serialize(components, "")
	assert.Contains(t, text, `DESCRIPTION:line1\nRRULE:FREQ=DAILY\nEND:VEVENT\nBEGIN:VEVENT\nUID:evil\nback\\slash`)

	again := Parse(text)
	require.Len(t, again, 1)
	assert.Equal(t, "a", again[0].UID())
	raw, err := again[0].Text("DESCRIPTION")
	require.NoError(t, err)
	assert.Equal(t, "line1\nRRULE:FREQ=DAILY\nEND:VEVENT\nBEGIN:VEVENT\nUID:evil\nback\\slash", UnescapeText(raw))
}

func TestUnescapeText(t *testing.T) {
	assert.Equal(t, "a;b,c\nd\\", UnescapeText(`a\;b\,c\Nd\\`))
	assert.Equal(t, "plain", UnescapeText(EscapeText("plain")))
}
