package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/samber/mo"
	"github.com/teambition/rrule-go"

	appLog "nofusscal/internal/log"
)

const (
	localDateTimeLayout = "20060102T150405"
	dateLayout          = "20060102"
)

// Import reads a full RFC 5545 calendar (folded lines, TZID parameters,
// VALUE=DATE and so on) and reduces every VEVENT to the property subset the
// engine understands:
//
//   - UID, SUMMARY, LOCATION, DESCRIPTION, COLOR copied as text
//   - DTSTART/DTEND as YYYYMMDD (all-day) or local YYYYMMDDTHHMMSS
//   - RRULE normalised to FREQ/INTERVAL/BYDAY/BYMONTH/UNTIL/COUNT
//   - the first VALARM TRIGGER
//
// Events that cannot be reduced are logged and skipped; the rest of the
// payload still imports.
func Import(src Source, body []byte) ([]Component, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics import parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	components := make([]Component, 0)
	for _, ve := range cal.Events() {
		c, ierr := importVEvent(ve)
		if ierr != nil {
			appLog.Error("ics import vevent skipped", ierr, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		components = append(components, c)
	}

	appLog.Info("ics import completed", "id", src.ID, "url", redactURL(src.URL), "event_count", len(components))
	return components, nil
}

func importVEvent(ve *ical.VEvent) (Component, error) {
	var out Component

	uid := strings.TrimSpace(propValue(ve.GetProperty(ical.ComponentPropertyUniqueId)))
	if uid == "" {
		return out, errors.New("missing UID")
	}
	out.Properties = append(out.Properties, NewTextProperty("UID", uid))

	for _, field := range []ical.ComponentProperty{
		ical.ComponentPropertySummary,
		ical.ComponentPropertyLocation,
		ical.ComponentPropertyDescription,
		ical.ComponentProperty("COLOR"),
	} {
		if p := ve.GetProperty(field); p != nil && p.Value != "" {
			out.Properties = append(out.Properties, NewTextProperty(string(field), p.Value))
		}
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return out, fmt.Errorf("uid %s: missing DTSTART", uid)
	}
	allDay := isDateOnly(startProp)

	start, err := importDateTime(startProp, allDay, ve.GetStartAt)
	if err != nil {
		return out, fmt.Errorf("uid %s: DTSTART: %w", uid, err)
	}

	var end string
	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		end, err = importDateTime(endProp, allDay, ve.GetEndAt)
		if err != nil {
			return out, fmt.Errorf("uid %s: DTEND: %w", uid, err)
		}
	} else {
		end = defaultEnd(start, allDay)
	}
	out.Properties = append(out.Properties, NewProperty("DTSTART", start), NewProperty("DTEND", end))

	if rr := ve.GetProperty(ical.ComponentPropertyRrule); rr != nil && strings.TrimSpace(rr.Value) != "" {
		prop, rerr := normalizeRRule(rr.Value)
		if rerr != nil {
			return out, fmt.Errorf("uid %s: RRULE: %w", uid, rerr)
		}
		out.Properties = append(out.Properties, prop)
	}

	for _, alarm := range ve.Alarms() {
		trig := alarm.GetProperty(ical.ComponentProperty("TRIGGER"))
		if trig == nil {
			continue
		}
		if a, terr := ParseTrigger(trig.Value); terr == nil {
			out.Alarm = mo.Some(a)
			break
		}
	}

	return out, nil
}

// importDateTime renders a DTSTART/DTEND in the subset format. Date-times
// are resolved through the library (TZID, trailing Z) and then expressed as
// naive local wall-clock values.
func importDateTime(p *ical.IANAProperty, allDay bool, resolve func() (time.Time, error)) (string, error) {
	v := strings.TrimSpace(p.Value)
	if allDay {
		if len(v) < 8 {
			return "", fmt.Errorf("bad date %q", v)
		}
		return v[:8], nil
	}
	t, err := resolve()
	if err != nil {
		return "", err
	}
	return t.In(time.Local).Format(localDateTimeLayout), nil
}

// defaultEnd supplies DTEND when a VEVENT only has DTSTART: one day for
// all-day events (DTEND is exclusive), zero length otherwise.
func defaultEnd(start string, allDay bool) string {
	if !allDay {
		return start
	}
	t, err := time.Parse(dateLayout, start)
	if err != nil {
		return start
	}
	return t.AddDate(0, 0, 1).Format(dateLayout)
}

func isDateOnly(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok {
		for _, v := range vs {
			if strings.EqualFold(strings.TrimSpace(v), "DATE") {
				return true
			}
		}
	}
	return !strings.ContainsAny(p.Value, "Tt")
}

// normalizeRRule validates a recurrence rule with rrule-go and reduces it to
// the parts the engine steps through. BYDAY/BYMONTH are carried over verbatim
// from the source text.
func normalizeRRule(raw string) (Property, error) {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return Property{}, err
	}

	freq := "DAILY"
	switch opt.Freq {
	case rrule.YEARLY:
		freq = "YEARLY"
	case rrule.MONTHLY:
		freq = "MONTHLY"
	case rrule.WEEKLY:
		freq = "WEEKLY"
	case rrule.DAILY:
		freq = "DAILY"
	default:
		appLog.Debug("ics import: sub-daily RRULE stepped daily", "rrule", raw)
	}

	interval := opt.Interval
	if interval < 1 {
		interval = 1
	}

	values := []Value{
		{Label: "FREQ", Word: freq},
		{Label: "INTERVAL", Word: strconv.Itoa(interval)},
	}
	var rawUntil string
	for _, tok := range strings.Split(raw, ";") {
		label, word, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		switch key := strings.ToUpper(strings.TrimSpace(label)); key {
		case "BYDAY", "BYMONTH":
			values = append(values, Value{Label: key, Word: word})
		case "UNTIL":
			rawUntil = strings.TrimSpace(word)
		}
	}

	switch {
	case !opt.Until.IsZero():
		// A bare date names a calendar day; shifting it through a zone
		// could move it to the day before.
		until := opt.Until.In(time.Local).Format(dateLayout)
		if len(rawUntil) >= 8 && !strings.ContainsAny(rawUntil, "Tt") {
			until = rawUntil[:8]
		}
		values = append(values, Value{Label: "UNTIL", Word: until})
	case opt.Count > 0:
		values = append(values, Value{Label: "COUNT", Word: strconv.Itoa(opt.Count)})
	}

	return Property{Label: "RRULE", Values: values}, nil
}

func propValue(p *ical.IANAProperty) string {
	if p == nil {
		return ""
	}
	return p.Value
}
