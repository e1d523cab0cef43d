package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"nofusscal/internal/caldate"
	"nofusscal/internal/ics"
	appLog "nofusscal/internal/log"
)

var (
	// ErrSkippable marks components that cannot become events. Build logs
	// and drops them.
	ErrSkippable    = errors.New("event skipped")
	ErrMissingUID   = errors.New("missing UID")
	ErrMissingStart = errors.New("missing DTSTART")
	ErrMissingEnd   = errors.New("missing DTEND")

	// ErrMalformedRecurrence is returned for RRULEs whose limit or interval
	// cannot be honoured.
	ErrMalformedRecurrence = errors.New("malformed recurrence rule")
	ErrInvalidTime         = errors.New("invalid time of day")
	ErrInvalidEvent        = errors.New("invalid event")
)

// FromComponent builds an Event from a parsed VEVENT.
//
// A value without a 'T' in either DTSTART or DTEND makes the event all-day;
// the exclusive DTEND of such events is stored as the inclusive last day.
func FromComponent(c ics.Component) (Event, error) {
	rawStart, err := c.Text("DTSTART")
	if err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrSkippable, ErrMissingStart)
	}
	rawEnd, err := c.Text("DTEND")
	if err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrSkippable, ErrMissingEnd)
	}
	uid := c.UID()
	if uid == "" {
		return Event{}, fmt.Errorf("%w: %w", ErrSkippable, ErrMissingUID)
	}

	rawStart, rawEnd = strings.TrimSpace(rawStart), strings.TrimSpace(rawEnd)
	start, err := caldate.Parse(prefix(rawStart, 8))
	if err != nil {
		return Event{}, fmt.Errorf("DTSTART %q: %w", rawStart, err)
	}
	end, err := caldate.Parse(prefix(rawEnd, 8))
	if err != nil {
		return Event{}, fmt.Errorf("DTEND %q: %w", rawEnd, err)
	}

	e := Event{
		UID:         ics.UnescapeText(uid),
		Title:       textOr(c, "SUMMARY", DefaultTitle),
		Location:    textOr(c, "LOCATION", DefaultLocation),
		Description: textOr(c, "DESCRIPTION", ""),
		Color:       textOr(c, "COLOR", ""),
		StartDate:   start,
		Alarm:       c.Alarm,
	}

	if !hasTime(rawStart) || !hasTime(rawEnd) {
		e.StartTime, e.EndTime = AllDay, AllDay
		e.EndDate = end.Change(caldate.Day, -1)
	} else {
		if e.StartTime, err = parseClock(rawStart); err != nil {
			return Event{}, fmt.Errorf("DTSTART %q: %w", rawStart, err)
		}
		if e.EndTime, err = parseClock(rawEnd); err != nil {
			return Event{}, fmt.Errorf("DTEND %q: %w", rawEnd, err)
		}
		e.EndDate = end
	}
	if e.StartDate.IsPast(e.EndDate) {
		e.EndDate = e.StartDate
	}

	if c.Has("RRULE") {
		rule, err := parseRule(c, e.EndDate)
		if err != nil {
			return Event{}, err
		}
		e.Rule = mo.Some(rule)
	}
	return e, nil
}

// Build converts every component it can and reports the rest. Failures are
// logged and never abort the batch.
func Build(components []ics.Component) ([]Event, []error) {
	events := make([]Event, 0, len(components))
	var errs []error
	for i, c := range components {
		e, err := FromComponent(c)
		if err != nil {
			appLog.Error("model: skipping event", err, "index", i, "uid", c.UID())
			errs = append(errs, fmt.Errorf("component %d: %w", i, err))
			continue
		}
		events = append(events, e)
	}
	return events, errs
}

// Fields is user-entered event data. StartTime and EndTime are ignored
// when AllDay is set.
type Fields struct {
	UID         string
	Title       string
	Location    string
	Description string
	Color       string

	AllDay    bool
	StartDate caldate.Date
	StartTime TimeOfDay
	EndDate   caldate.Date
	EndTime   TimeOfDay

	Rule  mo.Option[Rule]
	Alarm mo.Option[ics.Alarm]
}

// New validates f and builds an Event, generating a UID when f has none.
// A zero EndDate means the event ends on its start day.
func New(f Fields) (Event, error) {
	if f.StartDate.IsZero() {
		return Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, ErrMissingStart)
	}

	e := Event{
		UID:         strings.TrimSpace(f.UID),
		Title:       strings.TrimSpace(f.Title),
		Location:    strings.TrimSpace(f.Location),
		Description: f.Description,
		Color:       strings.TrimSpace(f.Color),
		StartDate:   f.StartDate,
		EndDate:     f.EndDate,
		Alarm:       f.Alarm,
	}
	if strings.ContainsAny(e.UID, "\r\n") {
		return Event{}, fmt.Errorf("%w: UID %q spans lines", ErrInvalidEvent, e.UID)
	}
	if e.UID == "" {
		e.UID = uuid.NewString()
	}
	if e.Title == "" {
		e.Title = DefaultTitle
	}
	if e.Location == "" {
		e.Location = DefaultLocation
	}
	color, ok := normalizeColor(e.Color)
	if !ok {
		return Event{}, fmt.Errorf("%w: unknown color %q", ErrInvalidEvent, e.Color)
	}
	e.Color = color
	if e.EndDate.IsZero() {
		e.EndDate = e.StartDate
	}
	if e.StartDate.IsPast(e.EndDate) {
		return Event{}, fmt.Errorf("%w: ends %s before it starts %s", ErrInvalidEvent, e.EndDate, e.StartDate)
	}

	if f.AllDay {
		e.StartTime, e.EndTime = AllDay, AllDay
	} else {
		if !f.StartTime.valid() || !f.EndTime.valid() {
			return Event{}, fmt.Errorf("%w: %02d:%02d-%02d:%02d", ErrInvalidTime,
				f.StartTime.Hour, f.StartTime.Minute, f.EndTime.Hour, f.EndTime.Minute)
		}
		e.StartTime, e.EndTime = f.StartTime, f.EndTime
		if e.StartDate == e.EndDate && minutes(e.EndTime) < minutes(e.StartTime) {
			return Event{}, fmt.Errorf("%w: ends before it starts", ErrInvalidEvent)
		}
	}

	if rule, ok := f.Rule.Get(); ok {
		if err := rule.validate(e.EndDate); err != nil {
			return Event{}, err
		}
		e.Rule = mo.Some(rule)
	}
	return e, nil
}

// ToComponent maps e back to a VEVENT. Empty description and color are
// left out; the all-day end date becomes exclusive again.
func (e Event) ToComponent() ics.Component {
	props := []ics.Property{
		ics.NewTextProperty("UID", e.UID),
		ics.NewTextProperty("SUMMARY", e.Title),
		ics.NewTextProperty("LOCATION", e.Location),
	}
	if e.Description != "" {
		props = append(props, ics.NewTextProperty("DESCRIPTION", e.Description))
	}
	if e.Color != "" {
		props = append(props, ics.NewTextProperty("COLOR", e.Color))
	}

	if e.IsAllDay() {
		props = append(props,
			ics.NewProperty("DTSTART", e.StartDate.Format(caldate.Compact)),
			ics.NewProperty("DTEND", e.EndDate.Change(caldate.Day, 1).Format(caldate.Compact)),
		)
	} else {
		props = append(props,
			ics.NewProperty("DTSTART", stamp(e.StartDate, e.StartTime)),
			ics.NewProperty("DTEND", stamp(e.EndDate, e.EndTime)),
		)
	}

	if rule, ok := e.Rule.Get(); ok {
		props = append(props, rule.property())
	}
	return ics.Component{Properties: props, Alarm: e.Alarm}
}

func textOr(c ics.Component, label, fallback string) string {
	raw, err := c.Text(label)
	if err != nil {
		return fallback
	}
	return ics.UnescapeText(raw)
}

func hasTime(raw string) bool {
	return strings.ContainsAny(raw, "Tt")
}

// parseClock reads HH and MM from a YYYYMMDDTHHMMSS value.
func parseClock(raw string) (TimeOfDay, error) {
	if len(raw) < 13 {
		return TimeOfDay{}, fmt.Errorf("%w: %q too short", ErrInvalidTime, raw)
	}
	h, errH := strconv.Atoi(raw[9:11])
	m, errM := strconv.Atoi(raw[11:13])
	t := TimeOfDay{Hour: h, Minute: m}
	if errH != nil || errM != nil || !t.valid() {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	return t, nil
}

func stamp(d caldate.Date, t TimeOfDay) string {
	return fmt.Sprintf("%sT%02d%02d00", d.Format(caldate.Compact), t.Hour, t.Minute)
}

func minutes(t TimeOfDay) int {
	return t.Hour*60 + t.Minute
}
