package model

import (
	"fmt"
	"strconv"
	"strings"

	"nofusscal/internal/caldate"
	"nofusscal/internal/ics"
)

// Frequency is the step unit of a recurrence rule.
type Frequency int

const (
	Yearly Frequency = iota
	Monthly
	Weekly
	Daily
)

// ParseFrequency maps an RRULE FREQ word to a Frequency.
func ParseFrequency(s string) (Frequency, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YEARLY":
		return Yearly, true
	case "MONTHLY":
		return Monthly, true
	case "WEEKLY":
		return Weekly, true
	case "DAILY":
		return Daily, true
	default:
		return Daily, false
	}
}

func (f Frequency) String() string {
	switch f {
	case Yearly:
		return "YEARLY"
	case Monthly:
		return "MONTHLY"
	case Weekly:
		return "WEEKLY"
	default:
		return "DAILY"
	}
}

// Unit returns the calendar unit one interval of f advances by.
func (f Frequency) Unit() caldate.Unit {
	switch f {
	case Yearly:
		return caldate.Year
	case Monthly:
		return caldate.Month
	case Weekly:
		return caldate.Week
	default:
		return caldate.Day
	}
}

// ByWhat records which BY* qualifier a rule carried. Expansion does not
// consult it; rules qualified by weekday or month step by interval alone.
type ByWhat int

const (
	ByNone ByWhat = iota
	ByDay
	ByMonth
)

type LimitKind int

const (
	Unbounded LimitKind = iota
	UntilDate
	UntilCount
)

// Limit ends a recurrence: never, on a date, or after a number of
// occurrences.
type Limit struct {
	Kind  LimitKind
	Until caldate.Date
	Count int
}

func Forever() Limit             { return Limit{Kind: Unbounded} }
func Until(d caldate.Date) Limit { return Limit{Kind: UntilDate, Until: d} }
func Occurrences(n int) Limit    { return Limit{Kind: UntilCount, Count: n} }

// Rule is a recurrence rule: step Interval units of Frequency until Limit.
type Rule struct {
	Frequency Frequency
	Interval  int
	By        ByWhat
	ByValue   string
	Limit     Limit
}

// MaxYear bounds how far a rule may reach. Intervals and COUNT spans that
// would step past it are malformed.
const MaxYear = 9999

// perYear is how many steps of f fit in a year, rounded up.
func (f Frequency) perYear() int {
	switch f {
	case Yearly:
		return 1
	case Monthly:
		return 12
	case Weekly:
		return 53
	default:
		return 366
	}
}

// validate checks the rule against the end date of the event's first
// occurrence, which UNTIL may not precede.
func (r Rule) validate(end caldate.Date) error {
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval %d", ErrMalformedRecurrence, r.Interval)
	}
	if r.Interval > MaxYear*r.Frequency.perYear() {
		return fmt.Errorf("%w: interval %d too large", ErrMalformedRecurrence, r.Interval)
	}
	switch r.Limit.Kind {
	case UntilDate:
		if r.Limit.Until.IsZero() {
			return fmt.Errorf("%w: UNTIL specified but no date", ErrMalformedRecurrence)
		}
		if end.IsPast(r.Limit.Until) {
			return fmt.Errorf("%w: UNTIL %s before event end %s", ErrMalformedRecurrence, r.Limit.Until, end)
		}
	case UntilCount:
		if r.Limit.Count < 1 {
			return fmt.Errorf("%w: COUNT %d", ErrMalformedRecurrence, r.Limit.Count)
		}
		room := max(MaxYear-end.Year(), 0) * r.Frequency.perYear()
		if r.Limit.Count-1 > room/r.Interval {
			return fmt.Errorf("%w: COUNT %d reaches past year %d", ErrMalformedRecurrence, r.Limit.Count, MaxYear)
		}
	}
	return nil
}

// parseRule reads the RRULE property of c. FREQ falls back to DAILY and
// INTERVAL to 1 when absent; an UNTIL or COUNT without a usable value is an
// error. When both limits are present UNTIL wins.
func parseRule(c ics.Component, end caldate.Date) (Rule, error) {
	p := c.Properties[c.PropertyIndex("RRULE")]

	rule := Rule{Frequency: Daily, Interval: 1}

	if word, ok := ruleParam(p, "FREQ"); ok {
		rule.Frequency, _ = ParseFrequency(word)
	}

	if word, ok := ruleParam(p, "INTERVAL"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(word))
		if err != nil {
			return Rule{}, fmt.Errorf("%w: INTERVAL %q", ErrMalformedRecurrence, word)
		}
		rule.Interval = n
	}

	if word, ok := ruleParam(p, "BYDAY"); ok {
		rule.By, rule.ByValue = ByDay, word
	} else if word, ok := ruleParam(p, "BYMONTH"); ok {
		rule.By, rule.ByValue = ByMonth, word
	}

	if word, ok := ruleParam(p, "UNTIL"); ok {
		word = strings.TrimSpace(word)
		if word == "" {
			return Rule{}, fmt.Errorf("%w: UNTIL specified but no date", ErrMalformedRecurrence)
		}
		until, err := caldate.Parse(prefix(word, 8))
		if err != nil {
			return Rule{}, fmt.Errorf("%w: %w", ErrMalformedRecurrence, err)
		}
		rule.Limit = Until(until)
	} else if word, ok := ruleParam(p, "COUNT"); ok {
		word = strings.TrimSpace(word)
		if word == "" {
			return Rule{}, fmt.Errorf("%w: COUNT specified but no occurrences", ErrMalformedRecurrence)
		}
		n, err := strconv.Atoi(word)
		if err != nil {
			return Rule{}, fmt.Errorf("%w: COUNT %q", ErrMalformedRecurrence, word)
		}
		rule.Limit = Occurrences(n)
	}

	if err := rule.validate(end); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// ruleParam finds the sub-value named name. A bare "UNTIL" token without
// '=' counts as declared with an empty value.
func ruleParam(p ics.Property, name string) (string, bool) {
	if i := p.ValueIndex(name); i >= 0 {
		return p.Values[i].Word, true
	}
	for _, v := range p.Values {
		if v.Label == "" && strings.EqualFold(strings.TrimSpace(v.Word), name) {
			return "", true
		}
	}
	return "", false
}

// property renders the rule as an RRULE content line.
func (r Rule) property() ics.Property {
	values := []ics.Value{
		{Label: "FREQ", Word: r.Frequency.String()},
		{Label: "INTERVAL", Word: strconv.Itoa(r.Interval)},
	}
	switch r.By {
	case ByDay:
		values = append(values, ics.Value{Label: "BYDAY", Word: r.ByValue})
	case ByMonth:
		values = append(values, ics.Value{Label: "BYMONTH", Word: r.ByValue})
	}
	switch r.Limit.Kind {
	case UntilDate:
		values = append(values, ics.Value{Label: "UNTIL", Word: r.Limit.Until.Format(caldate.Compact)})
	case UntilCount:
		values = append(values, ics.Value{Label: "COUNT", Word: strconv.Itoa(r.Limit.Count)})
	}
	return ics.Property{Label: "RRULE", Values: values}
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
