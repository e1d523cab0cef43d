package ics

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/mo"

	appLog "nofusscal/internal/log"
)

// Alarm is a reminder offset before an event starts.
type Alarm struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Trigger renders the TRIGGER duration, e.g. "-P0DT0H10M0S".
func (a Alarm) Trigger() string {
	return fmt.Sprintf("-P%dDT%dH%dM%dS", a.Days, a.Hours, a.Minutes, a.Seconds)
}

func (a Alarm) String() string {
	return strings.Join([]string{
		"BEGIN:VALARM",
		"DESCRIPTION:Reminder",
		"ACTION:DISPLAY",
		"TRIGGER:" + a.Trigger(),
		"END:VALARM",
	}, "\n")
}

var triggerPattern = regexp.MustCompile(`^[-+]?P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

var errBadTrigger = errors.New("malformed trigger")

// ParseTrigger reads a "-P<d>DT<h>H<m>M<s>S" duration. Any quantity may be
// missing and counts as zero, so "-PT15M" and "-P1D" are accepted.
func ParseTrigger(s string) (Alarm, error) {
	m := triggerPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return Alarm{}, fmt.Errorf("%w: %q", errBadTrigger, s)
	}
	var q [4]int
	for i, v := range m[1:] {
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Alarm{}, fmt.Errorf("%w: %q: %w", errBadTrigger, s, err)
		}
		q[i] = n
	}
	return Alarm{Days: q[0], Hours: q[1], Minutes: q[2], Seconds: q[3]}, nil
}

type parseState int

const (
	outsideEvent parseState = iota
	insideEvent
	insideAlarm
)

// Parse splits interchange text into one Component per VEVENT block. It
// never fails: lines it cannot read are skipped, and blocks left open at the
// end of the text are dropped.
func Parse(text string) []Component {
	var (
		components []Component
		current    Component
		state      = outsideEvent
		lineNo     int
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case state == outsideEvent && line == "BEGIN:VEVENT":
			current = Component{}
			state = insideEvent
		case state == insideEvent && line == "END:VEVENT":
			components = append(components, current)
			state = outsideEvent
		case state == insideEvent && line == "BEGIN:VALARM":
			state = insideAlarm
		case state == insideAlarm && line == "END:VALARM":
			state = insideEvent
		case state == insideEvent:
			p, ok := parseProperty(line)
			if !ok {
				appLog.Debug("ics: skipping line without label", "line", lineNo)
				continue
			}
			current.Properties = append(current.Properties, p)
		case state == insideAlarm:
			label, raw, ok := strings.Cut(line, ":")
			if !ok || !isTriggerLabel(label) {
				continue
			}
			alarm, err := ParseTrigger(raw)
			if err != nil {
				appLog.Error("ics: ignoring alarm trigger", err, "line", lineNo)
				continue
			}
			current.Alarm = mo.Some(alarm)
		}
	}
	if err := scanner.Err(); err != nil {
		appLog.Error("ics: scan stopped early", err, "line", lineNo)
	}
	if state != outsideEvent {
		appLog.Debug("ics: dropping unterminated VEVENT", "line", lineNo)
	}

	return components
}

func parseProperty(line string) (Property, bool) {
	label, raw, ok := strings.Cut(line, ":")
	if !ok || label == "" {
		return Property{}, false
	}
	tokens := strings.Split(raw, ";")
	values := make([]Value, 0, len(tokens))
	for _, tok := range tokens {
		if sub, word, labeled := strings.Cut(tok, "="); labeled {
			values = append(values, Value{Label: sub, Word: word})
		} else {
			values = append(values, Value{Word: tok})
		}
	}
	return Property{Label: label, Values: values}, true
}

func isTriggerLabel(label string) bool {
	upper := strings.ToUpper(label)
	return upper == "TRIGGER" || strings.HasPrefix(upper, "TRIGGER;")
}
