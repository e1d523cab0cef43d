package ics

import "strings"

// DefaultProductID is written to PRODID when the caller has no own.
const DefaultProductID = "-//nofusscal//NONSGML No Fuss Calendar//EN"

// Serialize renders components as a VCALENDAR document. Components without a
// UID are treated as deleted and left out.
func Serialize(components []Component, productID string) string {
	if productID == "" {
		productID = DefaultProductID
	}

	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\n")
	b.WriteString("PRODID:" + productID + "\n")
	b.WriteString("VERSION:1.0\n")
	for _, c := range components {
		if c.UID() == "" {
			continue
		}
		b.WriteString(c.String())
		b.WriteString("\n")
	}
	b.WriteString("END:VCALENDAR")
	return b.String()
}

// String renders the BEGIN:VEVENT ... END:VEVENT block.
func (c Component) String() string {
	var b strings.Builder
	b.WriteString("BEGIN:VEVENT")
	for _, p := range c.Properties {
		b.WriteString("\n")
		b.WriteString(p.String())
	}
	if alarm, ok := c.Alarm.Get(); ok {
		b.WriteString("\n")
		b.WriteString(alarm.String())
	}
	b.WriteString("\nEND:VEVENT")
	return b.String()
}
