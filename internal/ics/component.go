package ics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/mo"
)

var (
	// ErrPropertyNotFound is returned when a lookup names a property or
	// sub-value label that the component does not carry.
	ErrPropertyNotFound = errors.New("property not found")
	// ErrNotSingleton is returned by Component.Value for properties made of
	// several or labeled sub-values, e.g. RRULE.
	ErrNotSingleton = errors.New("property is not a singleton")
)

// Value is one ';'-separated piece of a property value. Label is empty for
// bare words.
type Value struct {
	Label string
	Word  string
}

func (v Value) String() string {
	if v.Label == "" {
		return v.Word
	}
	return v.Label + "=" + v.Word
}

// Property is a single content line: a label plus one or more values.
type Property struct {
	Label  string
	Values []Value
}

// NewProperty builds a plain "LABEL:word" property.
func NewProperty(label, word string) Property {
	return Property{Label: label, Values: []Value{{Word: word}}}
}

// NewTextProperty is NewProperty for free text. Backslashes and line breaks
// are escaped so the value stays on one content line.
func NewTextProperty(label, text string) Property {
	return NewProperty(label, EscapeText(text))
}

var (
	textEscaper = strings.NewReplacer(
		`\`, `\\`,
		"\r\n", `\n`,
		"\n", `\n`,
		"\r", `\n`,
	)
	textUnescaper = strings.NewReplacer(
		`\\`, `\`,
		`\n`, "\n",
		`\N`, "\n",
		`\;`, ";",
		`\,`, ",",
	)
)

// EscapeText encodes s as a TEXT value. ';' and ',' are left alone since
// Text rejoins split values.
func EscapeText(s string) string { return textEscaper.Replace(s) }

// UnescapeText decodes a TEXT value written by EscapeText or by other
// producers that also escape ';' and ','.
func UnescapeText(s string) string { return textUnescaper.Replace(s) }

// IsSingleton reports whether p holds exactly one unlabeled value.
func (p Property) IsSingleton() bool {
	return len(p.Values) == 1 && p.Values[0].Label == ""
}

// Raw reassembles the text after the first ':' of the content line.
func (p Property) Raw() string {
	parts := make([]string, len(p.Values))
	for i, v := range p.Values {
		parts[i] = v.String()
	}
	return strings.Join(parts, ";")
}

func (p Property) String() string {
	return p.Label + ":" + p.Raw()
}

// ValueIndex returns the index of the first value whose label contains label
// (case-insensitive), or -1.
func (p Property) ValueIndex(label string) int {
	for i, v := range p.Values {
		if containsFold(v.Label, label) {
			return i
		}
	}
	return -1
}

// Component is one VEVENT block: its properties in file order and an
// optional reminder.
type Component struct {
	Properties []Property
	Alarm      mo.Option[Alarm]
}

// PropertyIndex returns the index of the first property whose label
// contains label, ignoring case, or -1.
//
// Substring matching lets "DTSTART" find "DTSTART;VALUE=DATE", but it also
// matches unrelated labels such as "X-DTSTART-ORIG" when those come first.
func (c Component) PropertyIndex(label string) int {
	for i, p := range c.Properties {
		if containsFold(p.Label, label) {
			return i
		}
	}
	return -1
}

// Has reports whether a property matching label exists.
func (c Component) Has(label string) bool {
	return c.PropertyIndex(label) >= 0
}

// Value returns the word of the singleton property matching label.
func (c Component) Value(label string) (string, error) {
	i := c.PropertyIndex(label)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", ErrPropertyNotFound, label)
	}
	p := c.Properties[i]
	if !p.IsSingleton() {
		return "", fmt.Errorf("%w: %s", ErrNotSingleton, p.Label)
	}
	return p.Values[0].Word, nil
}

// SubValue returns the word labeled sub inside the property matching label,
// e.g. SubValue("RRULE", "FREQ").
func (c Component) SubValue(label, sub string) (string, error) {
	i := c.PropertyIndex(label)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", ErrPropertyNotFound, label)
	}
	p := c.Properties[i]
	j := p.ValueIndex(sub)
	if j < 0 {
		return "", fmt.Errorf("%w: %s in %s", ErrPropertyNotFound, sub, p.Label)
	}
	return p.Values[j].Word, nil
}

// Text returns the raw value of the property matching label whatever its
// shape. Free-text fields such as SUMMARY may legitimately contain ';' or
// '=' and would otherwise not be singletons.
func (c Component) Text(label string) (string, error) {
	i := c.PropertyIndex(label)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", ErrPropertyNotFound, label)
	}
	return c.Properties[i].Raw(), nil
}

// TextOr is Text with a fallback for absent properties.
func (c Component) TextOr(label, fallback string) string {
	v, err := c.Text(label)
	if err != nil {
		return fallback
	}
	return v
}

// UID returns the UID text or "" when the component has none.
func (c Component) UID() string {
	return strings.TrimSpace(c.TextOr("UID", ""))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
