package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the calendar-day layout used everywhere a Date is rendered
const DateLayout = "2006-01-02"

// Date is a calendar day in YYYY-MM-DD form. The zero value means "unknown".
// Because the layout is fixed width, dates order correctly as strings.
type Date string

var isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// Header formats seen in the wild once any trailing "(UTC)" comment is removed
var messageDateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04:05",
	time.RFC3339,
}

// DateOf truncates t to its calendar day in t's own location
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return ""
	}
	return Date(t.Format(DateLayout))
}

// ParseDate accepts a strict YYYY-MM-DD day. Anything else yields the zero Date.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return ""
	}
	return DateOf(t)
}

// ParseMessageDate normalizes a message timestamp to a calendar day.
// ISO-8601 values contribute their leading date; RFC-2822 style headers are
// parsed with their own offset. Unparseable input yields the zero Date.
func ParseMessageDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if m := isoDatePattern.FindString(s); m != "" {
		return ParseDate(m)
	}

	// Gmail sometimes appends the zone name after the numeric offset
	if idx := strings.Index(s, " ("); idx != -1 {
		s = s[:idx]
	}

	for _, format := range messageDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return DateOf(t)
		}
	}
	return ""
}

// IsZero reports whether the date is unknown
func (d Date) IsZero() bool {
	return d == ""
}

// String returns the YYYY-MM-DD form, or "" for an unknown date
func (d Date) String() string {
	return string(d)
}

// Time returns midnight UTC of the day. Unknown dates return the zero time.
func (d Date) Time() time.Time {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays shifts the date by n calendar days
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return ""
	}
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other. Unknown dates sort last.
func (d Date) Before(other Date) bool {
	switch {
	case d.IsZero():
		return false
	case other.IsZero():
		return true
	default:
		return d < other
	}
}

// MinDate returns the earlier known date
func MinDate(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

// MaxDate returns the later known date
func MaxDate(a, b Date) Date {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case a < b:
		return b
	default:
		return a
	}
}

// MarshalJSON renders unknown dates as null
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(string(d))
}

// UnmarshalJSON is lenient: null, "null", "", and malformed strings all
// decode to the zero Date instead of failing the whole document.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*d = ""
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		*d = ""
		return nil
	}
	*d = ParseMessageDate(s)
	return nil
}

// Value implements driver.Valuer for DATE columns
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return string(d), nil
}

// Scan implements sql.Scanner for DATE columns
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = DateOf(v.UTC())
	case string:
		*d = ParseMessageDate(v)
	case []byte:
		*d = ParseMessageDate(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}
