package timeutil

import "time"

// layouts accepted when parsing historical timestamps. Records imported
// from spreadsheets frequently carry date-only or zone-less values.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse attempts to parse an ISO-ish timestamp. Returns ok=false for
// empty or malformed input instead of an error; incomplete historical
// data must degrade, not fail.
func Parse(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// HoursBetween returns the duration from start to end in fractional
// hours. If either value is unparsable, or end is not after start, it
// returns 0. The result is never negative.
func HoursBetween(start, end string) float64 {
	s, ok := Parse(start)
	if !ok {
		return 0
	}
	e, ok := Parse(end)
	if !ok {
		return 0
	}
	if !e.After(s) {
		return 0
	}
	return e.Sub(s).Hours()
}

// YearHours returns the exact hour count of a calendar year.
func YearHours(year int) float64 {
	if isLeap(year) {
		return 366 * 24
	}
	return 365 * 24
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// EndOfDay returns the last instant of the day containing t.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
