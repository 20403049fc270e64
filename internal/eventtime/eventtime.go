// Package eventtime parses the fixed human-readable event date format used as
// the canonical wire and storage representation, e.g. "2025年9月6日20:00".
// The format carries no timezone; parsed times are local wall-clock.
package eventtime

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// dateRegexp matches "YYYY年M月D日H:MM": 4-digit year, 1-2 digit month/day/hour,
// exactly 2-digit minute.
var dateRegexp = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日(\d{1,2}):(\d{2})$`)

// Parse parses an event date string into a local wall-clock time with seconds
// and sub-seconds set to zero. It returns an error when the string does not
// match the expected format or the components are out of range.
func Parse(s string) (time.Time, error) {
	m := dateRegexp.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid event date %q: want YYYY年M月D日H:MM", s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid event date %q: component out of range", s)
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local), nil
}

// Valid reports whether s is a well-formed event date.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// NotYetStarted reports whether the event with date s starts after now.
// When s does not parse, it returns true: an unreadable date must not block
// the action (fail-open). Callers that need to log the parse failure should
// use Parse directly.
func NotYetStarted(s string, now time.Time) bool {
	start, err := Parse(s)
	if err != nil {
		return true
	}
	return start.After(now)
}
