// Package timefmt converts between 12-hour display strings ("6:30 pm") and
// 24-hour "HH:MM" values. Malformed input never produces an error: callers get
// an empty string (or ok=false) and render it as unknown.
package timefmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

var (
	displayPattern = regexp.MustCompile(`(?i)^\s*(\d{1,2}):(\d{2})\s*(am|pm)\s*$`)
	clockPattern   = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*$`)
	lenientPattern = regexp.MustCompile(`(?i)^\s*(\d{1,2}):(\d{2})\s*(am|pm)?\s*$`)
)

// Clock returns the current time. Pass time.Now in production.
type Clock func() time.Time

// To24Hour converts "H:MM am|pm" to "HH:MM". It returns "" when the input
// does not match the pattern.
func To24Hour(display string) string {
	minutes, ok := parseDisplay(display)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// To12Hour converts "HH:MM" to "H:MM am|pm". It returns "" for malformed input.
func To12Hour(value string) string {
	m := clockPattern.FindStringSubmatch(value)
	if m == nil {
		return ""
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 || mm > 59 {
		return ""
	}
	return FormatMinutes(h*60 + mm)
}

// Now12Hour renders the clock's current wall time in 12-hour form.
func Now12Hour(clock Clock) string {
	if clock == nil {
		clock = time.Now
	}
	return From(clock())
}

// From renders t's wall-clock hour and minute in 12-hour form.
func From(t time.Time) string {
	return FormatMinutes(t.Hour()*60 + t.Minute())
}

// EndTime adds duration minutes to a 12-hour start time, wrapping past
// midnight. It returns "" when start is malformed.
func EndTime(start string, durationMinutes int) string {
	minutes, ok := parseDisplay(start)
	if !ok {
		return ""
	}
	return FormatMinutes(minutes + durationMinutes)
}

// Normalize rewrites a well-formed 12-hour string into canonical form
// ("06:05 PM" becomes "6:05 pm"). Malformed input yields "".
func Normalize(display string) string {
	minutes, ok := parseDisplay(display)
	if !ok {
		return ""
	}
	return FormatMinutes(minutes)
}

// FormatMinutes renders minutes since midnight (mod 24h) in 12-hour form.
func FormatMinutes(minutes int) string {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	h, m := minutes/60, minutes%60
	period := "am"
	if h >= 12 {
		period = "pm"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, m, period)
}

// ParseMinutes returns minutes since midnight for a start time. A missing
// am/pm suffix means the hour is already on the 24-hour clock.
func ParseMinutes(value string) (int, bool) {
	m := lenientPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if mm > 59 {
		return 0, false
	}
	if m[3] == "" {
		if h > 23 {
			return 0, false
		}
		return h*60 + mm, true
	}
	return toMinutes(h, mm, m[3])
}

func parseDisplay(display string) (int, bool) {
	m := displayPattern.FindStringSubmatch(display)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return toMinutes(h, mm, m[3])
}

func toMinutes(hour, minute int, period string) (int, bool) {
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, false
	}
	switch strings.ToLower(period) {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour != 12 {
			hour += 12
		}
	}
	return hour*60 + minute, true
}
