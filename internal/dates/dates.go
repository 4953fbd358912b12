// Package dates holds the calendar helpers shared by the plan and
// sync layers. All dates are ISO 8601 date-only strings (YYYY-MM-DD)
// interpreted in the local time zone, matching how the user experiences
// a rehab day.
package dates

import (
	"fmt"
	"regexp"
	"time"
)

// Layout is the ISO date-only layout used throughout.
const Layout = "2006-01-02"

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DateISO formats t as an ISO date string.
func DateISO(t time.Time) string {
	return t.Format(Layout)
}

// TodayISO returns today's local date.
func TodayISO() string {
	return DateISO(time.Now())
}

// DaysAgoISO returns the local date n days before today.
func DaysAgoISO(n int) string {
	return DateISO(time.Now().AddDate(0, 0, -n))
}

// ParseISO parses an ISO date string into a local-midnight time.
func ParseISO(iso string) (time.Time, error) {
	if !isoDatePattern.MatchString(iso) {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", iso)
	}
	t, err := time.ParseInLocation(Layout, iso, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", iso, err)
	}
	return t, nil
}

// ValidISO reports whether iso is a well-formed ISO date.
func ValidISO(iso string) bool {
	_, err := ParseISO(iso)
	return err == nil
}

// DiffDays returns the whole calendar days from a to b, negative when b
// precedes a. Time-of-day is ignored.
func DiffDays(a, b time.Time) int {
	aa := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bb := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bb.Sub(aa).Hours() / 24)
}

// WeekNumberFromStart derives the 1-based plan week for today given the
// rehab start date. A today before the start date clamps to week 1.
func WeekNumberFromStart(startISO string, today time.Time) (int, error) {
	start, err := ParseISO(startISO)
	if err != nil {
		return 0, err
	}
	days := DiffDays(start, today)
	if days < 0 {
		return 1, nil
	}
	return days/7 + 1, nil
}
