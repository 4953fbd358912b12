// Package status derives the traffic-light knee status from the most
// recent check-in. The rule is a pure function; it never touches the
// sync layer beyond its input.
package status

import (
	"github.com/ppietruszewski/kneelog/internal/state"
)

// Status is the traffic-light assessment of the knee.
type Status string

const (
	Green   Status = "GREEN"
	Yellow  Status = "YELLOW"
	Red     Status = "RED"
	Unknown Status = "UNKNOWN"
)

// Compute applies the decision rule to the latest check-in:
// pain > 3 is RED; pain == 3, swelling, or instability is YELLOW;
// otherwise GREEN. No check-in at all is UNKNOWN.
func Compute(latest *state.CheckIn) Status {
	if latest == nil {
		return Unknown
	}
	if latest.Pain > 3 {
		return Red
	}
	if latest.Pain == 3 {
		return Yellow
	}
	if latest.Swelling || latest.Instability {
		return Yellow
	}
	return Green
}

// Latest returns the most recent check-in across all date buckets,
// ordered by each record's timestamp rather than by bucket key, or nil
// when none exists.
func Latest(st *state.AppState) *state.CheckIn {
	var latest *state.CheckIn
	for _, list := range st.CheckInsByDate {
		for i := range list {
			c := &list[i]
			if latest == nil || c.TimestampISO > latest.TimestampISO {
				latest = c
			}
		}
	}
	if latest == nil {
		return nil
	}
	cp := *latest
	return &cp
}
