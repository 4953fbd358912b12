package dates

import (
	"time"

	"github.com/ppietruszewski/kneelog/internal/state"
)

// ActiveWeek resolves the plan week the app should display.
//
// In manual mode a set week override wins unconditionally; otherwise
// the week is derived from the start date. Returns (0, false) when
// nothing determines a week yet (no override and no start date).
func ActiveWeek(st *state.AppState, today time.Time) (int, bool) {
	if st.PlanMode == state.PlanManual && st.WeekOverride != nil {
		return *st.WeekOverride, true
	}
	if st.StartDateISO == nil {
		return 0, false
	}
	week, err := WeekNumberFromStart(*st.StartDateISO, today)
	if err != nil {
		return 0, false
	}
	return week, true
}
