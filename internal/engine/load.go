package engine

import (
	"context"
	"time"

	"github.com/ppietruszewski/kneelog/internal/dates"
	"github.com/ppietruszewski/kneelog/internal/remote"
	"github.com/ppietruszewski/kneelog/internal/state"
)

// checkInLoadWindowDays bounds how far back check-ins are fetched on
// load; the status rule and the progress view only need recent history.
const checkInLoadWindowDays = 30

// LoadRemote populates the snapshot from the remote store once a
// session is confirmed: the settings row (bootstrapped server-side when
// absent), today's session pick and exercise logs, and the recent
// check-in window. Each read is independent; a failed read leaves that
// slice of state as loaded from the local blob and the first failure is
// reported so the caller can warn. Returns false when there is no
// session.
func (e *Engine) LoadRemote(ctx context.Context) (bool, error) {
	sess, err := e.session(ctx)
	if err != nil {
		return false, err
	}
	if sess == nil {
		return false, nil
	}

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	settings, err := e.remote.SelectUserSettings(ctx, sess.UserID)
	keep(err)
	if err == nil && settings == nil {
		// First login from this account: create the default row so
		// later whole-row upserts have a stable base.
		keep(e.remote.UpsertUserSettings(ctx, sess.UserID, remote.UserSettingsRow{
			MediaPref: string(state.MediaBoth),
			PlanMode:  string(state.PlanAuto),
		}))
	}

	todayISO := dates.DateISO(e.now())
	daySession, err := e.remote.SelectDaySession(ctx, sess.UserID, todayISO)
	keep(err)

	logs, err := e.remote.SelectExerciseLogs(ctx, sess.UserID, todayISO)
	keep(err)

	fromISO := dates.DateISO(e.now().AddDate(0, 0, -checkInLoadWindowDays))
	checkIns, err := e.remote.SelectCheckInsSince(ctx, sess.UserID, fromISO)
	keep(err)

	e.mu.Lock()
	defer e.mu.Unlock()

	if settings != nil {
		e.st.StartDateISO = settings.StartDateISO
		if p := state.MediaPref(settings.MediaPref); p.Valid() {
			e.st.MediaPref = p
		}
		if m := state.PlanMode(settings.PlanMode); m.Valid() {
			e.st.PlanMode = m
		}
		e.st.WeekOverride = settings.WeekOverride
	}

	if daySession != nil {
		e.st.SelectedTemplateByDate[daySession.DateISO] = daySession.TemplateID
	}

	if logs != nil {
		day := make(map[string]state.ExerciseProgress, len(logs))
		for _, r := range logs {
			p := state.ExerciseProgress{
				Done:            r.Done,
				Sets:            r.Sets,
				Reps:            r.Reps,
				DurationSeconds: r.DurationSeconds,
				Load:            r.Load,
				Note:            r.Note,
				UpdatedAtISO:    r.UpdatedAt,
			}
			if p.UpdatedAtISO == "" {
				p.UpdatedAtISO = e.now().UTC().Format(time.RFC3339)
			}
			day[r.ExerciseID] = p
		}
		e.st.ExerciseProgressByDate[todayISO] = day
	}

	if len(checkIns) > 0 {
		byDate := make(map[string][]state.CheckIn)
		for _, r := range checkIns {
			byDate[r.DateISO] = append(byDate[r.DateISO], state.CheckIn{
				ID:           r.ID,
				TimestampISO: r.CreatedAt,
				Pain:         r.Pain,
				Stiffness:    r.Stiffness,
				Swelling:     r.Swelling,
				Instability:  r.Instability,
				Comment:      r.Comment,
			})
		}
		for d, list := range byDate {
			// Server rows replace the local bucket for dates the
			// window covers; the server is authoritative once authed.
			e.st.CheckInsByDate[d] = list
		}
	}

	return true, firstErr
}
