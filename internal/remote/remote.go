// Package remote implements the remote persistence adapter.
//
// The adapter speaks to a PostgREST-style backend holding four logical
// tables keyed by the authenticated user: user_settings, day_sessions,
// exercise_logs and check_ins. All upserts are idempotent per key, and
// the exercise-log upsert sends only the fields a patch supplies so a
// concurrent edit from another device is never clobbered.
//
// Session absence is not an error: Session returns (nil, nil) and the
// sync engine runs in local-only mode.
package remote

import (
	"context"
	"fmt"

	"github.com/ppietruszewski/kneelog/internal/state"
)

// Session is a confirmed authenticated identity.
type Session struct {
	UserID string
	Email  string
}

// InsertedCheckIn is the server-assigned identity of a stored check-in,
// used to reconcile the optimistic local record.
type InsertedCheckIn struct {
	ID        string
	CreatedAt string
}

// UserSettingsRow mirrors one user_settings row.
type UserSettingsRow struct {
	StartDateISO *string
	MediaPref    string
	PlanMode     string
	WeekOverride *int
}

// DaySessionRow mirrors one day_sessions row.
type DaySessionRow struct {
	DateISO    string
	TemplateID string
}

// ExerciseLogRow mirrors one exercise_logs row.
type ExerciseLogRow struct {
	DateISO         string
	ExerciseID      string
	Done            bool
	Sets            *int
	Reps            *int
	DurationSeconds *int
	Load            *string
	Note            *string
	UpdatedAt       string
}

// CheckInRow mirrors one check_ins row.
type CheckInRow struct {
	ID          string
	DateISO     string
	CreatedAt   string
	Pain        int
	Stiffness   int
	Swelling    bool
	Instability bool
	Comment     string
}

// Store is the operation contract the sync engine requires from a
// remote backing store. Write failures come back as errors the engine
// surfaces through its sync status; they never abort the process.
type Store interface {
	// Session returns the authenticated identity, or (nil, nil) when
	// there is none. It is consulted before every remote write because
	// the identity can change between calls.
	Session(ctx context.Context) (*Session, error)

	UpsertUserSettings(ctx context.Context, userID string, row UserSettingsRow) error
	UpsertDaySession(ctx context.Context, userID, dateISO, templateID string) error
	UpsertExerciseLog(ctx context.Context, userID, dateISO, exerciseID string, patch state.ProgressPatch) error
	InsertCheckIn(ctx context.Context, userID, dateISO string, in state.CheckInInput) (InsertedCheckIn, error)

	// Read operations, used only during the load-after-authentication
	// phase. A missing row yields (nil, nil) rather than an error.
	SelectUserSettings(ctx context.Context, userID string) (*UserSettingsRow, error)
	SelectDaySession(ctx context.Context, userID, dateISO string) (*DaySessionRow, error)
	SelectExerciseLogs(ctx context.Context, userID, dateISO string) ([]ExerciseLogRow, error)
	SelectCheckInsSince(ctx context.Context, userID, fromDateISO string) ([]CheckInRow, error)
}

// Error is a non-2xx response from the remote store.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("remote store returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("remote store returned status %d", e.StatusCode)
}
