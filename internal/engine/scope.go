package engine

import (
	"context"
	"fmt"

	"github.com/ppietruszewski/kneelog/internal/dates"
	"github.com/ppietruszewski/kneelog/internal/remote"
	"github.com/ppietruszewski/kneelog/internal/state"
)

// Scope is the single read/write entry point for presentation code.
// It is created by Open at session start and torn down by Close; using
// it outside that window is a programming error and panics. All state
// access and every mutation goes through a Scope, never through direct
// assignment to the snapshot.
type Scope struct {
	eng    *Engine
	store  *state.Store
	closed bool
}

// Open loads the local blob, constructs the sync engine over it, and
// starts watching the blob for writes from other processes. It does not
// touch the network; call LoadRemote for the load-after-authentication
// phase.
func Open(store *state.Store, remoteStore remote.Store) (*Scope, error) {
	var initial *state.AppState
	if store != nil {
		initial = store.Load()
	}
	eng := New(initial, store, remoteStore)

	if store != nil {
		if err := store.Watch(eng.ReloadLocal); err != nil {
			return nil, fmt.Errorf("watching state file: %w", err)
		}
	}
	return &Scope{eng: eng, store: store}, nil
}

// guard panics when the scope is used outside its lifetime. This is the
// programmer-error check, not a runtime failure mode.
func (s *Scope) guard() {
	if s == nil || s.eng == nil {
		panic("engine: Scope used before Open")
	}
	if s.closed {
		panic("engine: Scope used after Close")
	}
}

// LoadRemote runs the initial remote load; see Engine.LoadRemote.
func (s *Scope) LoadRemote(ctx context.Context) (bool, error) {
	s.guard()
	return s.eng.LoadRemote(ctx)
}

// Snapshot returns a deep copy of the current state.
func (s *Scope) Snapshot() *state.AppState {
	s.guard()
	return s.eng.Snapshot()
}

// SyncStatus returns the aggregate persistence indicator.
func (s *Scope) SyncStatus() SyncStatus {
	s.guard()
	return s.eng.SyncStatus()
}

// LastSyncError returns the currently surfaced write failure, if any.
func (s *Scope) LastSyncError() string {
	s.guard()
	return s.eng.LastSyncError()
}

// ClearLastSyncError dismisses a surfaced write failure.
func (s *Scope) ClearLastSyncError() {
	s.guard()
	s.eng.ClearLastSyncError()
}

// SetStartDate sets or clears (nil) the rehab start date.
func (s *Scope) SetStartDate(iso *string) error {
	s.guard()
	if iso != nil && !dates.ValidISO(*iso) {
		return fmt.Errorf("invalid start date %q, want YYYY-MM-DD", *iso)
	}
	s.eng.SetStartDate(iso)
	return nil
}

// SetMediaPref sets the media display preference.
func (s *Scope) SetMediaPref(pref state.MediaPref) error {
	s.guard()
	if !pref.Valid() {
		return fmt.Errorf("invalid media preference %q, want image, video or both", pref)
	}
	s.eng.SetMediaPref(pref)
	return nil
}

// SetPlanMode switches between automatic and manual week selection.
func (s *Scope) SetPlanMode(mode state.PlanMode) error {
	s.guard()
	if !mode.Valid() {
		return fmt.Errorf("invalid plan mode %q, want auto or manual", mode)
	}
	s.eng.SetPlanMode(mode)
	return nil
}

// SetWeekOverride sets or clears (nil) the manual week override.
func (s *Scope) SetWeekOverride(week *int) error {
	s.guard()
	if week != nil && (*week < state.MinWeek || *week > state.MaxWeek) {
		return fmt.Errorf("week override %d out of range [%d,%d]", *week, state.MinWeek, state.MaxWeek)
	}
	s.eng.SetWeekOverride(week)
	return nil
}

// PickTemplate selects the session template for a day.
func (s *Scope) PickTemplate(dateISO, templateID string) error {
	s.guard()
	if !dates.ValidISO(dateISO) {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", dateISO)
	}
	if templateID == "" {
		return fmt.Errorf("template id must not be empty")
	}
	s.eng.PickTemplate(dateISO, templateID)
	return nil
}

// UpsertExerciseProgress merges a partial patch into one day's record
// for an exercise.
func (s *Scope) UpsertExerciseProgress(dateISO, exerciseID string, patch state.ProgressPatch) error {
	s.guard()
	if !dates.ValidISO(dateISO) {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", dateISO)
	}
	if exerciseID == "" {
		return fmt.Errorf("exercise id must not be empty")
	}
	if patch.Empty() {
		return fmt.Errorf("progress patch supplies no fields")
	}
	for name, v := range map[string]*int{
		"sets": patch.Sets, "reps": patch.Reps, "duration": patch.DurationSeconds,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	s.eng.UpsertExerciseProgress(dateISO, exerciseID, patch)
	return nil
}

// AddCheckIn appends a check-in for a day and returns the optimistic
// record.
func (s *Scope) AddCheckIn(dateISO string, in state.CheckInInput) (state.CheckIn, error) {
	s.guard()
	if !dates.ValidISO(dateISO) {
		return state.CheckIn{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", dateISO)
	}
	if in.Pain < 0 || in.Pain > 10 {
		return state.CheckIn{}, fmt.Errorf("pain %d out of range [0,10]", in.Pain)
	}
	if in.Stiffness < 0 || in.Stiffness > 10 {
		return state.CheckIn{}, fmt.Errorf("stiffness %d out of range [0,10]", in.Stiffness)
	}
	return s.eng.AddCheckIn(dateISO, in), nil
}

// ResetAll clears the local blob and reinitializes the in-memory state.
// Remote data is left untouched.
func (s *Scope) ResetAll() error {
	s.guard()
	return s.eng.Reset()
}

// Wait blocks until in-flight remote writes finish. Commands call this
// before printing the final sync indicator and exiting.
func (s *Scope) Wait() {
	s.guard()
	s.eng.Wait()
}

// Close waits for in-flight writes and tears the scope down. The scope
// must not be used afterwards.
func (s *Scope) Close() error {
	s.guard()
	s.eng.Wait()
	s.closed = true
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
