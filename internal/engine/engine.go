// Package engine owns the in-memory application state and keeps it in
// sync with the local blob and the remote store.
//
// Every mutation follows the same protocol: apply to the in-memory
// snapshot synchronously, persist the blob best-effort, then write to
// the remote store on a background goroutine when a session exists.
// A monotonic mutation token decides which completion is allowed to
// update the aggregate sync status; completions of superseded mutations
// are discarded so the indicator always reflects the most recently
// initiated mutation. Remote failures never roll back local data.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppietruszewski/kneelog/internal/remote"
	"github.com/ppietruszewski/kneelog/internal/state"
)

// SyncStatus is the aggregate persistence indicator.
type SyncStatus string

const (
	StatusSaved  SyncStatus = "saved"
	StatusSaving SyncStatus = "saving"
	StatusError  SyncStatus = "error"
)

// Engine is the sync state machine. All access to the snapshot goes
// through the mutex; mutations apply under the lock and return before
// any network work starts.
type Engine struct {
	mu      sync.Mutex
	st      *state.AppState
	status  SyncStatus
	lastErr string
	token   uint64

	store  *state.Store
	remote remote.Store

	wg sync.WaitGroup

	// Test seams.
	now   func() time.Time
	newID func() string
}

// New creates an engine over an initial snapshot. remoteStore may be
// nil for a permanently local-only engine.
func New(initial *state.AppState, localStore *state.Store, remoteStore remote.Store) *Engine {
	if initial == nil {
		initial = state.Empty()
	}
	return &Engine{
		st:     initial,
		status: StatusSaved,
		store:  localStore,
		remote: remoteStore,
		now:    time.Now,
		newID:  func() string { return "local-" + uuid.NewString() },
	}
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *state.AppState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Clone()
}

// SyncStatus returns the aggregate indicator.
func (e *Engine) SyncStatus() SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// LastSyncError returns the message of the most recent surfaced write
// failure, empty when there is none.
func (e *Engine) LastSyncError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// ClearLastSyncError dismisses a surfaced write failure. Idempotent.
func (e *Engine) ClearLastSyncError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = ""
	if e.status == StatusError {
		e.status = StatusSaved
	}
}

// Wait blocks until all in-flight remote writes have completed.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// SetStartDate sets the rehab start date (nil clears it) and syncs the
// whole settings row.
func (e *Engine) SetStartDate(iso *string) {
	e.mutate(func(st *state.AppState) {
		st.StartDateISO = iso
	}, e.writeSettings)
}

// SetMediaPref sets the media display preference.
func (e *Engine) SetMediaPref(pref state.MediaPref) {
	e.mutate(func(st *state.AppState) {
		st.MediaPref = pref
	}, e.writeSettings)
}

// SetPlanMode switches between date-derived and manual week selection.
func (e *Engine) SetPlanMode(mode state.PlanMode) {
	e.mutate(func(st *state.AppState) {
		st.PlanMode = mode
	}, e.writeSettings)
}

// SetWeekOverride sets or clears the manual week override.
func (e *Engine) SetWeekOverride(week *int) {
	e.mutate(func(st *state.AppState) {
		st.WeekOverride = week
	}, e.writeSettings)
}

// PickTemplate selects the session template for a day.
func (e *Engine) PickTemplate(dateISO, templateID string) {
	e.mutate(func(st *state.AppState) {
		st.SelectedTemplateByDate[dateISO] = templateID
	}, func(ctx context.Context, sess *remote.Session, _ *state.AppState) error {
		return e.remote.UpsertDaySession(ctx, sess.UserID, dateISO, templateID)
	})
}

// UpsertExerciseProgress merges a partial patch into the progress
// record for (date, exercise). Fields the patch does not supply keep
// their prior values locally and are left untouched server-side.
func (e *Engine) UpsertExerciseProgress(dateISO, exerciseID string, patch state.ProgressPatch) {
	e.mutate(func(st *state.AppState) {
		day := st.ExerciseProgressByDate[dateISO]
		if day == nil {
			day = make(map[string]state.ExerciseProgress)
			st.ExerciseProgressByDate[dateISO] = day
		}
		day[exerciseID] = day[exerciseID].Apply(patch, e.now())
	}, func(ctx context.Context, sess *remote.Session, _ *state.AppState) error {
		return e.remote.UpsertExerciseLog(ctx, sess.UserID, dateISO, exerciseID, patch)
	})
}

// AddCheckIn appends a check-in with a locally generated transient id
// and returns the optimistic record. On remote confirmation the id and
// timestamp are rewritten in place with the server-assigned pair; on
// failure the optimistic record stays, the input is never discarded.
func (e *Engine) AddCheckIn(dateISO string, in state.CheckInInput) state.CheckIn {
	optimistic := state.CheckIn{
		ID:           e.newID(),
		TimestampISO: e.now().UTC().Format(time.RFC3339),
		Pain:         in.Pain,
		Stiffness:    in.Stiffness,
		Swelling:     in.Swelling,
		Instability:  in.Instability,
		Comment:      in.Comment,
	}

	e.mu.Lock()
	e.st.CheckInsByDate[dateISO] = append(e.st.CheckInsByDate[dateISO], optimistic)
	tok := e.beginSyncLocked()
	snapshot := e.st.Clone()
	e.mu.Unlock()

	e.persist(snapshot)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx, cancel := e.writeContext()
		defer cancel()

		sess, err := e.session(ctx)
		if err != nil {
			e.finalize(tok, err)
			return
		}
		if sess == nil {
			e.finalize(tok, nil)
			return
		}

		inserted, err := e.remote.InsertCheckIn(ctx, sess.UserID, dateISO, in)
		if err != nil {
			e.finalize(tok, err)
			return
		}
		e.reconcileCheckIn(dateISO, optimistic.ID, inserted)
		e.finalize(tok, nil)
	}()

	return optimistic
}

// ReloadLocal replaces the snapshot with the latest persisted blob.
// Used when another process wrote the blob: the other writer's state is
// pulled in wholesale, not merged.
func (e *Engine) ReloadLocal() {
	if e.store == nil {
		return
	}
	fresh := e.store.Load()
	e.mu.Lock()
	e.st = fresh
	e.mu.Unlock()
}

// Reset discards the in-memory state and the local blob. Remote data is
// deliberately left untouched.
func (e *Engine) Reset() error {
	e.mu.Lock()
	e.st = state.Empty()
	e.status = StatusSaved
	e.lastErr = ""
	e.mu.Unlock()

	if e.store == nil {
		return nil
	}
	return e.store.Reset()
}

// mutate runs the uniform mutation protocol: optimistic apply under the
// lock, best-effort local persist, then an asynchronous remote write
// finalized through the token guard. The write callback receives a
// snapshot taken at send time, after the session is resolved, so it
// sees values from mutations issued after this one rather than a stale
// capture.
func (e *Engine) mutate(apply func(*state.AppState), write func(context.Context, *remote.Session, *state.AppState) error) {
	e.mu.Lock()
	apply(e.st)
	tok := e.beginSyncLocked()
	snapshot := e.st.Clone()
	e.mu.Unlock()

	e.persist(snapshot)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx, cancel := e.writeContext()
		defer cancel()

		sess, err := e.session(ctx)
		if err != nil {
			e.finalize(tok, err)
			return
		}
		if sess == nil {
			// Local-only mode: the blob is the sole store and it is
			// already written.
			e.finalize(tok, nil)
			return
		}

		current := e.Snapshot()
		e.finalize(tok, write(ctx, sess, current))
	}()
}

// beginSyncLocked advances the mutation token and flips the indicator
// to saving. Caller holds the lock.
func (e *Engine) beginSyncLocked() uint64 {
	e.token++
	e.status = StatusSaving
	e.lastErr = ""
	return e.token
}

// finalize applies a completion under the token-discard rule and
// reports what happened to the caller.
func (e *Engine) finalize(tok uint64, err error) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tok != e.token {
		// A newer mutation owns the indicator now.
		return Outcome{Kind: OutcomeStale}
	}
	if err != nil {
		e.status = StatusError
		e.lastErr = normalizeError(err)
		return Outcome{Kind: OutcomeFailed, Reason: e.lastErr}
	}
	e.status = StatusSaved
	return Outcome{Kind: OutcomeOK}
}

// reconcileCheckIn swaps the optimistic id and timestamp for the
// server-assigned pair, preserving the record's position in its date
// bucket. Runs regardless of token staleness: the data is confirmed no
// matter which mutation currently owns the status indicator.
func (e *Engine) reconcileCheckIn(dateISO, localID string, inserted remote.InsertedCheckIn) {
	if inserted.ID == "" {
		return
	}
	e.mu.Lock()
	list := e.st.CheckInsByDate[dateISO]
	for i := range list {
		if list[i].ID == localID {
			list[i].ID = inserted.ID
			if inserted.CreatedAt != "" {
				list[i].TimestampISO = inserted.CreatedAt
			}
			break
		}
	}
	snapshot := e.st.Clone()
	e.mu.Unlock()

	e.persist(snapshot)
}

// writeSettings pushes the whole settings row, reading fields not part
// of the triggering patch from the latest snapshot.
func (e *Engine) writeSettings(ctx context.Context, sess *remote.Session, cur *state.AppState) error {
	return e.remote.UpsertUserSettings(ctx, sess.UserID, remote.UserSettingsRow{
		StartDateISO: cur.StartDateISO,
		MediaPref:    string(cur.MediaPref),
		PlanMode:     string(cur.PlanMode),
		WeekOverride: cur.WeekOverride,
	})
}

// session resolves the current identity; nil session means local-only.
func (e *Engine) session(ctx context.Context) (*remote.Session, error) {
	if e.remote == nil {
		return nil, nil
	}
	return e.remote.Session(ctx)
}

// persist writes the blob best-effort. The in-memory state stays
// authoritative when the write fails.
func (e *Engine) persist(snapshot *state.AppState) {
	if e.store == nil {
		return
	}
	_ = e.store.Save(snapshot)
}

func (e *Engine) writeContext() (context.Context, context.CancelFunc) {
	// Transport timeouts live in the adapter; this bounds the whole
	// session-plus-write sequence.
	return context.WithTimeout(context.Background(), 30*time.Second)
}
