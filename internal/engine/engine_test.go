package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppietruszewski/kneelog/internal/remote"
	"github.com/ppietruszewski/kneelog/internal/state"
)

// fakeRemote implements remote.Store for engine tests. With gating
// enabled every write blocks until the test releases it, which makes
// completion order fully controllable.
type fakeRemote struct {
	sess    *remote.Session
	sessErr error

	inserted  remote.InsertedCheckIn
	insertErr error
	writeErr  error

	gated bool
	calls chan *gatedCall

	lastSettings remote.UserSettingsRow
	lastPatch    state.ProgressPatch
	writeCount   int

	selSettings *remote.UserSettingsRow
	selDay      *remote.DaySessionRow
	selLogs     []remote.ExerciseLogRow
	selCheckIns []remote.CheckInRow
}

type gatedCall struct {
	op      string
	release chan error
}

func newFakeRemote(userID string) *fakeRemote {
	var sess *remote.Session
	if userID != "" {
		sess = &remote.Session{UserID: userID, Email: userID + "@example.com"}
	}
	return &fakeRemote{
		sess:     sess,
		inserted: remote.InsertedCheckIn{ID: "srv-1", CreatedAt: "2024-03-01T10:00:00Z"},
		calls:    make(chan *gatedCall, 16),
	}
}

func (f *fakeRemote) wait(op string, err error) error {
	f.writeCount++
	if !f.gated {
		return err
	}
	c := &gatedCall{op: op, release: make(chan error, 1)}
	f.calls <- c
	if gateErr := <-c.release; gateErr != nil {
		return gateErr
	}
	return err
}

func (f *fakeRemote) Session(ctx context.Context) (*remote.Session, error) {
	return f.sess, f.sessErr
}

func (f *fakeRemote) UpsertUserSettings(ctx context.Context, userID string, row remote.UserSettingsRow) error {
	f.lastSettings = row
	return f.wait("settings", f.writeErr)
}

func (f *fakeRemote) UpsertDaySession(ctx context.Context, userID, dateISO, templateID string) error {
	return f.wait("day_session", f.writeErr)
}

func (f *fakeRemote) UpsertExerciseLog(ctx context.Context, userID, dateISO, exerciseID string, patch state.ProgressPatch) error {
	f.lastPatch = patch
	return f.wait("exercise_log", f.writeErr)
}

func (f *fakeRemote) InsertCheckIn(ctx context.Context, userID, dateISO string, in state.CheckInInput) (remote.InsertedCheckIn, error) {
	if err := f.wait("check_in", f.insertErr); err != nil {
		return remote.InsertedCheckIn{}, err
	}
	return f.inserted, nil
}

func (f *fakeRemote) SelectUserSettings(ctx context.Context, userID string) (*remote.UserSettingsRow, error) {
	return f.selSettings, nil
}

func (f *fakeRemote) SelectDaySession(ctx context.Context, userID, dateISO string) (*remote.DaySessionRow, error) {
	return f.selDay, nil
}

func (f *fakeRemote) SelectExerciseLogs(ctx context.Context, userID, dateISO string) ([]remote.ExerciseLogRow, error) {
	return f.selLogs, nil
}

func (f *fakeRemote) SelectCheckInsSince(ctx context.Context, userID, fromDateISO string) ([]remote.CheckInRow, error) {
	return f.selCheckIns, nil
}

func boolPtr(v bool) *bool    { return &v }
func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestOfflineMutationsEndSaved(t *testing.T) {
	// No session at all: every mutation finalizes saved and the state
	// reflects each one exactly once, in call order.
	eng := New(state.Empty(), nil, newFakeRemote(""))

	start := "2024-01-01"
	eng.SetStartDate(&start)
	eng.SetMediaPref(state.MediaVideo)
	eng.PickTemplate("2024-01-02", "p1-daily")
	eng.UpsertExerciseProgress("2024-01-02", "quad-sets", state.ProgressPatch{Done: boolPtr(true)})
	eng.AddCheckIn("2024-01-02", state.CheckInInput{Pain: 1, Stiffness: 2})
	eng.Wait()

	assert.Equal(t, StatusSaved, eng.SyncStatus())
	assert.Empty(t, eng.LastSyncError())

	st := eng.Snapshot()
	require.NotNil(t, st.StartDateISO)
	assert.Equal(t, "2024-01-01", *st.StartDateISO)
	assert.Equal(t, state.MediaVideo, st.MediaPref)
	assert.Equal(t, "p1-daily", st.SelectedTemplateByDate["2024-01-02"])
	assert.True(t, st.ExerciseProgressByDate["2024-01-02"]["quad-sets"].Done)
	assert.Len(t, st.CheckInsByDate["2024-01-02"], 1)
}

func TestOverlappingMutationsNewerOwnsStatus(t *testing.T) {
	// A then B, with B issued before A's remote completion. Whatever
	// order the completions arrive, only B's outcome shows.
	cases := []struct {
		name           string
		errA, errB     error
		completeBFirst bool
		wantStatus     SyncStatus
		wantErr        string
	}{
		{"a fails late, b ok", fmt.Errorf("boom A"), nil, false, StatusSaved, ""},
		{"a fails late, b ok, b completes first", fmt.Errorf("boom A"), nil, true, StatusSaved, ""},
		{"a ok, b fails", nil, fmt.Errorf("boom B"), false, StatusError, "boom B"},
		{"a ok late, b fails first", nil, fmt.Errorf("boom B"), true, StatusError, "boom B"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := newFakeRemote("user-1")
			fake.gated = true
			eng := New(state.Empty(), nil, fake)

			start := "2024-01-01"
			eng.SetStartDate(&start)
			callA := <-fake.calls

			eng.SetMediaPref(state.MediaImage)
			callB := <-fake.calls

			if tc.completeBFirst {
				callB.release <- tc.errB
				callA.release <- tc.errA
			} else {
				callA.release <- tc.errA
				callB.release <- tc.errB
			}
			eng.Wait()

			assert.Equal(t, tc.wantStatus, eng.SyncStatus())
			assert.Equal(t, tc.wantErr, eng.LastSyncError())
		})
	}
}

func TestSettingsWriteUsesLatestSnapshot(t *testing.T) {
	// The media-pref mutation only changed one field, but its settings
	// write must carry the start date from the earlier mutation: the
	// row is built from the snapshot at send time, not from values
	// captured when the mutation was issued.
	fake := newFakeRemote("user-1")
	fake.gated = true
	eng := New(state.Empty(), nil, fake)

	start := "2024-01-01"
	eng.SetStartDate(&start)
	callA := <-fake.calls

	eng.SetMediaPref(state.MediaVideo)
	callB := <-fake.calls

	callA.release <- nil
	callB.release <- nil
	eng.Wait()

	assert.Equal(t, string(state.MediaVideo), fake.lastSettings.MediaPref)
	require.NotNil(t, fake.lastSettings.StartDateISO)
	assert.Equal(t, "2024-01-01", *fake.lastSettings.StartDateISO)
}

func TestCheckInReconciliation(t *testing.T) {
	fake := newFakeRemote("user-1")
	fake.inserted = remote.InsertedCheckIn{ID: "srv-1", CreatedAt: "2024-03-01T10:00:00Z"}
	eng := New(state.Empty(), nil, fake)

	optimistic := eng.AddCheckIn("2024-03-01", state.CheckInInput{
		Pain: 2, Stiffness: 1, Swelling: true, Comment: "morning",
	})
	assert.NotEmpty(t, optimistic.ID)
	eng.Wait()

	st := eng.Snapshot()
	list := st.CheckInsByDate["2024-03-01"]
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, "srv-1", got.ID)
	assert.Equal(t, "2024-03-01T10:00:00Z", got.TimestampISO)
	assert.Equal(t, 2, got.Pain)
	assert.Equal(t, 1, got.Stiffness)
	assert.True(t, got.Swelling)
	assert.False(t, got.Instability)
	assert.Equal(t, "morning", got.Comment)
	assert.Equal(t, StatusSaved, eng.SyncStatus())
}

func TestCheckInFailureKeepsOptimisticRecord(t *testing.T) {
	fake := newFakeRemote("user-1")
	fake.insertErr = fmt.Errorf("insert rejected")
	eng := New(state.Empty(), nil, fake)

	optimistic := eng.AddCheckIn("2024-03-01", state.CheckInInput{Pain: 5})
	eng.Wait()

	st := eng.Snapshot()
	list := st.CheckInsByDate["2024-03-01"]
	require.Len(t, list, 1)
	assert.Equal(t, optimistic.ID, list[0].ID)
	assert.Equal(t, 5, list[0].Pain)
	assert.Equal(t, StatusError, eng.SyncStatus())
	assert.Equal(t, "insert rejected", eng.LastSyncError())
}

func TestUpsertFailureKeepsLocalValue(t *testing.T) {
	fake := newFakeRemote("user-1")
	fake.writeErr = &remote.Error{StatusCode: 500, Body: `{"message":"row locked"}`}
	eng := New(state.Empty(), nil, fake)

	eng.UpsertExerciseProgress("2024-03-01", "quad-sets", state.ProgressPatch{Done: boolPtr(true)})
	eng.Wait()

	st := eng.Snapshot()
	assert.True(t, st.ExerciseProgressByDate["2024-03-01"]["quad-sets"].Done)
	assert.Equal(t, StatusError, eng.SyncStatus())
	assert.Equal(t, "row locked", eng.LastSyncError())
}

func TestPartialPatchIdempotence(t *testing.T) {
	eng := New(state.Empty(), nil, newFakeRemote(""))

	times := []time.Time{
		time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	i := 0
	eng.now = func() time.Time {
		t := times[i%len(times)]
		i++
		return t
	}

	eng.UpsertExerciseProgress("2024-03-01", "leg-press", state.ProgressPatch{
		Sets: intPtr(4), Reps: intPtr(8), Load: strPtr("40 kg"),
	})
	eng.UpsertExerciseProgress("2024-03-01", "leg-press", state.ProgressPatch{Done: boolPtr(true)})
	first := eng.Snapshot().ExerciseProgressByDate["2024-03-01"]["leg-press"]

	eng.UpsertExerciseProgress("2024-03-01", "leg-press", state.ProgressPatch{Done: boolPtr(true)})
	second := eng.Snapshot().ExerciseProgressByDate["2024-03-01"]["leg-press"]
	eng.Wait()

	assert.True(t, first.Done)
	assert.True(t, second.Done)
	require.NotNil(t, second.Sets)
	assert.Equal(t, 4, *second.Sets)
	require.NotNil(t, second.Reps)
	assert.Equal(t, 8, *second.Reps)
	require.NotNil(t, second.Load)
	assert.Equal(t, "40 kg", *second.Load)
	assert.Nil(t, second.Note)
	assert.LessOrEqual(t, first.UpdatedAtISO, second.UpdatedAtISO)
}

func TestPatchSendsOnlySuppliedFields(t *testing.T) {
	fake := newFakeRemote("user-1")
	eng := New(state.Empty(), nil, fake)

	eng.UpsertExerciseProgress("2024-03-01", "quad-sets", state.ProgressPatch{Done: boolPtr(true)})
	eng.Wait()

	assert.NotNil(t, fake.lastPatch.Done)
	assert.Nil(t, fake.lastPatch.Sets)
	assert.Nil(t, fake.lastPatch.Reps)
	assert.Nil(t, fake.lastPatch.DurationSeconds)
	assert.Nil(t, fake.lastPatch.Load)
	assert.Nil(t, fake.lastPatch.Note)
}

func TestSessionErrorSurfaces(t *testing.T) {
	fake := newFakeRemote("user-1")
	fake.sessErr = fmt.Errorf("network down")
	eng := New(state.Empty(), nil, fake)

	eng.SetMediaPref(state.MediaImage)
	eng.Wait()

	assert.Equal(t, StatusError, eng.SyncStatus())
	assert.Equal(t, "network down", eng.LastSyncError())
	// The optimistic value stays.
	assert.Equal(t, state.MediaImage, eng.Snapshot().MediaPref)
}

func TestClearLastSyncError(t *testing.T) {
	fake := newFakeRemote("user-1")
	fake.writeErr = fmt.Errorf("boom")
	eng := New(state.Empty(), nil, fake)

	eng.SetMediaPref(state.MediaImage)
	eng.Wait()
	require.Equal(t, StatusError, eng.SyncStatus())

	eng.ClearLastSyncError()
	assert.Equal(t, StatusSaved, eng.SyncStatus())
	assert.Empty(t, eng.LastSyncError())

	// Idempotent.
	eng.ClearLastSyncError()
	assert.Equal(t, StatusSaved, eng.SyncStatus())
}

func TestResetClearsStateAndBlob(t *testing.T) {
	dir := t.TempDir()
	store := state.NewStore(dir + "/state.json")
	eng := New(state.Empty(), store, newFakeRemote(""))

	eng.PickTemplate("2024-03-01", "p1-daily")
	eng.Wait()
	require.NotEmpty(t, eng.Snapshot().SelectedTemplateByDate)

	require.NoError(t, eng.Reset())
	assert.Empty(t, eng.Snapshot().SelectedTemplateByDate)
	assert.Equal(t, StatusSaved, eng.SyncStatus())

	// The blob is gone: a fresh store loads the default state.
	assert.Empty(t, state.NewStore(dir+"/state.json").Load().SelectedTemplateByDate)
}

func TestNormalizeError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"plain error", fmt.Errorf("plain failure"), "plain failure"},
		{"remote message field", &remote.Error{StatusCode: 400, Body: `{"message":"bad row"}`}, "bad row"},
		{"remote error_description", &remote.Error{StatusCode: 401, Body: `{"error_description":"token expired"}`}, "token expired"},
		{"remote error field", &remote.Error{StatusCode: 400, Body: `{"error":"invalid_grant"}`}, "invalid_grant"},
		{"remote raw body", &remote.Error{StatusCode: 500, Body: "gateway exploded"}, "gateway exploded"},
		{"remote empty body", &remote.Error{StatusCode: 502}, "remote store returned status 502"},
		{"nil", nil, "unknown write error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeError(tc.err))
		})
	}
}
