package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppietruszewski/kneelog/internal/state"
)

func openTestScope(t *testing.T) *Scope {
	t.Helper()
	store := state.NewStore(filepath.Join(t.TempDir(), "state.json"))
	scope, err := Open(store, nil)
	require.NoError(t, err)
	return scope
}

func TestScopeValidation(t *testing.T) {
	scope := openTestScope(t)
	defer func() { _ = scope.Close() }()

	bad := "03/01/2024"
	assert.Error(t, scope.SetStartDate(&bad))
	assert.Error(t, scope.SetMediaPref("gif"))
	assert.Error(t, scope.SetPlanMode("always"))

	week := 13
	assert.Error(t, scope.SetWeekOverride(&week))
	week = 0
	assert.Error(t, scope.SetWeekOverride(&week))

	assert.Error(t, scope.PickTemplate("not-a-date", "p1-daily"))
	assert.Error(t, scope.PickTemplate("2024-03-01", ""))

	done := true
	assert.Error(t, scope.UpsertExerciseProgress("2024-03-01", "", state.ProgressPatch{Done: &done}))
	assert.Error(t, scope.UpsertExerciseProgress("2024-03-01", "quad-sets", state.ProgressPatch{}))
	neg := -1
	assert.Error(t, scope.UpsertExerciseProgress("2024-03-01", "quad-sets", state.ProgressPatch{Sets: &neg}))

	_, err := scope.AddCheckIn("2024-03-01", state.CheckInInput{Pain: 11})
	assert.Error(t, err)
	_, err = scope.AddCheckIn("2024-03-01", state.CheckInInput{Pain: 2, Stiffness: -1})
	assert.Error(t, err)
}

func TestScopeMutationsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := state.NewStore(filepath.Join(dir, "state.json"))
	scope, err := Open(store, nil)
	require.NoError(t, err)

	start := "2024-01-01"
	require.NoError(t, scope.SetStartDate(&start))
	require.NoError(t, scope.SetPlanMode(state.PlanManual))
	week := 3
	require.NoError(t, scope.SetWeekOverride(&week))
	done := true
	require.NoError(t, scope.UpsertExerciseProgress("2024-01-15", "bridges", state.ProgressPatch{Done: &done}))
	_, err = scope.AddCheckIn("2024-01-15", state.CheckInInput{Pain: 1, Stiffness: 2})
	require.NoError(t, err)

	scope.Wait()
	assert.Equal(t, StatusSaved, scope.SyncStatus())
	require.NoError(t, scope.Close())

	// A second scope over the same file sees everything.
	reopened, err := Open(state.NewStore(filepath.Join(dir, "state.json")), nil)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	st := reopened.Snapshot()
	require.NotNil(t, st.StartDateISO)
	assert.Equal(t, start, *st.StartDateISO)
	assert.Equal(t, state.PlanManual, st.PlanMode)
	require.NotNil(t, st.WeekOverride)
	assert.Equal(t, 3, *st.WeekOverride)
	assert.True(t, st.ExerciseProgressByDate["2024-01-15"]["bridges"].Done)
	assert.Len(t, st.CheckInsByDate["2024-01-15"], 1)
}

func TestScopeGuard(t *testing.T) {
	assert.Panics(t, func() {
		var s *Scope
		s.Snapshot()
	})
	assert.Panics(t, func() {
		(&Scope{}).SyncStatus()
	})

	scope := openTestScope(t)
	require.NoError(t, scope.Close())
	assert.Panics(t, func() { scope.Snapshot() })
	assert.Panics(t, func() {
		_ = scope.SetMediaPref(state.MediaBoth)
	})
}

func TestScopeResetAll(t *testing.T) {
	scope := openTestScope(t)
	defer func() { _ = scope.Close() }()

	require.NoError(t, scope.PickTemplate("2024-03-01", "p1-daily"))
	scope.Wait()
	require.NotEmpty(t, scope.Snapshot().SelectedTemplateByDate)

	require.NoError(t, scope.ResetAll())
	assert.Empty(t, scope.Snapshot().SelectedTemplateByDate)
	assert.Equal(t, StatusSaved, scope.SyncStatus())
}
