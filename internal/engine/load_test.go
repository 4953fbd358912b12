package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppietruszewski/kneelog/internal/dates"
	"github.com/ppietruszewski/kneelog/internal/remote"
	"github.com/ppietruszewski/kneelog/internal/state"
)

func TestLoadRemoteNoSession(t *testing.T) {
	eng := New(state.Empty(), nil, newFakeRemote(""))

	authed, err := eng.LoadRemote(context.Background())
	require.NoError(t, err)
	assert.False(t, authed)
}

func TestLoadRemoteBootstrapsSettings(t *testing.T) {
	// First login: no settings row exists yet, so the default one is
	// created server-side.
	fake := newFakeRemote("user-1")
	eng := New(state.Empty(), nil, fake)

	authed, err := eng.LoadRemote(context.Background())
	require.NoError(t, err)
	assert.True(t, authed)
	assert.Equal(t, 1, fake.writeCount)
	assert.Equal(t, string(state.MediaBoth), fake.lastSettings.MediaPref)
	assert.Equal(t, string(state.PlanAuto), fake.lastSettings.PlanMode)
}

func TestLoadRemotePopulatesState(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	todayISO := dates.DateISO(now)

	start := "2024-02-01"
	week := 5
	sets := 3
	fake := newFakeRemote("user-1")
	fake.selSettings = &remote.UserSettingsRow{
		StartDateISO: &start,
		MediaPref:    "video",
		PlanMode:     "manual",
		WeekOverride: &week,
	}
	fake.selDay = &remote.DaySessionRow{DateISO: todayISO, TemplateID: "p2-strength"}
	fake.selLogs = []remote.ExerciseLogRow{
		{DateISO: todayISO, ExerciseID: "bridges", Done: true, Sets: &sets, UpdatedAt: "2024-03-10T09:00:00Z"},
	}
	fake.selCheckIns = []remote.CheckInRow{
		{ID: "ci-1", DateISO: "2024-03-09", CreatedAt: "2024-03-09T20:00:00Z", Pain: 2, Stiffness: 1},
		{ID: "ci-2", DateISO: todayISO, CreatedAt: todayISO + "T08:00:00Z", Pain: 1, Stiffness: 1, Swelling: true},
	}

	eng := New(state.Empty(), nil, fake)
	eng.now = func() time.Time { return now }

	authed, err := eng.LoadRemote(context.Background())
	require.NoError(t, err)
	assert.True(t, authed)
	// An existing settings row must not be bootstrapped again.
	assert.Equal(t, 0, fake.writeCount)

	st := eng.Snapshot()
	require.NotNil(t, st.StartDateISO)
	assert.Equal(t, start, *st.StartDateISO)
	assert.Equal(t, state.MediaVideo, st.MediaPref)
	assert.Equal(t, state.PlanManual, st.PlanMode)
	require.NotNil(t, st.WeekOverride)
	assert.Equal(t, 5, *st.WeekOverride)

	assert.Equal(t, "p2-strength", st.SelectedTemplateByDate[todayISO])

	p := st.ExerciseProgressByDate[todayISO]["bridges"]
	assert.True(t, p.Done)
	require.NotNil(t, p.Sets)
	assert.Equal(t, 3, *p.Sets)
	assert.Equal(t, "2024-03-10T09:00:00Z", p.UpdatedAtISO)

	require.Len(t, st.CheckInsByDate["2024-03-09"], 1)
	assert.Equal(t, "ci-1", st.CheckInsByDate["2024-03-09"][0].ID)
	require.Len(t, st.CheckInsByDate[todayISO], 1)
	assert.True(t, st.CheckInsByDate[todayISO][0].Swelling)
}
