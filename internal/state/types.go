// Package state defines the application state model and its local
// durable store.
//
// AppState is the single mutable aggregate for one user session. It is
// owned by the sync engine; presentation code only ever sees deep copies
// produced by Clone. The persisted form is one JSON blob tagged with a
// schema version; a version mismatch discards the blob wholesale.
package state

import "time"

// SchemaVersion is the current version of the persisted state blob.
// Increment when the shape changes incompatibly; older blobs are then
// discarded and replaced with the default empty state.
const SchemaVersion = 1

// MediaPref selects which exercise media to show. Display-only; it has
// no effect on rehabilitation logic.
type MediaPref string

const (
	MediaImage MediaPref = "image"
	MediaVideo MediaPref = "video"
	MediaBoth  MediaPref = "both"
)

// Valid reports whether p is one of the known preferences.
func (p MediaPref) Valid() bool {
	switch p {
	case MediaImage, MediaVideo, MediaBoth:
		return true
	}
	return false
}

// PlanMode selects how the active plan week is derived.
type PlanMode string

const (
	// PlanAuto derives the week from the start date and today's date.
	PlanAuto PlanMode = "auto"
	// PlanManual uses the explicit week override.
	PlanManual PlanMode = "manual"
)

// Valid reports whether m is one of the known modes.
func (m PlanMode) Valid() bool {
	return m == PlanAuto || m == PlanManual
}

// MinWeek and MaxWeek bound the manual week override.
const (
	MinWeek = 1
	MaxWeek = 12
)

// ExerciseProgress records what the user logged for one exercise on one
// day. All fields except Done and UpdatedAtISO are optional.
type ExerciseProgress struct {
	Done            bool    `json:"done"`
	Sets            *int    `json:"sets,omitempty"`
	Reps            *int    `json:"reps,omitempty"`
	DurationSeconds *int    `json:"durationSeconds,omitempty"`
	Load            *string `json:"load,omitempty"`
	Note            *string `json:"note,omitempty"`
	UpdatedAtISO    string  `json:"updatedAtISO"`
}

// ProgressPatch is a partial update to an ExerciseProgress record.
// A nil field means "not supplied, keep the prior value"; a non-nil
// pointer to a zero value is an explicit overwrite. This distinction is
// preserved all the way to the remote write: only supplied fields are
// sent, so concurrent edits from another device are never clobbered.
type ProgressPatch struct {
	Done            *bool
	Sets            *int
	Reps            *int
	DurationSeconds *int
	Load            *string
	Note            *string
}

// Empty reports whether the patch supplies no fields at all.
func (p ProgressPatch) Empty() bool {
	return p.Done == nil && p.Sets == nil && p.Reps == nil &&
		p.DurationSeconds == nil && p.Load == nil && p.Note == nil
}

// CheckIn is one subjective knee check-in. Records are append-only per
// date bucket; the sync layer never edits or removes one, except to
// swap a locally generated ID and timestamp for the server-assigned
// pair when an optimistic insert is confirmed.
type CheckIn struct {
	ID           string `json:"id"`
	TimestampISO string `json:"timestampISO"`
	Pain         int    `json:"pain"`      // 0-10
	Stiffness    int    `json:"stiffness"` // 0-10
	Swelling     bool   `json:"swelling"`
	Instability  bool   `json:"instability"`
	Comment      string `json:"comment,omitempty"`
}

// CheckInInput is the caller-supplied part of a check-in; the sync
// engine assigns the ID and timestamp.
type CheckInInput struct {
	Pain        int
	Stiffness   int
	Swelling    bool
	Instability bool
	Comment     string
}

// AppState is the root aggregate. One instance exists per user session,
// created empty and then populated from the local blob or, once a
// session is confirmed, from the remote store.
type AppState struct {
	Version int `json:"version"`

	// StartDateISO anchors week-number computation (YYYY-MM-DD).
	// Nil means not yet configured.
	StartDateISO *string   `json:"startDateISO"`
	MediaPref    MediaPref `json:"mediaPref"`

	PlanMode PlanMode `json:"planMode"`
	// WeekOverride is meaningful only when PlanMode is manual.
	WeekOverride *int `json:"weekOverride,omitempty"`

	// SelectedTemplateByDate maps an ISO date to the session template
	// picked for that day. Absence means "use the default".
	SelectedTemplateByDate map[string]string `json:"selectedTemplateByDate"`

	// ExerciseProgressByDate maps ISO date -> exercise id -> progress.
	ExerciseProgressByDate map[string]map[string]ExerciseProgress `json:"exerciseProgressByDate"`

	// CheckInsByDate maps ISO date -> check-ins in submission order.
	// Global ordering across dates must use each record's timestamp.
	CheckInsByDate map[string][]CheckIn `json:"checkInsByDate"`
}

// Empty returns the default state for a fresh or reset session.
func Empty() *AppState {
	return &AppState{
		Version:                SchemaVersion,
		StartDateISO:           nil,
		MediaPref:              MediaBoth,
		PlanMode:               PlanAuto,
		SelectedTemplateByDate: make(map[string]string),
		ExerciseProgressByDate: make(map[string]map[string]ExerciseProgress),
		CheckInsByDate:         make(map[string][]CheckIn),
	}
}

// Clone returns a deep copy. Snapshots handed out by the engine must
// not alias the engine-owned maps.
func (s *AppState) Clone() *AppState {
	out := &AppState{
		Version:                s.Version,
		MediaPref:              s.MediaPref,
		PlanMode:               s.PlanMode,
		SelectedTemplateByDate: make(map[string]string, len(s.SelectedTemplateByDate)),
		ExerciseProgressByDate: make(map[string]map[string]ExerciseProgress, len(s.ExerciseProgressByDate)),
		CheckInsByDate:         make(map[string][]CheckIn, len(s.CheckInsByDate)),
	}
	if s.StartDateISO != nil {
		v := *s.StartDateISO
		out.StartDateISO = &v
	}
	if s.WeekOverride != nil {
		v := *s.WeekOverride
		out.WeekOverride = &v
	}
	for d, t := range s.SelectedTemplateByDate {
		out.SelectedTemplateByDate[d] = t
	}
	for d, day := range s.ExerciseProgressByDate {
		m := make(map[string]ExerciseProgress, len(day))
		for id, p := range day {
			m[id] = p.clone()
		}
		out.ExerciseProgressByDate[d] = m
	}
	for d, list := range s.CheckInsByDate {
		cp := make([]CheckIn, len(list))
		copy(cp, list)
		out.CheckInsByDate[d] = cp
	}
	return out
}

func (p ExerciseProgress) clone() ExerciseProgress {
	out := p
	out.Sets = cloneInt(p.Sets)
	out.Reps = cloneInt(p.Reps)
	out.DurationSeconds = cloneInt(p.DurationSeconds)
	out.Load = cloneString(p.Load)
	out.Note = cloneString(p.Note)
	return out
}

// Apply merges a patch into an existing progress record, preserving any
// field the patch does not supply, and refreshes the update timestamp.
func (p ExerciseProgress) Apply(patch ProgressPatch, now time.Time) ExerciseProgress {
	out := p.clone()
	if patch.Done != nil {
		out.Done = *patch.Done
	}
	if patch.Sets != nil {
		out.Sets = cloneInt(patch.Sets)
	}
	if patch.Reps != nil {
		out.Reps = cloneInt(patch.Reps)
	}
	if patch.DurationSeconds != nil {
		out.DurationSeconds = cloneInt(patch.DurationSeconds)
	}
	if patch.Load != nil {
		out.Load = cloneString(patch.Load)
	}
	if patch.Note != nil {
		out.Note = cloneString(patch.Note)
	}
	out.UpdatedAtISO = now.UTC().Format(time.RFC3339)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
