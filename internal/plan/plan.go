// Package plan exposes the static rehabilitation plan and exercise
// catalog. Both datasets are read-only and embedded at build time; the
// accessors are simple lookups with no dependency on mutable state.
package plan

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed data/rehab_plan.json
var rehabPlanJSON []byte

//go:embed data/exercise_catalog.json
var exerciseCatalogJSON []byte

// Phase is one stage of the rehabilitation plan, active for a fixed set
// of plan weeks.
type Phase struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Weeks            []int             `json:"weeks"`
	Load             string            `json:"load,omitempty"`
	Goals            []string          `json:"goals,omitempty"`
	SessionTemplates []SessionTemplate `json:"session_templates,omitempty"`
	WeekByWeek       map[string]string `json:"week_by_week,omitempty"`
}

// SessionTemplate is a named set of exercises for one training day.
type SessionTemplate struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Includes []string `json:"includes"`
	Notes    string   `json:"notes,omitempty"`
}

// Exercise is one catalog entry.
type Exercise struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Category   string         `json:"category,omitempty"`
	Equipment  []string       `json:"equipment,omitempty"`
	How        string         `json:"how,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Safety     string         `json:"safety,omitempty"`
	ImageURL   string         `json:"image_url,omitempty"`
	VideoURL   string         `json:"video_url,omitempty"`
}

// RehabPlan is the full plan dataset.
type RehabPlan struct {
	Version string  `json:"version"`
	Phases  []Phase `json:"phases"`
}

// ExerciseCatalog is the full exercise dataset.
type ExerciseCatalog struct {
	Version   string     `json:"version"`
	Exercises []Exercise `json:"exercises"`
}

var (
	rehabPlan       RehabPlan
	exerciseCatalog ExerciseCatalog
	exerciseByID    map[string]*Exercise
)

func init() {
	if err := json.Unmarshal(rehabPlanJSON, &rehabPlan); err != nil {
		panic(fmt.Sprintf("plan: embedded rehab plan is invalid: %v", err))
	}
	if err := json.Unmarshal(exerciseCatalogJSON, &exerciseCatalog); err != nil {
		panic(fmt.Sprintf("plan: embedded exercise catalog is invalid: %v", err))
	}
	exerciseByID = make(map[string]*Exercise, len(exerciseCatalog.Exercises))
	for i := range exerciseCatalog.Exercises {
		e := &exerciseCatalog.Exercises[i]
		exerciseByID[e.ID] = e
	}
}

// Get returns the full plan.
func Get() *RehabPlan {
	return &rehabPlan
}

// Catalog returns the full exercise catalog.
func Catalog() *ExerciseCatalog {
	return &exerciseCatalog
}

// ExerciseByID looks up one exercise, nil when unknown.
func ExerciseByID(id string) *Exercise {
	return exerciseByID[id]
}

// PhaseForWeek returns the phase covering the given plan week, nil when
// the week is outside the plan.
func PhaseForWeek(week int) *Phase {
	for i := range rehabPlan.Phases {
		p := &rehabPlan.Phases[i]
		for _, w := range p.Weeks {
			if w == week {
				return p
			}
		}
	}
	return nil
}

// TemplatesForPhase returns the session templates of a phase; a nil
// phase has none.
func TemplatesForPhase(p *Phase) []SessionTemplate {
	if p == nil {
		return nil
	}
	return p.SessionTemplates
}

// TemplateByID finds a template anywhere in the plan, nil when unknown.
func TemplateByID(id string) *SessionTemplate {
	for i := range rehabPlan.Phases {
		for j := range rehabPlan.Phases[i].SessionTemplates {
			t := &rehabPlan.Phases[i].SessionTemplates[j]
			if t.ID == id {
				return t
			}
		}
	}
	return nil
}

// ResolveExercises maps a template's exercise ids to catalog entries,
// silently dropping ids the catalog does not know.
func ResolveExercises(t *SessionTemplate) []Exercise {
	if t == nil {
		return nil
	}
	out := make([]Exercise, 0, len(t.Includes))
	for _, id := range t.Includes {
		if e := ExerciseByID(id); e != nil {
			out = append(out, *e)
		}
	}
	return out
}
