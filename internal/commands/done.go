package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppietruszewski/kneelog/internal/plan"
	"github.com/ppietruszewski/kneelog/internal/state"
)

var (
	doneDate     string
	doneSets     int
	doneReps     int
	doneDuration int
	doneLoad     string
	doneNote     string
	doneUndo     bool
)

var doneCmd = &cobra.Command{
	Use:   "done <exercise-id>",
	Short: "Log an exercise",
	Long: `Mark an exercise done for today (or --date) and optionally record
sets, reps, duration, load and a note. Only the fields you pass are
updated; earlier values for the other fields are kept.

Examples:
  kneelog done quad-sets
  kneelog done leg-press --sets 4 --reps 8 --load "40 kg"
  kneelog done stationary-bike --duration 600
  kneelog done quad-sets --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

func init() {
	doneCmd.Flags().StringVar(&doneDate, "date", "", "Day to log (YYYY-MM-DD, default today)")
	doneCmd.Flags().IntVar(&doneSets, "sets", -1, "Sets performed")
	doneCmd.Flags().IntVar(&doneReps, "reps", -1, "Reps per set")
	doneCmd.Flags().IntVar(&doneDuration, "duration", -1, "Duration in seconds")
	doneCmd.Flags().StringVar(&doneLoad, "load", "", "Load used (free text)")
	doneCmd.Flags().StringVar(&doneNote, "note", "", "Note")
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Mark the exercise as not done")
}

func runDone(cmd *cobra.Command, args []string) error {
	exerciseID := args[0]
	if plan.ExerciseByID(exerciseID) == nil {
		return fmt.Errorf("unknown exercise %q (see kneelog plan)", exerciseID)
	}
	dateISO, err := resolveDate(doneDate)
	if err != nil {
		return err
	}

	done := !doneUndo
	patch := state.ProgressPatch{Done: &done}
	if cmd.Flags().Changed("sets") {
		patch.Sets = &doneSets
	}
	if cmd.Flags().Changed("reps") {
		patch.Reps = &doneReps
	}
	if cmd.Flags().Changed("duration") {
		patch.DurationSeconds = &doneDuration
	}
	if cmd.Flags().Changed("load") {
		patch.Load = &doneLoad
	}
	if cmd.Flags().Changed("note") {
		patch.Note = &doneNote
	}

	scope, err := openScope(cmd.Context())
	if err != nil {
		return err
	}
	defer closeScope(scope)

	if err := scope.UpsertExerciseProgress(dateISO, exerciseID, patch); err != nil {
		return err
	}
	if done {
		fmt.Printf("Logged %s for %s\n", exerciseID, dateISO)
	} else {
		fmt.Printf("Unmarked %s for %s\n", exerciseID, dateISO)
	}
	return nil
}
