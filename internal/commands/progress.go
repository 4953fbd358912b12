package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppietruszewski/kneelog/internal/dates"
	"github.com/ppietruszewski/kneelog/internal/state"
	"github.com/ppietruszewski/kneelog/internal/status"
)

var progressDays int

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show recent check-ins and logged exercises",
	Long: `Show the last days of check-ins with their status color and the
exercises logged each day.

Examples:
  kneelog progress
  kneelog progress --days 7`,
	RunE: runProgress,
}

func init() {
	progressCmd.Flags().IntVar(&progressDays, "days", 14, "How many days back to show")
}

func runProgress(cmd *cobra.Command, args []string) error {
	if progressDays < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	scope, err := openScope(cmd.Context())
	if err != nil {
		return err
	}
	defer closeScope(scope)

	st := scope.Snapshot()

	shown := false
	for i := 0; i < progressDays; i++ {
		dateISO := dates.DateISO(time.Now().AddDate(0, 0, -i))
		checkIns := st.CheckInsByDate[dateISO]
		progress := st.ExerciseProgressByDate[dateISO]
		if len(checkIns) == 0 && len(progress) == 0 {
			continue
		}
		shown = true

		fmt.Println(dateISO)
		for _, c := range checkIns {
			c := c
			fmt.Printf("  %s pain %d/10, stiffness %d/10%s%s\n",
				renderStatus(status.Compute(&c)), c.Pain, c.Stiffness,
				flagText(c), commentText(c))
		}
		for _, id := range sortedExerciseIDs(progress) {
			p := progress[id]
			if !p.Done {
				continue
			}
			line := "  " + doneStyle.Render("[x]") + " " + id
			if s := progressSummary(p); s != "" {
				line += "  " + dimStyle.Render(s)
			}
			fmt.Println(line)
		}
	}

	if !shown {
		fmt.Printf("Nothing logged in the last %d days.\n", progressDays)
	}
	return nil
}

func sortedExerciseIDs(m map[string]state.ExerciseProgress) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func flagText(c state.CheckIn) string {
	out := ""
	if c.Swelling {
		out += ", swelling"
	}
	if c.Instability {
		out += ", instability"
	}
	return out
}

func commentText(c state.CheckIn) string {
	if c.Comment == "" {
		return ""
	}
	return "  " + dimStyle.Render("("+c.Comment+")")
}
