package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppietruszewski/kneelog/internal/dates"
	"github.com/ppietruszewski/kneelog/internal/plan"
)

var planWeek int

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the rehabilitation plan",
	Long: `Show the phase for the active week (or --week): goals, load
guidance, session templates and their exercises.

Examples:
  kneelog plan
  kneelog plan --week 7`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().IntVar(&planWeek, "week", 0, "Plan week to show (default: the active week)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	week := planWeek
	if week == 0 {
		scope, err := openScope(cmd.Context())
		if err != nil {
			return err
		}
		st := scope.Snapshot()
		closeScope(scope)

		w, ok := dates.ActiveWeek(st, time.Now())
		if !ok {
			return fmt.Errorf("no start date configured; use --week or kneelog settings --start-date")
		}
		week = w
	}

	phase := plan.PhaseForWeek(week)
	if phase == nil {
		return fmt.Errorf("week %d is outside the plan", week)
	}

	fmt.Printf("Week %d - %s\n", week, phase.Name)
	if phase.Load != "" {
		fmt.Printf("Load: %s\n", phase.Load)
	}
	if len(phase.Goals) > 0 {
		fmt.Println("Goals:")
		for _, g := range phase.Goals {
			fmt.Printf("  - %s\n", g)
		}
	}
	if note, ok := phase.WeekByWeek[fmt.Sprint(week)]; ok {
		fmt.Printf("This week: %s\n", note)
	}

	for _, t := range plan.TemplatesForPhase(phase) {
		fmt.Printf("\n%s [%s]\n", t.Name, t.ID)
		if t.Notes != "" {
			fmt.Println(dimStyle.Render(t.Notes))
		}
		for _, ex := range plan.ResolveExercises(&t) {
			fmt.Printf("  %-22s %s\n", ex.ID, ex.Name)
		}
	}
	return nil
}
