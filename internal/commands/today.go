package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppietruszewski/kneelog/internal/dates"
	"github.com/ppietruszewski/kneelog/internal/plan"
	"github.com/ppietruszewski/kneelog/internal/state"
	"github.com/ppietruszewski/kneelog/internal/status"
)

var todayDate string

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's session",
	Long: `Show the session for today (or --date): the active plan week and
phase, the selected session template, and each exercise with what has
been logged so far.

Examples:
  kneelog today
  kneelog today --date 2024-02-14`,
	RunE: runToday,
}

func init() {
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Day to show (YYYY-MM-DD, default today)")
}

func runToday(cmd *cobra.Command, args []string) error {
	dateISO, err := resolveDate(todayDate)
	if err != nil {
		return err
	}

	scope, err := openScope(cmd.Context())
	if err != nil {
		return err
	}
	defer closeScope(scope)

	st := scope.Snapshot()

	week, ok := dates.ActiveWeek(st, time.Now())
	if !ok {
		fmt.Println("No start date configured yet.")
		fmt.Println("Run: kneelog settings --start-date YYYY-MM-DD")
		return nil
	}

	phase := plan.PhaseForWeek(week)
	fmt.Printf("%s - week %d", dateISO, week)
	if phase != nil {
		fmt.Printf(" (%s)", phase.Name)
	}
	fmt.Println()

	template := sessionForDate(st, phase, dateISO)
	if template == nil {
		fmt.Println("No session template available for this week.")
		return nil
	}
	fmt.Printf("Session: %s [%s]\n", template.Name, template.ID)
	if template.Notes != "" {
		fmt.Println(dimStyle.Render(template.Notes))
	}
	fmt.Println()

	progress := st.ExerciseProgressByDate[dateISO]
	for _, ex := range plan.ResolveExercises(template) {
		marker := "[ ]"
		detail := ""
		if p, ok := progress[ex.ID]; ok {
			if p.Done {
				marker = doneStyle.Render("[x]")
			}
			detail = progressSummary(p)
		}
		fmt.Printf("  %s %-22s %s\n", marker, ex.ID, ex.Name)
		if detail != "" {
			fmt.Printf("      %s\n", dimStyle.Render(detail))
		}
	}

	if latest := status.Latest(st); latest != nil {
		fmt.Printf("\nKnee status: %s\n", renderStatus(status.Compute(latest)))
	}
	return nil
}

// sessionForDate resolves the template for a day: the user's pick when
// one exists, otherwise the first template of the active phase.
func sessionForDate(st *state.AppState, phase *plan.Phase, dateISO string) *plan.SessionTemplate {
	if id, ok := st.SelectedTemplateByDate[dateISO]; ok {
		if t := plan.TemplateByID(id); t != nil {
			return t
		}
	}
	templates := plan.TemplatesForPhase(phase)
	if len(templates) == 0 {
		return nil
	}
	return &templates[0]
}

func progressSummary(p state.ExerciseProgress) string {
	out := ""
	add := func(s string) {
		if out != "" {
			out += ", "
		}
		out += s
	}
	if p.Sets != nil {
		add(fmt.Sprintf("%d sets", *p.Sets))
	}
	if p.Reps != nil {
		add(fmt.Sprintf("%d reps", *p.Reps))
	}
	if p.DurationSeconds != nil {
		add(fmt.Sprintf("%ds", *p.DurationSeconds))
	}
	if p.Load != nil && *p.Load != "" {
		add(*p.Load)
	}
	if p.Note != nil && *p.Note != "" {
		add(*p.Note)
	}
	return out
}
