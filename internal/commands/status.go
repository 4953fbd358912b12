package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppietruszewski/kneelog/internal/dates"
	"github.com/ppietruszewski/kneelog/internal/plan"
	"github.com/ppietruszewski/kneelog/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current knee status",
	Long: `Show the traffic-light knee status derived from the most recent
check-in, together with the active plan week.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	scope, err := openScope(cmd.Context())
	if err != nil {
		return err
	}
	defer closeScope(scope)

	st := scope.Snapshot()

	latest := status.Latest(st)
	fmt.Printf("Knee status: %s\n", renderStatus(status.Compute(latest)))
	if latest != nil {
		fmt.Printf("  pain %d/10, stiffness %d/10", latest.Pain, latest.Stiffness)
		if latest.Swelling {
			fmt.Print(", swelling")
		}
		if latest.Instability {
			fmt.Print(", instability")
		}
		fmt.Printf("  (%s)\n", latest.TimestampISO)
	} else {
		fmt.Println(dimStyle.Render("  no check-in yet, run kneelog checkin"))
	}

	if week, ok := dates.ActiveWeek(st, time.Now()); ok {
		fmt.Printf("Plan week: %d", week)
		if phase := plan.PhaseForWeek(week); phase != nil {
			fmt.Printf(" (%s)", phase.Name)
		}
		fmt.Println()
	}
	return nil
}
