package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppietruszewski/kneelog/internal/state"
	"github.com/ppietruszewski/kneelog/internal/status"
)

var (
	checkinDate        string
	checkinPain        int
	checkinStiffness   int
	checkinSwelling    bool
	checkinInstability bool
	checkinComment     string
)

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Record a knee check-in",
	Long: `Record how the knee feels: pain and stiffness on a 0-10 scale,
plus swelling and instability flags. The resulting traffic-light
status is printed.

Examples:
  kneelog checkin --pain 1 --stiffness 2
  kneelog checkin --pain 4 --stiffness 3 --swelling --comment "after jog"`,
	RunE: runCheckin,
}

func init() {
	checkinCmd.Flags().StringVar(&checkinDate, "date", "", "Day of the check-in (YYYY-MM-DD, default today)")
	checkinCmd.Flags().IntVar(&checkinPain, "pain", 0, "Pain 0-10")
	checkinCmd.Flags().IntVar(&checkinStiffness, "stiffness", 0, "Stiffness 0-10")
	checkinCmd.Flags().BoolVar(&checkinSwelling, "swelling", false, "The knee is swollen")
	checkinCmd.Flags().BoolVar(&checkinInstability, "instability", false, "The knee feels like giving way")
	checkinCmd.Flags().StringVar(&checkinComment, "comment", "", "Free-text comment")
	_ = checkinCmd.MarkFlagRequired("pain")
}

func runCheckin(cmd *cobra.Command, args []string) error {
	dateISO, err := resolveDate(checkinDate)
	if err != nil {
		return err
	}

	scope, err := openScope(cmd.Context())
	if err != nil {
		return err
	}
	defer closeScope(scope)

	in := state.CheckInInput{
		Pain:        checkinPain,
		Stiffness:   checkinStiffness,
		Swelling:    checkinSwelling,
		Instability: checkinInstability,
		Comment:     checkinComment,
	}
	recorded, err := scope.AddCheckIn(dateISO, in)
	if err != nil {
		return err
	}

	fmt.Printf("Check-in recorded for %s\n", dateISO)
	fmt.Printf("Knee status: %s\n", renderStatus(status.Compute(&recorded)))
	return nil
}
