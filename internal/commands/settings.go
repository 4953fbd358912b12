package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppietruszewski/kneelog/internal/state"
)

var (
	settingsStartDate string
	settingsMedia     string
	settingsMode      string
	settingsWeek      int
	settingsClearWeek bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Long: `Show the current settings, or change them with flags. The plan week
is derived from the start date unless the mode is manual, in which case
the week override applies.

Examples:
  kneelog settings
  kneelog settings --start-date 2024-01-01
  kneelog settings --media video
  kneelog settings --mode manual --week 5
  kneelog settings --mode auto --clear-week`,
	RunE: runSettings,
}

func init() {
	settingsCmd.Flags().StringVar(&settingsStartDate, "start-date", "", "Rehab start date (YYYY-MM-DD)")
	settingsCmd.Flags().StringVar(&settingsMedia, "media", "", "Media preference: image, video or both")
	settingsCmd.Flags().StringVar(&settingsMode, "mode", "", "Week selection mode: auto or manual")
	settingsCmd.Flags().IntVar(&settingsWeek, "week", 0, "Manual week override (1-12)")
	settingsCmd.Flags().BoolVar(&settingsClearWeek, "clear-week", false, "Clear the manual week override")
}

func runSettings(cmd *cobra.Command, args []string) error {
	scope, err := openScope(cmd.Context())
	if err != nil {
		return err
	}
	defer closeScope(scope)

	changed := false

	if cmd.Flags().Changed("start-date") {
		iso := settingsStartDate
		if err := scope.SetStartDate(&iso); err != nil {
			return err
		}
		changed = true
	}
	if cmd.Flags().Changed("media") {
		if err := scope.SetMediaPref(state.MediaPref(settingsMedia)); err != nil {
			return err
		}
		changed = true
	}
	if cmd.Flags().Changed("mode") {
		if err := scope.SetPlanMode(state.PlanMode(settingsMode)); err != nil {
			return err
		}
		changed = true
	}
	if settingsClearWeek {
		if err := scope.SetWeekOverride(nil); err != nil {
			return err
		}
		changed = true
	} else if cmd.Flags().Changed("week") {
		week := settingsWeek
		if err := scope.SetWeekOverride(&week); err != nil {
			return err
		}
		changed = true
	}

	st := scope.Snapshot()
	if changed {
		fmt.Println("Settings updated.")
	}

	start := "(not set)"
	if st.StartDateISO != nil {
		start = *st.StartDateISO
	}
	fmt.Printf("start date: %s\n", start)
	fmt.Printf("media:      %s\n", st.MediaPref)
	fmt.Printf("mode:       %s\n", st.PlanMode)
	if st.WeekOverride != nil {
		fmt.Printf("week:       %d (manual override)\n", *st.WeekOverride)
	}
	return nil
}
