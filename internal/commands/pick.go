package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppietruszewski/kneelog/internal/plan"
)

var pickDate string

var pickCmd = &cobra.Command{
	Use:   "pick <template-id>",
	Short: "Pick the session template for a day",
	Long: `Select which session template to follow for today (or --date).
Without a pick, the first template of the active phase is used.

Examples:
  kneelog pick p2-strength
  kneelog pick p2-mobility --date 2024-02-14`,
	Args: cobra.ExactArgs(1),
	RunE: runPick,
}

func init() {
	pickCmd.Flags().StringVar(&pickDate, "date", "", "Day to pick for (YYYY-MM-DD, default today)")
}

func runPick(cmd *cobra.Command, args []string) error {
	templateID := args[0]
	if plan.TemplateByID(templateID) == nil {
		return fmt.Errorf("unknown session template %q (see kneelog plan)", templateID)
	}
	dateISO, err := resolveDate(pickDate)
	if err != nil {
		return err
	}

	scope, err := openScope(cmd.Context())
	if err != nil {
		return err
	}
	defer closeScope(scope)

	if err := scope.PickTemplate(dateISO, templateID); err != nil {
		return err
	}
	fmt.Printf("Picked %s for %s\n", templateID, dateISO)
	return nil
}
