package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase local data",
	Long: `Erase the local state file and start from an empty state. Data in
the remote store is left untouched and will be pulled back in on the
next command while logged in.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Actually erase; required")
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetForce {
		return fmt.Errorf("refusing to erase local data without --force")
	}

	scope, err := openScope(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = scope.Close() }()

	if err := scope.ResetAll(); err != nil {
		return err
	}
	fmt.Println("Local data erased.")
	return nil
}
