package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kneelog %s (commit %s, built %s)\n",
			versionInfo.version, versionInfo.commit, versionInfo.date)
	},
}
