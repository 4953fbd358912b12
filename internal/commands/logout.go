package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppietruszewski/kneelog/internal/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the remote access token",
	Long: `Remove the stored access token. Local data stays; the app keeps
working in local-only mode. Remote data is not touched.`,
	RunE: runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.AccessToken == "" {
		fmt.Println("Not logged in.")
		return nil
	}
	cfg.AccessToken = ""
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}
