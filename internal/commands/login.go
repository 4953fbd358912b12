package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ppietruszewski/kneelog/internal/config"
	"github.com/ppietruszewski/kneelog/internal/remote"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the remote access token",
	Long: `Store the access token for the configured remote store and verify
it. The token is read without echo and written to the config file.

Requires server_url (and usually anon_key) in the config file or the
KNEELOG_SERVER_URL / KNEELOG_ANON_KEY environment.`,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.RemoteConfigured() {
		return fmt.Errorf("no server_url configured; set it in the config file or KNEELOG_SERVER_URL")
	}

	fmt.Print("Access token: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return fmt.Errorf("empty token")
	}

	client := remote.NewClient(cfg.ServerURL, cfg.AnonKey, token)
	sess, err := client.Session(cmd.Context())
	if err != nil {
		return fmt.Errorf("verifying token: %w", err)
	}
	if sess == nil {
		return fmt.Errorf("the server rejected the token")
	}

	cfg.AccessToken = token
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", sess.Email)
	return nil
}
