// Package commands implements the kneelog CLI commands. Commands are
// thin views: they open the state scope, call one facade operation,
// wait for in-flight writes and print the sync indicator. All state
// logic lives in the engine package.
package commands

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ppietruszewski/kneelog/internal/config"
)

var versionInfo struct {
	version string
	commit  string
	date    string
}

// SetVersionInfo sets version information from main (populated by goreleaser).
func SetVersionInfo(version, commit, date string) {
	versionInfo.version = version
	versionInfo.commit = commit
	versionInfo.date = date
}

var configPathFlag string

var rootCmd = &cobra.Command{
	Use:   "kneelog",
	Short: "Personal knee-rehabilitation tracker",
	Long: `kneelog tracks a knee rehabilitation plan from the terminal:

  - a fixed 12-week plan with phases and session templates
  - daily exercise logging (done, sets, reps, duration, load, notes)
  - subjective check-ins (pain, stiffness, swelling, instability)
  - a traffic-light knee status derived from the latest check-in

State is kept locally and, when a remote account is configured and
logged in, synchronized to it. Writes apply locally first; a failed
remote write never loses your input.

Setup:
  kneelog settings --start-date 2024-01-01   # anchor the plan
  kneelog login                              # optional remote sync`,
	// Subcommands report their own errors; main handles the exit code.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to an alternate config file")

	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadDotenvBestEffort() {
	_ = godotenv.Load()
}

// Execute runs the root command.
func Execute() error {
	loadDotenvBestEffort()

	cobra.OnInitialize(func() {
		if configPathFlag != "" {
			config.SetPath(configPathFlag)
		}
	})

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
	return rootCmd.Execute()
}
