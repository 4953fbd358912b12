// kneelog - personal knee-rehabilitation tracker
//
// Tracks a fixed 12-week rehab plan: daily exercise logging, subjective
// check-ins, and a traffic-light knee status. State lives in a local
// JSON blob and, when logged in, is synchronized to a remote store.
// Writes apply locally first; a failed remote write is surfaced but
// never loses the input.
package main

import (
	"fmt"
	"os"

	"github.com/ppietruszewski/kneelog/internal/commands"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
