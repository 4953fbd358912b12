package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppietruszewski/kneelog/internal/config"
	"github.com/ppietruszewski/kneelog/internal/dates"
	"github.com/ppietruszewski/kneelog/internal/engine"
	"github.com/ppietruszewski/kneelog/internal/remote"
	"github.com/ppietruszewski/kneelog/internal/state"
	"github.com/ppietruszewski/kneelog/internal/status"
)

var (
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// openScope loads the config, opens the local store and, when a remote
// endpoint is configured, its adapter, and runs the initial remote load
// best-effort. Remote load failures degrade to the local blob with a
// warning; they never block the command.
func openScope(ctx context.Context) (*engine.Scope, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	statePath, err := cfg.StatePath()
	if err != nil {
		return nil, err
	}
	store := state.NewStore(statePath)

	var remoteStore remote.Store
	if cfg.RemoteConfigured() {
		remoteStore = remote.NewClient(cfg.ServerURL, cfg.AnonKey, cfg.AccessToken)
	}

	scope, err := engine.Open(store, remoteStore)
	if err != nil {
		return nil, err
	}

	if remoteStore != nil {
		if _, err := scope.LoadRemote(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: remote load failed, using local data: %v\n", err)
		}
	}
	return scope, nil
}

// closeScope drains in-flight writes, reports the sync outcome, and
// tears the scope down.
func closeScope(scope *engine.Scope) {
	scope.Wait()
	switch scope.SyncStatus() {
	case engine.StatusError:
		fmt.Fprintf(os.Stderr, "%s %s\n", redStyle.Render("sync error:"), scope.LastSyncError())
	default:
		fmt.Fprintln(os.Stderr, dimStyle.Render("saved"))
	}
	_ = scope.Close()
}

// renderStatus formats the traffic-light badge.
func renderStatus(s status.Status) string {
	switch s {
	case status.Green:
		return greenStyle.Render(string(s))
	case status.Yellow:
		return yellowStyle.Render(string(s))
	case status.Red:
		return redStyle.Render(string(s))
	}
	return dimStyle.Render(string(s))
}

// resolveDate turns an optional --date flag into an ISO date,
// defaulting to today.
func resolveDate(flag string) (string, error) {
	if flag == "" {
		return dates.TodayISO(), nil
	}
	if !dates.ValidISO(flag) {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", flag)
	}
	return flag, nil
}
