// Package config handles the kneelog configuration file.
//
// The config file lives at ~/.config/kneelog/config.yaml and contains:
//
//	server_url: "https://..."   - Remote store base URL (optional)
//	anon_key: "..."             - Application API key for the remote store
//	access_token: "..."         - User access token (written by `kneelog login`)
//	state_dir: "/path"          - Override for the local state directory
//
// Environment variables override file values:
//
//	KNEELOG_SERVER_URL, KNEELOG_ANON_KEY, KNEELOG_ACCESS_TOKEN,
//	KNEELOG_STATE_DIR
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file.
const FileName = "config.yaml"

// StateFileName is the name of the persisted state blob inside the
// state directory.
const StateFileName = "state.json"

// customPath holds an optional custom config file path.
// When empty, Load() uses the default location.
var customPath string

// SetPath sets a custom config file path for Load() and Save() to use.
// Pass an empty string to reset to the default path.
func SetPath(path string) {
	customPath = path
}

var urlPattern = regexp.MustCompile(`^https?://[^\s]+$`)

// Config represents the kneelog configuration.
type Config struct {
	ServerURL   string `yaml:"server_url,omitempty"`
	AnonKey     string `yaml:"anon_key,omitempty"`
	AccessToken string `yaml:"access_token,omitempty"`
	StateDir    string `yaml:"state_dir,omitempty"`
}

// RemoteConfigured reports whether a remote store endpoint is set up.
// Without one the app runs permanently local-only.
func (c *Config) RemoteConfigured() bool {
	return c.ServerURL != ""
}

// StatePath returns the location of the persisted state blob.
func (c *Config) StatePath() (string, error) {
	dir := c.StateDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolving config dir: %w", err)
		}
		dir = filepath.Join(base, "kneelog")
	}
	return filepath.Join(dir, StateFileName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(base, "kneelog", FileName), nil
}

func resolvePath() (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	return DefaultPath()
}

// Load reads the config file, overlays environment variables, and
// validates the result. A missing file is not an error; it yields a
// config that may still be completed from the environment.
func Load() (*Config, error) {
	path, err := resolvePath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No file yet: env-only configuration.
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.ServerURL != "" && !urlPattern.MatchString(cfg.ServerURL) {
		return nil, fmt.Errorf("invalid server_url %q", cfg.ServerURL)
	}
	return cfg, nil
}

// Save writes the config file with restrictive permissions (it can
// hold the user's access token).
func Save(cfg *Config) error {
	path, err := resolvePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("KNEELOG_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("KNEELOG_ANON_KEY"); v != "" {
		cfg.AnonKey = v
	}
	if v := os.Getenv("KNEELOG_ACCESS_TOKEN"); v != "" {
		cfg.AccessToken = v
	}
	if v := os.Getenv("KNEELOG_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
}
