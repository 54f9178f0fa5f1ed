package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	ExportDir string `toml:"export_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// GitHub contains configuration for the GitHub REST API.
type GitHub struct {
	APIURL            string  `toml:"api_url"`
	Token             string  `toml:"token"`
	TokenEnv          string  `toml:"token_env"`
	State             string  `toml:"state"`
	PerPage           int     `toml:"per_page"`
	MaxPages          int     `toml:"max_pages"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	Concurrency       int     `toml:"concurrency"`
	UserAgent         string  `toml:"user_agent"`
}

// Refresh contains configuration for the daemon's refresh loop.
type Refresh struct {
	IntervalSeconds int  `toml:"interval_seconds"`
	WatchConfig     bool `toml:"watch_config"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications configures ntfy alerts about refresh health.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Profile binds one repository to an organize scope.
//
// The scope comes either from inline [[profiles.organize]] tables or from a
// YAML file named by OrganizeFile; setting both is an error.
type Profile struct {
	Name            string          `toml:"name"`
	Repo            string          `toml:"repo"`
	AllowDuplicates bool            `toml:"allow_duplicates"`
	OrganizeFile    string          `toml:"organize_file"`
	Organize        []OrganizeEntry `toml:"organize"`
}

// OrganizeEntry is the declarative form of one scope entry. An entry with
// nested Organize entries (or Group set) recurses; otherwise it is a bin.
type OrganizeEntry struct {
	Filter      string          `toml:"filter" yaml:"filter"`
	Name        string          `toml:"name" yaml:"name"`
	Color       string          `toml:"color" yaml:"color"`
	Description string          `toml:"description" yaml:"description"`
	Order       []string        `toml:"order" yaml:"order"`
	Group       bool            `toml:"group" yaml:"group"`
	Organize    []OrganizeEntry `toml:"organize" yaml:"organize"`
}

// Config encapsulates all configuration values for issuegrid.
//
// Configuration sections by subsystem:
//   - Paths: data, log and export directories plus the API bind address
//   - GitHub: API endpoint, credentials, pagination and rate limits
//   - Refresh: daemon refresh interval and config hot reload
//   - Logging: log format, level, and retention
//   - Notifications: ntfy topic for refresh failure alerts
//   - Profiles: repositories and their organize scopes
type Config struct {
	Paths         Paths         `toml:"paths"`
	GitHub        GitHub        `toml:"github"`
	Refresh       Refresh       `toml:"refresh"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
	Profiles      []Profile     `toml:"profiles"`

	// dir is the directory of the loaded file; relative organize files
	// resolve against it.
	dir string
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized and every profile scope compiled once.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		cfg.dir = filepath.Dir(resolvedPath)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the issue cache.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "issuegrid.db")
}

// SocketPath returns the daemon's IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "issuegrid.sock")
}

// LockPath returns the daemon's single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "issuegrid.lock")
}

// PIDPath returns the daemon's pid file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "issuegrid.pid")
}

// Profile returns the profile with the given name.
func (c *Config) Profile(name string) (Profile, bool) {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// ProfileNames lists configured profile names in declaration order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
