package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"issuegrid/internal/config"
)

func TestLoadDefaultConfigUsesEnvTokenAndExpandsPaths(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-token")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "issuegrid")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7489" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.GitHub.Token != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.GitHub.Token)
	}
	if cfg.GitHub.APIURL != config.Default().GitHub.APIURL {
		t.Fatalf("unexpected api url: %q", cfg.GitHub.APIURL)
	}
	if cfg.GitHub.State != "open" {
		t.Fatalf("unexpected default state %q", cfg.GitHub.State)
	}
	if len(cfg.Profiles) != 0 {
		t.Fatalf("expected no profiles by default, got %d", len(cfg.Profiles))
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if filepath.Dir(cfg.DatabasePath()) != cfg.Paths.DataDir {
		t.Fatalf("expected database inside data dir, got %q", cfg.DatabasePath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "issuegrid.toml")

	type payload struct {
		GitHub struct {
			APIURL   string `toml:"api_url"`
			Token    string `toml:"token"`
			State    string `toml:"state"`
			MaxPages int    `toml:"max_pages"`
		} `toml:"github"`
		Refresh struct {
			IntervalSeconds int `toml:"interval_seconds"`
		} `toml:"refresh"`
	}
	custom := payload{}
	custom.GitHub.APIURL = "https://github.example.com/api/v3/"
	custom.GitHub.Token = "file-token"
	custom.GitHub.State = "ALL"
	custom.GitHub.MaxPages = 3
	custom.Refresh.IntervalSeconds = 120
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}
	t.Setenv("GITHUB_TOKEN", "env-token")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.GitHub.APIURL != "https://github.example.com/api/v3" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.GitHub.APIURL)
	}
	if cfg.GitHub.Token != "file-token" {
		t.Fatalf("expected file token to win over env, got %q", cfg.GitHub.Token)
	}
	if cfg.GitHub.State != "all" {
		t.Fatalf("expected normalized state, got %q", cfg.GitHub.State)
	}
	if cfg.GitHub.MaxPages != 3 {
		t.Fatalf("expected max pages 3, got %d", cfg.GitHub.MaxPages)
	}
	if cfg.Refresh.IntervalSeconds != 120 {
		t.Fatalf("expected interval 120, got %d", cfg.Refresh.IntervalSeconds)
	}
}

func TestCustomTokenEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "issuegrid.toml")
	if err := os.WriteFile(configPath, []byte("[github]\ntoken_env = \"WIDGETS_TOKEN\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("WIDGETS_TOKEN", "widgets")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GitHub.Token != "widgets" {
		t.Fatalf("expected token from custom env var, got %q", cfg.GitHub.Token)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[[profiles.organize]]") {
		t.Fatalf("sample config missing organize example: %s", contents)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if len(cfg.Profiles) != 1 || cfg.Profiles[0].Name != "triage" {
		t.Fatalf("unexpected sample profiles: %+v", cfg.Profiles)
	}
	scopes, err := cfg.Scopes()
	if err != nil {
		t.Fatalf("compile sample scopes: %v", err)
	}
	scope := scopes[0].Scope
	if scope.Len() != 3 || scope.BinCount() != 4 || scope.Depth() != 2 {
		t.Fatalf("unexpected sample scope shape: len=%d bins=%d depth=%d", scope.Len(), scope.BinCount(), scope.Depth())
	}
	if got := scope.Entries[0].Meta.Color; got != "#d73a4a" {
		t.Fatalf("expected normalized color, got %q", got)
	}
	if scope.Entries[1].Terminal() {
		t.Fatal("expected Areas entry to recurse")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"state", func(c *config.Config) { c.GitHub.State = "merged" }},
		{"per page", func(c *config.Config) { c.GitHub.PerPage = 500 }},
		{"max pages", func(c *config.Config) { c.GitHub.MaxPages = 0 }},
		{"rate", func(c *config.Config) { c.GitHub.RequestsPerSecond = 0 }},
		{"api url", func(c *config.Config) { c.GitHub.APIURL = "not a url" }},
		{"interval", func(c *config.Config) { c.Refresh.IntervalSeconds = 5 }},
		{"level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "ntfy.sh/topic" }},
		{"ntfy timeout", func(c *config.Config) {
			c.Notifications.NtfyTopic = "https://ntfy.sh/topic"
			c.Notifications.RequestTimeoutSeconds = 0
		}},
		{"profile name", func(c *config.Config) {
			c.Profiles = []config.Profile{{Repo: "octo/widgets"}}
		}},
		{"profile repo", func(c *config.Config) {
			c.Profiles = []config.Profile{{Name: "a", Repo: "widgets"}}
		}},
		{"duplicate profile", func(c *config.Config) {
			c.Profiles = []config.Profile{{Name: "a", Repo: "octo/widgets"}, {Name: "a", Repo: "octo/gadgets"}}
		}},
		{"both scope sources", func(c *config.Config) {
			c.Profiles = []config.Profile{{
				Name: "a", Repo: "octo/widgets", OrganizeFile: "/tmp/x.yaml",
				Organize: []config.OrganizeEntry{{Filter: "bug"}},
			}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
