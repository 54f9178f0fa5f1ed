package testsupport

import (
	"path/filepath"
	"testing"

	"issuegrid/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ExportDir = filepath.Join(base, "md")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.GitHub.Token = "test"
	cfgVal.GitHub.RequestsPerSecond = 1000
	cfgVal.GitHub.Burst = 100

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithGitHubURL points the GitHub client at a test server.
func WithGitHubURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.GitHub.APIURL = url
	}
}

// WithGitHubToken overrides the GitHub token on the test config.
func WithGitHubToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.GitHub.Token = token
	}
}

// WithAPIToken requires bearer authentication on the daemon API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithProfile appends a profile to the test config.
func WithProfile(profile config.Profile) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Profiles = append(b.cfg.Profiles, profile)
	}
}

// WithTriageProfile appends the "triage" profile over repo used across tests:
// Bugs (ordered P0, P1), Features, then an Areas group with UI and API bins.
func WithTriageProfile(repo string) ConfigOption {
	return WithProfile(TriageProfile(repo))
}

// TriageProfile returns the profile installed by WithTriageProfile.
func TriageProfile(repo string) config.Profile {
	return config.Profile{
		Name: "triage",
		Repo: repo,
		Organize: []config.OrganizeEntry{
			{Filter: "bug", Name: "Bugs", Color: "d73a4a", Order: []string{"P0", "P1"}},
			{Filter: "feature", Name: "Features"},
			{Filter: "area/", Name: "Areas", Organize: []config.OrganizeEntry{
				{Filter: "area/ui", Name: "UI"},
				{Filter: "area/api", Name: "API"},
			}},
		},
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
