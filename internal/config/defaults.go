package config

const (
	defaultConfigPath         = "~/.config/issuegrid/config.toml"
	projectConfigName         = "issuegrid.toml"
	defaultDataDir            = "~/.local/share/issuegrid"
	defaultLogDir             = "~/.local/share/issuegrid/logs"
	defaultExportDir          = "md"
	defaultAPIBind            = "127.0.0.1:7489"
	defaultGitHubAPIURL       = "https://api.github.com"
	defaultGitHubTokenEnv     = "GITHUB_TOKEN"
	defaultGitHubState        = "open"
	defaultGitHubPerPage      = 100
	defaultGitHubMaxPages     = 10
	defaultGitHubRPS          = 1.0
	defaultGitHubBurst        = 5
	defaultGitHubTimeout      = 30
	defaultGitHubConcurrency  = 4
	defaultGitHubUserAgent    = "issuegrid"
	defaultRefreshInterval    = 300
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	defaultNtfyTimeout        = 10
	maxGitHubPerPage          = 100
	minRefreshIntervalSeconds = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
			APIBind:   defaultAPIBind,
		},
		GitHub: GitHub{
			APIURL:            defaultGitHubAPIURL,
			TokenEnv:          defaultGitHubTokenEnv,
			State:             defaultGitHubState,
			PerPage:           defaultGitHubPerPage,
			MaxPages:          defaultGitHubMaxPages,
			RequestsPerSecond: defaultGitHubRPS,
			Burst:             defaultGitHubBurst,
			TimeoutSeconds:    defaultGitHubTimeout,
			Concurrency:       defaultGitHubConcurrency,
			UserAgent:         defaultGitHubUserAgent,
		},
		Refresh: Refresh{
			IntervalSeconds: defaultRefreshInterval,
			WatchConfig:     true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
	}
}
