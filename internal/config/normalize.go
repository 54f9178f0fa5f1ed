package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGitHub()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	return c.normalizeProfiles()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("ISSUEGRID_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeGitHub() {
	c.GitHub.APIURL = strings.TrimRight(strings.TrimSpace(c.GitHub.APIURL), "/")
	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = defaultGitHubAPIURL
	}
	c.GitHub.TokenEnv = strings.TrimSpace(c.GitHub.TokenEnv)
	if c.GitHub.TokenEnv == "" {
		c.GitHub.TokenEnv = defaultGitHubTokenEnv
	}
	c.GitHub.Token = strings.TrimSpace(c.GitHub.Token)
	if c.GitHub.Token == "" {
		if value, ok := os.LookupEnv(c.GitHub.TokenEnv); ok {
			c.GitHub.Token = strings.TrimSpace(value)
		}
	}
	c.GitHub.State = strings.ToLower(strings.TrimSpace(c.GitHub.State))
	if c.GitHub.State == "" {
		c.GitHub.State = defaultGitHubState
	}
	c.GitHub.UserAgent = strings.TrimSpace(c.GitHub.UserAgent)
	if c.GitHub.UserAgent == "" {
		c.GitHub.UserAgent = defaultGitHubUserAgent
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeProfiles() error {
	for i := range c.Profiles {
		p := &c.Profiles[i]
		p.Name = strings.TrimSpace(p.Name)
		p.Repo = strings.Trim(strings.TrimSpace(p.Repo), "/")
		p.OrganizeFile = strings.TrimSpace(p.OrganizeFile)
		if p.OrganizeFile == "" {
			continue
		}
		if !filepath.IsAbs(p.OrganizeFile) && !strings.HasPrefix(p.OrganizeFile, "~") && c.dir != "" {
			p.OrganizeFile = filepath.Join(c.dir, p.OrganizeFile)
		}
		var err error
		if p.OrganizeFile, err = expandPath(p.OrganizeFile); err != nil {
			return fmt.Errorf("profiles[%d].organize_file: %w", i, err)
		}
	}
	return nil
}
