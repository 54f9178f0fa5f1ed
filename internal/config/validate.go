package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Every profile scope is
// compiled, so an invalid pattern anywhere fails validation.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGitHub(); err != nil {
		return err
	}
	if err := c.validateRefresh(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateProfiles()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateGitHub() error {
	parsed, err := url.Parse(c.GitHub.APIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("github.api_url must be an absolute URL, got %q", c.GitHub.APIURL)
	}
	switch c.GitHub.State {
	case "open", "closed", "all":
	default:
		return fmt.Errorf("github.state must be one of open, closed, all; got %q", c.GitHub.State)
	}
	if err := ensurePositiveMap(map[string]int{
		"github.per_page":        c.GitHub.PerPage,
		"github.max_pages":       c.GitHub.MaxPages,
		"github.burst":           c.GitHub.Burst,
		"github.timeout_seconds": c.GitHub.TimeoutSeconds,
		"github.concurrency":     c.GitHub.Concurrency,
	}); err != nil {
		return err
	}
	if c.GitHub.PerPage > maxGitHubPerPage {
		return fmt.Errorf("github.per_page must be at most %d", maxGitHubPerPage)
	}
	if c.GitHub.RequestsPerSecond <= 0 {
		return errors.New("github.requests_per_second must be positive")
	}
	return nil
}

func (c *Config) validateRefresh() error {
	if c.Refresh.IntervalSeconds < minRefreshIntervalSeconds {
		return fmt.Errorf("refresh.interval_seconds must be at least %d", minRefreshIntervalSeconds)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", c.Notifications.NtfyTopic)
	}
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		return errors.New("notifications.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateProfiles() error {
	seen := make(map[string]struct{}, len(c.Profiles))
	for i, p := range c.Profiles {
		prefix := fmt.Sprintf("profiles[%d]", i)
		if p.Name == "" {
			return fmt.Errorf("%s.name must be set", prefix)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%s.name %q is used by another profile", prefix, p.Name)
		}
		seen[p.Name] = struct{}{}
		if !validRepo(p.Repo) {
			return fmt.Errorf("%s.repo must use owner/name notation, got %q", prefix, p.Repo)
		}
		if p.OrganizeFile != "" && len(p.Organize) > 0 {
			return fmt.Errorf("%s: set either organize_file or organize entries, not both", prefix)
		}
	}
	_, err := c.Scopes()
	return err
}

func validRepo(repo string) bool {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return false
	}
	return !strings.ContainsAny(name, "/# ") && !strings.ContainsAny(owner, "# ")
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
