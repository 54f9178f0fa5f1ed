package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"issuegrid/internal/config"
	"issuegrid/internal/github"
	"issuegrid/internal/ipc"
	"issuegrid/internal/logging"
)

type commandContext struct {
	socketFlag   *string
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(socketFlag, configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		socketFlag:   socketFlag,
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) logLevel() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.logLevelFlag)
}

// cliLogger logs to stderr. One-shot commands print diagnostics themselves,
// so only errors are logged unless --log-level says otherwise.
func (c *commandContext) cliLogger() *slog.Logger {
	level := c.logLevel()
	if level == "" {
		level = "error"
	}
	return logging.NewCLI(level)
}

func (c *commandContext) githubClient() (*github.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return github.NewFromConfig(cfg, c.cliLogger()), nil
}

// profileScope returns the named profile's compiled scope. An empty name
// selects the only configured profile.
func (c *commandContext) profileScope(name string) (config.ProfileScope, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return config.ProfileScope{}, err
	}
	scopes, err := cfg.Scopes()
	if err != nil {
		return config.ProfileScope{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		switch len(scopes) {
		case 0:
			return config.ProfileScope{}, errors.New("no profiles configured; add a [[profiles]] table to the config")
		case 1:
			return scopes[0], nil
		default:
			return config.ProfileScope{}, fmt.Errorf("%d profiles configured; choose one with --profile (%s)",
				len(scopes), strings.Join(cfg.ProfileNames(), ", "))
		}
	}
	for _, scope := range scopes {
		if scope.Name == name {
			return scope, nil
		}
	}
	return config.ProfileScope{}, fmt.Errorf("unknown profile %q (configured: %s)", name, strings.Join(cfg.ProfileNames(), ", "))
}

func (c *commandContext) socketPath() string {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return strings.TrimSpace(*c.socketFlag)
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.SocketPath()
	}
	return ""
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	client, err := c.dialClient()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil, wrapDialError(err, socket)
	}
	return client, nil
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `issuegrid start`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

