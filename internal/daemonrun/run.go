package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"issuegrid/internal/config"
	"issuegrid/internal/daemon"
	"issuegrid/internal/github"
	"issuegrid/internal/ipc"
	"issuegrid/internal/logging"
	"issuegrid/internal/notifications"
	"issuegrid/internal/preflight"
	"issuegrid/internal/snapshot"
	"issuegrid/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	ConfigPath string
	LogLevel   string
}

// Run starts the issuegrid daemon and blocks until a signal arrives or a
// client asks it to stop over IPC.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logger, logPath, err := logging.NewFromConfig(cfg, opts.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, logPath, cfg.Logging.RetentionDays)

	st, err := store.OpenOrRebuild(cfg, logger)
	if err != nil {
		logger.Error("open issue cache", logging.Error(err))
		return err
	}
	defer st.Close()

	scopes, err := cfg.Scopes()
	if err != nil {
		return err
	}
	client := github.NewFromConfig(cfg, logger)
	logStartup(logger, cfg, client)
	logPreflight(signalCtx, logger, cfg, client)
	refresher := snapshot.NewRefresher(client, st, &snapshot.Holder{}, cfg.GitHub.State, scopes, logger)
	refresher.SetFetchConcurrency(cfg.GitHub.Concurrency)

	d, err := daemon.New(cfg, st, refresher, logger, daemon.Options{
		ConfigPath:    opts.ConfigPath,
		Authenticated: client.Authenticated(),
		Notifier:      notifications.NewService(cfg),
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for another running daemon and the api_bind address"),
		)
		return err
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger, cancel)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-signalCtx.Done()
	logger.Info("issuegrid daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logStartup(logger *slog.Logger, cfg *config.Config, client *github.Client) {
	logger.Info("startup snapshot",
		logging.String(logging.FieldEventType, "startup_snapshot"),
		logging.String("github_api", cfg.GitHub.APIURL),
		logging.Bool("github_token_present", client.Authenticated()),
		logging.Int("profiles", len(cfg.Profiles)),
		logging.String("database", cfg.DatabasePath()),
		logging.String("socket", cfg.SocketPath()),
		logging.String("api_bind", cfg.Paths.APIBind),
	)
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config, client *github.Client) {
	for _, result := range preflight.RunAll(ctx, cfg, client) {
		if result.Passed {
			logger.Info("preflight ok",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "refreshes may fall back to cached issues"),
		)
	}
}
