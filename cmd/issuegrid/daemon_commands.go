package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"issuegrid/internal/api"
	"issuegrid/internal/daemonctl"
	"issuegrid/internal/daemonrun"
	"issuegrid/internal/github"
	"issuegrid/internal/preflight"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the issuegrid daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				ConfigPath: ctx.configPath,
				LogLevel:   ctx.logLevel(),
			})
		},
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the issuegrid daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, daemonLaunchOptions(ctx), 10*time.Second)
			if err != nil {
				return err
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(stdout, "Daemon already running (pid %d)\n", result.PID)
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the issuegrid daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Killed daemon process (pid %d)\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the issuegrid daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon restarted (pid %d)\n", result.PID)
			return nil
		},
	}

	var checkGitHub bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, cache and profile status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var client *github.Client
			if checkGitHub {
				if client, err = ctx.githubClient(); err != nil {
					return err
				}
			}
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg, client)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&checkGitHub, "check-github", false, "Also verify GitHub reachability and the token")

	return []*cobra.Command{daemonCmd, startCmd, stopCmd, restartCmd, statusCmd}
}

func printStatus(out io.Writer, snap *daemonctl.StatusSnapshot) {
	p := newStatusPrinter(out)

	p.section("Daemon")
	if d := snap.Daemon; d == nil {
		p.line("Daemon", statusWarn, "Not running")
	} else {
		if d.Running {
			p.line("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", d.PID))
		} else {
			p.line("Daemon", statusWarn, fmt.Sprintf("Answering but not refreshing (pid %d)", d.PID))
		}
		p.line("Started", statusInfo, relativeTime(d.StartedAt))
		refreshKind := statusOK
		refreshDetail := relativeTime(d.LastRefresh)
		if d.LastError != "" {
			refreshKind = statusWarn
			refreshDetail = fmt.Sprintf("%s (last error: %s)", refreshDetail, d.LastError)
		}
		p.line("Last refresh", refreshKind, refreshDetail)
		if d.NextRefresh != "" {
			p.line("Next refresh", statusInfo, relativeTime(d.NextRefresh))
		}
		authDetail := "anonymous (low rate limit)"
		if d.Authenticated {
			authDetail = "token configured"
		}
		p.line("GitHub auth", statusInfo, authDetail)
	}

	p.section("Issue Cache")
	p.line("Database", statusInfo, snap.Cache.Path)
	p.line("Cached", statusInfo, fmt.Sprintf("%s issues in %d repos",
		humanize.Comma(int64(snap.Cache.Issues)), snap.Cache.Repos))

	p.section("Checks")
	p.checks(snap.Checks)
	if failed := preflight.Failed(snap.Checks); len(failed) > 0 {
		p.line("Summary", statusError, fmt.Sprintf("%d of %d checks failed", len(failed), len(snap.Checks)))
	}

	if snap.Daemon == nil || len(snap.Daemon.Profiles) == 0 {
		return
	}
	p.section("Profiles")
	fmt.Fprintln(out, renderProfileTable(snap.Daemon.Profiles))
}

func renderProfileTable(profiles []api.ProfileSummary) string {
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		source := p.Source
		if p.Stale {
			source += " (stale)"
		}
		rows = append(rows, []string{
			p.Name,
			p.Repo,
			source,
			humanize.Comma(int64(p.Issues)),
			fmt.Sprintf("%d", p.Bins),
			fmt.Sprintf("%d", p.Diagnostics),
			relativeTime(p.FetchedAt),
		})
	}
	return renderTable([]column{
		{header: "Profile"},
		{header: "Repo"},
		{header: "Source"},
		{header: "Issues", right: true},
		{header: "Bins", right: true},
		{header: "Diagnostics", right: true},
		{header: "Fetched"},
	}, rows)
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{
		ConfigPath: ctx.configPath,
		LogLevel:   ctx.logLevel(),
	}
	if opts.ConfigPath == "" && ctx.configFlag != nil {
		opts.ConfigPath = strings.TrimSpace(*ctx.configFlag)
	}
	return opts
}
