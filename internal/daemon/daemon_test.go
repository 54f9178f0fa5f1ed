package daemon_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"issuegrid/internal/api"
	"issuegrid/internal/config"
	"issuegrid/internal/daemon"
	"issuegrid/internal/github"
	"issuegrid/internal/logging"
	"issuegrid/internal/notifications"
	"issuegrid/internal/snapshot"
	"issuegrid/internal/testsupport"
)

func newDaemon(t *testing.T, cfg *config.Config, configPath string) *daemon.Daemon {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	scopes, err := cfg.Scopes()
	if err != nil {
		t.Fatalf("Scopes: %v", err)
	}
	client := github.NewFromConfig(cfg, logging.NewNop())
	refresher := snapshot.NewRefresher(client, st, &snapshot.Holder{}, cfg.GitHub.State, scopes, logging.NewNop())
	d, err := daemon.New(cfg, st, refresher, logging.NewNop(), daemon.Options{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDaemonStartStop(t *testing.T) {
	gh := testsupport.NewGitHubServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithGitHubURL(gh.URL), testsupport.WithTriageProfile("octo-org/widgets"))
	d := newDaemon(t, cfg, "")
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Status(ctx).Running {
		t.Fatal("expected daemon to report running")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	waitFor(t, "initial refresh", func() bool { return d.Snapshot() != nil })

	resp, err := http.Get(fmt.Sprintf("http://%s/api/status", d.APIAddress()))
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	var status api.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || status.RefreshID == "" || len(status.Profiles) != 1 {
		t.Fatalf("unexpected status %+v", status)
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	gh := testsupport.NewGitHubServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithGitHubURL(gh.URL), testsupport.WithTriageProfile("octo-org/widgets"))
	first := newDaemon(t, cfg, "")
	t.Cleanup(func() { _ = first.Close() })

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	cfg2 := *cfg
	cfg2.Paths.APIBind = ""
	second := newDaemon(t, &cfg2, "")
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected lock contention error")
	}
}

func TestDaemonTriggerRefresh(t *testing.T) {
	gh := testsupport.NewGitHubServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithGitHubURL(gh.URL), testsupport.WithTriageProfile("octo-org/widgets"))
	cfg.Paths.APIBind = ""
	d := newDaemon(t, cfg, "")
	t.Cleanup(func() { _ = d.Close() })

	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "initial refresh", func() bool { return d.Snapshot() != nil })
	first := d.Snapshot().RefreshID

	d.TriggerRefresh()
	waitFor(t, "triggered refresh", func() bool { return d.Snapshot().RefreshID != first })
}

func TestDaemonReloadConfigReorganizes(t *testing.T) {
	gh := testsupport.NewGitHubServer(t)
	base := t.TempDir()
	organizePath := filepath.Join(base, "triage.yaml")
	testsupport.WriteFile(t, organizePath, "organize:\n  - bin: bug\n")
	configPath := filepath.Join(base, "config.toml")
	testsupport.WriteFile(t, configPath, fmt.Sprintf(`
[paths]
data_dir = %q
log_dir = %q
api_bind = "127.0.0.1:0"

[github]
api_url = %q
token = "test"
requests_per_second = 1000

[refresh]
watch_config = false

[[profiles]]
name = "triage"
repo = "octo-org/widgets"
organize_file = "triage.yaml"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"), gh.URL))

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := newDaemon(t, cfg, configPath)
	if _, err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	view, _ := d.Snapshot().Profile("triage")
	if got := view.Result.Root.Children[0].Name; got != "bug" {
		t.Fatalf("expected bin named after filter, got %q", got)
	}

	if err := os.WriteFile(organizePath, []byte("organize:\n  - bin: {filter: question, name: Questions}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	requests := gh.Requests()
	if err := d.ReloadConfig(context.Background()); err != nil {
		t.Fatalf("ReloadConfig: %v", err)
	}
	if gh.Requests() != requests {
		t.Fatal("reload must not fetch from GitHub")
	}
	view, _ = d.Snapshot().Profile("triage")
	questions := view.Result.Root.Child("Questions")
	if questions == nil || len(questions.Items) != 1 || questions.Items[0].Number != 6 {
		t.Fatalf("unexpected reorganized tree %+v", view.Result.Root.Children)
	}

	if err := os.WriteFile(organizePath, []byte("organize:\n  - bin: \"(\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := d.ReloadConfig(context.Background()); err == nil {
		t.Fatal("expected invalid pattern to fail reload")
	}
	view, _ = d.Snapshot().Profile("triage")
	if view.Result.Root.Child("Questions") == nil {
		t.Fatal("failed reload must keep the previous organization")
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) Events() []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func TestRefreshPublishesHealthChanges(t *testing.T) {
	gh := testsupport.NewGitHubServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithGitHubURL(gh.URL), testsupport.WithTriageProfile("octo-org/widgets"))
	st := testsupport.MustOpenStore(t, cfg)
	scopes, err := cfg.Scopes()
	if err != nil {
		t.Fatalf("Scopes: %v", err)
	}
	refresher := snapshot.NewRefresher(github.NewFromConfig(cfg, logging.NewNop()), st, &snapshot.Holder{}, cfg.GitHub.State, scopes, logging.NewNop())
	notifier := &recordingNotifier{}
	d, err := daemon.New(cfg, st, refresher, logging.NewNop(), daemon.Options{Notifier: notifier})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	ctx := context.Background()

	gh.SetFailing(true)
	if _, err := d.Refresh(ctx); err == nil {
		t.Fatal("expected refresh without cache to fail")
	}
	if _, err := d.Refresh(ctx); err == nil {
		t.Fatal("expected second refresh to fail")
	}

	gh.SetFailing(false)
	if _, err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	gh.SetFailing(true)
	if _, err := d.Refresh(ctx); err != nil {
		t.Fatalf("expected cache fallback, got %v", err)
	}

	want := []notifications.Event{
		notifications.EventRefreshFailed,
		notifications.EventRefreshRecovered,
		notifications.EventRefreshDegraded,
	}
	if got := notifier.Events(); !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}
