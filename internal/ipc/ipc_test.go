package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"issuegrid/internal/daemon"
	"issuegrid/internal/github"
	"issuegrid/internal/ipc"
	"issuegrid/internal/logging"
	"issuegrid/internal/snapshot"
	"issuegrid/internal/testsupport"
)

func TestIPCServerClient(t *testing.T) {
	gh := testsupport.NewGitHubServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithGitHubURL(gh.URL), testsupport.WithTriageProfile("octo-org/widgets"))
	cfg.Refresh.IntervalSeconds = 3600
	st := testsupport.MustOpenStore(t, cfg)
	scopes, err := cfg.Scopes()
	if err != nil {
		t.Fatalf("Scopes: %v", err)
	}
	logger := logging.NewNop()
	refresher := snapshot.NewRefresher(github.NewFromConfig(cfg, logger), st, &snapshot.Holder{}, cfg.GitHub.State, scopes, logger)
	d, err := daemon.New(cfg, st, refresher, logger, daemon.Options{})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var stopped atomic.Bool
	socket := filepath.Join(cfg.Paths.DataDir, "ipc.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger, func() { stopped.Store(true) })
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if _, err := client.Bins("triage"); err == nil {
		t.Fatal("expected bins to fail before the first refresh")
	}

	refresh, err := client.Refresh(false)
	if err != nil {
		t.Fatalf("Refresh RPC failed: %v", err)
	}
	if refresh.RefreshID == "" || refresh.Profiles != 1 || refresh.Queued {
		t.Fatalf("unexpected refresh response: %+v", refresh)
	}

	bins, err := client.Bins("triage")
	if err != nil {
		t.Fatalf("Bins RPC failed: %v", err)
	}
	if bins.RefreshID != refresh.RefreshID {
		t.Fatalf("bins refresh id = %q, want %q", bins.RefreshID, refresh.RefreshID)
	}
	if len(bins.Root.Children) == 0 || bins.Root.Children[0].Name != "Bugs" {
		t.Fatalf("unexpected bin tree: %+v", bins.Root)
	}
	bugs := bins.Root.Children[0]
	if len(bugs.Issues) != 2 || bugs.Issues[0].Number != 3 || bugs.Issues[1].Number != 1 {
		t.Fatalf("unexpected bug bin: %+v", bugs.Issues)
	}

	issuesResp, err := client.Issues("triage")
	if err != nil {
		t.Fatalf("Issues RPC failed: %v", err)
	}
	if len(issuesResp.Issues) != 6 {
		t.Fatalf("expected 6 issues, got %d", len(issuesResp.Issues))
	}

	if _, err := client.Bins("missing"); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected unknown profile error, got %v", err)
	}

	profiles, err := client.Profiles()
	if err != nil {
		t.Fatalf("Profiles RPC failed: %v", err)
	}
	if len(profiles.Profiles) != 1 || profiles.Profiles[0].Name != "triage" {
		t.Fatalf("unexpected profiles: %+v", profiles.Profiles)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.RefreshID != refresh.RefreshID || status.Cache.Repos != 1 || status.Cache.Issues != 6 {
		t.Fatalf("unexpected status: %+v", status)
	}

	queued, err := client.Refresh(true)
	if err != nil {
		t.Fatalf("async Refresh RPC failed: %v", err)
	}
	if !queued.Queued {
		t.Fatal("expected async refresh to be queued")
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped || !stopped.Load() {
		t.Fatalf("expected stop callback to run, resp=%+v", stopResp)
	}
}

func TestDialMissingSocket(t *testing.T) {
	start := time.Now()
	if _, err := ipc.Dial(filepath.Join(t.TempDir(), "absent.sock")); err == nil {
		t.Fatal("expected dial to fail without a server")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("dial should fail fast when no socket exists")
	}
}
