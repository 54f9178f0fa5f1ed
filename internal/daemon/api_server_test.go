package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"issuegrid/internal/api"
	"issuegrid/internal/github"
	"issuegrid/internal/logging"
	"issuegrid/internal/snapshot"
	"issuegrid/internal/testsupport"
)

func newTestDaemon(t *testing.T, opts ...testsupport.ConfigOption) (*Daemon, *testsupport.GitHubServer) {
	t.Helper()
	gh := testsupport.NewGitHubServer(t)
	opts = append([]testsupport.ConfigOption{
		testsupport.WithGitHubURL(gh.URL),
		testsupport.WithTriageProfile("octo-org/widgets"),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	scopes, err := cfg.Scopes()
	if err != nil {
		t.Fatalf("Scopes: %v", err)
	}
	client := github.NewFromConfig(cfg, logging.NewNop())
	refresher := snapshot.NewRefresher(client, st, &snapshot.Holder{}, cfg.GitHub.State, scopes, logging.NewNop())
	d, err := New(cfg, st, refresher, logging.NewNop(), Options{Authenticated: client.Authenticated()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, gh
}

func serve(t *testing.T, handler http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func TestAPIServerServesBinsAfterRefresh(t *testing.T) {
	d, _ := newTestDaemon(t)
	srv := &apiServer{daemon: d, logger: logging.NewNop()}
	handler := srv.routes("")

	w := serve(t, handler, http.MethodGet, "/api/profiles/triage/bins", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before first refresh, got %d", w.Code)
	}

	w = serve(t, handler, http.MethodPost, "/api/refresh", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh returned %d: %s", w.Code, w.Body.String())
	}
	refresh := decode[api.RefreshResponse](t, w)
	if refresh.RefreshID == "" || refresh.Profiles != 1 {
		t.Fatalf("unexpected refresh response %+v", refresh)
	}

	w = serve(t, handler, http.MethodGet, "/api/profiles/triage/bins", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("bins returned %d: %s", w.Code, w.Body.String())
	}
	bins := decode[api.BinsResponse](t, w)
	if bins.RefreshID != refresh.RefreshID {
		t.Fatalf("expected refresh id %q, got %q", refresh.RefreshID, bins.RefreshID)
	}
	if bins.Root.Count != 6 || len(bins.Root.Children) != 4 {
		t.Fatalf("unexpected tree %+v", bins.Root)
	}
	first := bins.Root.Children[0]
	if first.Name != "Bugs" || len(first.Issues) != 2 || first.Issues[0].Number != 3 {
		t.Fatalf("unexpected bugs bin %+v", first)
	}

	w = serve(t, handler, http.MethodGet, "/api/profiles/triage/issues", nil)
	issues := decode[api.IssuesResponse](t, w)
	if len(issues.Issues) != 6 || issues.Issues[0].Number != 1 {
		t.Fatalf("unexpected issues %+v", issues.Issues)
	}
	if issues.Profile.Source != string(snapshot.SourceGitHub) {
		t.Fatalf("unexpected source %q", issues.Profile.Source)
	}

	w = serve(t, handler, http.MethodGet, "/api/profiles", nil)
	profiles := decode[api.ProfileListResponse](t, w)
	if len(profiles.Profiles) != 1 || profiles.Profiles[0].Bins != 6 {
		t.Fatalf("unexpected profiles %+v", profiles)
	}
}

func TestAPIServerUnknownProfile(t *testing.T) {
	d, _ := newTestDaemon(t)
	if _, err := d.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	srv := &apiServer{daemon: d, logger: logging.NewNop()}
	w := serve(t, srv.routes(""), http.MethodGet, "/api/profiles/missing/bins", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if body := decode[api.ErrorResponse](t, w); body.Error == "" {
		t.Fatal("expected error message")
	}
}

func TestAPIServerStatusReportsCache(t *testing.T) {
	d, gh := newTestDaemon(t)
	if _, err := d.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	gh.SetFailing(true)
	if _, err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("expected cached refresh to succeed, got %v", err)
	}

	srv := &apiServer{daemon: d, logger: logging.NewNop()}
	w := serve(t, srv.routes(""), http.MethodGet, "/api/status", nil)
	status := decode[api.StatusResponse](t, w)
	if status.Cache.Repos != 1 || status.Cache.Issues != 6 || !status.Authenticated {
		t.Fatalf("unexpected status %+v", status)
	}
	if len(status.Profiles) != 1 || !status.Profiles[0].Stale || status.Profiles[0].Error == "" {
		t.Fatalf("expected stale profile, got %+v", status.Profiles)
	}
}

func TestAPIServerRequiresBearerToken(t *testing.T) {
	d, _ := newTestDaemon(t)
	srv := &apiServer{daemon: d, logger: logging.NewNop()}
	handler := srv.routes("s3cret")

	if w := serve(t, handler, http.MethodGet, "/api/status", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := serve(t, handler, http.MethodGet, "/api/status", map[string]string{"Authorization": "Bearer wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	w := serve(t, handler, http.MethodGet, "/api/status", map[string]string{
		"Authorization": "Bearer s3cret",
		requestIDHeader: "req-42",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if got := w.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected request id echo, got %q", got)
	}
}

func TestAPIServerRejectsWrongMethod(t *testing.T) {
	d, _ := newTestDaemon(t)
	srv := &apiServer{daemon: d, logger: logging.NewNop()}
	if w := serve(t, srv.routes(""), http.MethodGet, "/api/refresh", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
