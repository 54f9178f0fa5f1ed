package testsupport

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// GitHubServer fakes the GitHub issues API for octo-org/widgets.
type GitHubServer struct {
	*httptest.Server
	requests atomic.Int32
	failing  atomic.Bool
}

// NewGitHubServer starts a fake serving IssuesJSON and CommentsJSON.
func NewGitHubServer(t testing.TB) *GitHubServer {
	t.Helper()

	gh := &GitHubServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo-org/widgets/issues", func(w http.ResponseWriter, r *http.Request) {
		if gh.failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"upstream unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(IssuesJSON()))
	})
	mux.HandleFunc("GET /repos/octo-org/widgets/issues/1/comments", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(CommentsJSON()))
	})
	gh.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gh.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(gh.Close)
	return gh
}

// Requests returns how many requests the server handled.
func (g *GitHubServer) Requests() int {
	return int(g.requests.Load())
}

// SetFailing makes the issue listing return 502 until reset.
func (g *GitHubServer) SetFailing(failing bool) {
	g.failing.Store(failing)
}
