package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"issuegrid/internal/config"
	"issuegrid/internal/github"
)

// CheckGitHub verifies that the API is reachable and, when a token is
// configured, that GitHub accepts it. It uses a 10-second timeout and a
// single attempt.
func CheckGitHub(ctx context.Context, client *github.Client) Result {
	const name = "GitHub API"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	limit, err := client.RateLimit(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeGitHubError(err)}
	}
	mode := "token accepted"
	if !client.Authenticated() {
		mode = "anonymous"
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("reachable, %s (%d/%d requests left)", mode, limit.Remaining, limit.Limit),
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckOptionalDirectory passes for a missing directory that will be created
// on demand and otherwise behaves like CheckDirectoryAccess.
func CheckOptionalDirectory(name, path string) Result {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first use)", path)}
	}
	return CheckDirectoryAccess(name, path)
}

// CheckProfiles compiles every profile scope and reports their size.
func CheckProfiles(cfg *config.Config) Result {
	const name = "Profiles"

	scopes, err := cfg.Scopes()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(scopes) == 0 {
		return Result{Name: name, Detail: "no profiles configured"}
	}
	bins := 0
	for _, scope := range scopes {
		bins += scope.Scope.BinCount()
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d profiles, %d bins", len(scopes), bins)}
}

func summarizeGitHubError(err error) string {
	switch {
	case errors.Is(err, github.ErrUnauthorized):
		return "token rejected (check github.token or github.token_env)"
	case errors.Is(err, github.ErrRateLimited):
		return "rate limit exhausted"
	case errors.Is(err, context.DeadlineExceeded):
		return "health check timed out (GitHub API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (GitHub API unreachable)"
	}
	return err.Error()
}
