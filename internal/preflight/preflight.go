package preflight

import (
	"context"

	"issuegrid/internal/config"
	"issuegrid/internal/github"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config. A nil client
// skips the GitHub check.
func RunAll(ctx context.Context, cfg *config.Config, client *github.Client) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckOptionalDirectory("Export directory", cfg.Paths.ExportDir),
		CheckProfiles(cfg),
	}
	if client != nil {
		results = append(results, CheckGitHub(ctx, client))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
