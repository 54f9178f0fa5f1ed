package github

import (
	"encoding/json"
	"fmt"
	"io"

	"issuegrid/internal/issues"
)

// DecodeIssues reads a JSON array of issues in the REST wire format, as
// saved by `gh api repos/OWNER/REPO/issues`. Pull requests are skipped.
func DecodeIssues(r io.Reader) ([]issues.Issue, error) {
	var batch []wireIssue
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	out := make([]issues.Issue, 0, len(batch))
	for _, w := range batch {
		if w.PullRequest != nil {
			continue
		}
		out = append(out, w.remodel())
	}
	return out, nil
}
