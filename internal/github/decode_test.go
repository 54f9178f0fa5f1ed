package github_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"issuegrid/internal/github"
	"issuegrid/internal/issues"
)

func TestDecodeIssuesSkipsPullRequests(t *testing.T) {
	list, err := github.DecodeIssues(strings.NewReader(issuePage1))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 1, list[0].Number)
	require.Equal(t, []string{"bug", "P1"}, issues.LabelNames(list[0]))
	require.Equal(t, issues.Color("#ffffff"), list[0].Labels[1].Color)
	require.Equal(t, "octocat", list[0].Author.Name)
}

func TestDecodeIssuesRejectsMalformedInput(t *testing.T) {
	_, err := github.DecodeIssues(strings.NewReader(`{"message":"not a list"}`))
	require.Error(t, err)
}
