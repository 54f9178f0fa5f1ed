package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"issuegrid/internal/api"
	"issuegrid/internal/config"
	"issuegrid/internal/github"
	"issuegrid/internal/issues"
	"issuegrid/internal/organize"
	"issuegrid/internal/snapshot"
)

const maxListedIssues = 12

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var profileName string
	var inputPath string
	var state string
	var jsonOutput bool
	var duplicates bool

	cmd := &cobra.Command{
		Use:   "organize [owner/repo]",
		Short: "Organize a repository's issues into the bins of a profile",
		Long: `Organize fetches a repository's issues and sorts them into the bins of a profile.

The repository defaults to the profile's repo. With --input the issues are read
from a JSON file in the GitHub REST format (for example the output of
"gh api repos/OWNER/REPO/issues"); "-" reads standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := ctx.profileScope(profileName)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				repo, err := github.ParseRepo(args[0])
				if err != nil {
					return err
				}
				scope.Repo = repo.String()
			}
			if cmd.Flags().Changed("duplicates") {
				scope.AllowDuplicates = duplicates
			}

			list, source, err := loadIssues(cmd, ctx, scope, inputPath, state)
			if err != nil {
				return err
			}
			view := snapshot.NewProfileView(scope, list, source, time.Now(), ctx.cliLogger())
			resp := api.BinsResponseFor(nil, view)
			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			printBins(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Profile whose scope sorts the issues")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Read issues from a GitHub JSON listing instead of the API")
	cmd.Flags().StringVar(&state, "state", "", "Issue state to fetch (open, closed, all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&duplicates, "duplicates", false, "Allow issues in several sibling bins")
	return cmd
}

func loadIssues(cmd *cobra.Command, ctx *commandContext, scope config.ProfileScope, inputPath, state string) ([]issues.Issue, snapshot.Source, error) {
	inputPath = strings.TrimSpace(inputPath)
	if inputPath != "" {
		var r io.Reader = cmd.InOrStdin()
		if inputPath != "-" {
			file, err := os.Open(inputPath)
			if err != nil {
				return nil, "", fmt.Errorf("open input: %w", err)
			}
			defer file.Close()
			r = file
		}
		list, err := github.DecodeIssues(r)
		if err != nil {
			return nil, "", err
		}
		return list, snapshot.SourceFile, nil
	}

	repo, err := github.ParseRepo(scope.Repo)
	if err != nil {
		return nil, "", err
	}
	client, err := ctx.githubClient()
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(state) == "" {
		state = ctx.configValue().GitHub.State
	}
	list, err := client.ListIssues(cmd.Context(), repo, state)
	if err != nil {
		return nil, "", err
	}
	return list, snapshot.SourceGitHub, nil
}

func printBins(out io.Writer, resp api.BinsResponse) {
	profile := resp.Profile
	header := fmt.Sprintf("Profile %s · %s · %s issues", profile.Name, profile.Repo, humanize.Comma(int64(profile.Issues)))
	if profile.Stale {
		header += " (stale)"
	}
	fmt.Fprintln(out, header)
	if profile.Error != "" {
		fmt.Fprintf(out, "Warning: %s\n", profile.Error)
	}

	rows := api.Flatten(resp.Root)
	if len(rows) == 0 {
		fmt.Fprintln(out, "No bins")
	} else {
		tableRows := make([][]string, 0, len(rows))
		for _, row := range rows {
			tableRows = append(tableRows, []string{
				strings.Repeat("  ", row.Depth) + lastSegment(row.Path),
				row.Kind,
				fmt.Sprintf("%d", row.Count),
				formatNumbers(row.Numbers),
			})
		}
		fmt.Fprintln(out, renderTable([]column{
			{header: "Bin"},
			{header: "Kind"},
			{header: "Issues", right: true},
			{header: "Numbers", maxWidth: 60},
		}, tableRows))
	}

	if len(resp.Diagnostics) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Diagnostics (%d):\n", len(resp.Diagnostics))
	for _, d := range resp.Diagnostics {
		fmt.Fprintf(out, "  %s\n", describeDiagnostic(d))
	}
}

func describeDiagnostic(d api.Diagnostic) string {
	switch d.Kind {
	case api.DiagnosticUnranked:
		return fmt.Sprintf("#%d is unranked in %s", d.Issue, d.Path)
	case api.DiagnosticDuplicate:
		return fmt.Sprintf("#%d matches several bins under %s: %s", d.Issue, d.Path, strings.Join(d.Bins, ", "))
	case api.DiagnosticShadowed:
		return fmt.Sprintf("#%d also matches %q under %s but was claimed by %q", d.Issue, d.Entry, d.Path, d.ClaimedBy)
	default:
		return fmt.Sprintf("%s #%d at %s", d.Kind, d.Issue, d.Path)
	}
}

func formatNumbers(numbers []int) string {
	if len(numbers) == 0 {
		return ""
	}
	shown := numbers
	if len(shown) > maxListedIssues {
		shown = shown[:maxListedIssues]
	}
	parts := make([]string, 0, len(shown)+1)
	for _, n := range shown {
		parts = append(parts, fmt.Sprintf("#%d", n))
	}
	if extra := len(numbers) - len(shown); extra > 0 {
		parts = append(parts, fmt.Sprintf("+%d more", extra))
	}
	return strings.Join(parts, " ")
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, organize.PathSeparator); i >= 0 {
		return path[i+len(organize.PathSeparator):]
	}
	return path
}
