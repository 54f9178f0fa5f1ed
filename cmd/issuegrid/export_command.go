package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"issuegrid/internal/export"
	"issuegrid/internal/fileutil"
	"issuegrid/internal/github"
	"issuegrid/internal/issues"
	"issuegrid/internal/snapshot"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var state string
	var outputDir string
	var profileName string

	cmd := &cobra.Command{
		Use:   "export <owner/repo[#number]>",
		Short: "Export issues and their comment threads as Markdown files",
		Long: `Export writes one Markdown file per issue, including its comment thread.

With --profile the files are grouped into one directory per bin of the
profile's scope. Files whose content did not change are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := github.ParseQuery(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(state) == "" {
				state = cfg.GitHub.State
			}
			dir := strings.TrimSpace(outputDir)
			if dir == "" {
				dir = cfg.Paths.ExportDir
			}

			client, err := ctx.githubClient()
			if err != nil {
				return err
			}
			list, err := client.Fetch(cmd.Context(), query, state)
			if err != nil {
				return err
			}
			threads, err := client.IssuesWithComments(cmd.Context(), query.Repo, list)
			if err != nil {
				return err
			}

			exporter, err := export.New(ctx.cliLogger())
			if err != nil {
				return err
			}

			var files []export.File
			if strings.TrimSpace(profileName) == "" {
				files, err = exporter.ExportIssues(dir, threads)
			} else {
				scope, scopeErr := ctx.profileScope(profileName)
				if scopeErr != nil {
					return scopeErr
				}
				scope.Repo = query.Repo.String()
				view := snapshot.NewProfileView(scope, list, snapshot.SourceGitHub, time.Now(), ctx.cliLogger())
				files, err = exporter.ExportTree(dir, view.Result.Root, threadsByNumber(threads))
			}
			printExported(cmd.OutOrStdout(), query.String(), dir, files)
			return err
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Issue state to fetch (open, closed, all)")
	cmd.Flags().StringVarP(&outputDir, "path", "o", "", "Destination directory (defaults to paths.export_dir)")
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Group files into the bins of this profile")
	return cmd
}

func threadsByNumber(list []issues.IssueWithComments) map[int][]issues.Comment {
	threads := make(map[int][]issues.Comment, len(list))
	for _, item := range list {
		threads[item.Number] = item.Thread
	}
	return threads
}

func printExported(out io.Writer, query, dir string, files []export.File) {
	counts := make(map[fileutil.WriteResult]int, 3)
	for _, file := range files {
		counts[file.Result]++
		if file.Result != fileutil.Unchanged {
			fmt.Fprintf(out, "%-9s %s\n", file.Result, file.Path)
		}
	}
	fmt.Fprintf(out, "Exported %d issue files for %s to %s (%d created, %d updated, %d unchanged)\n",
		len(files), query, dir,
		counts[fileutil.Created], counts[fileutil.Updated], counts[fileutil.Unchanged])
}
