package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"issuegrid/internal/ipc"
)

func newSnapshotCommands(ctx *commandContext) []*cobra.Command {
	var binsJSON bool
	binsCmd := &cobra.Command{
		Use:   "bins <profile>",
		Short: "Show a profile's bins from the running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Bins(args[0])
				if err != nil {
					return err
				}
				if binsJSON {
					return writeJSON(cmd, resp)
				}
				printBins(cmd.OutOrStdout(), *resp)
				return nil
			})
		},
	}
	binsCmd.Flags().BoolVar(&binsJSON, "json", false, "Output as JSON")

	var issuesJSON bool
	issuesCmd := &cobra.Command{
		Use:   "issues <profile>",
		Short: "List a profile's issues from the running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Issues(args[0])
				if err != nil {
					return err
				}
				if issuesJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Issues) == 0 {
					fmt.Fprintln(out, "No issues")
					return nil
				}
				rows := make([][]string, 0, len(resp.Issues))
				for _, issue := range resp.Issues {
					labels := make([]string, 0, len(issue.Labels))
					for _, label := range issue.Labels {
						labels = append(labels, label.Name)
					}
					rows = append(rows, []string{
						fmt.Sprintf("#%d", issue.Number),
						issue.Title,
						strings.Join(labels, ", "),
						issue.Author.Name,
						relativeTime(issue.UpdatedAt),
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					{header: "Issue", right: true},
					{header: "Title", maxWidth: 60},
					{header: "Labels", maxWidth: 40},
					{header: "Author"},
					{header: "Updated"},
				}, rows))
				return nil
			})
		},
	}
	issuesCmd.Flags().BoolVar(&issuesJSON, "json", false, "Output as JSON")

	var profilesJSON bool
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "Summarize every profile known to the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Profiles()
				if err != nil {
					return err
				}
				if profilesJSON {
					return writeJSON(cmd, resp)
				}
				if len(resp.Profiles) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No profiles organized yet")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderProfileTable(resp.Profiles))
				return nil
			})
		},
	}
	profilesCmd.Flags().BoolVar(&profilesJSON, "json", false, "Output as JSON")

	var async bool
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch issues for every profile and reorganize",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Refresh(async)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Queued {
					fmt.Fprintln(out, "Refresh queued")
					return nil
				}
				fmt.Fprintf(out, "Refresh %s completed: %d profiles organized\n", resp.RefreshID, resp.Profiles)
				return nil
			})
		},
	}
	refreshCmd.Flags().BoolVar(&async, "async", false, "Queue the refresh and return immediately")

	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Reload the daemon configuration and reorganize cached issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reload()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration reloaded (snapshot %s)\n", resp.RefreshID)
				return nil
			})
		},
	}

	return []*cobra.Command{binsCmd, issuesCmd, profilesCmd, refreshCmd, reloadCmd}
}
