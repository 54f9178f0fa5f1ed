package api

import (
	"strings"
	"time"

	"issuegrid/internal/issues"
	"issuegrid/internal/organize"
	"issuegrid/internal/snapshot"
)

// FormatTime renders t in the API timestamp format; zero times render empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromIssue converts an issue to its API representation.
func FromIssue(issue issues.Issue) IssueSummary {
	dto := IssueSummary{
		ID:        issue.ID,
		Number:    issue.Number,
		Title:     issue.Title,
		Hyperlink: issue.Hyperlink,
		State:     issue.State,
		Labels:    make([]Label, 0, len(issue.Labels)),
		Author: User{
			ID:        issue.Author.ID,
			Name:      issue.Author.Name,
			IconURL:   issue.Author.IconURL,
			Hyperlink: issue.Author.Hyperlink,
		},
		Comments:  issue.Comments,
		CreatedAt: FormatTime(issue.CreatedAt),
		UpdatedAt: FormatTime(issue.UpdatedAt),
	}
	for _, label := range issue.Labels {
		dto.Labels = append(dto.Labels, Label{Name: label.Name, Color: string(label.Color)})
	}
	return dto
}

// FromIssues converts a slice of issues into API DTOs.
func FromIssues(list []issues.Issue) []IssueSummary {
	out := make([]IssueSummary, 0, len(list))
	for _, issue := range list {
		out = append(out, FromIssue(issue))
	}
	return out
}

// FromNode converts a result tree. The root's path is empty.
func FromNode(node *organize.Node[issues.Issue]) BinNode {
	return fromNode(node, []string{})
}

func fromNode(node *organize.Node[issues.Issue], path []string) BinNode {
	if node == nil {
		return BinNode{Path: path, Kind: organize.KindGroup.String()}
	}
	dto := BinNode{
		Name:        node.Name,
		Path:        path,
		Kind:        node.Kind.String(),
		Color:       node.Meta.Color,
		Description: node.Meta.Description,
	}
	if node.IsLeaf() {
		dto.Issues = FromIssues(node.Items)
		dto.Count = len(node.Items)
		return dto
	}
	dto.Children = make([]BinNode, 0, len(node.Children))
	for _, child := range node.Children {
		childPath := append(append([]string{}, path...), child.Name)
		converted := fromNode(child, childPath)
		dto.Count += converted.Count
		dto.Children = append(dto.Children, converted)
	}
	return dto
}

// FromDiagnostics converts diagnostics, resolving positions in list to issue
// numbers. The order is unranked, duplicates, then shadowed.
func FromDiagnostics(diag organize.Diagnostics, list []issues.Issue) []Diagnostic {
	number := func(origin int) int {
		if origin < 0 || origin >= len(list) {
			return 0
		}
		return list[origin].Number
	}
	out := make([]Diagnostic, 0, diag.Count())
	for _, d := range diag.Unranked {
		out = append(out, Diagnostic{Kind: DiagnosticUnranked, Issue: number(d.Origin), Path: organize.JoinPath(d.Path)})
	}
	for _, d := range diag.Duplicates {
		out = append(out, Diagnostic{Kind: DiagnosticDuplicate, Issue: number(d.Origin), Path: organize.JoinPath(d.Path), Bins: d.Bins})
	}
	for _, d := range diag.Shadowed {
		out = append(out, Diagnostic{
			Kind:      DiagnosticShadowed,
			Issue:     number(d.Origin),
			Path:      organize.JoinPath(d.Path),
			ClaimedBy: d.ClaimedBy,
			Entry:     d.Entry,
		})
	}
	return out
}

// FromProfileView summarizes a snapshot view.
func FromProfileView(view *snapshot.ProfileView) ProfileSummary {
	if view == nil {
		return ProfileSummary{}
	}
	summary := ProfileSummary{
		Name:            view.Name,
		Repo:            view.Repo,
		AllowDuplicates: view.AllowDuplicates,
		Source:          string(view.Source),
		Stale:           view.Stale(),
		Error:           view.Error,
		FetchedAt:       FormatTime(view.FetchedAt),
		Issues:          len(view.Issues),
	}
	if view.Result != nil {
		summary.Bins = len(view.Result.Bins())
		summary.Diagnostics = view.Result.Diagnostics.Count()
	}
	return summary
}

// FromSnapshot summarizes every profile in configuration order.
func FromSnapshot(snap *snapshot.Snapshot) []ProfileSummary {
	views := snap.Views()
	out := make([]ProfileSummary, 0, len(views))
	for _, view := range views {
		out = append(out, FromProfileView(view))
	}
	return out
}

// BinsResponseFor assembles the organized tree of a profile.
func BinsResponseFor(snap *snapshot.Snapshot, view *snapshot.ProfileView) BinsResponse {
	resp := BinsResponse{Profile: FromProfileView(view), Diagnostics: []Diagnostic{}}
	if snap != nil {
		resp.RefreshID = snap.RefreshID
	}
	if view != nil && view.Result != nil {
		resp.Root = FromNode(view.Result.Root)
		resp.Diagnostics = FromDiagnostics(view.Result.Diagnostics, view.Issues)
	}
	return resp
}

// IssuesResponseFor assembles the issue listing of a profile.
func IssuesResponseFor(view *snapshot.ProfileView) IssuesResponse {
	resp := IssuesResponse{Profile: FromProfileView(view), Issues: []IssueSummary{}}
	if view != nil {
		resp.Issues = FromIssues(view.Issues)
	}
	return resp
}

// Flatten lists every node below root depth first, groups before their
// children. Paths are joined with organize.PathSeparator.
func Flatten(root BinNode) []BinRow {
	var rows []BinRow
	var walk func(node BinNode)
	walk = func(node BinNode) {
		for _, child := range node.Children {
			row := BinRow{
				Path:    strings.Join(child.Path, organize.PathSeparator),
				Depth:   len(child.Path) - 1,
				Kind:    child.Kind,
				Count:   child.Count,
				Numbers: make([]int, 0, len(child.Issues)),
			}
			for _, issue := range child.Issues {
				row.Numbers = append(row.Numbers, issue.Number)
			}
			rows = append(rows, row)
			walk(child)
		}
	}
	walk(root)
	return rows
}
