package testsupport

import (
	"fmt"
	"time"

	"issuegrid/internal/issues"
)

var fixtureTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Issue builds an open issue with the given labels.
func Issue(number int, title string, labels ...string) issues.Issue {
	issue := issues.Issue{
		ID:        int64(1000 + number),
		Number:    number,
		Title:     title,
		Hyperlink: fmt.Sprintf("https://github.com/octo-org/widgets/issues/%d", number),
		State:     "open",
		Labels:    make([]issues.Label, 0, len(labels)),
		Author:    issues.User{ID: 1, Name: "octocat"},
		CreatedAt: fixtureTime.Add(time.Duration(number) * time.Hour),
		UpdatedAt: fixtureTime.Add(time.Duration(number) * 2 * time.Hour),
	}
	for _, name := range labels {
		issue.Labels = append(issue.Labels, issues.Label{Name: name, Color: "#ededed"})
	}
	return issue
}

// TriageIssues returns issues that exercise every bin of TriageProfile:
// #1 and #3 are bugs (#3 outranks #1), #2 is a feature, #4 and #5 land in
// the Areas group and #6 overflows.
func TriageIssues() []issues.Issue {
	return []issues.Issue{
		Issue(1, "Crash on save", "bug", "P1"),
		Issue(2, "Dark mode", "feature"),
		Issue(3, "Data loss on sync", "bug", "P0"),
		Issue(4, "Button misaligned", "area/ui"),
		Issue(5, "Timeouts on list endpoint", "area/api"),
		Issue(6, "Question about licensing", "question"),
	}
}

// IssuesJSON renders TriageIssues in the GitHub REST wire format.
func IssuesJSON() string {
	return `[
  {"id": 1001, "number": 1, "title": "Crash on save", "html_url": "https://github.com/octo-org/widgets/issues/1", "state": "open", "body": "Steps to reproduce", "comments": 1,
   "labels": [{"name": "bug", "color": "d73a4a"}, {"name": "P1", "color": "fbca04"}], "user": {"id": 1, "login": "octocat"},
   "created_at": "2024-03-01T13:00:00Z", "updated_at": "2024-03-01T14:00:00Z"},
  {"id": 1002, "number": 2, "title": "Dark mode", "html_url": "https://github.com/octo-org/widgets/issues/2", "state": "open", "body": null, "comments": 0,
   "labels": [{"name": "feature", "color": "a2eeef"}], "user": {"id": 1, "login": "octocat"},
   "created_at": "2024-03-01T14:00:00Z", "updated_at": "2024-03-01T16:00:00Z"},
  {"id": 1003, "number": 3, "title": "Data loss on sync", "html_url": "https://github.com/octo-org/widgets/issues/3", "state": "open", "body": null, "comments": 0,
   "labels": [{"name": "bug", "color": "d73a4a"}, {"name": "P0", "color": "b60205"}], "user": {"id": 2, "login": "hubot"},
   "created_at": "2024-03-01T15:00:00Z", "updated_at": "2024-03-01T18:00:00Z"},
  {"id": 1004, "number": 4, "title": "Button misaligned", "html_url": "https://github.com/octo-org/widgets/issues/4", "state": "open", "body": null, "comments": 0,
   "labels": [{"name": "area/ui", "color": "c5def5"}], "user": {"id": 2, "login": "hubot"},
   "created_at": "2024-03-01T16:00:00Z", "updated_at": "2024-03-01T20:00:00Z"},
  {"id": 1005, "number": 5, "title": "Timeouts on list endpoint", "html_url": "https://github.com/octo-org/widgets/issues/5", "state": "open", "body": null, "comments": 0,
   "labels": [{"name": "area/api", "color": "c5def5"}], "user": {"id": 3, "login": "mona"},
   "created_at": "2024-03-01T17:00:00Z", "updated_at": "2024-03-01T22:00:00Z"},
  {"id": 1006, "number": 6, "title": "Question about licensing", "html_url": "https://github.com/octo-org/widgets/issues/6", "state": "open", "body": null, "comments": 0,
   "labels": [{"name": "question", "color": "d876e3"}], "user": {"id": 3, "login": "mona"},
   "created_at": "2024-03-01T18:00:00Z", "updated_at": "2024-03-02T00:00:00Z"},
  {"id": 1007, "number": 7, "title": "Bump deps", "state": "open", "labels": [], "user": {"id": 3, "login": "mona"}, "pull_request": {"url": "x"},
   "created_at": "2024-03-01T18:00:00Z", "updated_at": "2024-03-02T00:00:00Z"}
]`
}

// CommentsJSON is the wire format of issue #1's single comment.
func CommentsJSON() string {
	return `[{"id": 501, "user": {"id": 2, "login": "hubot"}, "body": "Confirmed on 1.2.", "created_at": "2024-03-02T09:00:00Z"}]`
}
