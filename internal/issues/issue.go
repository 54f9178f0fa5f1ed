package issues

import (
	"strconv"
	"strings"
	"time"

	"issuegrid/internal/organize"
)

// Color is a CSS color including its leading "#".
type Color string

// ColorFromHex converts GitHub's bare hex color ("d73a4a") into a CSS color.
// Values that already carry "#" are kept; empty input stays empty.
func ColorFromHex(hex string) Color {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return ""
	}
	if strings.HasPrefix(hex, "#") {
		return Color(strings.ToLower(hex))
	}
	return Color("#" + strings.ToLower(hex))
}

// Label is a named, colored tag attached to an issue.
type Label struct {
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// User identifies an issue or comment author.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IconURL   string `json:"icon_url,omitempty"`
	Hyperlink string `json:"hyperlink,omitempty"`
}

// Issue is a single tracker issue.
type Issue struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Hyperlink string    `json:"hyperlink"`
	State     string    `json:"state"`
	Body      string    `json:"body,omitempty"`
	Labels    []Label   `json:"labels"`
	Author    User      `json:"author"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LabelNames returns the issue's label names in label order.
func LabelNames(issue Issue) []string {
	names := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		names = append(names, label.Name)
	}
	return names
}

// Match is the organize tag function for issues.
var Match = organize.AnyTag(LabelNames)

// MatchesPattern reports whether any label name matches p.
func (i Issue) MatchesPattern(p *organize.Pattern) bool {
	for _, label := range i.Labels {
		if p.MatchString(label.Name) {
			return true
		}
	}
	return false
}

// HasLabel reports whether the issue carries a label with exactly this name.
func (i Issue) HasLabel(name string) bool {
	for _, label := range i.Labels {
		if label.Name == name {
			return true
		}
	}
	return false
}

// Ref returns the "owner/repo#n" reference for the issue in repo.
func (i Issue) Ref(repo string) string {
	return repo + "#" + strconv.Itoa(i.Number)
}

// Comment is one comment in an issue's discussion.
type Comment struct {
	ID        int64     `json:"id"`
	Author    User      `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// IssueWithComments pairs an issue with its fetched discussion.
type IssueWithComments struct {
	Issue
	Thread []Comment `json:"thread"`
}
