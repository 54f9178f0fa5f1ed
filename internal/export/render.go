package export

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"issuegrid/internal/issues"
	"issuegrid/internal/textutil"
)

//go:embed issue.md.tmpl
var issueTemplate string

// Renderer turns an issue with comments into markdown.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded issue template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("issue").Funcs(template.FuncMap{
		"date":   formatDate,
		"labels": joinLabels,
	}).Parse(issueTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse issue template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render returns the markdown document for issue.
func (r *Renderer) Render(issue issues.IssueWithComments) (string, error) {
	var b strings.Builder
	if err := r.tmpl.Execute(&b, issue); err != nil {
		return "", fmt.Errorf("render issue #%d: %w", issue.Number, err)
	}
	out := b.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

// FileName returns the suggested file name for issue, e.g. "007-crash-on-start.md".
func FileName(issue issues.Issue) string {
	return fmt.Sprintf("%03d-%s.md", issue.Number, textutil.Slugify(issue.Title))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func joinLabels(labels []issues.Label) string {
	names := make([]string, 0, len(labels))
	for _, label := range labels {
		names = append(names, "`"+label.Name+"`")
	}
	return strings.Join(names, ", ")
}
