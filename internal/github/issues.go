package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"issuegrid/internal/issues"
	"issuegrid/internal/logging"
	"issuegrid/internal/services"
)

type wireUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

type wireLabel struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type wireIssue struct {
	ID          int64            `json:"id"`
	Number      int              `json:"number"`
	Title       string           `json:"title"`
	HTMLURL     string           `json:"html_url"`
	State       string           `json:"state"`
	Body        *string          `json:"body"`
	Labels      []wireLabel      `json:"labels"`
	User        wireUser         `json:"user"`
	Comments    int              `json:"comments"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	PullRequest *json.RawMessage `json:"pull_request"`
}

type wireComment struct {
	ID        int64     `json:"id"`
	User      wireUser  `json:"user"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (u wireUser) remodel() issues.User {
	return issues.User{ID: u.ID, Name: u.Login, IconURL: u.AvatarURL, Hyperlink: u.HTMLURL}
}

func (w wireIssue) remodel() issues.Issue {
	issue := issues.Issue{
		ID:        w.ID,
		Number:    w.Number,
		Title:     w.Title,
		Hyperlink: w.HTMLURL,
		State:     w.State,
		Labels:    make([]issues.Label, 0, len(w.Labels)),
		Author:    w.User.remodel(),
		Comments:  w.Comments,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	if w.Body != nil {
		issue.Body = *w.Body
	}
	for _, label := range w.Labels {
		issue.Labels = append(issue.Labels, issues.Label{Name: label.Name, Color: issues.ColorFromHex(label.Color)})
	}
	return issue
}

// ListIssues returns the repository's issues in the given state ("open",
// "closed" or "all"), newest first as GitHub orders them. Pull requests are
// skipped. At most the configured number of pages is followed; a truncated
// listing is logged.
func (c *Client) ListIssues(ctx context.Context, repo Repo, state string) ([]issues.Issue, error) {
	params := url.Values{}
	if state != "" {
		params.Set("state", state)
	}
	params.Set("per_page", strconv.Itoa(c.perPage))

	var out []issues.Issue
	target := fmt.Sprintf("/repos/%s/%s/issues", url.PathEscape(repo.Owner), url.PathEscape(repo.Name))
	for page := 1; target != ""; page++ {
		if page > c.maxPages {
			logging.WarnWithContext(c.logger, "issue listing truncated", "github_pagination_truncated",
				logging.Repo(repo.String()),
				logging.Int("max_pages", c.maxPages),
				logging.Int("issues", len(out)),
				logging.String(logging.FieldErrorHint, "raise github.max_pages"),
				logging.String(logging.FieldImpact, "older issues are not organized"),
			)
			break
		}
		var batch []wireIssue
		next, err := c.get(ctx, target, params, &batch)
		if err != nil {
			return nil, fmt.Errorf("list issues for %s: %w", repo, err)
		}
		for _, w := range batch {
			if w.PullRequest != nil {
				continue
			}
			out = append(out, w.remodel())
		}
		target, params = next, nil
	}
	c.logger.Debug("issues listed",
		logging.Repo(repo.String()),
		logging.String("state", state),
		logging.Int("issues", len(out)),
	)
	return out, nil
}

// GetIssue returns a single issue. Pull requests are reported as not found.
func (c *Client) GetIssue(ctx context.Context, repo Repo, number int) (issues.Issue, error) {
	var w wireIssue
	target := fmt.Sprintf("/repos/%s/%s/issues/%d", url.PathEscape(repo.Owner), url.PathEscape(repo.Name), number)
	if _, err := c.get(ctx, target, nil, &w); err != nil {
		return issues.Issue{}, fmt.Errorf("get issue %s#%d: %w", repo, number, err)
	}
	if w.PullRequest != nil {
		return issues.Issue{}, services.Wrap(services.ErrNotFound, "github", "get issue",
			fmt.Sprintf("%s#%d is a pull request", repo, number), nil)
	}
	return w.remodel(), nil
}

// ListComments returns an issue's comments in discussion order.
func (c *Client) ListComments(ctx context.Context, repo Repo, number int) ([]issues.Comment, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(c.perPage))

	out := []issues.Comment{}
	target := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", url.PathEscape(repo.Owner), url.PathEscape(repo.Name), number)
	for page := 1; target != "" && page <= c.maxPages; page++ {
		var batch []wireComment
		next, err := c.get(ctx, target, params, &batch)
		if err != nil {
			return nil, fmt.Errorf("list comments for %s#%d: %w", repo, number, err)
		}
		for _, w := range batch {
			out = append(out, issues.Comment{ID: w.ID, Author: w.User.remodel(), Body: w.Body, CreatedAt: w.CreatedAt})
		}
		target, params = next, nil
	}
	return out, nil
}

// IssuesWithComments fetches the discussion of every issue with a bounded
// number of parallel requests. Issues without comments are not requested.
// The result keeps the input order; the first failure cancels the rest.
func (c *Client) IssuesWithComments(ctx context.Context, repo Repo, list []issues.Issue) ([]issues.IssueWithComments, error) {
	out := make([]issues.IssueWithComments, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, issue := range list {
		out[i] = issues.IssueWithComments{Issue: issue, Thread: []issues.Comment{}}
		if issue.Comments == 0 {
			continue
		}
		g.Go(func() error {
			thread, err := c.ListComments(gctx, repo, issue.Number)
			if err != nil {
				return err
			}
			out[i].Thread = thread
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Fetch resolves a query: a single issue when it names one, otherwise every
// issue in state.
func (c *Client) Fetch(ctx context.Context, query Query, state string) ([]issues.Issue, error) {
	if query.Number > 0 {
		issue, err := c.GetIssue(ctx, query.Repo, query.Number)
		if err != nil {
			return nil, err
		}
		return []issues.Issue{issue}, nil
	}
	return c.ListIssues(ctx, query.Repo, state)
}
