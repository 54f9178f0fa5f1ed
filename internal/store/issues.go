package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"issuegrid/internal/issues"
	"issuegrid/internal/services"
)

// ErrNotCached reports a repository with no stored listing.
var ErrNotCached = fmt.Errorf("%w: repository not cached", services.ErrNotFound)

// RepoSummary describes one cached listing.
type RepoSummary struct {
	Repo      string
	Issues    int
	FetchedAt time.Time
}

// Health aggregates cache state for diagnostic output.
type Health struct {
	Path   string
	Repos  int
	Issues int
}

// ReplaceIssues stores list as the repository's listing, replacing any
// previous one in a single transaction. Order is preserved.
func (s *Store) ReplaceIssues(ctx context.Context, repo string, list []issues.Issue, fetchedAt time.Time) error {
	return retryOnBusy(ctx, func() error {
		return s.replaceIssues(ctx, repo, list, fetchedAt)
	})
}

func (s *Store) replaceIssues(ctx context.Context, repo string, list []issues.Issue, fetchedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM repos WHERE repo = ?`, repo); err != nil {
		return fmt.Errorf("clear cached issues for %s: %w", repo, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO repos (repo, fetched_at, issue_count) VALUES (?, ?, ?)`,
		repo, fetchedAt.UTC().Format(time.RFC3339Nano), len(list),
	); err != nil {
		return fmt.Errorf("record repo %s: %w", repo, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO issues (
            repo, position, id, number, title, hyperlink, state, body,
            labels_json, author_json, comments, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare issue insert: %w", err)
	}
	defer stmt.Close()

	for position, issue := range list {
		labels, err := json.Marshal(issue.Labels)
		if err != nil {
			return fmt.Errorf("encode labels for #%d: %w", issue.Number, err)
		}
		author, err := json.Marshal(issue.Author)
		if err != nil {
			return fmt.Errorf("encode author for #%d: %w", issue.Number, err)
		}
		if _, err := stmt.ExecContext(ctx,
			repo, position, issue.ID, issue.Number, issue.Title, issue.Hyperlink, issue.State, issue.Body,
			string(labels), string(author), issue.Comments,
			formatTime(issue.CreatedAt), formatTime(issue.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert issue #%d: %w", issue.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cached issues: %w", err)
	}
	return nil
}

// LoadIssues returns the cached listing for repo and when it was fetched.
// ErrNotCached is returned when nothing is stored.
func (s *Store) LoadIssues(ctx context.Context, repo string) ([]issues.Issue, time.Time, error) {
	var fetchedRaw string
	err := s.db.QueryRowContext(ctx, `SELECT fetched_at FROM repos WHERE repo = ?`, repo).Scan(&fetchedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, fmt.Errorf("load %s: %w", repo, ErrNotCached)
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load %s: %w", repo, err)
	}
	fetchedAt := parseTime(sql.NullString{String: fetchedRaw, Valid: true})

	rows, err := s.db.QueryContext(ctx, `SELECT
            id, number, title, hyperlink, state, body, labels_json, author_json,
            comments, created_at, updated_at
        FROM issues WHERE repo = ? ORDER BY position`, repo)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query cached issues: %w", err)
	}
	defer rows.Close()

	list := []issues.Issue{}
	for rows.Next() {
		var (
			issue              issues.Issue
			labels, author     string
			created, updatedAt sql.NullString
		)
		if err := rows.Scan(
			&issue.ID, &issue.Number, &issue.Title, &issue.Hyperlink, &issue.State, &issue.Body,
			&labels, &author, &issue.Comments, &created, &updatedAt,
		); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan cached issue: %w", err)
		}
		if err := json.Unmarshal([]byte(labels), &issue.Labels); err != nil {
			return nil, time.Time{}, fmt.Errorf("decode labels for #%d: %w", issue.Number, err)
		}
		if err := json.Unmarshal([]byte(author), &issue.Author); err != nil {
			return nil, time.Time{}, fmt.Errorf("decode author for #%d: %w", issue.Number, err)
		}
		issue.CreatedAt = parseTime(created)
		issue.UpdatedAt = parseTime(updatedAt)
		list = append(list, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	return list, fetchedAt, nil
}

// Repos lists cached repositories by name.
func (s *Store) Repos(ctx context.Context) ([]RepoSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT repo, issue_count, fetched_at FROM repos ORDER BY repo`)
	if err != nil {
		return nil, fmt.Errorf("list cached repos: %w", err)
	}
	defer rows.Close()

	var out []RepoSummary
	for rows.Next() {
		var (
			summary RepoSummary
			fetched string
		)
		if err := rows.Scan(&summary.Repo, &summary.Issues, &fetched); err != nil {
			return nil, err
		}
		summary.FetchedAt = parseTime(sql.NullString{String: fetched, Valid: true})
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Forget removes a repository's listing. It reports whether one existed.
func (s *Store) Forget(ctx context.Context, repo string) (bool, error) {
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, `DELETE FROM repos WHERE repo = ?`, repo)
		return execErr
	})
	if err != nil {
		return false, fmt.Errorf("forget %s: %w", repo, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Health reports cache totals.
func (s *Store) Health(ctx context.Context) (Health, error) {
	health := Health{Path: s.path}
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(1) FROM repos), (SELECT COUNT(1) FROM issues)`,
	).Scan(&health.Repos, &health.Issues)
	if err != nil {
		return health, fmt.Errorf("cache health: %w", err)
	}
	return health, nil
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value sql.NullString) time.Time {
	if !value.Valid || value.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
