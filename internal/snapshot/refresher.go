package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"issuegrid/internal/config"
	"issuegrid/internal/github"
	"issuegrid/internal/issues"
	"issuegrid/internal/logging"
	"issuegrid/internal/services"
)

// IssueSource lists a repository's issues.
type IssueSource interface {
	ListIssues(ctx context.Context, repo github.Repo, state string) ([]issues.Issue, error)
}

// Cache persists listings between refreshes.
type Cache interface {
	ReplaceIssues(ctx context.Context, repo string, list []issues.Issue, fetchedAt time.Time) error
	LoadIssues(ctx context.Context, repo string) ([]issues.Issue, time.Time, error)
}

// Refresher rebuilds snapshots. Refreshes are serialized.
type Refresher struct {
	source IssueSource
	cache  Cache
	holder *Holder
	base   *slog.Logger
	logger *slog.Logger
	state  string
	now    func() time.Time
	// fetchLimit bounds concurrent repository fetches.
	fetchLimit int

	mu       sync.Mutex
	profiles []config.ProfileScope
}

// NewRefresher wires a refresher. cache may be nil to disable persistence.
func NewRefresher(source IssueSource, cache Cache, holder *Holder, state string, profiles []config.ProfileScope, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Refresher{
		source:   source,
		base:     logger,
		cache:    cache,
		holder:   holder,
		logger:   logging.NewComponentLogger(logger, "refresh"),
		state:    state,
		now:      time.Now,
		profiles: profiles,

		fetchLimit: defaultFetchLimit,
	}
}

const defaultFetchLimit = 4

// SetFetchConcurrency bounds how many repositories are fetched at once.
// Values below one restore the default.
func (r *Refresher) SetFetchConcurrency(n int) {
	if n < 1 {
		n = defaultFetchLimit
	}
	r.mu.Lock()
	r.fetchLimit = n
	r.mu.Unlock()
}

// Holder returns the holder snapshots are published to.
func (r *Refresher) Holder() *Holder {
	return r.holder
}

type listing struct {
	issues    []issues.Issue
	fetchedAt time.Time
	source    Source
	err       error
}

// Refresh fetches every configured repository, organizes each profile and
// publishes the result. A repository whose fetch fails is served from the
// cache. Refresh fails, leaving the published snapshot in place, only when no
// repository produced a listing at all.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	ctx = services.WithRefreshID(ctx, id)
	logger := logging.WithContext(ctx, r.logger)
	started := r.now()

	repos := distinctRepos(r.profiles)
	listings := make(map[string]*listing, len(repos))
	for _, repo := range repos {
		listings[repo] = &listing{}
	}

	// fetch never fails; a repository without a listing is recorded as
	// SourceNone so the others still publish.
	var g errgroup.Group
	g.SetLimit(r.fetchLimit)
	for _, repo := range repos {
		entry := listings[repo]
		g.Go(func() error {
			*entry = r.fetch(services.WithRepo(ctx, repo), repo)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var failures []error
	for _, repo := range repos {
		if l := listings[repo]; l.source == SourceNone {
			failures = append(failures, l.err)
		}
	}
	if len(repos) > 0 && len(failures) == len(repos) {
		logging.ErrorWithContext(logger, "refresh failed", "refresh_failed",
			logging.Error(errors.Join(failures...)),
			logging.String(logging.FieldErrorHint, "check network access and github.token"),
			logging.String(logging.FieldImpact, "previous snapshot remains published"),
		)
		return nil, fmt.Errorf("refresh %s: %w", id, errors.Join(failures...))
	}

	snap := r.build(ctx, id, started, r.profiles, listings)
	r.holder.Store(snap)
	logger.Info("refresh complete",
		logging.Int("profiles", len(snap.Names)),
		logging.Int("repos", len(repos)),
		logging.Int("failed_repos", len(failures)),
		logging.Duration("duration", snap.CompletedAt.Sub(started)),
	)
	return snap, nil
}

// Reorganize swaps in new profiles and re-organizes the issues of the
// published snapshot without fetching. Profiles whose repository is not in
// the snapshot are read from the cache.
func (r *Refresher) Reorganize(ctx context.Context, profiles []config.ProfileScope) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles = profiles
	prev := r.holder.Load()
	listings := make(map[string]*listing)
	if prev != nil {
		for _, view := range prev.Profiles {
			if view.Source != SourceNone {
				listings[view.Repo] = &listing{issues: view.Issues, fetchedAt: view.FetchedAt, source: view.Source}
			}
		}
	}
	for _, repo := range distinctRepos(profiles) {
		if _, ok := listings[repo]; ok {
			continue
		}
		l := r.fromCache(ctx, repo, errors.New("repository added since last refresh"))
		listings[repo] = &l
	}

	id := uuid.NewString()
	snap := r.build(services.WithRefreshID(ctx, id), id, r.now(), profiles, listings)
	r.holder.Store(snap)
	r.logger.Info("profiles reorganized",
		logging.RefreshID(id),
		logging.Int("profiles", len(snap.Names)),
	)
	return snap
}

func (r *Refresher) fetch(ctx context.Context, repo string) listing {
	logger := logging.WithContext(ctx, r.logger)
	parsed, err := github.ParseRepo(repo)
	if err != nil {
		return listing{source: SourceNone, err: err}
	}
	list, err := r.source.ListIssues(ctx, parsed, r.state)
	if err != nil {
		logging.WarnWithContext(logger, "issue fetch failed; using cache", "refresh_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access and github.token"),
			logging.String(logging.FieldImpact, "profiles show the last cached listing"),
		)
		return r.fromCache(ctx, repo, err)
	}
	fetchedAt := r.now()
	if r.cache != nil {
		if err := r.cache.ReplaceIssues(ctx, repo, list, fetchedAt); err != nil {
			logging.WarnWithContext(logger, "cache write failed", "cache_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "listing is not available offline"),
			)
		}
	}
	logger.Debug("issues fetched", logging.Int("issues", len(list)))
	return listing{issues: list, fetchedAt: fetchedAt, source: SourceGitHub}
}

func (r *Refresher) fromCache(ctx context.Context, repo string, cause error) listing {
	if r.cache == nil {
		return listing{source: SourceNone, err: cause}
	}
	list, fetchedAt, err := r.cache.LoadIssues(ctx, repo)
	if err != nil {
		return listing{source: SourceNone, err: errors.Join(cause, err)}
	}
	return listing{issues: list, fetchedAt: fetchedAt, source: SourceCache, err: cause}
}

func (r *Refresher) build(ctx context.Context, id string, started time.Time, profiles []config.ProfileScope, listings map[string]*listing) *Snapshot {
	snap := &Snapshot{
		RefreshID: id,
		StartedAt: started,
		Names:     make([]string, len(profiles)),
		Profiles:  make(map[string]*ProfileView, len(profiles)),
	}
	views := make([]*ProfileView, len(profiles))

	var wg sync.WaitGroup
	for i, profile := range profiles {
		snap.Names[i] = profile.Name
		wg.Go(func() {
			views[i] = r.organize(ctx, profile, listings[profile.Repo])
		})
	}
	wg.Wait()

	for _, view := range views {
		snap.Profiles[view.Name] = view
	}
	snap.CompletedAt = r.now()
	return snap
}

func (r *Refresher) organize(ctx context.Context, profile config.ProfileScope, l *listing) *ProfileView {
	if l == nil {
		l = &listing{source: SourceNone}
	}
	ctx = services.WithRepo(services.WithProfile(ctx, profile.Name), profile.Repo)
	view := NewProfileView(profile, l.issues, l.source, l.fetchedAt, logging.WithContext(ctx, r.base))
	if l.err != nil {
		view.Error = l.err.Error()
	}
	return view
}

func distinctRepos(profiles []config.ProfileScope) []string {
	seen := make(map[string]bool, len(profiles))
	var out []string
	for _, p := range profiles {
		if !seen[p.Repo] {
			seen[p.Repo] = true
			out = append(out, p.Repo)
		}
	}
	return out
}
