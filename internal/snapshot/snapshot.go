package snapshot

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"issuegrid/internal/config"
	"issuegrid/internal/issues"
	"issuegrid/internal/organize"
	"issuegrid/internal/services"
)

// ErrUnknownProfile reports a profile name missing from the snapshot.
var ErrUnknownProfile = fmt.Errorf("%w: unknown profile", services.ErrNotFound)

// Source identifies where a profile's issues came from.
type Source string

const (
	SourceGitHub Source = "github"
	SourceCache  Source = "cache"
	SourceNone   Source = "none"
	// SourceFile marks issues read from a local JSON listing.
	SourceFile Source = "file"
)

// ProfileView is one profile's organized issues.
type ProfileView struct {
	Name            string
	Repo            string
	AllowDuplicates bool
	Issues          []issues.Issue
	Result          *organize.Result[issues.Issue]
	FetchedAt       time.Time
	Source          Source
	// Error describes why no listing is available, when Source is SourceNone,
	// or why a cached listing was served.
	Error string
}

// Stale reports whether the view was built from the cache or has no issues
// at all because every source failed.
func (v *ProfileView) Stale() bool {
	return v.Source == SourceCache || v.Source == SourceNone
}

// Snapshot is an immutable set of organized profiles.
type Snapshot struct {
	RefreshID   string
	StartedAt   time.Time
	CompletedAt time.Time
	// Names lists profiles in configuration order.
	Names    []string
	Profiles map[string]*ProfileView
}

// Profile returns the named view.
func (s *Snapshot) Profile(name string) (*ProfileView, error) {
	if s != nil {
		if view, ok := s.Profiles[name]; ok {
			return view, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownProfile, name)
}

// Views returns the profiles in configuration order.
func (s *Snapshot) Views() []*ProfileView {
	if s == nil {
		return nil
	}
	out := make([]*ProfileView, 0, len(s.Names))
	for _, name := range s.Names {
		out = append(out, s.Profiles[name])
	}
	return out
}

// Holder publishes the current snapshot to concurrent readers.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// Load returns the published snapshot or nil before the first refresh.
func (h *Holder) Load() *Snapshot {
	return h.current.Load()
}

// Store publishes snap.
func (h *Holder) Store(snap *Snapshot) {
	h.current.Store(snap)
}

// NewProfileView organizes list for profile and wraps the result in a view.
func NewProfileView(profile config.ProfileScope, list []issues.Issue, source Source, fetchedAt time.Time, logger *slog.Logger) *ProfileView {
	if list == nil {
		list = []issues.Issue{}
	}
	return &ProfileView{
		Name:            profile.Name,
		Repo:            profile.Repo,
		AllowDuplicates: profile.AllowDuplicates,
		Issues:          list,
		Result:          OrganizeProfile(profile, list, logger),
		FetchedAt:       fetchedAt,
		Source:          source,
	}
}

// OrganizeProfile organizes list with the profile's scope.
func OrganizeProfile(profile config.ProfileScope, list []issues.Issue, logger *slog.Logger) *organize.Result[issues.Issue] {
	return organize.Organize(profile.Scope, list, issues.Match, organize.Options{
		AllowDuplicates: profile.AllowDuplicates,
		Logger:          logger,
		Describe: func(origin int) string {
			return "#" + strconv.Itoa(list[origin].Number)
		},
	})
}
