package config

import (
	"fmt"
	"strings"

	"issuegrid/internal/organize"
)

// ProfileScope is a profile with its organize scope compiled.
type ProfileScope struct {
	Name            string
	Repo            string
	AllowDuplicates bool
	Scope           *organize.Scope
}

// Scopes compiles the scope of every profile in declaration order. Errors
// carry the location of the offending pattern and wrap
// organize.ErrInvalidPattern when a regular expression does not compile.
func (c *Config) Scopes() ([]ProfileScope, error) {
	out := make([]ProfileScope, 0, len(c.Profiles))
	for i, p := range c.Profiles {
		var (
			scope *organize.Scope
			err   error
		)
		if p.OrganizeFile != "" {
			scope, err = LoadScopeFile(p.OrganizeFile)
		} else {
			scope, err = CompileEntries(p.Organize, fmt.Sprintf("profiles[%d].organize", i))
		}
		if err == nil {
			err = scope.Validate()
		}
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
		out = append(out, ProfileScope{
			Name:            p.Name,
			Repo:            p.Repo,
			AllowDuplicates: p.AllowDuplicates,
			Scope:           scope,
		})
	}
	return out, nil
}

// CompileEntries compiles declarative entries into a scope. prefix names the
// entries' location in error messages, e.g. "profiles[0].organize".
func CompileEntries(entries []OrganizeEntry, prefix string) (*organize.Scope, error) {
	return buildScope(fromTOML(entries, prefix))
}

// sourceEntry is an OrganizeEntry annotated with the locations of its fields.
type sourceEntry struct {
	entry    OrganizeEntry
	at       string
	filterAt string
	orderAt  []string
	group    bool
	children []sourceEntry
}

func fromTOML(entries []OrganizeEntry, prefix string) []sourceEntry {
	out := make([]sourceEntry, 0, len(entries))
	for i, e := range entries {
		at := fmt.Sprintf("%s[%d]", prefix, i)
		src := sourceEntry{
			entry:    e,
			at:       at,
			filterAt: at + ".filter",
			orderAt:  make([]string, len(e.Order)),
			group:    e.Group || len(e.Organize) > 0,
			children: fromTOML(e.Organize, at+".organize"),
		}
		for j := range e.Order {
			src.orderAt[j] = fmt.Sprintf("%s.order[%d]", at, j)
		}
		out = append(out, src)
	}
	return out
}

func buildScope(entries []sourceEntry) (*organize.Scope, error) {
	scope := &organize.Scope{Entries: make([]organize.Entry, 0, len(entries))}
	for _, src := range entries {
		if strings.TrimSpace(src.entry.Filter) == "" {
			return nil, fmt.Errorf("%s: filter is required", src.at)
		}
		filter, err := organize.Compile(src.entry.Filter)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.filterAt, err)
		}

		var sorter organize.Sequence
		for j, source := range src.entry.Order {
			p, err := organize.Compile(source)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", src.orderAt[j], err)
			}
			sorter = append(sorter, p)
		}

		meta := organize.Metadata{
			Name:        strings.TrimSpace(src.entry.Name),
			Color:       normalizeColor(src.entry.Color),
			Description: strings.TrimSpace(src.entry.Description),
		}

		if !src.group {
			scope.Entries = append(scope.Entries, organize.Bin(filter, sorter, meta))
			continue
		}
		sub, err := buildScope(src.children)
		if err != nil {
			return nil, err
		}
		scope.Entries = append(scope.Entries, organize.Recurse(filter, sorter, meta, sub))
	}
	return scope, nil
}

// normalizeColor prefixes bare hex colors with '#'. Other values pass
// through unchanged.
func normalizeColor(value string) string {
	value = strings.TrimSpace(value)
	switch len(value) {
	case 3, 6:
		for _, r := range value {
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				return value
			}
		}
		return "#" + strings.ToLower(value)
	default:
		return value
	}
}
