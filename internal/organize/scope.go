package organize

import (
	"errors"
	"fmt"
)

// Metadata describes how a bin is presented. None of it affects placement.
type Metadata struct {
	Name        string
	Color       string
	Description string
}

// Entry is one rule of a Scope. A nil Scope makes the entry a terminal bin;
// a non-nil Scope organizes the claimed items one level deeper.
type Entry struct {
	FilterSort
	Meta  Metadata
	Scope *Scope
}

// Bin returns a terminal entry.
func Bin(filter *Pattern, sorter Sequence, meta Metadata) Entry {
	return Entry{FilterSort: FilterSort{Filter: filter, Sorter: sorter}, Meta: meta}
}

// Recurse returns an entry whose claimed items are organized by sub.
func Recurse(filter *Pattern, sorter Sequence, meta Metadata, sub *Scope) Entry {
	if sub == nil {
		sub = &Scope{}
	}
	return Entry{FilterSort: FilterSort{Filter: filter, Sorter: sorter}, Meta: meta, Scope: sub}
}

// Terminal reports whether the entry produces a leaf bin.
func (e Entry) Terminal() bool {
	return e.Scope == nil
}

// Name returns the display name, falling back to the filter source.
func (e Entry) Name() string {
	if e.Meta.Name != "" {
		return e.Meta.Name
	}
	return e.Filter.String()
}

// Scope is an ordered rule list. Entry order is both claim priority and
// output order.
type Scope struct {
	Entries []Entry
}

// NewScope builds a Scope from entries.
func NewScope(entries ...Entry) *Scope {
	return &Scope{Entries: entries}
}

// Len returns the number of entries at this level.
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// BinCount returns the number of terminal entries in the whole tree.
func (s *Scope) BinCount() int {
	if s == nil {
		return 0
	}
	count := 0
	for _, entry := range s.Entries {
		if entry.Terminal() {
			count++
			continue
		}
		count += entry.Scope.BinCount()
	}
	return count
}

// Depth returns the nesting depth. An empty or flat scope has depth 1.
func (s *Scope) Depth() int {
	deepest := 0
	if s != nil {
		for _, entry := range s.Entries {
			if entry.Terminal() {
				continue
			}
			deepest = max(deepest, entry.Scope.Depth())
		}
	}
	return deepest + 1
}

var errScopeCycle = errors.New("scope nests itself")

// Validate checks that every entry has a filter and that no scope contains
// itself. The configuration layer runs it on every compiled profile scope.
func (s *Scope) Validate() error {
	return s.validate("", make(map[*Scope]bool))
}

func (s *Scope) validate(prefix string, active map[*Scope]bool) error {
	if s == nil {
		return nil
	}
	if active[s] {
		return fmt.Errorf("%s: %w", displayPrefix(prefix), errScopeCycle)
	}
	active[s] = true
	defer delete(active, s)

	for i, entry := range s.Entries {
		loc := fmt.Sprintf("%sentries[%d]", prefix, i)
		if entry.Filter == nil {
			return fmt.Errorf("%s: filter is required", loc)
		}
		if err := entry.Scope.validate(loc+".", active); err != nil {
			return err
		}
	}
	return nil
}

func displayPrefix(prefix string) string {
	if prefix == "" {
		return "scope"
	}
	return prefix[:len(prefix)-1]
}
