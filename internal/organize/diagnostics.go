package organize

import "strings"

// PathSeparator joins bin names in diagnostic paths.
const PathSeparator = " / "

// Unranked records an item that a bin's sorter could not rank. The item is
// still placed, after every ranked item.
type Unranked struct {
	Origin int
	Path   []string
}

// Duplicate records an item placed in more than one sibling entry of a scope
// while duplicates are allowed.
type Duplicate struct {
	Origin int
	Path   []string
	Bins   []string
}

// Shadowed records an item that a later sibling filter also matched after an
// earlier entry had already claimed it.
type Shadowed struct {
	Origin    int
	Path      []string
	ClaimedBy string
	Entry     string
}

// Diagnostics collects the non-fatal observations of one Organize call.
type Diagnostics struct {
	Unranked   []Unranked
	Duplicates []Duplicate
	Shadowed   []Shadowed
}

// Empty reports whether nothing was recorded.
func (d Diagnostics) Empty() bool {
	return d.Count() == 0
}

// Count returns the total number of records.
func (d Diagnostics) Count() int {
	return len(d.Unranked) + len(d.Duplicates) + len(d.Shadowed)
}

// JoinPath renders a bin path for display. The empty path names the root.
func JoinPath(path []string) string {
	if len(path) == 0 {
		return "(root)"
	}
	return strings.Join(path, PathSeparator)
}
