package organize

import (
	"log/slog"
	"slices"
	"strconv"
)

// OverflowName is the name given to every overflow bin.
const OverflowName = "overflow"

// Kind distinguishes the three node shapes of a result tree.
type Kind int

const (
	// KindGroup is an internal node; the root and every recursive entry.
	KindGroup Kind = iota
	// KindBin is a leaf produced by a terminal entry.
	KindBin
	// KindOverflow is the leaf holding a group's unclaimed items.
	KindOverflow
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindBin:
		return "bin"
	case KindOverflow:
		return "overflow"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is one vertex of the result tree. Leaves carry Items and the matching
// Origins (positions in the input slice); groups carry Children, the last of
// which is always the group's overflow bin.
type Node[T any] struct {
	Name     string
	Kind     Kind
	Meta     Metadata
	Items    []T
	Origins  []int
	Children []*Node[T]
}

// IsOverflow reports whether n is an overflow bin.
func (n *Node[T]) IsOverflow() bool {
	return n != nil && n.Kind == KindOverflow
}

// IsLeaf reports whether n holds items rather than children.
func (n *Node[T]) IsLeaf() bool {
	return n != nil && n.Kind != KindGroup
}

// Overflow returns the overflow child of a group, or nil for leaves.
func (n *Node[T]) Overflow() *Node[T] {
	if n == nil || n.Kind != KindGroup || len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// Child returns the first direct child with the given name.
func (n *Node[T]) Child(name string) *Node[T] {
	if n == nil {
		return nil
	}
	for _, child := range n.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// Find walks names from n and returns the node reached, or nil.
func (n *Node[T]) Find(names ...string) *Node[T] {
	current := n
	for _, name := range names {
		current = current.Child(name)
		if current == nil {
			return nil
		}
	}
	return current
}

// Walk visits n and its descendants depth first in output order. path holds
// the names from the root's children down to the visited node.
func (n *Node[T]) Walk(fn func(path []string, node *Node[T]) bool) {
	n.walk(nil, fn)
}

func (n *Node[T]) walk(path []string, fn func([]string, *Node[T]) bool) bool {
	if n == nil {
		return true
	}
	if !fn(path, n) {
		return false
	}
	for _, child := range n.Children {
		if !child.walk(appendPath(path, child.Name), fn) {
			return false
		}
	}
	return true
}

// Leaves returns every leaf in output order.
func (n *Node[T]) Leaves() []*Node[T] {
	var leaves []*Node[T]
	n.Walk(func(_ []string, node *Node[T]) bool {
		if node.IsLeaf() {
			leaves = append(leaves, node)
		}
		return true
	})
	return leaves
}

// Len returns the number of item placements below n.
func (n *Node[T]) Len() int {
	total := 0
	for _, leaf := range n.Leaves() {
		total += len(leaf.Items)
	}
	return total
}

// Options tunes a single Organize call.
type Options struct {
	// AllowDuplicates lets every matching entry of a scope receive an item
	// instead of only the first.
	AllowDuplicates bool
	// Logger receives diagnostics as they are recorded. Nil disables logging.
	Logger *slog.Logger
	// Describe labels an input position in log lines. Defaults to the index.
	Describe func(origin int) string
}

// Result is the output of Organize.
type Result[T any] struct {
	Root        *Node[T]
	Diagnostics Diagnostics
}

// Bins returns every leaf of the tree in output order.
func (r *Result[T]) Bins() []*Node[T] {
	if r == nil {
		return nil
	}
	return r.Root.Leaves()
}

// Organize distributes items over scope and returns the resulting tree.
//
// Entries are evaluated in order against the pool of items still available at
// their level. A terminal entry becomes a bin holding its matches ordered by
// the entry's sorter. A recursive entry ranks its matches first and then
// organizes them with its nested scope. Items no entry claimed become the
// level's overflow bin in the order they arrived at that level, which at the
// top level is the input order. A nil scope yields a root holding only the
// overflow bin.
func Organize[T any](scope *Scope, items []T, match MatchFunc[T], opts Options) *Result[T] {
	o := &organizer[T]{items: items, match: match, opts: opts}
	if o.opts.Describe == nil {
		o.opts.Describe = strconv.Itoa
	}
	if o.opts.Logger != nil {
		o.logger = o.opts.Logger.With(slog.String("component", "organize"))
	}

	pool := make([]int, len(items))
	for i := range pool {
		pool[i] = i
	}
	root := o.organizeScope(scope, pool, nil)

	if o.logger != nil {
		o.logger.Debug("organize complete",
			slog.Int("items", len(items)),
			slog.Int("bins", len(root.Leaves())),
			slog.Int("diagnostics", o.diag.Count()),
			slog.Bool("allow_duplicates", opts.AllowDuplicates),
		)
	}
	return &Result[T]{Root: root, Diagnostics: o.diag}
}

type organizer[T any] struct {
	items  []T
	match  MatchFunc[T]
	opts   Options
	logger *slog.Logger
	diag   Diagnostics
}

func (o *organizer[T]) organizeScope(scope *Scope, pool []int, path []string) *Node[T] {
	group := &Node[T]{Kind: KindGroup}

	var entries []Entry
	if scope != nil {
		entries = scope.Entries
	}

	// available holds the unclaimed origins in pool order.
	available := pool
	claimedBy := make(map[int]string, len(pool))
	var owners map[int][]string
	if o.opts.AllowDuplicates {
		owners = make(map[int][]string, len(pool))
	}

	for _, entry := range entries {
		name := entry.Name()
		var matched []int
		if o.opts.AllowDuplicates {
			matched, _ = Partition(pool, entry.Filter, o.matchOrigin)
			for _, origin := range matched {
				owners[origin] = append(owners[origin], name)
			}
		} else {
			o.reportShadowed(pool, claimedBy, entry.Filter, path, name)
			matched, available = Partition(available, entry.Filter, o.matchOrigin)
			for _, origin := range matched {
				claimedBy[origin] = name
			}
		}

		childPath := appendPath(path, name)
		ordered, unranked := rankOrigins(matched, o.items, entry.Sorter, o.match)
		for _, origin := range unranked {
			o.unranked(origin, childPath)
		}

		var child *Node[T]
		if entry.Terminal() {
			child = o.leaf(KindBin, name, ordered)
		} else {
			child = o.organizeScope(entry.Scope, ordered, childPath)
			child.Name = name
		}
		child.Meta = entry.Meta
		group.Children = append(group.Children, child)
	}

	rest := available
	if o.opts.AllowDuplicates {
		rest = nil
		for _, origin := range pool {
			if len(owners[origin]) == 0 {
				rest = append(rest, origin)
			}
		}
	}
	group.Children = append(group.Children, o.leaf(KindOverflow, OverflowName, rest))

	for _, origin := range pool {
		if names := owners[origin]; len(names) > 1 {
			o.duplicate(origin, path, names)
		}
	}
	return group
}

func (o *organizer[T]) matchOrigin(origin int, p *Pattern) bool {
	return o.match(o.items[origin], p)
}

// reportShadowed records items an earlier sibling already claimed that would
// also match filter.
func (o *organizer[T]) reportShadowed(pool []int, claimedBy map[int]string, filter *Pattern, path []string, entry string) {
	if len(claimedBy) == 0 {
		return
	}
	for _, origin := range pool {
		if owner, ok := claimedBy[origin]; ok && o.matchOrigin(origin, filter) {
			o.shadowed(origin, path, owner, entry)
		}
	}
}

func (o *organizer[T]) leaf(kind Kind, name string, origins []int) *Node[T] {
	node := &Node[T]{
		Name:    name,
		Kind:    kind,
		Items:   make([]T, len(origins)),
		Origins: slices.Clone(origins),
	}
	if node.Origins == nil {
		node.Origins = []int{}
	}
	for i, origin := range origins {
		node.Items[i] = o.items[origin]
	}
	return node
}

func (o *organizer[T]) unranked(origin int, path []string) {
	o.diag.Unranked = append(o.diag.Unranked, Unranked{Origin: origin, Path: path})
	o.warn("item matched no order pattern; placed last", "organize_unranked",
		slog.String("item", o.opts.Describe(origin)),
		slog.String("bin", JoinPath(path)),
		slog.String("error_hint", "add an order pattern that matches this item"),
		slog.String("impact", "item sorted after ranked items"),
	)
}

func (o *organizer[T]) duplicate(origin int, path []string, bins []string) {
	o.diag.Duplicates = append(o.diag.Duplicates, Duplicate{Origin: origin, Path: path, Bins: slices.Clone(bins)})
	o.warn("item placed in several sibling bins", "organize_duplicate",
		slog.String("item", o.opts.Describe(origin)),
		slog.String("scope", JoinPath(path)),
		slog.Any("bins", bins),
		slog.String("error_hint", "tighten filters or disable allow_duplicates"),
		slog.String("impact", "item appears more than once"),
	)
}

func (o *organizer[T]) shadowed(origin int, path []string, claimedBy, entry string) {
	o.diag.Shadowed = append(o.diag.Shadowed, Shadowed{Origin: origin, Path: path, ClaimedBy: claimedBy, Entry: entry})
	if o.logger != nil {
		o.logger.Debug("item also matched a later bin",
			slog.String("item", o.opts.Describe(origin)),
			slog.String("scope", JoinPath(path)),
			slog.String("claimed_by", claimedBy),
			slog.String("entry", entry),
		)
	}
}

func (o *organizer[T]) warn(msg, eventType string, attrs ...slog.Attr) {
	if o.logger == nil {
		return
	}
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("event_type", eventType))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	o.logger.Warn(msg, args...)
}

func appendPath(path []string, name string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = name
	return out
}
