// Package organize classifies a flat collection of items into a nested tree of
// named bins driven by declarative regex rules.
//
// A Scope is an ordered list of entries. Each entry couples a filter Pattern
// with an optional ranking Sequence and either names a terminal bin or nests a
// further Scope. Organize walks the entries in declaration order, lets each one
// claim the items its filter matches, ranks the claimed items, and collects the
// leftovers into an overflow bin. In the default mode an item belongs to the
// first entry that matches it; with Options.AllowDuplicates every matching
// entry receives a copy and the engine reports the items that landed in more
// than one sibling bin.
//
// The engine is generic over the item type. Callers decide how an item is
// tested against a pattern by passing a MatchFunc, usually built with AnyTag
// from a tag extractor or with ByCapability for types implementing Matcher.
// Organize never mutates its inputs and never fails: configuration problems
// surface when patterns are compiled, and questionable placements are recorded
// as Diagnostics instead of errors.
package organize
