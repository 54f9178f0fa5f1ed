package organize

import (
	"cmp"
	"slices"
)

// FilterSort couples a membership filter with an optional ranking sequence.
// A nil Sorter preserves the relative input order of the matched items.
type FilterSort struct {
	Filter *Pattern
	Sorter Sequence
}

// Partition splits items into those matching p and the rest. Both slices keep
// the input order.
func Partition[T any](items []T, p *Pattern, match MatchFunc[T]) (matched, unmatched []T) {
	for _, item := range items {
		if match(item, p) {
			matched = append(matched, item)
		} else {
			unmatched = append(unmatched, item)
		}
	}
	return matched, unmatched
}

// RankOrder returns a copy of items ordered by seq, together with the input
// positions of the items that matched no pattern. Ranked items come first by
// ascending rank; unranked items follow. Ties keep their input order.
func RankOrder[T any](items []T, seq Sequence, match MatchFunc[T]) ([]T, []int) {
	positions := make([]int, len(items))
	for i := range positions {
		positions[i] = i
	}
	ordered, unranked := rankOrigins(positions, items, seq, match)
	out := make([]T, len(ordered))
	for i, pos := range ordered {
		out[i] = items[pos]
	}
	return out, unranked
}

type rankedOrigin struct {
	origin int
	rank   int
}

// rankOrigins orders origins (indices into items) by seq. The returned
// unranked slice lists origins in their incoming order.
func rankOrigins[T any](origins []int, items []T, seq Sequence, match MatchFunc[T]) ([]int, []int) {
	if len(seq) == 0 {
		return slices.Clone(origins), nil
	}

	ranked := make([]rankedOrigin, len(origins))
	var unranked []int
	for i, origin := range origins {
		rank := Rank(seq, items[origin], match)
		if rank == UnrankedRank {
			unranked = append(unranked, origin)
			rank = len(seq)
		}
		ranked[i] = rankedOrigin{origin: origin, rank: rank}
	}

	slices.SortStableFunc(ranked, func(a, b rankedOrigin) int {
		return cmp.Compare(a.rank, b.rank)
	})

	out := make([]int, len(ranked))
	for i, r := range ranked {
		out[i] = r.origin
	}
	return out, unranked
}
