package organize_test

import (
	"errors"
	"regexp/syntax"
	"slices"
	"testing"

	"issuegrid/internal/organize"
)

func TestCompileRejectsInvalidPattern(t *testing.T) {
	_, err := organize.Compile("(unclosed")
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if !errors.Is(err, organize.ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}
	var patternErr *organize.PatternError
	if !errors.As(err, &patternErr) {
		t.Fatalf("expected *PatternError, got %T", err)
	}
	if patternErr.Source != "(unclosed" {
		t.Fatalf("unexpected source %q", patternErr.Source)
	}
	var syntaxErr *syntax.Error
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected regexp syntax error in chain, got %v", err)
	}
}

func TestNewSequenceStopsAtFirstInvalidPattern(t *testing.T) {
	_, err := organize.NewSequence("ok", "[", "also ok")
	if !errors.Is(err, organize.ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}

	empty, err := organize.NewSequence()
	if err != nil || empty != nil {
		t.Fatalf("expected nil sequence without error, got %v %v", empty, err)
	}
}

func TestPatternMatchesSubstring(t *testing.T) {
	p := organize.MustCompile("bug")
	if !p.MatchString("Type: bug report") {
		t.Fatal("expected unanchored match")
	}
	anchored := organize.MustCompile("^bug$")
	if anchored.MatchString("Type: bug") {
		t.Fatal("expected anchored pattern to reject partial match")
	}
	var nilPattern *organize.Pattern
	if nilPattern.MatchString("anything") {
		t.Fatal("nil pattern must never match")
	}
	if p.String() != "bug" {
		t.Fatalf("unexpected source %q", p.String())
	}
}

func TestRankUsesFirstMatchingPattern(t *testing.T) {
	s := seq(t, "P0", "P1", "P")
	tests := []struct {
		tags []string
		want int
	}{
		{[]string{"P1"}, 1},
		{[]string{"P1", "P0"}, 0},
		{[]string{"P7"}, 2},
		{[]string{"other"}, organize.UnrankedRank},
		{nil, organize.UnrankedRank},
	}
	for _, tt := range tests {
		if got := organize.Rank(s, item("x", tt.tags...), matchTags); got != tt.want {
			t.Fatalf("Rank(%v) = %d, want %d", tt.tags, got, tt.want)
		}
	}
	if got := s.Sources(); !slices.Equal(got, []string{"P0", "P1", "P"}) {
		t.Fatalf("unexpected sources %v", got)
	}
}

func TestRankOrderIsStable(t *testing.T) {
	items := []tagged{
		item("a", "low"),
		item("b"),
		item("c", "high"),
		item("d", "low"),
		item("e"),
		item("f", "high"),
	}

	ordered, unranked := organize.RankOrder(items, seq(t, "high", "low"), matchTags)

	if got := ids(ordered); !slices.Equal(got, []string{"c", "f", "a", "d", "b", "e"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if !slices.Equal(unranked, []int{1, 4}) {
		t.Fatalf("unexpected unranked positions %v", unranked)
	}
	if got := ids(items); !slices.Equal(got, []string{"a", "b", "c", "d", "e", "f"}) {
		t.Fatalf("input mutated: %v", got)
	}
}

func TestRankOrderWithoutSequenceIsIdentity(t *testing.T) {
	items := []tagged{item("b"), item("a"), item("c")}
	ordered, unranked := organize.RankOrder(items, nil, matchTags)
	if got := ids(ordered); !slices.Equal(got, []string{"b", "a", "c"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if unranked != nil {
		t.Fatalf("expected no unranked positions, got %v", unranked)
	}
}

func TestPartitionPreservesOrder(t *testing.T) {
	matched, unmatched := organize.Partition(sampleItems(), organize.MustCompile("bug"), matchTags)
	if got := ids(matched); !slices.Equal(got, []string{"item1", "item3"}) {
		t.Fatalf("unexpected matched %v", got)
	}
	if got := ids(unmatched); !slices.Equal(got, []string{"item2", "item4"}) {
		t.Fatalf("unexpected unmatched %v", got)
	}
}

func TestScopeValidate(t *testing.T) {
	valid := organize.NewScope(
		organize.Bin(organize.MustCompile("a"), nil, organize.Metadata{}),
		organize.Recurse(organize.MustCompile("b"), nil, organize.Metadata{}, organize.NewScope(
			organize.Bin(organize.MustCompile("c"), nil, organize.Metadata{}),
		)),
	)
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid.BinCount() != 2 || valid.Depth() != 2 || valid.Len() != 2 {
		t.Fatalf("unexpected shape: bins=%d depth=%d len=%d", valid.BinCount(), valid.Depth(), valid.Len())
	}

	missing := organize.NewScope(organize.Entry{})
	if err := missing.Validate(); err == nil {
		t.Fatal("expected error for missing filter")
	}

	cyclic := organize.NewScope()
	cyclic.Entries = append(cyclic.Entries, organize.Recurse(organize.MustCompile("x"), nil, organize.Metadata{}, cyclic))
	if err := cyclic.Validate(); err == nil {
		t.Fatal("expected error for self-nesting scope")
	}
}
