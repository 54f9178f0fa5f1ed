package organize

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidPattern marks a filter or order expression that does not compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// PatternError carries the source text of a pattern that failed to compile.
type PatternError struct {
	Source string
	Err    error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Source, e.Err)
}

// Unwrap exposes both ErrInvalidPattern and the underlying regexp error.
func (e *PatternError) Unwrap() []error {
	return []error{ErrInvalidPattern, e.Err}
}

// Pattern is an immutable compiled regular expression.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// Compile parses source as an RE2 expression.
func Compile(source string) (*Pattern, error) {
	re, err := regexp.Compile(source)
	if err != nil {
		return nil, &PatternError{Source: source, Err: err}
	}
	return &Pattern{source: source, re: re}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level fixtures.
func MustCompile(source string) *Pattern {
	p, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source expression.
func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

// MatchString reports whether s contains a match of the pattern.
func (p *Pattern) MatchString(s string) bool {
	if p == nil || p.re == nil {
		return false
	}
	return p.re.MatchString(s)
}

// MatchFunc reports whether item is a member of the set described by p.
type MatchFunc[T any] func(item T, p *Pattern) bool

// AnyTag builds a MatchFunc that succeeds when any tag extracted from the item
// matches the pattern.
func AnyTag[T any](tags func(T) []string) MatchFunc[T] {
	return func(item T, p *Pattern) bool {
		for _, tag := range tags(item) {
			if p.MatchString(tag) {
				return true
			}
		}
		return false
	}
}

// Matcher is implemented by item types that test themselves against a pattern.
type Matcher interface {
	MatchesPattern(p *Pattern) bool
}

// ByCapability builds a MatchFunc that defers to the item's Matcher method.
func ByCapability[T Matcher]() MatchFunc[T] {
	return func(item T, p *Pattern) bool {
		return item.MatchesPattern(p)
	}
}

// Sequence is an ordered list of patterns used only for ranking. The position
// of the first pattern an item matches is its rank.
type Sequence []*Pattern

// UnrankedRank is the rank of an item that matches no pattern of a Sequence.
const UnrankedRank = -1

// NewSequence compiles sources in order. An empty source list yields a nil
// Sequence, which leaves item order untouched.
func NewSequence(sources ...string) (Sequence, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	seq := make(Sequence, 0, len(sources))
	for _, source := range sources {
		p, err := Compile(source)
		if err != nil {
			return nil, err
		}
		seq = append(seq, p)
	}
	return seq, nil
}

// Sources returns the source text of every pattern in order.
func (s Sequence) Sources() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.String()
	}
	return out
}

// Rank returns the index of the first pattern in seq that item matches, or
// UnrankedRank.
func Rank[T any](seq Sequence, item T, match MatchFunc[T]) int {
	for i, p := range seq {
		if match(item, p) {
			return i
		}
	}
	return UnrankedRank
}
