package github

import (
	"fmt"
	"strconv"
	"strings"

	"issuegrid/internal/services"
)

// Repo names a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepo parses "owner/repo".
func ParseRepo(value string) (Repo, error) {
	value = strings.TrimSpace(value)
	owner, name, ok := strings.Cut(value, "/")
	if !ok || !validSegment(owner) || !validSegment(name) {
		return Repo{}, services.Wrap(services.ErrValidation, "github", "parse repo",
			fmt.Sprintf("%q is not owner/repo", value), nil)
	}
	return Repo{Owner: owner, Name: name}, nil
}

// Query selects a whole repository or, when Number is positive, one issue.
type Query struct {
	Repo   Repo
	Number int
}

// ParseQuery parses "owner/repo" or "owner/repo#number".
func ParseQuery(value string) (Query, error) {
	repoPart, numberPart, hasNumber := strings.Cut(strings.TrimSpace(value), "#")
	repo, err := ParseRepo(repoPart)
	if err != nil {
		return Query{}, err
	}
	if !hasNumber {
		return Query{Repo: repo}, nil
	}
	number, err := strconv.Atoi(numberPart)
	if err != nil || number <= 0 {
		return Query{}, services.Wrap(services.ErrValidation, "github", "parse query",
			fmt.Sprintf("%q is not a valid issue number", numberPart), nil)
	}
	return Query{Repo: repo, Number: number}, nil
}

func (q Query) String() string {
	if q.Number > 0 {
		return q.Repo.String() + "#" + strconv.Itoa(q.Number)
	}
	return q.Repo.String()
}

func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
