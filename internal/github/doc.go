// Package github fetches issues and their comments from the GitHub REST API.
//
// Client handles token authentication, client-side rate limiting with
// golang.org/x/time/rate, and Link-header pagination. Responses are remodeled
// into internal/issues types; pull requests returned by the issues endpoint are
// skipped. Errors are classified with the sentinels in errors.go and tagged
// with the services markers so the daemon can map them to HTTP statuses.
package github
