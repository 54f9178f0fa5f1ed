// Package preflight provides readiness checks for the filesystem paths and
// the GitHub API that issuegrid depends on.
//
// The CLI "issuegrid status" command and "issuegrid config validate" print
// these results; the daemon logs them once at startup.
package preflight
