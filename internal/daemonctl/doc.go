// Package daemonctl launches, stops and inspects the issuegrid daemon
// process on behalf of the CLI.
package daemonctl
