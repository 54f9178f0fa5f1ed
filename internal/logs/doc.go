// Package logs reads the daemon's log file for `issuegrid logs`.
//
// Last returns the final lines of a file with bounded memory. Follow streams
// lines appended afterwards, waking on fsnotify events with a polling
// fallback, and starts over when the file is truncated or replaced by a new
// run log.
package logs
