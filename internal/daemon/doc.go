// Package daemon coordinates the long-running issuegrid process.
//
// It wires configuration, the issue cache, the refresher and the HTTP API into
// a single lifecycle with flock-based locking to prevent multiple instances.
// The daemon refreshes snapshots on a fixed interval or on demand, and when
// refresh.watch_config is set it watches the config file (and any organize
// files it references) with fsnotify, re-organizing the cached issues when
// they change.
//
// Keep orchestration logic here: fetching lives in internal/github,
// organizing in internal/organize and snapshot assembly in internal/snapshot.
package daemon
