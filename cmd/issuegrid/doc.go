// Package main hosts the issuegrid CLI entrypoint and command graph.
//
// One-shot commands (organize, export) fetch issues and organize them in
// process. Daemon commands (status, bins, refresh, reload, stop) talk to a
// running daemon over its IPC socket. Configuration resolution and socket
// discovery live in commandContext so subcommands can focus on output.
package main
