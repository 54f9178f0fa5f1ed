// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships
// the matching client used by the CLI.
//
// Responses reuse the HTTP API DTOs from package api so both surfaces render
// the same bins, profiles and status.
package ipc
