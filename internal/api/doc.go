// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates snapshot views and organize results into
// transport-friendly DTOs that the CLI and browser clients can render without
// coupling to internal types.
//
// # Key Types
//
// IssueSummary: transport representation of an issue with labels and author.
//
// BinNode: one vertex of an organized tree; groups carry Children, leaves
// carry Issues. The last child of every group is its overflow bin.
//
// ProfileSummary: profile header with freshness, source and counts.
//
// StatusResponse: daemon runtime information and per-profile summaries.
//
// # Converters
//
// FromIssue, FromNode, FromDiagnostics and FromProfileView convert internal
// values; BinsResponseFor and IssuesResponseFor assemble whole payloads.
// Flatten turns a BinNode tree into rows for tabular output.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript consumers. Timestamps use
// RFC3339 with milliseconds. Diagnostics reference issues by number rather
// than by position in the fetched listing.
package api
