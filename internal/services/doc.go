// Package services defines shared utilities consumed by the refresh pipeline,
// the HTTP API and the GitHub integration.
//
// Key responsibilities:
//   - Context helpers that stamp profile names, repositories, refresh IDs and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures so
//     HTTP handlers can map them to consistent status codes.
//
// Use these helpers when wiring new components so operational behaviour (error
// handling, observability) stays uniform across the daemon.
package services
