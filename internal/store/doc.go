// Package store caches fetched issues in SQLite so the daemon can organize and
// serve the last good listing when GitHub is unreachable.
//
// Each repository keeps exactly one listing; ReplaceIssues swaps it atomically
// and LoadIssues returns it in fetch order. The database is a cache rather
// than an archive: schema changes bump schemaVersion in schema.go and users
// delete the database to adopt the new schema.
package store
