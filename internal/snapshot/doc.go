// Package snapshot builds and publishes the organized views the daemon serves.
//
// A Refresher fetches every configured repository once, falls back to the
// store's cached listing when a fetch fails, organizes each profile's issues
// with its compiled scope, and swaps the result into a Holder. Readers always
// see a complete Snapshot; refreshes never mutate a published one.
package snapshot
