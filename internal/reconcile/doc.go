// Package reconcile syncs a family of templates into a project.
//
// For every template the engine classifies the destination against the
// ledger and the file on disk, then writes, skips, or asks a Resolver how to
// handle local edits. Each file's write and ledger update is its own unit:
// a failure stops the family but leaves already-synced files tracked.
package reconcile
