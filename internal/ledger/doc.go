// Package ledger persists the record of every file devkit has written into a
// project: its fingerprint, the toolkit version that wrote it and when. The
// ledger is the source of truth for "is this file still as we left it".
//
// The ledger is always read and written whole. A missing or corrupt ledger
// file reads back as an empty ledger, never as an error.
package ledger
