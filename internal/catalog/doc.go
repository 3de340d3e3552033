// Package catalog exposes the template families bundled into the binary.
// Each family lives under families/<name>/ as a family.yaml manifest and a
// files/ tree; the tree is read-only and rendered into projects by the
// reconcile engine.
package catalog
