package ledger

import (
	"path"
	"path/filepath"
	"time"
)

// SchemaVersion is the ledger format version written by this toolkit.
const SchemaVersion = "1"

const fileName = "sync.json"

// Record is the ledger entry for one managed destination file.
type Record struct {
	ToolkitVersion string `json:"toolkitVersion"`
	Hash           string `json:"hash"`
	// Modified is kept for on-disk compatibility only. It is always written
	// false; modification is recomputed from content.
	Modified bool      `json:"modified"`
	SyncedAt time.Time `json:"syncedAt"`
}

// Ledger is the persisted sync state of a project.
type Ledger struct {
	Version   string            `json:"version"`
	Synced    map[string]Record `json:"synced"`
	Variables map[string]string `json:"variables"`
}

// New returns an empty ledger at the current schema version.
func New() *Ledger {
	return &Ledger{
		Version:   SchemaVersion,
		Synced:    make(map[string]Record),
		Variables: make(map[string]string),
	}
}

// normalize fills in anything a parsed or caller-built ledger left nil.
func (l *Ledger) normalize() {
	if l.Version == "" {
		l.Version = SchemaVersion
	}
	if l.Synced == nil {
		l.Synced = make(map[string]Record)
	}
	if l.Variables == nil {
		l.Variables = make(map[string]string)
	}
}

// Key converts a project-relative path to the form used as a ledger key:
// cleaned and slash-separated.
func Key(rel string) string {
	return path.Clean(filepath.ToSlash(rel))
}
