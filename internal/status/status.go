// Package status reports how the files recorded in a project's ledger
// compare with what is on disk and with the running toolkit version.
package status

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"

	"github.com/devkit-labs/devkit/internal/fingerprint"
	"github.com/devkit-labs/devkit/internal/ledger"
)

// State classifies one ledger entry.
type State string

const (
	StateOK       State = "ok"
	StateMissing  State = "missing"
	StateModified State = "modified"
	StateOutdated State = "outdated"
)

// Entry is the status of one tracked file.
type Entry struct {
	Path   string
	State  State
	Record ledger.Record
}

// Check reports every ledger entry of the project at root, sorted by path.
// A file that is both edited and outdated reports as modified.
func Check(fsys afero.Fs, root string, store *ledger.Store, currentVersion string) ([]Entry, error) {
	l := store.Read()

	paths := make([]string, 0, len(l.Synced))
	for p := range l.Synced {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		rec := l.Synced[p]
		e := Entry{Path: p, Record: rec, State: StateOK}

		data, err := afero.ReadFile(fsys, filepath.Join(root, filepath.FromSlash(p)))
		switch {
		case errors.Is(err, os.ErrNotExist):
			e.State = StateMissing
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", p, err)
		case fingerprint.Sum(data) != rec.Hash:
			e.State = StateModified
		case IsOlder(rec.ToolkitVersion, currentVersion):
			e.State = StateOutdated
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Counts tallies entries per state.
func Counts(entries []Entry) map[State]int {
	out := make(map[State]int)
	for _, e := range entries {
		out[e.State]++
	}
	return out
}

// IsOlder reports whether recorded is an older release than current.
// Versions that do not parse, such as "dev", are never older.
func IsOlder(recorded, current string) bool {
	rv, err := parseSemver(recorded)
	if err != nil {
		return false
	}
	cv, err := parseSemver(current)
	if err != nil {
		return false
	}
	return rv.LessThan(cv)
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}
