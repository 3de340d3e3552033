package reconcile

import (
	"fmt"
	"io/fs"
	"strings"
)

// Decision is the caller's answer for a destination with local edits.
type Decision int

const (
	// DecisionSkip leaves the file and its ledger entry untouched.
	DecisionSkip Decision = iota
	// DecisionOverwrite discards the local edits.
	DecisionOverwrite
	// DecisionBackup copies the edited file to <path>.backup, then overwrites.
	DecisionBackup
)

// Decisions lists every decision in menu order.
var Decisions = []Decision{DecisionSkip, DecisionOverwrite, DecisionBackup}

func (d Decision) String() string {
	switch d {
	case DecisionSkip:
		return "skip"
	case DecisionOverwrite:
		return "overwrite"
	case DecisionBackup:
		return "backup"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// ParseDecision parses a decision name, case-insensitively.
func ParseDecision(s string) (Decision, error) {
	for _, d := range Decisions {
		if strings.EqualFold(strings.TrimSpace(s), d.String()) {
			return d, nil
		}
	}
	return DecisionSkip, fmt.Errorf("unknown decision %q: expected skip, overwrite or backup", s)
}

// Resolver decides what to do with a destination that has local edits.
type Resolver interface {
	Resolve(path string) (Decision, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(path string) (Decision, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(path string) (Decision, error) {
	return f(path)
}

// State is the classification of a destination before any action.
type State int

const (
	// StateAbsent: nothing exists at the destination.
	StateAbsent State = iota
	// StateExisting: the destination exists and no update was requested, so
	// its ledger state was not consulted.
	StateExisting
	// StatePresentUnsynced: the destination exists but was never tracked.
	StatePresentUnsynced
	// StateSyncedUnchanged: tracked, and the content matches the ledger.
	StateSyncedUnchanged
	// StateSyncedModified: tracked, and the content was edited since.
	StateSyncedModified
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateExisting:
		return "existing"
	case StatePresentUnsynced:
		return "untracked"
	case StateSyncedUnchanged:
		return "unchanged"
	case StateSyncedModified:
		return "modified"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Action is what the engine did with a destination.
type Action int

const (
	// ActionSynced: the template was rendered and written, and the ledger
	// entry refreshed.
	ActionSynced Action = iota
	// ActionSkipped: the destination and its ledger entry were left alone.
	ActionSkipped
)

func (a Action) String() string {
	if a == ActionSynced {
		return "synced"
	}
	return "skipped"
}

// Job is one family's worth of templates to sync.
type Job struct {
	Family string
	// Source holds the read-only templates; Templates are names within it.
	Source    fs.FS
	Templates []string
	// Destination maps a template name to a project-relative path.
	Destination func(name string) string
	Variables   map[string]string
	// Update allows existing destinations to be rewritten.
	Update bool
	// Executable marks written files 0755.
	Executable bool
}

// Outcome records what happened to one destination.
type Outcome struct {
	Path   string
	State  State
	Action Action
	// Backup is the backup file path when the file was backed up first.
	Backup string
}

// Result collects the outcomes of one Run.
type Result struct {
	Family   string
	Outcomes []Outcome
}

// Synced counts written files.
func (r *Result) Synced() int {
	return r.count(func(o Outcome) bool { return o.Action == ActionSynced })
}

// Skipped counts files left untouched.
func (r *Result) Skipped() int {
	return r.count(func(o Outcome) bool { return o.Action == ActionSkipped })
}

// BackedUp counts files that were backed up before being overwritten.
func (r *Result) BackedUp() int {
	return r.count(func(o Outcome) bool { return o.Backup != "" })
}

func (r *Result) count(match func(Outcome) bool) int {
	n := 0
	for _, o := range r.Outcomes {
		if match(o) {
			n++
		}
	}
	return n
}
