package reconcile

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/devkit-labs/devkit/internal/ledger"
	"github.com/devkit-labs/devkit/internal/platform"
	"github.com/devkit-labs/devkit/internal/render"
)

// BackupSuffix is appended to a destination path to name its backup.
const BackupSuffix = ".backup"

// ErrNoResolver is returned when a file needs a decision and the engine has
// no Resolver.
var ErrNoResolver = errors.New("no resolver configured for conflicting file")

// Engine reconciles template families against a project.
type Engine struct {
	fs               afero.Fs
	root             string
	ledger           *ledger.Store
	resolver         Resolver
	logger           zerolog.Logger
	protectUntracked bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithProtectUntracked makes an existing but untracked destination go
// through the Resolver on update instead of being overwritten silently.
func WithProtectUntracked(protect bool) Option {
	return func(e *Engine) {
		e.protectUntracked = protect
	}
}

// New returns an Engine writing into the project of store.
func New(fsys afero.Fs, store *ledger.Store, resolver Resolver, opts ...Option) *Engine {
	e := &Engine{
		fs:       fsys,
		root:     store.Root(),
		ledger:   store,
		resolver: resolver,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run syncs every template of job in order. It stops at the first error and
// returns the outcomes gathered so far alongside it. The job's variables are
// saved to the ledger once every template has been processed.
func (e *Engine) Run(job Job) (*Result, error) {
	r := render.New(job.Variables)
	result := &Result{Family: job.Family}

	for _, name := range job.Templates {
		rel := ledger.Key(job.Destination(name))
		outcome, err := e.reconcile(r, job, name, rel)
		if err != nil {
			return result, fmt.Errorf("syncing %s: %w", rel, err)
		}
		e.logger.Debug().
			Str("family", job.Family).
			Str("path", rel).
			Stringer("state", outcome.State).
			Stringer("action", outcome.Action).
			Msg("Reconciled file")
		result.Outcomes = append(result.Outcomes, outcome)
	}

	if err := e.ledger.SaveVariables(job.Variables); err != nil {
		return result, fmt.Errorf("saving variables for %s: %w", job.Family, err)
	}
	return result, nil
}

func (e *Engine) reconcile(r *render.Renderer, job Job, name, rel string) (Outcome, error) {
	abs := filepath.Join(e.root, filepath.FromSlash(rel))
	outcome := Outcome{Path: rel}

	exists, err := afero.Exists(e.fs, abs)
	if err != nil {
		return outcome, fmt.Errorf("checking destination: %w", err)
	}
	if !exists {
		outcome.State = StateAbsent
		return outcome, e.write(r, job, name, rel, abs)
	}

	if !job.Update {
		outcome.State = StateExisting
		outcome.Action = ActionSkipped
		return outcome, nil
	}

	_, tracked := e.ledger.Entry(rel)
	switch {
	case !tracked:
		outcome.State = StatePresentUnsynced
	case e.ledger.IsModified(rel):
		outcome.State = StateSyncedModified
	default:
		outcome.State = StateSyncedUnchanged
	}

	conflict := outcome.State == StateSyncedModified ||
		(outcome.State == StatePresentUnsynced && e.protectUntracked)
	if !conflict {
		return outcome, e.write(r, job, name, rel, abs)
	}

	if e.resolver == nil {
		return outcome, ErrNoResolver
	}
	decision, err := e.resolver.Resolve(rel)
	if err != nil {
		return outcome, fmt.Errorf("resolving conflict: %w", err)
	}
	e.logger.Info().Str("path", rel).Stringer("decision", decision).Msg("Resolved conflict")

	switch decision {
	case DecisionSkip:
		outcome.Action = ActionSkipped
		return outcome, nil
	case DecisionBackup:
		backup := abs + BackupSuffix
		if err := platform.CopyFile(e.fs, abs, backup); err != nil {
			return outcome, fmt.Errorf("backing up to %s: %w", backup, err)
		}
		outcome.Backup = rel + BackupSuffix
		return outcome, e.write(r, job, name, rel, abs)
	case DecisionOverwrite:
		return outcome, e.write(r, job, name, rel, abs)
	default:
		return outcome, fmt.Errorf("unknown decision %v", decision)
	}
}

// write renders the template to abs and tracks what actually landed on disk.
func (e *Engine) write(r *render.Renderer, job Job, name, rel, abs string) error {
	if err := r.RenderFile(job.Source, name, e.fs, abs); err != nil {
		return err
	}
	if job.Executable {
		if err := platform.Chmod(e.fs, abs, platform.ExecutableMode); err != nil {
			return fmt.Errorf("making %s executable: %w", abs, err)
		}
	}

	written, err := afero.ReadFile(e.fs, abs)
	if err != nil {
		return fmt.Errorf("re-reading %s: %w", abs, err)
	}
	if err := e.ledger.Track(rel, written); err != nil {
		return fmt.Errorf("tracking: %w", err)
	}
	return nil
}
