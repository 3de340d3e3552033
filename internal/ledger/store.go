package ledger

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/devkit-labs/devkit/internal/branding"
	"github.com/devkit-labs/devkit/internal/fingerprint"
)

// Store reads and writes the ledger of one project.
type Store struct {
	fs      afero.Fs
	root    string
	version string
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for sync timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used for recovered read failures.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore returns a Store for the project rooted at root. toolkitVersion is
// stamped on every record written through Track.
func NewStore(fsys afero.Fs, root, toolkitVersion string, opts ...Option) *Store {
	s := &Store{
		fs:      fsys,
		root:    root,
		version: toolkitVersion,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the ledger file location for a project root.
func Path(root string) string {
	return filepath.Join(root, branding.ProjectDir(), fileName)
}

// Path returns the ledger file location of this store.
func (s *Store) Path() string {
	return Path(s.root)
}

// Root returns the project root the store was created for.
func (s *Store) Root() string {
	return s.root
}

// Read loads the ledger. A missing or unparsable file yields an empty ledger.
func (s *Store) Read() *Ledger {
	data, err := afero.ReadFile(s.fs, s.Path())
	if err != nil {
		s.logger.Debug().Err(err).Str("path", s.Path()).Msg("No readable ledger, starting empty")
		return New()
	}

	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		s.logger.Warn().Err(err).Str("path", s.Path()).Msg("Ledger is corrupt, starting empty")
		return New()
	}
	l.normalize()
	return &l
}

// Write replaces the persisted ledger with l.
func (s *Store) Write(l *Ledger) error {
	l.normalize()

	path := s.Path()
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ledger: %w", err)
	}
	data = append(data, '\n')

	if err := afero.WriteFile(s.fs, path, data, 0644); err != nil {
		return fmt.Errorf("writing ledger %s: %w", path, err)
	}
	return nil
}

// Track records content as the current synced state of the file at rel.
// Any previous record for rel is replaced.
func (s *Store) Track(rel string, content []byte) error {
	l := s.Read()
	key := Key(rel)
	l.Synced[key] = Record{
		ToolkitVersion: s.version,
		Hash:           fingerprint.Sum(content),
		Modified:       false,
		SyncedAt:       s.now().UTC(),
	}
	s.logger.Debug().Str("path", key).Msg("Tracked file")
	return s.Write(l)
}

// Entry returns the record for rel, if any.
func (s *Store) Entry(rel string) (Record, bool) {
	r, ok := s.Read().Synced[Key(rel)]
	return r, ok
}

// IsModified reports whether the file at rel differs from its recorded
// fingerprint. Untracked, missing and unreadable files are not modified.
func (s *Store) IsModified(rel string) bool {
	rec, ok := s.Entry(rel)
	if !ok {
		return false
	}

	data, err := afero.ReadFile(s.fs, s.abs(rel))
	if err != nil {
		return false
	}
	return fingerprint.Sum(data) != rec.Hash
}

// SaveVariables merges vars into the ledger's variable set and writes it.
func (s *Store) SaveVariables(vars map[string]string) error {
	l := s.Read()
	for k, v := range vars {
		l.Variables[k] = v
	}
	return s.Write(l)
}

// Variables returns a copy of the persisted variable set.
func (s *Store) Variables() map[string]string {
	vars := s.Read().Variables
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}

func (s *Store) abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(Key(rel)))
}
