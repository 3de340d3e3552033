package reconcile

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"testing"
	"testing/fstest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkit-labs/devkit/internal/fingerprint"
	"github.com/devkit-labs/devkit/internal/ledger"
)

const root = "/project"

var templates = fstest.MapFS{
	"review.md": {Data: []byte("Root: {{MONOREPO_ROOT}}\nRun {{TEST_COMMAND}}\n")},
	"commit.md": {Data: []byte("Lint with {{LINT_COMMAND}}\n")},
}

var vars = map[string]string{
	"MONOREPO_ROOT": ".",
	"TEST_COMMAND":  "pnpm test",
}

const renderedReview = "Root: .\nRun pnpm test\n"

type fixture struct {
	fs    afero.Fs
	store *ledger.Store
	calls []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(root, 0755))
	return &fixture{fs: fs, store: ledger.NewStore(fs, root, "2.0.0")}
}

func (f *fixture) engine(d Decision, opts ...Option) *Engine {
	resolver := ResolverFunc(func(p string) (Decision, error) {
		f.calls = append(f.calls, p)
		return d, nil
	})
	return New(f.fs, f.store, resolver, opts...)
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := afero.ReadFile(f.fs, filepath.Join(root, rel))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, afero.WriteFile(f.fs, p, []byte(content), 0644))
}

func (f *fixture) exists(t *testing.T, rel string) bool {
	t.Helper()
	ok, err := afero.Exists(f.fs, filepath.Join(root, rel))
	require.NoError(t, err)
	return ok
}

func job(update bool, names ...string) Job {
	if len(names) == 0 {
		names = []string{"review.md"}
	}
	return Job{
		Family:      "claude",
		Source:      templates,
		Templates:   names,
		Destination: func(name string) string { return path.Join(".claude/commands", name) },
		Variables:   vars,
		Update:      update,
	}
}

const dest = ".claude/commands/review.md"

func TestFirstSync(t *testing.T) {
	f := newFixture(t)

	result, err := f.engine(DecisionSkip).Run(job(false))
	require.NoError(t, err)

	assert.Equal(t, renderedReview, f.read(t, dest))
	l := f.store.Read()
	require.Len(t, l.Synced, 1)
	assert.Equal(t, fingerprint.String(renderedReview), l.Synced[dest].Hash)
	assert.Equal(t, "2.0.0", l.Synced[dest].ToolkitVersion)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, Outcome{Path: dest, State: StateAbsent, Action: ActionSynced}, result.Outcomes[0])
	assert.Equal(t, 1, result.Synced())
	assert.Empty(t, f.calls)
}

func TestExistingWithoutUpdateIsSkipped(t *testing.T) {
	for _, tracked := range []bool{false, true} {
		f := newFixture(t)
		f.write(t, dest, "hand written\n")
		if tracked {
			require.NoError(t, f.store.Track(dest, []byte("something else")))
		}
		before := f.store.Read().Synced

		result, err := f.engine(DecisionOverwrite).Run(job(false))
		require.NoError(t, err)

		assert.Equal(t, "hand written\n", f.read(t, dest))
		assert.Equal(t, before, f.store.Read().Synced, "tracked=%v", tracked)
		assert.Equal(t, StateExisting, result.Outcomes[0].State)
		assert.Equal(t, 1, result.Skipped())
		assert.Empty(t, f.calls)
	}
}

func TestUpdateUnchangedRefreshesWithoutPrompt(t *testing.T) {
	f := newFixture(t)
	f.write(t, dest, "old template\n")
	require.NoError(t, f.store.Track(dest, []byte("old template\n")))

	result, err := f.engine(DecisionSkip).Run(job(true))
	require.NoError(t, err)

	assert.Equal(t, renderedReview, f.read(t, dest))
	assert.Equal(t, fingerprint.String(renderedReview), f.store.Read().Synced[dest].Hash)
	assert.Equal(t, StateSyncedUnchanged, result.Outcomes[0].State)
	assert.Empty(t, f.calls)
}

func TestUpdateUntrackedOverwritesSilently(t *testing.T) {
	f := newFixture(t)
	f.write(t, dest, "never tracked\n")

	result, err := f.engine(DecisionSkip).Run(job(true))
	require.NoError(t, err)

	assert.Equal(t, renderedReview, f.read(t, dest))
	assert.Equal(t, StatePresentUnsynced, result.Outcomes[0].State)
	assert.Equal(t, ActionSynced, result.Outcomes[0].Action)
	assert.Empty(t, f.calls)
}

func TestUpdateUntrackedProtected(t *testing.T) {
	f := newFixture(t)
	f.write(t, dest, "never tracked\n")

	result, err := f.engine(DecisionSkip, WithProtectUntracked(true)).Run(job(true))
	require.NoError(t, err)

	assert.Equal(t, "never tracked\n", f.read(t, dest))
	assert.Equal(t, []string{dest}, f.calls)
	assert.Equal(t, ActionSkipped, result.Outcomes[0].Action)
	_, tracked := f.store.Entry(dest)
	assert.False(t, tracked)
}

func setupModified(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.write(t, dest, "synced content\n")
	require.NoError(t, f.store.Track(dest, []byte("synced content\n")))
	f.write(t, dest, "synced content\nmy local edit\n")
	return f
}

func TestModifiedThenOverwrite(t *testing.T) {
	f := setupModified(t)

	result, err := f.engine(DecisionOverwrite).Run(job(true))
	require.NoError(t, err)

	assert.Equal(t, renderedReview, f.read(t, dest))
	assert.False(t, f.exists(t, dest+BackupSuffix))
	assert.Equal(t, fingerprint.String(renderedReview), f.store.Read().Synced[dest].Hash)
	assert.Equal(t, []string{dest}, f.calls)
	assert.Equal(t, StateSyncedModified, result.Outcomes[0].State)
	assert.Equal(t, 0, result.BackedUp())
}

func TestModifiedThenBackup(t *testing.T) {
	f := setupModified(t)

	result, err := f.engine(DecisionBackup).Run(job(true))
	require.NoError(t, err)

	assert.Equal(t, "synced content\nmy local edit\n", f.read(t, dest+BackupSuffix))
	assert.Equal(t, renderedReview, f.read(t, dest))
	assert.Equal(t, fingerprint.String(renderedReview), f.store.Read().Synced[dest].Hash)
	assert.Equal(t, dest+BackupSuffix, result.Outcomes[0].Backup)
	assert.Equal(t, 1, result.BackedUp())
	assert.Equal(t, 1, result.Synced())
}

func TestBackupOverwritesPreviousBackup(t *testing.T) {
	f := setupModified(t)
	f.write(t, dest+BackupSuffix, "ancient backup\n")

	_, err := f.engine(DecisionBackup).Run(job(true))
	require.NoError(t, err)

	assert.Equal(t, "synced content\nmy local edit\n", f.read(t, dest+BackupSuffix))
}

func TestModifiedThenSkip(t *testing.T) {
	f := setupModified(t)
	before := f.store.Read().Synced[dest]

	result, err := f.engine(DecisionSkip).Run(job(true))
	require.NoError(t, err)

	assert.Equal(t, "synced content\nmy local edit\n", f.read(t, dest))
	assert.Equal(t, before, f.store.Read().Synced[dest])
	assert.False(t, f.exists(t, dest+BackupSuffix))
	assert.Equal(t, ActionSkipped, result.Outcomes[0].Action)
}

func TestModifiedWithoutResolver(t *testing.T) {
	f := setupModified(t)

	_, err := New(f.fs, f.store, nil).Run(job(true))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoResolver))
	assert.Contains(t, err.Error(), dest)
}

func TestResolverErrorHalts(t *testing.T) {
	f := setupModified(t)
	boom := errors.New("input closed")
	e := New(f.fs, f.store, ResolverFunc(func(string) (Decision, error) { return DecisionSkip, boom }))

	_, err := e.Run(job(true))

	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestVariablesPersistedEvenWhenNothingChanges(t *testing.T) {
	f := newFixture(t)
	f.write(t, dest, "kept\n")

	_, err := f.engine(DecisionSkip).Run(job(false))
	require.NoError(t, err)

	assert.Equal(t, vars, f.store.Variables())
}

func TestRerunIsIdempotent(t *testing.T) {
	f := newFixture(t)
	e := f.engine(DecisionSkip)

	_, err := e.Run(job(true, "review.md", "commit.md"))
	require.NoError(t, err)
	first := f.store.Read().Synced

	result, err := e.Run(job(true, "review.md", "commit.md"))
	require.NoError(t, err)

	second := f.store.Read().Synced
	for p, rec := range first {
		assert.Equal(t, rec.Hash, second[p].Hash)
	}
	assert.Equal(t, 2, result.Synced())
	assert.Empty(t, f.calls)
}

func TestUnresolvedPlaceholdersStayVerbatim(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine(DecisionSkip).Run(job(false, "commit.md"))
	require.NoError(t, err)

	assert.Equal(t, "Lint with {{LINT_COMMAND}}\n", f.read(t, ".claude/commands/commit.md"))
}

func TestExecutableTemplates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no permission bits on windows")
	}
	f := newFixture(t)
	j := job(false)
	j.Executable = true

	_, err := f.engine(DecisionSkip).Run(j)
	require.NoError(t, err)

	info, err := f.fs.Stat(filepath.Join(root, dest))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

// failingFs fails every write to one path.
type failingFs struct {
	afero.Fs
	path string
}

func (f failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if name == f.path && flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		return nil, os.ErrPermission
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func TestWriteFailureHaltsFamilyWithoutRollback(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll(root, 0755))
	fs := failingFs{Fs: mem, path: filepath.Join(root, ".claude/commands/commit.md")}
	store := ledger.NewStore(fs, root, "2.0.0")
	e := New(fs, store, nil)

	result, err := e.Run(job(false, "review.md", "commit.md", "later.md"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.Contains(t, err.Error(), ".claude/commands/commit.md")

	// The first file stays synced and tracked.
	require.Len(t, result.Outcomes, 1)
	l := store.Read()
	assert.Contains(t, l.Synced, dest)
	assert.NotContains(t, l.Synced, ".claude/commands/commit.md")
	// Processing stopped before the variables were saved.
	assert.Empty(t, l.Variables)
}

func TestParseDecision(t *testing.T) {
	for _, d := range Decisions {
		got, err := ParseDecision(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}

	got, err := ParseDecision(" Backup ")
	require.NoError(t, err)
	assert.Equal(t, DecisionBackup, got)

	_, err = ParseDecision("merge")
	assert.Error(t, err)
}
