package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkit-labs/devkit/internal/fingerprint"
)

const root = "/project"

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestStore(t *testing.T) (afero.Fs, *Store) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(root, 0755))
	return fs, NewStore(fs, root, "1.4.0", WithClock(func() time.Time { return fixedNow }))
}

func writeFile(t *testing.T, fs afero.Fs, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

func TestReadMissingReturnsEmpty(t *testing.T) {
	_, s := newTestStore(t)

	l := s.Read()

	require.NotNil(t, l)
	assert.Equal(t, SchemaVersion, l.Version)
	assert.Empty(t, l.Synced)
	assert.Empty(t, l.Variables)
	assert.NotNil(t, l.Synced)
	assert.NotNil(t, l.Variables)
}

func TestReadCorruptReturnsEmpty(t *testing.T) {
	fs, s := newTestStore(t)
	writeFile(t, fs, ".devkit/sync.json", "not valid json{{{")

	l := s.Read()

	assert.Equal(t, SchemaVersion, l.Version)
	assert.Empty(t, l.Synced)

	// The fallback ledger must still be writable.
	require.NoError(t, s.Write(l))
	assert.Empty(t, s.Read().Synced)
}

func TestReadFillsNilMaps(t *testing.T) {
	fs, s := newTestStore(t)
	writeFile(t, fs, ".devkit/sync.json", `{"version": "1"}`)

	l := s.Read()

	assert.NotNil(t, l.Synced)
	assert.NotNil(t, l.Variables)
}

func TestWriteFormat(t *testing.T) {
	fs, s := newTestStore(t)
	l := New()
	l.Variables["MONOREPO_ROOT"] = "."

	require.NoError(t, s.Write(l))

	data, err := afero.ReadFile(fs, filepath.Join(root, ".devkit", "sync.json"))
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "{\n  \"version\": \"1\",\n"), "got %q", text)
	assert.Contains(t, text, "\n  \"synced\": {},\n")
	assert.Contains(t, text, "\"MONOREPO_ROOT\": \".\"")
	assert.True(t, strings.HasSuffix(text, "}\n"))
}

func TestTrackRecordsFingerprint(t *testing.T) {
	_, s := newTestStore(t)
	content := []byte("Root: .\n")

	require.NoError(t, s.Track(".claude/commands/review.md", content))

	rec, ok := s.Entry(".claude/commands/review.md")
	require.True(t, ok)
	assert.Equal(t, fingerprint.Sum(content), rec.Hash)
	assert.Equal(t, "1.4.0", rec.ToolkitVersion)
	assert.False(t, rec.Modified)
	assert.True(t, rec.SyncedAt.Equal(fixedNow))
}

func TestTrackReplacesEntry(t *testing.T) {
	_, s := newTestStore(t)

	require.NoError(t, s.Track("a.md", []byte("one")))
	require.NoError(t, s.Track("a.md", []byte("two")))
	require.NoError(t, s.Track("./b.md", []byte("three")))

	l := s.Read()
	assert.Len(t, l.Synced, 2)
	assert.Equal(t, fingerprint.String("two"), l.Synced["a.md"].Hash)
	assert.Contains(t, l.Synced, "b.md")
}

func TestTrackPreservesVariables(t *testing.T) {
	_, s := newTestStore(t)
	require.NoError(t, s.SaveVariables(map[string]string{"PACKAGE_MANAGER": "pnpm"}))

	require.NoError(t, s.Track("a.md", []byte("x")))

	assert.Equal(t, "pnpm", s.Read().Variables["PACKAGE_MANAGER"])
}

func TestIsModified(t *testing.T) {
	tests := []struct {
		name       string
		tracked    string // empty means no ledger entry
		onDisk     *string
		unreadable bool
		want       bool
	}{
		{"untracked", "", strPtr("anything"), false, false},
		{"tracked but missing", "written", nil, false, false},
		{"unchanged", "written", strPtr("written"), false, false},
		{"edited", "written", strPtr("written\nlocal edit\n"), false, true},
		{"emptied", "written", strPtr(""), false, true},
		{"edited but unreadable", "written", strPtr("local edit\n"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, s := newTestStore(t)
			if tt.unreadable {
				fs = unreadableFs{Fs: fs, path: filepath.Join(root, "file.txt")}
				s = NewStore(fs, root, "1.4.0", WithClock(func() time.Time { return fixedNow }))
			}
			if tt.tracked != "" {
				require.NoError(t, s.Track("file.txt", []byte(tt.tracked)))
			}
			if tt.onDisk != nil {
				writeFile(t, fs, "file.txt", *tt.onDisk)
			}

			assert.Equal(t, tt.want, s.IsModified("file.txt"))
		})
	}
}

// unreadableFs refuses to open one path for reading.
type unreadableFs struct {
	afero.Fs
	path string
}

func (f unreadableFs) Open(name string) (afero.File, error) {
	if name == f.path {
		return nil, os.ErrPermission
	}
	return f.Fs.Open(name)
}

func TestIsModifiedIgnoresStoredFlag(t *testing.T) {
	fs, s := newTestStore(t)
	writeFile(t, fs, "file.txt", "same")
	l := New()
	l.Synced["file.txt"] = Record{Hash: fingerprint.String("same"), Modified: true}
	require.NoError(t, s.Write(l))

	assert.False(t, s.IsModified("file.txt"))
}

func TestSaveVariablesMerges(t *testing.T) {
	_, s := newTestStore(t)

	require.NoError(t, s.SaveVariables(map[string]string{"A": "1", "B": "2"}))
	require.NoError(t, s.SaveVariables(map[string]string{"B": "3"}))

	assert.Equal(t, map[string]string{"A": "1", "B": "3"}, s.Variables())
}

func TestWriteReadRoundTripKeepsRecords(t *testing.T) {
	fs, s := newTestStore(t)
	require.NoError(t, s.Track("x/y.md", []byte("body")))

	data, err := afero.ReadFile(fs, s.Path())
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	synced := raw["synced"].(map[string]any)
	rec := synced["x/y.md"].(map[string]any)
	assert.Equal(t, "1.4.0", rec["toolkitVersion"])
	assert.Equal(t, false, rec["modified"])
	assert.Equal(t, "2026-03-14T09:26:53Z", rec["syncedAt"])
}

func TestWritePropagatesErrors(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	s := NewStore(fs, root, "1.0.0")

	err := s.Track("a.md", []byte("x"))

	require.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "a/b.md", Key("./a/b.md"))
	assert.Equal(t, "a/b.md", Key("a//b.md"))
	assert.Equal(t, "b.md", Key("a/../b.md"))
}

func strPtr(s string) *string { return &s }
