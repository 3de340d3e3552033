package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/devkit-labs/devkit/internal/manifest"
)

const (
	familiesDir  = "families"
	manifestName = "family.yaml"
	filesDir     = "files"
	// tmplSuffix is stripped from destination names. It lets a template
	// carry a name that tools would otherwise pick up from the source tree.
	tmplSuffix = ".tmpl"
)

//go:embed all:families
var embedded embed.FS

// ErrUnknownFamily is returned by Get for a name with no bundled family.
var ErrUnknownFamily = errors.New("unknown family")

// Family is a bundled template family.
type Family struct {
	manifest.Family
	files fs.FS
}

// Catalog is a set of families read from one template tree.
type Catalog struct {
	root fs.FS
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	sub, err := fs.Sub(embedded, familiesDir)
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return New(sub)
}

// New returns a catalog over root, which holds one directory per family.
func New(root fs.FS) *Catalog {
	return &Catalog{root: root}
}

// List loads every family, sorted by name.
func (c *Catalog) List() ([]*Family, error) {
	entries, err := fs.ReadDir(c.root, ".")
	if err != nil {
		return nil, fmt.Errorf("reading families: %w", err)
	}

	var families []*Family
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		f, err := c.load(entry.Name())
		if err != nil {
			return nil, err
		}
		families = append(families, f)
	}

	sort.Slice(families, func(i, j int) bool {
		return families[i].Name < families[j].Name
	})
	return families, nil
}

// Names returns the sorted family names.
func (c *Catalog) Names() ([]string, error) {
	families, err := c.List()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(families))
	for i, f := range families {
		names[i] = f.Name
	}
	return names, nil
}

// Get loads the named family.
func (c *Catalog) Get(name string) (*Family, error) {
	if !fs.ValidPath(name) || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}
	if _, err := fs.Stat(c.root, path.Join(name, manifestName)); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}
	return c.load(name)
}

func (c *Catalog) load(dir string) (*Family, error) {
	m, err := manifest.ParseFile(c.root, path.Join(dir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("loading family %s: %w", dir, err)
	}
	if m.Name != dir {
		return nil, fmt.Errorf("loading family %s: manifest name %q does not match its directory", dir, m.Name)
	}
	if dest := path.Clean(m.Destination); dest != "." && !filepath.IsLocal(filepath.FromSlash(dest)) {
		return nil, fmt.Errorf("loading family %s: destination %q leaves the project", dir, m.Destination)
	}

	files, err := fs.Sub(c.root, path.Join(dir, filesDir))
	if err != nil {
		return nil, fmt.Errorf("loading family %s: %w", dir, err)
	}
	return &Family{Family: *m, files: files}, nil
}

// Files returns the family's read-only template tree.
func (f *Family) Files() fs.FS {
	return f.files
}

// Templates returns the slash-separated template names in the family's
// tree, sorted.
func (f *Family) Templates() ([]string, error) {
	var names []string
	err := fs.WalkDir(f.files, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing templates of %s: %w", f.Name, err)
	}
	sort.Strings(names)
	return names, nil
}

// Target maps a template name to its project-relative, slash-separated
// destination path.
func (f *Family) Target(name string) string {
	return path.Join(f.Destination, strings.TrimSuffix(name, tmplSuffix))
}

// Read returns the raw body of a template.
func (f *Family) Read(name string) (string, error) {
	data, err := fs.ReadFile(f.files, name)
	if err != nil {
		return "", fmt.Errorf("reading template %s/%s: %w", f.Name, name, err)
	}
	return string(data), nil
}
