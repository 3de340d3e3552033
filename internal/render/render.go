// Package render substitutes {{NAME}} placeholders in template text.
//
// Only bare word characters are allowed between the braces; there is no
// escaping and no whitespace tolerance. A placeholder with no matching
// variable is left in the output verbatim.
package render

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
)

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Renderer renders templates against a fixed variable set.
type Renderer struct {
	vars map[string]string
}

// New returns a Renderer for vars. The map is copied.
func New(vars map[string]string) *Renderer {
	r := &Renderer{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		r.vars[k] = v
	}
	return r
}

// Render replaces every known placeholder in text.
func (r *Renderer) Render(text string) string {
	return placeholder.ReplaceAllStringFunc(text, func(token string) string {
		name := token[2 : len(token)-2]
		if v, ok := r.vars[name]; ok {
			return v
		}
		return token
	})
}

// RenderFile renders srcPath from the read-only template tree src and writes
// the result to dstPath, creating its parent directory.
func (r *Renderer) RenderFile(src fs.FS, srcPath string, dst afero.Fs, dstPath string) error {
	data, err := fs.ReadFile(src, srcPath)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", srcPath, err)
	}

	if err := dst.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dstPath, err)
	}

	if err := afero.WriteFile(dst, dstPath, []byte(r.Render(string(data))), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", dstPath, err)
	}
	return nil
}

// Unresolved returns the placeholders in text that have no variable.
func (r *Renderer) Unresolved(text string) []string {
	var missing []string
	for _, name := range Placeholders(text) {
		if _, ok := r.vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Placeholders returns the distinct placeholder names in text, in order of
// first appearance.
func Placeholders(text string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
