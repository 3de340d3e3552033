package manifest

import (
	"fmt"
	"io/fs"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Parse validates data against the family schema and decodes it. source
// names the manifest in error messages.
func Parse(data []byte, source string) (*Family, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating manifest %s: %w", source, err)
	}
	if !result.Valid {
		return nil, &InvalidError{Source: source, Issues: result.Issues}
	}

	var f Family
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", source, err)
	}
	return &f, nil
}

// ParseFile reads and parses the manifest at path within fsys.
func ParseFile(fsys fs.FS, path string) (*Family, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return Parse(data, path)
}

// InvalidError reports a manifest that failed schema validation.
type InvalidError struct {
	Source string
	Issues []ValidationIssue
}

func (e *InvalidError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Message
		if issue.Path != "" {
			msgs[i] = issue.Path + ": " + issue.Message
		}
	}
	return fmt.Sprintf("invalid manifest %s: %s", e.Source, strings.Join(msgs, "; "))
}
