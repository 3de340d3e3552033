package manifest

// Family describes a batch of templates synced together.
type Family struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	// Destination is the directory, relative to the project root, that the
	// family's files are written under. "." means the project root.
	Destination string     `yaml:"destination" json:"destination"`
	Executable  bool       `yaml:"executable,omitempty" json:"executable,omitempty"`
	Variables   []Variable `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// Variable is a placeholder the family's templates reference.
type Variable struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Default     string `yaml:"default,omitempty" json:"default,omitempty"`
}

// Defaults returns the documented default of every declared variable.
func (f *Family) Defaults() map[string]string {
	out := make(map[string]string, len(f.Variables))
	for _, v := range f.Variables {
		out[v.Name] = v.Default
	}
	return out
}

// VariableNames returns the declared variable names in manifest order.
func (f *Family) VariableNames() []string {
	names := make([]string, len(f.Variables))
	for i, v := range f.Variables {
		names[i] = v.Name
	}
	return names
}
