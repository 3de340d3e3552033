// Package project reads and writes .devkit/project.yaml, the per-project
// record of which template families are installed and how updates treat
// files devkit never wrote.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/devkit-labs/devkit/internal/branding"
)

const projectFile = "project.yaml"

// ErrNotInitialized is returned by Load when project.yaml does not exist.
var ErrNotInitialized = errors.New("project not initialized")

// Config represents the .devkit/project.yaml structure.
type Config struct {
	Families []string `yaml:"families"`
	// ProtectUntracked asks before overwriting an existing file that devkit
	// never wrote. Unset means true.
	ProtectUntracked *bool `yaml:"protectUntracked,omitempty"`
}

// Protects reports the effective ProtectUntracked setting.
func (c *Config) Protects() bool {
	return c.ProtectUntracked == nil || *c.ProtectUntracked
}

// HasFamily reports whether name is installed.
func (c *Config) HasFamily(name string) bool {
	for _, f := range c.Families {
		if f == name {
			return true
		}
	}
	return false
}

// AddFamily records name as installed. It reports whether the list changed.
func (c *Config) AddFamily(name string) bool {
	if c.HasFamily(name) {
		return false
	}
	c.Families = append(c.Families, name)
	return true
}

// Path returns the full path to .devkit/project.yaml for a project.
func Path(root string) string {
	return filepath.Join(root, branding.ProjectDir(), projectFile)
}

// Load reads and parses project.yaml from the given project directory.
func Load(fsys afero.Fs, root string) (*Config, error) {
	path := Path(root)
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist (run `%s init`)", ErrNotInitialized, path, branding.CLIName())
	}
	if err != nil {
		return nil, fmt.Errorf("reading project config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing project config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the project config to .devkit/project.yaml.
func Save(fsys afero.Fs, root string, cfg *Config) error {
	path := Path(root)
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s directory: %w", branding.ProjectDir(), err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling project config: %w", err)
	}

	if err := afero.WriteFile(fsys, path, data, 0644); err != nil {
		return fmt.Errorf("writing project config: %w", err)
	}
	return nil
}

// Init creates project.yaml listing families. It fails if the project is
// already initialized.
func Init(fsys afero.Fs, root string, families []string) (*Config, error) {
	path := Path(root)
	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	if exists {
		return nil, fmt.Errorf("project already initialized: %s exists", path)
	}

	cfg := &Config{Families: families}
	if err := Save(fsys, root, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
