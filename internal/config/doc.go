// Package config manages user-level settings stored at ~/.devkit/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the conflict decision used by non-interactive syncs and per-user defaults
// for template variables.
package config
