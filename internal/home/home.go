package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the archivist home directory.
	DefaultDirName = ".archivist"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// CallsDBName is the oracle call store.
	CallsDBName = "calls.db"

	// DumpsDirName holds per-call text dumps when no dump_dir is configured.
	DumpsDirName = "dumps"

	// PromptsDirName is where `prompts export` writes editable templates.
	PromptsDirName = "prompts"
)

// Dir represents the archivist home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.archivist).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// CallsDBPath returns the path to the oracle call store.
func (d *Dir) CallsDBPath() string {
	return filepath.Join(d.path, CallsDBName)
}

// DumpsPath returns the default directory for call dumps.
func (d *Dir) DumpsPath() string {
	return filepath.Join(d.path, DumpsDirName)
}

// PromptsPath returns the directory prompt templates are exported to.
func (d *Dir) PromptsPath() string {
	return filepath.Join(d.path, PromptsDirName)
}

// EnsureExists creates the home directory if it doesn't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
