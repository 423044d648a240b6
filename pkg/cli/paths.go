package cli

import (
	"os"
	"path/filepath"
)

const (
	// DefaultBaseDir is the directory under $HOME holding all local state.
	DefaultBaseDir = ".mediaforge"
	// DefaultConfigFile is the context file name.
	DefaultConfigFile = "config.yaml"
)

// Paths locates the local state directories.
type Paths struct {
	HomeDir string
}

// NewPaths resolves the current user's home.
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir is ~/.mediaforge.
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile is ~/.mediaforge/config.yaml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// WorkspaceDir is the default badger directory of local projects.
func (p *Paths) WorkspaceDir() string {
	return filepath.Join(p.BaseDir(), "workspace")
}

// ExportDir is the default artifact directory.
func (p *Paths) ExportDir() string {
	return filepath.Join(p.BaseDir(), "exports")
}
