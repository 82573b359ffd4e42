// Package dotdir resolves the folio state directory, which holds config.toml,
// credentials.toml and the default SQLite databases.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".folio"

	// HomeEnv names a state directory that takes precedence over ./.folio
	// and ~/.folio.
	HomeEnv = "FOLIO_HOME"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute state directory, creating it when missing.
// The first of these wins:
//  1. overrideDir (the --config-dir flag)
//  2. $FOLIO_HOME
//  3. ./.folio when it already exists
//  4. ~/.folio
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating folio directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, dirName)
		if info, err := os.Stat(local); err == nil && info.IsDir() {
			return local, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Path returns the absolute path of name inside the state directory.
func (m *Manager) Path(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
