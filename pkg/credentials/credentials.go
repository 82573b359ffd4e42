// Package credentials stores provider API keys in credentials.toml inside the
// folio state directory, so they need not live in config.toml or the shell
// environment.
package credentials

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/folio/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"
	currentVersion  = 0
)

// Manager reads and writes one credentials.toml.
type Manager struct {
	targetPath string
}

// NewManager resolves credentials.toml in override, or in the default state
// directory when override is empty.
func NewManager(override string) (*Manager, error) {
	path, err := dotdir.NewManager().Path(override, credentialsFile)
	if err != nil {
		return nil, err
	}
	return &Manager{targetPath: path}, nil
}

// Load parses the file. A missing file yields empty credentials.
func (m *Manager) Load() (*Credentials, error) {
	creds := &Credentials{Version: currentVersion}

	_, err := toml.DecodeFile(m.targetPath, creds)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	if creds.Providers == nil {
		creds.Providers = map[string]ProviderCredential{}
	}
	return creds, nil
}

// Save replaces the file with creds. The file is written with 0600
// permissions next to the target and renamed into place.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.targetPath), ".credentials-*.toml")
	if err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := toml.NewEncoder(tmp).Encode(creds); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.targetPath); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

func (m *Manager) update(fn func(*Credentials)) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}
	fn(creds)
	return m.Save(creds)
}

// SetKey stores key for provider, replacing any previous key.
func (m *Manager) SetKey(provider, key string) error {
	return m.update(func(c *Credentials) {
		c.Providers[provider] = ProviderCredential{APIKey: key}
	})
}

// RemoveKey forgets the key of provider. Removing an absent key succeeds.
func (m *Manager) RemoveKey(provider string) error {
	return m.update(func(c *Credentials) {
		delete(c.Providers, provider)
	})
}

// GetKey returns the stored key of provider, or "" when none is stored.
func (m *Manager) GetKey(provider string) (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}
	return creds.Providers[provider].APIKey, nil
}

// Resolve prefers the provider's environment variable over the stored key.
func (m *Manager) Resolve(provider string) (string, error) {
	if env := EnvVarForProvider(provider); env != "" {
		if key := os.Getenv(env); key != "" {
			return key, nil
		}
	}
	return m.GetKey(provider)
}

// ListProviders returns the providers with a stored key, sorted by name.
func (m *Manager) ListProviders() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(creds.Providers)), nil
}

// GetTarget returns the path of credentials.toml.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// EnvVarForProvider returns the environment variable that overrides the key
// of provider, or "" for unknown providers.
func EnvVarForProvider(name string) string {
	for _, p := range providers {
		if p.Name == name {
			return p.EnvVar
		}
	}
	return ""
}

// SupportedProviders returns the providers that take API keys.
func SupportedProviders() []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name
	}
	return names
}

// IsSupportedProvider reports whether name takes an API key.
func IsSupportedProvider(name string) bool {
	return EnvVarForProvider(name) != ""
}
