// Package config persists deployment settings between runs.
//
// Settings are stored at $XDG_CONFIG_HOME/skiff/config.yaml (defaults to
// ~/.config/skiff/config.yaml). Values given interactively or by flag are
// saved back so the next run only has to ask for what changed. The access
// token is deliberately never persisted.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings holds everything a deployment run needs to know.
type Settings struct {
	RepoURL    string `yaml:"repo-url,omitempty"`
	Branch     string `yaml:"branch,omitempty"`
	Host       string `yaml:"host,omitempty"`
	User       string `yaml:"user,omitempty"`
	KeyPath    string `yaml:"key-path,omitempty"`
	SSHPort    int    `yaml:"ssh-port,omitempty"`
	AppPort    uint16 `yaml:"app-port,omitempty"`
	ServerName string `yaml:"server-name,omitempty"`
}

// Path returns the config file location. It respects XDG_CONFIG_HOME,
// falling back to ~/.config/skiff/config.yaml.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "skiff", "config.yaml")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "skiff", "config.yaml")
}

// Load reads the config file. If the file does not exist, empty Settings
// are returned (not an error).
func Load() (*Settings, error) {
	data, err := os.ReadFile(Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &s, nil
}

// Save writes the settings to disk, creating directories as needed.
func (s *Settings) Save() error {
	p := Path()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
