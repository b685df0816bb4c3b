// Package config loads persistent daemon configuration.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds daemon configuration loaded from ~/.identra/config.yaml.
// Every field is optional; the zero value means built-in defaults.
type Config struct {
	// SocketPath overrides the IPC endpoint location on POSIX systems.
	// The Windows named pipe name is fixed.
	SocketPath string `yaml:"socket_path"`

	// AuditLog is the path of the append-only audit log. Empty disables
	// audit logging.
	AuditLog string `yaml:"audit_log"`
}

// DefaultPath returns the default config file path: ~/.identra/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".identra", "config.yaml")
}

// DefaultAuditLog returns the default audit log path: ~/.identra/audit.log.
func DefaultAuditLog() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".identra", "audit.log")
}

// Load reads a YAML config file from path. A missing file returns an empty
// Config and no error, as does an empty or all-comment file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
