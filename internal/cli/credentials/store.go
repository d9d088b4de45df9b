// Package credentials stores the dropvault CLI's last-used connection
// settings so repeat invocations don't need --server/--admin/--user
// respelled out every time.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultConfigDir is the default directory for dropvault CLI configuration.
	DefaultConfigDir = "dropvault"
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "config.json"
	// FilePermissions for config files (read/write for owner only).
	FilePermissions = 0600
	// DirPermissions for config directories.
	DirPermissions = 0700
)

// ErrNoProfile indicates no profile has been saved yet.
var ErrNoProfile = errors.New("no saved profile - run a command with --server/--user first")

// Profile is a remembered connection target for the CLI.
type Profile struct {
	ServerAddr string `json:"server_addr"`
	AdminAddr  string `json:"admin_addr,omitempty"`
	Username   string `json:"username,omitempty"`
}

// Config is the on-disk dropvault CLI configuration.
type Config struct {
	LastProfile Profile `json:"last_profile"`
}

// Store manages the on-disk CLI configuration.
type Store struct {
	configPath string
	config     *Config
}

// NewStore opens (or initializes) the CLI config store.
func NewStore() (*Store, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	s := &Store{configPath: configPath}

	if err := s.load(); err != nil {
		if os.IsNotExist(err) {
			s.config = &Config{}
		} else {
			return nil, err
		}
	}

	return s, nil
}

// getConfigPath returns the path to the config file.
func getConfigPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Join(configHome, DefaultConfigDir, ConfigFileName), nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}

	s.config = &Config{}
	return json.Unmarshal(data, s.config)
}

func (s *Store) save() error {
	dir := filepath.Dir(s.configPath)
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(s.config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.configPath, data, FilePermissions)
}

// LastProfile returns the most recently saved profile.
func (s *Store) LastProfile() (Profile, error) {
	if s.config.LastProfile.ServerAddr == "" {
		return Profile{}, ErrNoProfile
	}
	return s.config.LastProfile, nil
}

// SaveProfile persists p as the last-used profile.
func (s *Store) SaveProfile(p Profile) error {
	s.config.LastProfile = p
	return s.save()
}

// ConfigPath returns the path to the config file on disk.
func (s *Store) ConfigPath() string {
	return s.configPath
}
