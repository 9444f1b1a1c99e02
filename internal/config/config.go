package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
)

const (
	// DirName is the per-user cchooks directory under the home directory
	DirName = ".cchooks"
	// ConfigFileName is the name of the configuration file
	ConfigFileName = "config.yml"
	// EnvVar overrides the configuration file location
	EnvVar = "CCHOOKS_CONFIG"
	// SupportedVersion is the currently supported config schema version
	SupportedVersion = 1
)

// Config represents ~/.cchooks/config.yml
type Config struct {
	Version      int          `yaml:"version"`
	DefaultLevel string       `yaml:"defaultLevel,omitempty"`
	Backup       BackupConfig `yaml:"backup"`
	LockTimeout  string       `yaml:"lockTimeout,omitempty"`
	// TemplatesDir holds the user template registry
	TemplatesDir string `yaml:"templatesDir,omitempty"`
}

// BackupConfig controls automatic settings backups
type BackupConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
	Keep    *int  `yaml:"keep,omitempty"`
}

// Default values applied to missing fields
const (
	DefaultLevel       = "project"
	DefaultBackupKeep  = 10
	DefaultLockTimeout = 5 * time.Second
)

// Default returns the configuration used when no file exists
func Default() *Config {
	enabled := true
	keep := DefaultBackupKeep
	return &Config{
		Version:      SupportedVersion,
		DefaultLevel: DefaultLevel,
		Backup:       BackupConfig{Enabled: &enabled, Keep: &keep},
		LockTimeout:  DefaultLockTimeout.String(),
	}
}

// Dir returns ~/.cchooks
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName), nil
}

// Path returns the configuration file location: CCHOOKS_CONFIG when set,
// otherwise ~/.cchooks/config.yml
func Path() (string, error) {
	if p := os.Getenv(EnvVar); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Load reads the configuration from path, or from Path() when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	config, err := parseConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, hookerrors.ConfigInvalid(path, "failed to parse YAML", err)
	}

	config.applyDefaults()
	if err := validateConfig(config); err != nil {
		return nil, hookerrors.ConfigInvalid(path, err.Error(), nil)
	}
	return config, nil
}

// parseConfig reads and parses a YAML config file
func parseConfig(path string) (*Config, error) {
	// #nosec G304 - path is from trusted source (flag, env or home directory)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Version == 0 {
		c.Version = def.Version
	}
	if c.DefaultLevel == "" {
		c.DefaultLevel = def.DefaultLevel
	}
	if c.Backup.Enabled == nil {
		c.Backup.Enabled = def.Backup.Enabled
	}
	if c.Backup.Keep == nil {
		c.Backup.Keep = def.Backup.Keep
	}
	if c.LockTimeout == "" {
		c.LockTimeout = def.LockTimeout
	}
}

// validateConfig checks that the config has valid structure and values
func validateConfig(config *Config) error {
	if config.Version != SupportedVersion {
		return fmt.Errorf("unsupported config version %d (expected %d)", config.Version, SupportedVersion)
	}

	switch config.DefaultLevel {
	case "project", "user":
	default:
		return fmt.Errorf("defaultLevel must be project or user, got %q", config.DefaultLevel)
	}

	if config.Backup.Keep != nil && *config.Backup.Keep < 0 {
		return fmt.Errorf("backup.keep must not be negative, got %d", *config.Backup.Keep)
	}

	d, err := time.ParseDuration(config.LockTimeout)
	if err != nil {
		return fmt.Errorf("lockTimeout %q is not a duration (e.g. 5s)", config.LockTimeout)
	}
	if d <= 0 {
		return fmt.Errorf("lockTimeout must be positive, got %s", config.LockTimeout)
	}

	if config.TemplatesDir != "" && !filepath.IsAbs(expandHome(config.TemplatesDir)) {
		return fmt.Errorf("templatesDir must be an absolute path, got %s", config.TemplatesDir)
	}

	return nil
}

// BackupEnabled reports whether mutating commands back up settings first
func (c *Config) BackupEnabled() bool {
	return c.Backup.Enabled == nil || *c.Backup.Enabled
}

// BackupKeep returns how many backups are retained per settings file
func (c *Config) BackupKeep() int {
	if c.Backup.Keep == nil {
		return DefaultBackupKeep
	}
	return *c.Backup.Keep
}

// LockTimeoutDuration returns the parsed lock timeout
func (c *Config) LockTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.LockTimeout)
	if err != nil || d <= 0 {
		return DefaultLockTimeout
	}
	return d
}

// TemplatesPath returns the directory holding the user template registry
func (c *Config) TemplatesPath() (string, error) {
	if c.TemplatesDir != "" {
		return expandHome(c.TemplatesDir), nil
	}
	return Dir()
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// SaveConfig writes a config to the specified path atomically
func SaveConfig(config *Config, path string) error {
	if err := validateConfig(config); err != nil {
		return hookerrors.ConfigInvalid(path, err.Error(), nil)
	}

	// Marshal to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write to temporary file
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary config: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile) // Clean up temp file on error
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}
