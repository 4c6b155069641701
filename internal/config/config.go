// ABOUTME: Configuration loading and parsing for skystate
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Default values applied when a field is left empty
const (
	DefaultLegacyKey = "root"
	DefaultStateKey  = "BSKY_STORAGE"
	DefaultDBName    = "state.db"
	DefaultTimeout   = 10 * time.Second
)

// Config represents the complete skystate configuration
type Config struct {
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	Locale    LocaleConfig    `yaml:"locale" toml:"locale"`
	Migration MigrationConfig `yaml:"migration" toml:"migration"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// StorageConfig holds on-device storage configuration
type StorageConfig struct {
	Path      string `yaml:"path" toml:"path"`
	LegacyKey string `yaml:"legacy_key" toml:"legacy_key"` // key the retired client wrote to
	StateKey  string `yaml:"state_key" toml:"state_key"`
}

// LocaleConfig holds device locale settings used to build defaults
type LocaleConfig struct {
	DeviceLocales []string `yaml:"device_locales" toml:"device_locales"`
}

// MigrationConfig holds legacy migration settings
type MigrationConfig struct {
	Skip    bool          `yaml:"skip" toml:"skip"`
	Timeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns a configuration storing state under dataDir.
func Default(dataDir string) *Config {
	cfg := &Config{
		Storage: StorageConfig{
			Path: filepath.Join(dataDir, DefaultDBName),
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML, anything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills empty optional fields.
func (c *Config) applyDefaults() {
	if c.Storage.LegacyKey == "" {
		c.Storage.LegacyKey = DefaultLegacyKey
	}
	if c.Storage.StateKey == "" {
		c.Storage.StateKey = DefaultStateKey
	}
	if c.Migration.TimeoutRaw == "" && c.Migration.Timeout == 0 {
		c.Migration.Timeout = DefaultTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	if c.Storage.LegacyKey == c.Storage.StateKey {
		return fmt.Errorf("storage.legacy_key and storage.state_key must differ")
	}

	for i, loc := range c.Locale.DeviceLocales {
		if strings.TrimSpace(loc) == "" {
			return fmt.Errorf("locale.device_locales[%d] is empty", i)
		}
	}

	if c.Migration.Timeout < 0 {
		return fmt.Errorf("migration.timeout must not be negative")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is invalid (debug, info, warn, error)", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is invalid (text, json)", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Migration.TimeoutRaw != "" {
		cfg.Migration.Timeout, err = time.ParseDuration(cfg.Migration.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing migration timeout %q: %w", cfg.Migration.TimeoutRaw, err)
		}
	}

	return nil
}
