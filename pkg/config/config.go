package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spideyz0r/hx/pkg/storage"
)

// FileName is the configuration file inside the config directory
const FileName = "config.yaml"

// Config holds the application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Search   SearchConfig   `yaml:"search"`
	Import   ImportConfig   `yaml:"import"`
	Ignore   IgnoreConfig   `yaml:"ignore"`
	Backup   BackupConfig   `yaml:"backup"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Dir  string `yaml:"dir"`  // Directory holding the database ("" = $XDG_DATA_HOME/hx)
	File string `yaml:"file"` // Database file name
}

// SearchConfig holds search-related configuration.
type SearchConfig struct {
	Limit      int    `yaml:"limit"`      // Max number of results (0 = unlimited)
	Mode       string `yaml:"mode"`       // fuzzy, prefix or substring
	Keybinding string `yaml:"keybinding"` // Key bound to interactive search, e.g. ctrl-r
}

// ImportConfig holds history import settings.
type ImportConfig struct {
	BatchSize int `yaml:"batch_size"` // Records saved per transaction
}

// IgnoreConfig holds patterns for commands that are never recorded.
type IgnoreConfig struct {
	Patterns []string `yaml:"patterns"` // Regular expressions (e.g., "^ls$", "^cd ")
}

// BackupConfig holds encrypted database backup settings.
type BackupConfig struct {
	Dir  string `yaml:"dir"`  // Backup directory ("" = backups/ in the data directory)
	Keep int    `yaml:"keep"` // Number of backups kept by rotation (0 = keep all)
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn or error
	File  string `yaml:"file"`  // Log file ("" = hx.log in the data directory)
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			File: storage.DefaultFile,
		},
		Search: SearchConfig{
			Limit:      0,
			Mode:       storage.Fuzzy.String(),
			Keybinding: "ctrl-r",
		},
		Import: ImportConfig{
			BatchSize: 1000,
		},
		Ignore: IgnoreConfig{
			Patterns: []string{},
		},
		Backup: BackupConfig{
			Keep: 10,
		},
		Log: LogConfig{
			Level: "error",
		},
	}
}

// Dir returns $XDG_CONFIG_HOME/hx, falling back to ~/.config/hx
func Dir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, storage.AppName), nil
}

// DefaultPath returns the default configuration file path
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load loads configuration from file, falling back to defaults when the file
// does not exist
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadDefault loads configuration from the default path
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.ContainsRune(c.Database.File, filepath.Separator) {
		return fmt.Errorf("database file must be a file name, not a path: %s", c.Database.File)
	}

	if c.Search.Limit < 0 {
		return fmt.Errorf("search limit cannot be negative: %d", c.Search.Limit)
	}

	if _, err := storage.ParseMatchMode(c.Search.Mode); err != nil {
		return err
	}

	if c.Import.BatchSize < 1 {
		return fmt.Errorf("import batch size must be at least 1: %d", c.Import.BatchSize)
	}

	if _, err := c.IgnorePatterns(); err != nil {
		return err
	}

	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup keep count cannot be negative: %d", c.Backup.Keep)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	return nil
}

// DatabasePath resolves the configured database location
func (c *Config) DatabasePath() (string, error) {
	return storage.ResolvePath(c.Database.Dir, c.Database.File)
}

// BackupDir resolves the configured backup directory
func (c *Config) BackupDir() (string, error) {
	if c.Backup.Dir != "" {
		return storage.ExpandHome(c.Backup.Dir)
	}

	dir, err := storage.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "backups"), nil
}

// MatchMode returns the configured search mode
func (c *Config) MatchMode() storage.MatchMode {
	mode, err := storage.ParseMatchMode(c.Search.Mode)
	if err != nil {
		return storage.Fuzzy
	}
	return mode
}

// IgnorePatterns compiles the ignore patterns
func (c *Config) IgnorePatterns() ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(c.Ignore.Patterns))
	for _, p := range c.Ignore.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// ShouldIgnore reports whether command matches an ignore pattern
func (c *Config) ShouldIgnore(command string) bool {
	patterns, err := c.IgnorePatterns()
	if err != nil {
		return false
	}

	for _, re := range patterns {
		if re.MatchString(command) {
			return true
		}
	}
	return false
}
