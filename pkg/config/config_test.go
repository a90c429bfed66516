package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spideyz0r/hx/pkg/storage"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "history.db", cfg.Database.File)
	assert.Empty(t, cfg.Database.Dir)
	assert.Equal(t, "fuzzy", cfg.Search.Mode)
	assert.Equal(t, "ctrl-r", cfg.Search.Keybinding)
	assert.Equal(t, 1000, cfg.Import.BatchSize)
	assert.Equal(t, 10, cfg.Backup.Keep)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "database file with directory",
			modify:  func(c *Config) { c.Database.File = "sub/history.db" },
			wantErr: true,
		},
		{
			name:    "negative limit",
			modify:  func(c *Config) { c.Search.Limit = -1 },
			wantErr: true,
		},
		{
			name:    "unknown mode",
			modify:  func(c *Config) { c.Search.Mode = "regex" },
			wantErr: true,
		},
		{
			name:   "prefix mode",
			modify: func(c *Config) { c.Search.Mode = "prefix" },
		},
		{
			name:    "zero batch size",
			modify:  func(c *Config) { c.Import.BatchSize = 0 },
			wantErr: true,
		},
		{
			name:    "bad ignore pattern",
			modify:  func(c *Config) { c.Ignore.Patterns = []string{"(unclosed"} },
			wantErr: true,
		},
		{
			name:    "negative backup keep",
			modify:  func(c *Config) { c.Backup.Keep = -1 },
			wantErr: true,
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:   "upper case log level",
			modify: func(c *Config) { c.Log.Level = "DEBUG" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	content := `
database:
  dir: /var/lib/hx
  file: cmds.db
search:
  limit: 50
  mode: prefix
ignore:
  patterns:
    - "^ls$"
log:
  level: debug
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/hx", cfg.Database.Dir)
	assert.Equal(t, "cmds.db", cfg.Database.File)
	assert.Equal(t, 50, cfg.Search.Limit)
	assert.Equal(t, storage.Prefix, cfg.MatchMode())
	assert.Equal(t, []string{"^ls$"}, cfg.Ignore.Patterns)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Unset keys keep their defaults
	assert.Equal(t, "ctrl-r", cfg.Search.Keybinding)
	assert.Equal(t, 1000, cfg.Import.BatchSize)

	path, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/hx/cmds.db", path)
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("search: [unclosed"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoad_InvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("search:\n  mode: psychic\n"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSaveAndReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Search.Limit = 25
	cfg.Ignore.Patterns = []string{"^exit$"}
	require.NoError(t, cfg.Save(configPath))

	loaded, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSave_InvalidPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := Default().Save(filepath.Join(blocker, "config.yaml"))
	assert.Error(t, err)
}

func TestDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, "hx"), dir)

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "hx", "config.yaml"), path)
}

func TestLoadDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDatabasePath_Default(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_DATA_HOME", xdg)

	path, err := Default().DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, "hx", "history.db"), path)
}

func TestShouldIgnore(t *testing.T) {
	cfg := Default()
	cfg.Ignore.Patterns = []string{"^ls$", "^cd ", "secret"}

	assert.True(t, cfg.ShouldIgnore("ls"))
	assert.True(t, cfg.ShouldIgnore("cd /tmp"))
	assert.True(t, cfg.ShouldIgnore("export TOKEN=secret"))
	assert.False(t, cfg.ShouldIgnore("ls -la"))
	assert.False(t, cfg.ShouldIgnore("git status"))

	assert.False(t, Default().ShouldIgnore("ls"))
}

func TestBackupDir(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)

	dir, err := Default().BackupDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(data, "hx", "backups"), dir)

	cfg := Default()
	cfg.Backup.Dir = "/srv/hx-backups"
	dir, err = cfg.BackupDir()
	require.NoError(t, err)
	assert.Equal(t, "/srv/hx-backups", dir)
}
