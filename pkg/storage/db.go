package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver with FTS5
)

const (
	// AppName names the data and config directories
	AppName = "hx"

	// DefaultFile is the database file name inside the data directory
	DefaultFile = "history.db"

	// MemoryPath opens a private in-memory database
	MemoryPath = ":memory:"

	busyTimeoutMs = 5000
)

// DB is the SQLite-backed Store
type DB struct {
	conn *sql.DB
	path string
}

// Open opens or creates a SQLite database at the given path and migrates it
// to the latest schema
func Open(path string) (*DB, error) {
	if path != MemoryPath {
		// Ensure parent directory exists
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory database
	// only exists on the connection that created it.
	conn.SetMaxOpenConns(1)

	db := &DB{
		conn: conn,
		path: path,
	}

	if err := db.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	slog.Debug("opened database", "path", path)
	return db, nil
}

// initialize sets connection pragmas and applies pending migrations
func (db *DB) initialize() error {
	// Busy timeout first, before anything that may need the write lock
	if _, err := db.conn.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMs)); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := Migrate(db.conn, Latest); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Snapshot writes a consistent copy of the database to path, which must
// not exist yet
func (db *DB) Snapshot(path string) error {
	if _, err := db.conn.Exec("VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}
	return nil
}

// DataDir returns $XDG_DATA_HOME/hx, falling back to ~/.local/share/hx
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, AppName), nil
}

// ResolvePath joins dir and file into a database path. An empty dir means
// DataDir, an empty file means DefaultFile, and a leading "~" in dir is
// expanded to the home directory.
func ResolvePath(dir, file string) (string, error) {
	var err error
	if dir == "" {
		dir, err = DataDir()
		if err != nil {
			return "", err
		}
	} else {
		dir, err = ExpandHome(dir)
		if err != nil {
			return "", err
		}
	}

	if file == "" {
		file = DefaultFile
	}

	return filepath.Join(dir, file), nil
}

// ExpandHome replaces a leading "~" with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
