// Package backup keeps encrypted snapshots of the history database.
package backup

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/spideyz0r/hx/pkg/crypto"
	"github.com/spideyz0r/hx/pkg/storage"
)

// Backup files are named history-{hostname}-{timestamp}.db.enc
const (
	filePrefix = "history-"
	fileSuffix = ".db.enc"
	timeLayout = "20060102-150405"
)

// Info describes a backup file
type Info struct {
	Path      string
	Filename  string
	Hostname  string
	Timestamp time.Time
	Size      int64
}

// Create snapshots db, seals it with passphrase and writes it into dir
func Create(db *storage.DB, dir, passphrase string) (*Info, error) {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	return create(db, dir, passphrase, hostname, time.Now())
}

func create(db *storage.DB, dir, passphrase, hostname string, now time.Time) (*Info, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	tmp, err := os.MkdirTemp("", "hx-backup-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(tmp)
	}()

	snapshot := filepath.Join(tmp, "history.db")
	if err := db.Snapshot(snapshot); err != nil {
		return nil, err
	}

	plain, err := os.ReadFile(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	sealed, err := crypto.Encrypt(plain, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt backup: %w", err)
	}

	info := &Info{
		Filename:  filePrefix + hostname + "-" + now.Format(timeLayout) + fileSuffix,
		Hostname:  hostname,
		Timestamp: now.Truncate(time.Second),
		Size:      int64(len(sealed)),
	}
	info.Path = filepath.Join(dir, info.Filename)

	if err := os.WriteFile(info.Path, sealed, 0600); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	return info, nil
}

// List returns the backups in dir, newest first. A missing dir has none.
func List(dir string) ([]*Info, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []*Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []*Info{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := parseFilename(entry.Name())
		if err != nil {
			continue
		}
		info.Path = filepath.Join(dir, entry.Name())

		if fi, err := entry.Info(); err == nil {
			info.Size = fi.Size()
		}

		backups = append(backups, info)
	}

	slices.SortFunc(backups, func(a, b *Info) int {
		return cmp.Or(b.Timestamp.Compare(a.Timestamp), cmp.Compare(b.Filename, a.Filename))
	})

	return backups, nil
}

// parseFilename extracts the host and time from a backup file name. Host
// names may contain dashes, so the timestamp is taken from the end.
func parseFilename(filename string) (*Info, error) {
	name, ok := strings.CutSuffix(filename, fileSuffix)
	if !ok {
		return nil, fmt.Errorf("not a backup file: %s", filename)
	}
	name, ok = strings.CutPrefix(name, filePrefix)
	if !ok || len(name) < len(timeLayout)+2 {
		return nil, fmt.Errorf("invalid backup filename format: %s", filename)
	}

	split := len(name) - len(timeLayout)
	if name[split-1] != '-' {
		return nil, fmt.Errorf("invalid backup filename format: %s", filename)
	}

	ts, err := time.ParseInLocation(timeLayout, name[split:], time.Local)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp in filename: %w", err)
	}

	return &Info{
		Filename:  filename,
		Hostname:  name[:split-1],
		Timestamp: ts,
	}, nil
}

// Rotate removes all but the keep newest backups; keep <= 0 keeps everything
func Rotate(dir string, keep int) ([]*Info, error) {
	if keep <= 0 {
		return nil, nil
	}

	backups, err := List(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) <= keep {
		return nil, nil
	}

	removed := backups[keep:]
	for _, b := range removed {
		if err := os.Remove(b.Path); err != nil {
			return nil, fmt.Errorf("failed to remove old backup %s: %w", b.Filename, err)
		}
	}

	return removed, nil
}

// Restore decrypts backupPath into a new database at dstPath and checks
// that it opens. An existing dstPath is never overwritten.
func Restore(backupPath, dstPath, passphrase string) error {
	if _, err := os.Stat(dstPath); err == nil {
		return fmt.Errorf("refusing to overwrite existing database: %s", dstPath)
	}

	sealed, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	plain, err := crypto.Decrypt(sealed, passphrase)
	if err != nil {
		return fmt.Errorf("failed to decrypt backup: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	if err := os.WriteFile(dstPath, plain, 0600); err != nil {
		return fmt.Errorf("failed to write database: %w", err)
	}

	db, err := storage.Open(dstPath)
	if err != nil {
		_ = os.Remove(dstPath)
		return fmt.Errorf("restored file is not a usable database: %w", err)
	}
	return db.Close()
}

// FormatSize formats a file size in human-readable format
func FormatSize(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}
