// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spideyz0r/hx/pkg/history"
	"github.com/spideyz0r/hx/pkg/storage"
)

// TempFile creates a file with the given content inside dir
func TempFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}

	return path
}

// NewStore opens an in-memory history database that is closed when the
// test ends.
func NewStore(t *testing.T) *storage.DB {
	t.Helper()

	db, err := storage.Open(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// Seed saves a finished command for each entry of commands, one second
// apart starting at base, and returns their ids.
func Seed(t *testing.T, store storage.Store, base time.Time, cwd string, commands ...string) []int64 {
	t.Helper()

	ids := make([]int64, 0, len(commands))
	for i, cmd := range commands {
		h := history.NewCaptured(cmd, cwd, base.Add(time.Duration(i)*time.Second))
		h.ExitCode = 0

		id, err := store.Save(h)
		if err != nil {
			t.Fatalf("failed to save %q: %v", cmd, err)
		}
		ids = append(ids, id)
	}

	return ids
}
