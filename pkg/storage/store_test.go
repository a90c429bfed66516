package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spideyz0r/hx/pkg/history"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func createTestEntry(t *testing.T, command, cwd string, exitCode int64, ago time.Duration) *history.History {
	t.Helper()
	h := history.NewCaptured(command, cwd, time.Now().Add(-ago))
	h.ExitCode = exitCode
	return h
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestSaveAndGet(t *testing.T) {
	db := setupTestDB(t)

	in := createTestEntry(t, "echo test", "/tmp", 0, 0)

	id, err := db.Save(in)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	out, err := db.Get(id)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, id, out.ID)
	assert.Equal(t, in.Command, out.Command)
	assert.Equal(t, in.Cwd, out.Cwd)
	assert.Equal(t, in.ExitCode, out.ExitCode)
	assert.Equal(t, in.Timestamp.Unix(), out.Timestamp.Unix())
	assert.Equal(t, time.UTC, out.Timestamp.Location())
}

func TestSave_MultilineCommand(t *testing.T) {
	db := setupTestDB(t)

	in := history.NewImported("echo \\\n> line 2", time.Unix(1678887000, 0))
	id, err := db.Save(in)
	require.NoError(t, err)

	out, err := db.Get(id)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.Command, out.Command)
	assert.Equal(t, history.UnknownCwd, out.Cwd)
	assert.Equal(t, history.UnknownExitCode, out.ExitCode)
}

func TestGet_NotFound(t *testing.T) {
	db := setupTestDB(t)

	out, err := db.Get(12345)
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestSaveBulk(t *testing.T) {
	db := setupTestDB(t)

	entries := []*history.History{
		createTestEntry(t, "echo 1", "/tmp", 0, 3*time.Second),
		createTestEntry(t, "echo 2", "/tmp", 0, 2*time.Second),
		createTestEntry(t, "echo 3", "/tmp", 0, time.Second),
	}

	ids, err := db.SaveBulk(entries)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	for i, id := range ids {
		assert.Greater(t, id, int64(0))

		got, err := db.Get(id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, entries[i].Command, got.Command)
	}

	total, err := db.CountTotal()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestSaveBulk_Empty(t *testing.T) {
	db := setupTestDB(t)

	ids, err := db.SaveBulk(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	total, err := db.CountTotal()
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestSaveBulk_AllOrNothing(t *testing.T) {
	db := setupTestDB(t)

	// Reject one record in the middle of the batch
	_, err := db.conn.Exec(`CREATE TRIGGER reject_boom BEFORE INSERT ON history
		WHEN new.command = 'boom' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	entries := []*history.History{
		createTestEntry(t, "echo 1", "/tmp", 0, 0),
		createTestEntry(t, "boom", "/tmp", 0, 0),
		createTestEntry(t, "echo 3", "/tmp", 0, 0),
	}

	_, err = db.SaveBulk(entries)
	require.Error(t, err)

	total, err := db.CountTotal()
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestUpdate(t *testing.T) {
	db := setupTestDB(t)

	h := createTestEntry(t, "initial command", "/home", history.UnknownExitCode, 0)
	id, err := db.Save(h)
	require.NoError(t, err)

	h.ID = id
	h.Command = "updated command"
	h.ExitCode = 1
	require.NoError(t, db.Update(h))

	got, err := db.Get(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "updated command", got.Command)
	assert.Equal(t, int64(1), got.ExitCode)
	assert.Equal(t, "/home", got.Cwd)
	assert.Equal(t, h.Timestamp.Unix(), got.Timestamp.Unix())
}

func TestUpdate_ExitCodeOnly(t *testing.T) {
	db := setupTestDB(t)

	h := history.NewCaptured("ls", "/home", time.Unix(1678886400, 0))
	id, err := db.Save(h)
	require.NoError(t, err)

	stored, err := db.Get(id)
	require.NoError(t, err)
	require.NotNil(t, stored)

	stored.ExitCode = 3
	require.NoError(t, db.Update(stored))

	got, err := db.Get(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ls", got.Command)
	assert.Equal(t, "/home", got.Cwd)
	assert.Equal(t, int64(1678886400), got.Timestamp.Unix())
	assert.Equal(t, int64(3), got.ExitCode)
}

func TestUpdate_UnsavedFails(t *testing.T) {
	db := setupTestDB(t)

	h := history.NewCaptured("ls -l /home", "/home", time.Now().Add(-30*time.Second))
	err := db.Update(h)
	assert.ErrorIs(t, err, ErrInvalidID)

	for _, id := range []int64{0, -5} {
		h.ID = id
		assert.ErrorIs(t, db.Update(h), ErrInvalidID, "id %d", id)
	}
}

func TestUpdate_MissingRow(t *testing.T) {
	db := setupTestDB(t)

	h := createTestEntry(t, "ls", "/", 0, 0)
	h.ID = 999
	err := db.Update(h)
	assert.ErrorIs(t, err, ErrRowCountMismatch)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	id, err := db.Save(createTestEntry(t, "to be deleted", "/tmp", 0, 0))
	require.NoError(t, err)
	_, err = db.Save(createTestEntry(t, "kept", "/tmp", 0, 0))
	require.NoError(t, err)

	require.NoError(t, db.Delete(id))

	got, err := db.Get(id)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again is fine
	assert.NoError(t, db.Delete(id))
	assert.NoError(t, db.Delete(424242))
	assert.NoError(t, db.Delete(history.UnsavedID))

	total, err := db.CountTotal()
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func seedSearch(t *testing.T, db *DB) []*history.History {
	t.Helper()

	entries := []*history.History{
		createTestEntry(t, "ls -l /home", "/home", 0, 30*time.Second),
		createTestEntry(t, "grep test file.txt", "/tmp", 1, 20*time.Second),
		createTestEntry(t, "cargo test --all", "/home/user/project", 0, 10*time.Second),
	}
	_, err := db.SaveBulk(entries)
	require.NoError(t, err)

	return entries
}

func commands(entries []*history.History) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Command
	}
	return out
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)
	seedSearch(t, db)

	tests := []struct {
		name     string
		query    string
		filters  Filters
		expected []string
	}{
		{
			name:     "empty query returns everything newest first",
			expected: []string{"cargo test --all", "grep test file.txt", "ls -l /home"},
		},
		{
			name:     "fuzzy token",
			query:    "test",
			expected: []string{"cargo test --all", "grep test file.txt"},
		},
		{
			name:     "fuzzy token prefix",
			query:    "ca",
			expected: []string{"cargo test --all"},
		},
		{
			name:     "fuzzy tokens in any position",
			query:    "file gr",
			expected: []string{"grep test file.txt"},
		},
		{
			name:     "prefix mode anchors at start",
			query:    "grep te",
			filters:  Filters{Mode: Prefix},
			expected: []string{"grep test file.txt"},
		},
		{
			name:     "prefix mode rejects middle match",
			query:    "test",
			filters:  Filters{Mode: Prefix},
			expected: nil,
		},
		{
			name:     "substring mode",
			query:    "l /ho",
			filters:  Filters{Mode: Substring},
			expected: []string{"ls -l /home"},
		},
		{
			name:     "cwd filter",
			filters:  Filters{Cwd: "/tmp"},
			expected: []string{"grep test file.txt"},
		},
		{
			name:     "exit filter",
			filters:  Filters{ExitCode: int64Ptr(0)},
			expected: []string{"cargo test --all", "ls -l /home"},
		},
		{
			name:     "query and exit filter",
			query:    "test",
			filters:  Filters{ExitCode: int64Ptr(1)},
			expected: []string{"grep test file.txt"},
		},
		{
			name:     "limit keeps newest",
			filters:  Filters{Limit: 1},
			expected: []string{"cargo test --all"},
		},
		{
			name:     "blank query matches everything",
			query:    "   ",
			expected: []string{"cargo test --all", "grep test file.txt", "ls -l /home"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := db.Search(tt.query, tt.filters)
			require.NoError(t, err)
			if tt.expected == nil {
				assert.Empty(t, results)
				return
			}
			assert.Equal(t, tt.expected, commands(results))
		})
	}
}

func TestSearch_QuotesInQuery(t *testing.T) {
	db := setupTestDB(t)
	seedSearch(t, db)

	for _, mode := range []MatchMode{Fuzzy, Prefix, Substring} {
		_, err := db.Search(`echo "unterminated`, Filters{Mode: mode})
		assert.NoError(t, err, mode.String())
	}
}

func TestSearch_Rank(t *testing.T) {
	db := setupTestDB(t)
	seedSearch(t, db)

	results, err := db.Search("test", Filters{Rank: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cargo test --all", "grep test file.txt"}, commands(results))
}

func TestSearch_IndexFollowsUpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)

	h := createTestEntry(t, "docker ps", "/", 0, 0)
	id, err := db.Save(h)
	require.NoError(t, err)

	results, err := db.Search("docker", Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	h.ID = id
	h.Command = "podman ps"
	require.NoError(t, db.Update(h))

	results, err = db.Search("docker", Filters{})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = db.Search("podman", Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)

	require.NoError(t, db.Delete(id))

	results, err = db.Search("podman", Filters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBuildSearch(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		stmt, params := buildSearch("", Filters{Limit: 10})
		assert.Equal(t,
			"SELECT h.id, h.timestamp, h.command, h.cwd, h.exit_code FROM history h ORDER BY h.timestamp DESC, h.id DESC LIMIT 10",
			stmt.ToSQL())
		assert.Empty(t, params)
	})

	t.Run("fts with filters", func(t *testing.T) {
		stmt, params := buildSearch("git", Filters{Cwd: "/src", ExitCode: int64Ptr(0)})
		assert.Equal(t,
			"SELECT h.id, h.timestamp, h.command, h.cwd, h.exit_code FROM history_fts fts JOIN history h ON h.id = fts.rowid "+
				"WHERE fts.command MATCH :fts_command AND h.exit_code = :h_exit_code AND h.cwd = :h_cwd ORDER BY h.timestamp DESC, h.id DESC",
			stmt.ToSQL())
		assert.Equal(t, `"git"*`, params["fts_command"])
		assert.Equal(t, int64(0), params["h_exit_code"])
		assert.Equal(t, "/src", params["h_cwd"])
	})

	t.Run("rank", func(t *testing.T) {
		stmt, _ := buildSearch("git", Filters{Rank: true})
		assert.Contains(t, stmt.ToSQL(), "ORDER BY fts.rank ASC, h.timestamp DESC, h.id DESC")
	})

	t.Run("substring", func(t *testing.T) {
		stmt, params := buildSearch("git", Filters{Mode: Substring})
		assert.Contains(t, stmt.ToSQL(), "FROM history h WHERE h.command LIKE :h_command")
		assert.Equal(t, "%git%", params["h_command"])
	})
}

func TestCountTotal(t *testing.T) {
	db := setupTestDB(t)

	count, err := db.CountTotal()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	seedSearch(t, db)

	count, err = db.CountTotal()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestStoreInterface(t *testing.T) {
	var _ Store = (*DB)(nil)
}
