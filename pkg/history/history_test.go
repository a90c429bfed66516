package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCaptured(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 45, 999_000_000, time.FixedZone("CET", 3600))

	h := NewCaptured("git status", "/home/user/repo", ts)

	assert.Equal(t, UnsavedID, h.ID)
	assert.Equal(t, "git status", h.Command)
	assert.Equal(t, "/home/user/repo", h.Cwd)
	assert.Equal(t, UnknownExitCode, h.ExitCode)
	assert.Equal(t, time.UTC, h.Timestamp.Location())
	assert.Equal(t, 0, h.Timestamp.Nanosecond())
	assert.Equal(t, ts.Unix(), h.Timestamp.Unix())
	assert.False(t, h.IsSaved())
	assert.False(t, h.IsFinished())
}

func TestNewImported(t *testing.T) {
	ts := time.Unix(1678886400, 0)

	h := NewImported("ls -l", ts)

	assert.Equal(t, UnsavedID, h.ID)
	assert.Equal(t, "ls -l", h.Command)
	assert.Equal(t, UnknownCwd, h.Cwd)
	assert.Equal(t, UnknownExitCode, h.ExitCode)
	assert.Equal(t, int64(1678886400), h.Timestamp.Unix())
}

func TestIsSavedAndFinished(t *testing.T) {
	h := NewCaptured("make", "/src", time.Now())
	h.ID = 42
	h.ExitCode = 0

	assert.True(t, h.IsSaved())
	assert.True(t, h.IsFinished())
}

func TestFromUnix(t *testing.T) {
	got := FromUnix(1678886500)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, int64(1678886500), got.Unix())
}
