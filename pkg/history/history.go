package history

import "time"

const (
	// UnsavedID marks a record that has not been persisted yet.
	UnsavedID int64 = -1

	// UnknownExitCode marks a command that started but has not finished.
	UnknownExitCode int64 = -1

	// UnknownCwd is used when the working directory was not recorded,
	// e.g. for commands imported from a shell history file.
	UnknownCwd = "unknown"
)

// History represents a single executed command
type History struct {
	ID        int64
	Timestamp time.Time
	Command   string
	Cwd       string
	ExitCode  int64
}

// NewCaptured creates a record for a command that is about to run in the
// given directory. The exit code is filled in once the command finishes.
func NewCaptured(command, cwd string, timestamp time.Time) *History {
	return &History{
		ID:        UnsavedID,
		Timestamp: Normalize(timestamp),
		Command:   command,
		Cwd:       cwd,
		ExitCode:  UnknownExitCode,
	}
}

// NewImported creates a record for a command read from a shell history file
func NewImported(command string, timestamp time.Time) *History {
	return &History{
		ID:        UnsavedID,
		Timestamp: Normalize(timestamp),
		Command:   command,
		Cwd:       UnknownCwd,
		ExitCode:  UnknownExitCode,
	}
}

// IsSaved reports whether the record carries a persisted identifier
func (h *History) IsSaved() bool {
	return h.ID != UnsavedID
}

// IsFinished reports whether the command's exit code is known
func (h *History) IsFinished() bool {
	return h.ExitCode != UnknownExitCode
}

// Normalize converts t to UTC at the second precision used on disk.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// FromUnix converts a stored Unix timestamp back to a UTC time.
func FromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
