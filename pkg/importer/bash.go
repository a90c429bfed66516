package importer

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spideyz0r/hx/pkg/history"
)

// Bash imports a bash history file. Lines of the form "#<unix seconds>",
// written when HISTTIMEFORMAT is set, timestamp the command that follows.
type Bash struct {
	path string
	now  func() time.Time
}

// NewBash locates the user's bash history: $HISTFILE if set, otherwise
// ~/.bash_history
func NewBash() (*Bash, error) {
	path, err := bashHistoryPath()
	if err != nil {
		return nil, err
	}

	slog.Info("found bash history file", "path", path)
	return NewBashFromFile(path), nil
}

// NewBashFromFile imports the bash history file at path
func NewBashFromFile(path string) *Bash {
	return &Bash{
		path: path,
		now:  time.Now,
	}
}

func bashHistoryPath() (string, error) {
	if histfile := os.Getenv("HISTFILE"); histfile != "" {
		if _, err := os.Stat(histfile); err == nil {
			return histfile, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	path := filepath.Join(home, ".bash_history")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoHistoryFile, path)
	}
	return path, nil
}

// Name returns "bash"
func (b *Bash) Name() string {
	return "bash"
}

// Path returns the history file being imported
func (b *Bash) Path() string {
	return b.path
}

// Load pushes every command of the history file to loader, in file order
func (b *Bash) Load(loader Loader) error {
	file, err := os.Open(b.path)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	now := b.now()
	var offset int64
	var pending *time.Time

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()

		// Check if this is a timestamp line (format: #1234567890)
		if ts, ok := parseBashTimestamp(line); ok {
			pending = &ts
			continue
		}

		// Skip empty lines
		if strings.TrimSpace(line) == "" {
			continue
		}

		var timestamp time.Time
		if pending != nil {
			timestamp = *pending
			pending = nil
		} else {
			timestamp = now.Add(-time.Duration(offset) * time.Second)
			offset++
		}

		if err := loader.Push(history.NewImported(line, timestamp)); err != nil {
			return fmt.Errorf("failed to push command: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading history file: %w", err)
	}

	return nil
}

func parseBashTimestamp(line string) (time.Time, bool) {
	if len(line) < 2 || line[0] != '#' {
		return time.Time{}, false
	}

	ts, err := strconv.ParseInt(line[1:], 10, 64)
	if err != nil || ts < minTimestamp || ts > maxTimestamp {
		return time.Time{}, false
	}
	return history.FromUnix(ts), true
}
