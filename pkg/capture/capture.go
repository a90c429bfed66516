// Package capture records commands as the shell runs them and installs the
// shell hooks that drive it.
package capture

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spideyz0r/hx/pkg/history"
	"github.com/spideyz0r/hx/pkg/storage"
)

// CurrentDir returns the shell's working directory. $PWD is preferred since
// it keeps symlinked paths as the user typed them.
func CurrentDir() string {
	if pwd := os.Getenv("PWD"); pwd != "" {
		return pwd
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return cwd
}

// Collect builds the record for a command that is about to run
func Collect(args []string) *history.History {
	return history.NewCaptured(strings.Join(args, " "), CurrentDir(), time.Now())
}

// Start saves a command that is about to run and returns its id
func Start(store storage.Store, args []string) (int64, error) {
	return store.Save(Collect(args))
}

// Finish records the exit code of the command id. Blank, malformed or
// unknown ids are ignored: the hook calls this for every prompt, including
// ones where no command was started.
func Finish(store storage.Store, id string, exitCode int64) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	parsed, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		slog.Debug("ignoring malformed history id", "id", id)
		return nil
	}

	h, err := store.Get(parsed)
	if err != nil {
		return err
	}
	if h == nil {
		slog.Debug("ignoring unknown history id", "id", parsed)
		return nil
	}

	h.ExitCode = exitCode
	return store.Update(h)
}
