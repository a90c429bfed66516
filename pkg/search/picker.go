package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"

	"github.com/spideyz0r/hx/pkg/history"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	cwdWidth   = 40
)

// ErrAborted is returned when the user closes the picker without choosing
var ErrAborted = errors.New("selection aborted")

// Pick opens an interactive fuzzy finder over entries with query typed in
// and returns the chosen entry.
func Pick(entries []*history.History, query string) (*history.History, error) {
	if len(entries) == 0 {
		return nil, ErrNoMatches
	}

	idx, err := fuzzyfinder.Find(
		entries,
		func(i int) string {
			return FormatEntry(entries[i])
		},
		fuzzyfinder.WithQuery(query),
		fuzzyfinder.WithPromptString("hx> "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return Preview(entries[i])
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, ErrAborted
		}
		return nil, fmt.Errorf("picker failed: %w", err)
	}

	return entries[idx], nil
}

// Preview renders the detail pane for e
func Preview(e *history.History) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Command: %s\n\n", e.Command)
	fmt.Fprintf(&sb, "Time:    %s\n", FormatTime(e.Timestamp))
	fmt.Fprintf(&sb, "Cwd:     %s\n", e.Cwd)
	if e.IsFinished() {
		fmt.Fprintf(&sb, "Exit:    %d\n", e.ExitCode)
	} else {
		sb.WriteString("Exit:    unknown\n")
	}

	return sb.String()
}

// FormatEntry formats an entry as a single display line.
// Format: timestamp │ cwd │ [exit:N] │ command.
func FormatEntry(e *history.History) string {
	parts := []string{FormatTime(e.Timestamp)}

	cwd := e.Cwd
	if len(cwd) > cwdWidth {
		cwd = "..." + cwd[len(cwd)-(cwdWidth-3):]
	}
	if cwd != "" {
		parts = append(parts, fmt.Sprintf("%-*s", cwdWidth, cwd))
	}

	if e.IsFinished() && e.ExitCode != 0 {
		parts = append(parts, fmt.Sprintf("[exit:%d]", e.ExitCode))
	}

	// Multi-line commands are shown on one line
	parts = append(parts, strings.ReplaceAll(e.Command, "\n", " ↵ "))

	return strings.Join(parts, " │ ")
}

// FormatTime renders t the way the picker does
func FormatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}
