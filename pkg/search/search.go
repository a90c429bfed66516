// Package search runs history queries and presents their results.
package search

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/spideyz0r/hx/pkg/history"
	"github.com/spideyz0r/hx/pkg/storage"
)

// ErrNoMatches is returned when there is nothing to pick from
var ErrNoMatches = errors.New("no matching history entries")

// Run queries store and returns matching entries, most relevant first.
func Run(store storage.Store, q string, filters storage.Filters) ([]*history.History, error) {
	entries, err := store.Search(q, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	return entries, nil
}

// Unique drops entries whose command already appeared earlier in entries
func Unique(entries []*history.History) []*history.History {
	seen := make(map[string]struct{}, len(entries))
	unique := make([]*history.History, 0, len(entries))

	for _, e := range entries {
		if _, ok := seen[e.Command]; ok {
			continue
		}
		seen[e.Command] = struct{}{}
		unique = append(unique, e)
	}

	return unique
}

// IsInteractive reports whether the picker can draw on this terminal.
// The picker writes its UI to the tty, so only stdin needs to be one.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// QueryFromArgs joins positional arguments into a query, falling back to
// fallback when none were given.
func QueryFromArgs(args []string, fallback string) string {
	if len(args) == 0 {
		return fallback
	}
	return strings.Join(args, " ")
}
