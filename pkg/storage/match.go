package storage

import (
	"fmt"
	"strings"
)

// MatchMode selects how a search query is matched against commands
type MatchMode int

const (
	// Fuzzy matches every whitespace-separated token as a prefix, anywhere
	// in the command
	Fuzzy MatchMode = iota
	// Prefix matches commands starting with the whole query
	Prefix
	// Substring matches the query anywhere in the command with LIKE,
	// bypassing the full-text index
	Substring
)

func (m MatchMode) String() string {
	switch m {
	case Prefix:
		return "prefix"
	case Substring:
		return "substring"
	default:
		return "fuzzy"
	}
}

// ParseMatchMode parses a mode name; the empty string means Fuzzy
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(s) {
	case "", "fuzzy":
		return Fuzzy, nil
	case "prefix":
		return Prefix, nil
	case "substring":
		return Substring, nil
	default:
		return Fuzzy, fmt.Errorf("unknown match mode: %s (valid: fuzzy, prefix, substring)", s)
	}
}

// usesFTS reports whether the mode is served by the full-text index
func (m MatchMode) usesFTS() bool {
	return m == Fuzzy || m == Prefix
}

// GenerateMatchParameter builds the right-hand side of an FTS5 MATCH for
// query. Double quotes are escaped by doubling so user input is always
// matched as literal text. An empty query, or a mode that does not use the
// full-text index, yields "".
func GenerateMatchParameter(query string, mode MatchMode) string {
	if query == "" {
		return ""
	}

	switch mode {
	case Fuzzy:
		words := strings.Fields(query)
		for i, word := range words {
			words[i] = `"` + escapeQuotes(word) + `"*`
		}
		return strings.Join(words, " ")
	case Prefix:
		return `^"` + escapeQuotes(query) + `"*`
	default:
		return ""
	}
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
