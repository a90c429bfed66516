// Package export writes history to portable formats and reads it back.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spideyz0r/hx/pkg/history"
	"github.com/spideyz0r/hx/pkg/storage"
)

// Format represents an export format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

var csvHeader = []string{"id", "timestamp", "command", "exit_code", "cwd"}

// Options contains export configuration
type Options struct {
	Format  Format
	Query   string
	Filters storage.Filters
}

// Record is the serialized form of a history entry
type Record struct {
	ID        int64  `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Command   string `json:"command"`
	ExitCode  int64  `json:"exit_code"`
	Cwd       string `json:"cwd"`
}

func toRecord(h *history.History) Record {
	return Record{
		ID:        h.ID,
		Timestamp: h.Timestamp.Unix(),
		Command:   h.Command,
		ExitCode:  h.ExitCode,
		Cwd:       h.Cwd,
	}
}

// Export writes the entries matching opts to w and returns how many were written
func Export(store storage.Store, w io.Writer, opts Options) (int, error) {
	entries, err := store.Search(opts.Query, opts.Filters)
	if err != nil {
		return 0, fmt.Errorf("failed to query entries: %w", err)
	}

	switch opts.Format {
	case FormatText:
		err = exportText(entries, w)
	case FormatJSON:
		err = exportJSON(entries, w)
	case FormatCSV:
		err = exportCSV(entries, w)
	default:
		return 0, fmt.Errorf("unsupported format: %s", opts.Format)
	}
	if err != nil {
		return 0, err
	}

	return len(entries), nil
}

// exportText writes one command per line
func exportText(entries []*history.History, w io.Writer) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e.Command); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}
	return nil
}

func exportJSON(entries []*history.History, w io.Writer) error {
	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = toRecord(e)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func exportCSV(entries []*history.History, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, e := range entries {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			formatTimestamp(e.Timestamp),
			e.Command,
			strconv.FormatInt(e.ExitCode, 10),
			e.Cwd,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	return nil
}

// formatTimestamp formats t as RFC 3339 in UTC
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseFormat parses a format string
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown format: %s (supported: text, json, csv)", s)
	}
}
