package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spideyz0r/hx/pkg/history"
	"github.com/spideyz0r/hx/pkg/importer"
)

// Restore loads a previous export back into the store. It implements
// importer.Importer so it goes through the same batching as shell imports.
type Restore struct {
	data   []byte
	format Format
	now    func() time.Time
}

// NewRestore reads data in the given format, or detects it when format is empty
func NewRestore(data []byte, format Format) *Restore {
	if format == "" {
		format = DetectFormat(data)
	}
	return &Restore{data: data, format: format, now: time.Now}
}

// Name returns the importer name
func (r *Restore) Name() string {
	return "export"
}

// Format returns the format being restored
func (r *Restore) Format() Format {
	return r.format
}

// Load pushes every record of the export to loader
func (r *Restore) Load(loader importer.Loader) error {
	switch r.format {
	case FormatJSON:
		return r.loadJSON(loader)
	case FormatCSV:
		return r.loadCSV(loader)
	case FormatText:
		return r.loadText(loader)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Restore) loadJSON(loader importer.Loader) error {
	var records []Record
	if err := json.Unmarshal(r.data, &records); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}

	return pushOldestFirst(loader, records)
}

func (r *Restore) loadCSV(loader importer.Loader) error {
	cr := csv.NewReader(bytes.NewReader(r.data))

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"timestamp", "command"} {
		if _, ok := cols[required]; !ok {
			return fmt.Errorf("CSV is missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return pushOldestFirst(loader, records)
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		ts, err := time.Parse(time.RFC3339, field(row, "timestamp"))
		if err != nil {
			return fmt.Errorf("invalid timestamp on CSV line %d: %w", line, err)
		}

		rec := Record{
			Timestamp: ts.Unix(),
			Command:   field(row, "command"),
			ExitCode:  history.UnknownExitCode,
			Cwd:       field(row, "cwd"),
		}
		if v := field(row, "exit_code"); v != "" {
			if rec.ExitCode, err = strconv.ParseInt(v, 10, 64); err != nil {
				return fmt.Errorf("invalid exit code on CSV line %d: %w", line, err)
			}
		}

		records = append(records, rec)
	}
}

// loadText restores a plain command list. Exports are newest first, so the
// first line gets the latest timestamp.
func (r *Restore) loadText(loader importer.Loader) error {
	var commands []string

	sc := bufio.NewScanner(bytes.NewReader(r.data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); strings.TrimSpace(line) != "" {
			commands = append(commands, line)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read text export: %w", err)
	}

	now := r.now()
	slices.Reverse(commands)
	for i, cmd := range commands {
		ts := now.Add(-time.Duration(len(commands)-i) * time.Second)
		if err := loader.Push(history.NewImported(cmd, ts)); err != nil {
			return err
		}
	}
	return nil
}

// pushOldestFirst loads records in reverse, restoring exports (newest first)
// so that ids grow with time again
func pushOldestFirst(loader importer.Loader, records []Record) error {
	for _, rec := range slices.Backward(records) {
		if err := loader.Push(fromRecord(rec)); err != nil {
			return err
		}
	}
	return nil
}

func fromRecord(rec Record) *history.History {
	h := history.NewImported(rec.Command, history.FromUnix(rec.Timestamp))
	h.ExitCode = rec.ExitCode
	if rec.Cwd != "" {
		h.Cwd = rec.Cwd
	}
	return h
}

// DetectFormat guesses the format of an export from its content
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(data)

	if bytes.HasPrefix(trimmed, []byte("[")) {
		return FormatJSON
	}
	if bytes.HasPrefix(trimmed, []byte(strings.Join(csvHeader[:2], ","))) {
		return FormatCSV
	}
	return FormatText
}
