package importer

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spideyz0r/hx/pkg/history"
)

const (
	// extendedPrefix starts a line written with zsh's EXTENDED_HISTORY
	extendedPrefix = ": "

	// continuation ends a line whose command goes on on the next line
	continuation = `\\`

	// Unix seconds of -9999-01-01 and 9999-12-31T23:59:59, the range an
	// extended header timestamp may take
	minTimestamp = -377705116800
	maxTimestamp = 253402300799

	maxLineSize = 1024 * 1024

	// zshMeta escapes the byte that follows it, stored XOR metaMask
	zshMeta  = 0x83
	metaMask = 0x20
)

// zshHistoryFiles are tried in order inside $ZDOTDIR or $HOME
var zshHistoryFiles = []string{".zhistory", ".zsh_history", ".histfile"}

// Zsh imports a zsh history file, in plain or extended format
type Zsh struct {
	path string
	now  func() time.Time
}

// NewZsh locates the user's zsh history file: $HISTFILE if set, otherwise
// the first of .zhistory, .zsh_history and .histfile found in $ZDOTDIR (or
// the home directory).
func NewZsh() (*Zsh, error) {
	path, err := zshHistoryPath()
	if err != nil {
		return nil, err
	}

	slog.Info("found zsh history file", "path", path)
	return NewZshFromFile(path), nil
}

// NewZshFromFile imports the zsh history file at path
func NewZshFromFile(path string) *Zsh {
	return &Zsh{
		path: path,
		now:  time.Now,
	}
}

func zshHistoryPath() (string, error) {
	if histfile := os.Getenv("HISTFILE"); histfile != "" {
		if _, err := os.Stat(histfile); err == nil {
			return histfile, nil
		}
	}

	dir := os.Getenv("ZDOTDIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = home
	}

	for _, name := range zshHistoryFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: no zsh history in %s", ErrNoHistoryFile, dir)
}

// Name returns "zsh"
func (z *Zsh) Name() string {
	return "zsh"
}

// Path returns the history file being imported
func (z *Zsh) Path() string {
	return z.path
}

// Load parses the history file and pushes every command to loader, in file
// order. Malformed lines are imported as plain commands and never abort the
// load; a loader error does.
func (z *Zsh) Load(loader Loader) error {
	file, err := os.Open(z.path)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	p := &zshParser{
		loader: loader,
		now:    z.now(),
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := p.handle(classifyLine(unmetafy(scanner.Bytes()))); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading history file: %w", err)
	}

	return p.finalize()
}

// unmetafy reverses zsh's metafication of history lines: a Meta byte
// (0x83) followed by b stands for b^0x20. A trailing Meta is kept as-is.
func unmetafy(line []byte) string {
	if bytes.IndexByte(line, zshMeta) < 0 {
		return string(line)
	}

	out := make([]byte, 0, len(line))
	for i := 0; i < len(line); i++ {
		if line[i] == zshMeta && i+1 < len(line) {
			i++
			out = append(out, line[i]^metaMask)
			continue
		}
		out = append(out, line[i])
	}
	return string(out)
}

type lineKind int

const (
	lineEmpty lineKind = iota
	lineSimple
	lineHeader
	lineMalformed
)

// parsedLine is one classified history file line
type parsedLine struct {
	kind lineKind
	// command text for simple lines and headers, the whole line for
	// malformed headers
	text      string
	timestamp time.Time
	continued bool
}

// classifyLine decides what a single history file line is. It has no side
// effects besides logging malformed headers.
func classifyLine(raw string) parsedLine {
	line := strings.TrimRightFunc(raw, unicode.IsSpace)
	if line == "" {
		return parsedLine{kind: lineEmpty}
	}

	if !strings.HasPrefix(line, extendedPrefix) {
		return parsedLine{kind: lineSimple, text: line, continued: strings.HasSuffix(line, continuation)}
	}

	rest := strings.TrimPrefix(line, extendedPrefix)

	tsField, rest, ok := strings.Cut(rest, ":")
	if !ok {
		return malformed(line, "missing timestamp separator")
	}

	_, command, ok := strings.Cut(rest, ";")
	if !ok {
		return malformed(line, "missing command separator")
	}
	command = strings.TrimLeftFunc(command, unicode.IsSpace)

	ts, err := strconv.ParseInt(strings.TrimSpace(tsField), 10, 64)
	if err != nil {
		return malformed(line, "non-numeric timestamp")
	}
	if ts < minTimestamp || ts > maxTimestamp {
		return malformed(line, "timestamp out of range")
	}

	return parsedLine{
		kind:      lineHeader,
		text:      command,
		timestamp: history.FromUnix(ts),
		continued: strings.HasSuffix(command, continuation),
	}
}

func malformed(line, reason string) parsedLine {
	slog.Warn("malformed extended history line, importing as plain command", "reason", reason, "line", line)
	return parsedLine{kind: lineMalformed, text: line}
}

type parseContext int

const (
	contextIdle parseContext = iota
	contextSimple
	contextExtended
)

// zshParser accumulates the lines of one command at a time. It lives for a
// single Load.
type zshParser struct {
	loader Loader
	now    time.Time
	// seconds subtracted from now for the next command without a timestamp
	offset int64

	lines     []string
	context   parseContext
	timestamp time.Time // header timestamp in contextExtended
	continued bool      // the extended command expects another line
}

func (p *zshParser) handle(line parsedLine) error {
	switch line.kind {
	case lineHeader:
		return p.handleHeader(line)
	case lineMalformed:
		return p.handleMalformed(line)
	case lineSimple:
		return p.handleSimple(line)
	default:
		p.handleEmpty()
		return nil
	}
}

func (p *zshParser) handleHeader(line parsedLine) error {
	if err := p.finalize(); err != nil {
		return err
	}

	p.lines = append(p.lines, line.text)
	p.context = contextExtended
	p.timestamp = line.timestamp
	p.continued = line.continued

	if !line.continued {
		return p.finalize()
	}
	return nil
}

// handleMalformed imports the raw line on its own, as a command without a
// timestamp
func (p *zshParser) handleMalformed(line parsedLine) error {
	if err := p.finalize(); err != nil {
		return err
	}

	p.lines = append(p.lines, line.text)
	p.context = contextSimple
	return p.finalize()
}

func (p *zshParser) handleSimple(line parsedLine) error {
	if p.context == contextExtended {
		if p.continued {
			p.lines = append(p.lines, line.text)
			p.continued = line.continued
			if !line.continued {
				return p.finalize()
			}
			return nil
		}

		if err := p.finalize(); err != nil {
			return err
		}
	}

	p.lines = append(p.lines, line.text)
	p.context = contextSimple
	if !line.continued {
		return p.finalize()
	}
	return nil
}

// handleEmpty keeps blank lines only inside a continued command
func (p *zshParser) handleEmpty() {
	switch p.context {
	case contextExtended:
		if p.continued {
			p.lines = append(p.lines, "")
		}
	case contextSimple:
		if n := len(p.lines); n > 0 && strings.HasSuffix(p.lines[n-1], continuation) {
			p.lines = append(p.lines, "")
		}
	}
}

// finalize pushes the buffered command, if any, and returns to idle
func (p *zshParser) finalize() error {
	defer func() {
		p.lines = p.lines[:0]
		p.context = contextIdle
		p.continued = false
	}()

	if len(p.lines) == 0 {
		return nil
	}

	command := strings.ReplaceAll(strings.Join(p.lines, "\n"), continuation, `\`)

	timestamp := p.timestamp
	if p.context != contextExtended {
		timestamp = p.now.Add(-time.Duration(p.offset) * time.Second)
		p.offset++
	}

	if err := p.loader.Push(history.NewImported(command, timestamp)); err != nil {
		return fmt.Errorf("failed to push command: %w", err)
	}
	return nil
}
