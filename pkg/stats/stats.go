// Package stats summarizes the command history.
package stats

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spideyz0r/hx/pkg/history"
	"github.com/spideyz0r/hx/pkg/storage"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	topDirs    = 5
	barWidth   = 40
	cmdWidth   = 60
)

// Stats contains aggregated statistics about command history
type Stats struct {
	TotalCommands    int64
	UniqueCommands   int64
	Finished         int64 // commands with a known exit code
	SuccessRate      float64
	AvgPerDay        float64
	TopCommands      []CommandCount
	CommandsByDir    []DirectoryCount
	TimeDistribution map[int]int // hour -> count
	FirstCommand     time.Time
	LastCommand      time.Time
}

// CommandCount represents a command and how many times it was executed
type CommandCount struct {
	Command string
	Count   int
}

// DirectoryCount represents a directory and command count
type DirectoryCount struct {
	Directory string
	Count     int
}

// Collect gathers statistics over the whole history
func Collect(store storage.Store) (*Stats, error) {
	total, err := store.CountTotal()
	if err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}
	if total == 0 {
		return &Stats{TimeDistribution: map[int]int{}}, nil
	}

	entries, err := store.Search("", storage.Filters{})
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	s := aggregate(entries, time.Local)
	s.TotalCommands = total
	return s, nil
}

// CollectFiltered gathers statistics over the entries matching q and filters
func CollectFiltered(store storage.Store, q string, filters storage.Filters) (*Stats, error) {
	entries, err := store.Search(q, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	return aggregate(entries, time.Local), nil
}

// aggregate computes the statistics of entries, bucketing hours in loc
func aggregate(entries []*history.History, loc *time.Location) *Stats {
	s := &Stats{
		TotalCommands:    int64(len(entries)),
		TimeDistribution: make(map[int]int),
	}
	if len(entries) == 0 {
		return s
	}

	commands := make(map[string]int)
	dirs := make(map[string]int)
	var succeeded int64

	s.FirstCommand = entries[0].Timestamp
	s.LastCommand = entries[0].Timestamp

	for _, e := range entries {
		commands[e.Command]++

		if e.Cwd != "" && e.Cwd != history.UnknownCwd {
			dirs[e.Cwd]++
		}

		if e.IsFinished() {
			s.Finished++
			if e.ExitCode == 0 {
				succeeded++
			}
		}

		s.TimeDistribution[e.Timestamp.In(loc).Hour()]++

		if e.Timestamp.Before(s.FirstCommand) {
			s.FirstCommand = e.Timestamp
		}
		if e.Timestamp.After(s.LastCommand) {
			s.LastCommand = e.Timestamp
		}
	}

	s.UniqueCommands = int64(len(commands))
	if s.Finished > 0 {
		s.SuccessRate = float64(succeeded) / float64(s.Finished) * 100
	}

	days := s.LastCommand.Sub(s.FirstCommand).Hours() / 24
	if days > 1 {
		s.AvgPerDay = float64(s.TotalCommands) / days
	} else {
		s.AvgPerDay = float64(s.TotalCommands)
	}

	for cmd, n := range commands {
		s.TopCommands = append(s.TopCommands, CommandCount{Command: cmd, Count: n})
	}
	slices.SortFunc(s.TopCommands, func(a, b CommandCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Command, b.Command))
	})

	for dir, n := range dirs {
		s.CommandsByDir = append(s.CommandsByDir, DirectoryCount{Directory: dir, Count: n})
	}
	slices.SortFunc(s.CommandsByDir, func(a, b DirectoryCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Directory, b.Directory))
	})

	return s
}

// Format formats statistics for display
func (s *Stats) Format(topN int) string {
	if s.TotalCommands == 0 {
		return "No commands in history yet.\n"
	}

	var sb strings.Builder

	sb.WriteString("hx - History Statistics\n")
	sb.WriteString("=======================\n\n")

	fmt.Fprintf(&sb, "Total Commands:   %d\n", s.TotalCommands)
	fmt.Fprintf(&sb, "Unique Commands:  %d\n", s.UniqueCommands)
	if s.Finished > 0 {
		fmt.Fprintf(&sb, "Success Rate:     %.1f%%\n", s.SuccessRate)
	} else {
		sb.WriteString("Success Rate:     n/a\n")
	}
	fmt.Fprintf(&sb, "Avg Per Day:      %.1f\n", s.AvgPerDay)
	fmt.Fprintf(&sb, "First Command:    %s\n", s.FirstCommand.Local().Format(timeLayout))
	fmt.Fprintf(&sb, "Last Command:     %s\n\n", s.LastCommand.Local().Format(timeLayout))

	if n := min(topN, len(s.TopCommands)); n > 0 {
		fmt.Fprintf(&sb, "Top %d Commands:\n", n)
		sb.WriteString("----------------\n")
		for i, c := range s.TopCommands[:n] {
			fmt.Fprintf(&sb, "%3d. (%3d | %5.1f%%) %s\n", i+1, c.Count, s.percent(c.Count), truncate(c.Command))
		}
		sb.WriteString("\n")
	}

	if n := min(topDirs, len(s.CommandsByDir)); n > 0 {
		fmt.Fprintf(&sb, "Top %d Directories:\n", n)
		sb.WriteString("-------------------\n")
		for i, d := range s.CommandsByDir[:n] {
			fmt.Fprintf(&sb, "%3d. (%3d | %5.1f%%) %s\n", i+1, d.Count, s.percent(d.Count), d.Directory)
		}
		sb.WriteString("\n")
	}

	if len(s.TimeDistribution) > 0 {
		sb.WriteString("Commands by Hour:\n")
		sb.WriteString("-----------------\n")
		s.writeHours(&sb)
	}

	return sb.String()
}

func (s *Stats) percent(n int) float64 {
	return float64(n) / float64(s.TotalCommands) * 100
}

// writeHours draws a histogram of commands per hour of day
func (s *Stats) writeHours(sb *strings.Builder) {
	peak := 0
	for _, n := range s.TimeDistribution {
		peak = max(peak, n)
	}

	for hour := range 24 {
		n := s.TimeDistribution[hour]
		if n == 0 {
			continue
		}
		bar := strings.Repeat("█", n*barWidth/peak)
		fmt.Fprintf(sb, "%02d:00 (%3d | %5.1f%%) %s\n", hour, n, s.percent(n), bar)
	}
}

// truncate shortens long or multi-line commands to one display line
func truncate(cmd string) string {
	cmd = strings.ReplaceAll(cmd, "\n", " ↵ ")
	if r := []rune(cmd); len(r) > cmdWidth {
		return string(r[:cmdWidth-3]) + "..."
	}
	return cmd
}
