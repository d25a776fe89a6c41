// Package reporting renders a finished exploration run as a human-readable
// summary or as JSON, adapted from the teacher's ReportingModule
// (SecurityReport/ExecutiveSummary/ExportReport) with the vulnerability-
// finding vocabulary replaced by path-group counts and witnesses. Coloring
// and duration formatting follow the same two libraries the teacher reached
// for: github.com/mattn/go-isatty gates ANSI color on whether stdout is a
// terminal, github.com/dustin/go-humanize renders elapsed run time.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"symexec/internal/explorer"
	"symexec/internal/path"
)

// Summary is the terminal report for one exploration run.
type Summary struct {
	Source    string    `json:"source"`
	StartedAt time.Time `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Active    int       `json:"active"`
	Completed int       `json:"completed"`
	Deadended int       `json:"deadended"`
	Errored   int       `json:"errored"`
	Paths     []PathInfo `json:"paths"`
}

// PathInfo is one path's final classification and backtrace.
type PathInfo struct {
	ID     int      `json:"id"`
	Status string   `json:"status"`
	Trace  []string `json:"trace"`
	Error  string   `json:"error,omitempty"`
}

// Summarize builds a Summary from an explorer's final Groups.
func Summarize(source string, started time.Time, groups *explorer.Groups) Summary {
	s := Summary{
		Source:    source,
		StartedAt: started,
		Duration:  time.Since(started),
		Active:    len(groups.Active),
		Completed: len(groups.Completed),
		Deadended: len(groups.Deadended),
		Errored:   len(groups.Errored),
	}
	add := func(ps []*path.Path) {
		for _, p := range ps {
			info := PathInfo{ID: p.ID, Status: p.Status.String(), Trace: p.Trace}
			if p.Err != nil {
				info.Error = p.Err.Error()
			}
			s.Paths = append(s.Paths, info)
		}
	}
	add(groups.Active)
	add(groups.Completed)
	add(groups.Deadended)
	add(groups.Errored)
	return s
}

// WriteText renders a human-readable summary to w, colorizing the status
// line only when out is a terminal.
func WriteText(w io.Writer, out *os.File, s Summary) {
	colorize := isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())

	fmt.Fprintf(w, "%s: explored in %s\n", s.Source, humanize.RelTime(s.StartedAt, s.StartedAt.Add(s.Duration), "", ""))
	line := fmt.Sprintf("  completed=%d deadended=%d errored=%d active=%d",
		s.Completed, s.Deadended, s.Errored, s.Active)
	if colorize && s.Errored > 0 {
		fmt.Fprintf(w, "\033[31m%s\033[0m\n", line)
	} else {
		fmt.Fprintln(w, line)
	}
	for _, p := range s.Paths {
		if p.Error != "" {
			fmt.Fprintf(w, "  path %d [%s]: %s\n", p.ID, p.Status, p.Error)
		}
	}
}

// WriteJSON renders s as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
