package reporting

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"symexec/internal/execerr"
	"symexec/internal/explorer"
	"symexec/internal/path"
)

func TestSummarizeCountsEachBucket(t *testing.T) {
	groups := &explorer.Groups{
		Active:    []*path.Path{{ID: 1, Status: path.Active}},
		Completed: []*path.Path{{ID: 2, Status: path.Completed}},
		Deadended: []*path.Path{{ID: 3, Status: path.Deadended}},
		Errored:   []*path.Path{{ID: 4, Status: path.Errored, Err: &execerr.ExecError{Message: "boom"}}},
	}
	started := time.Now().Add(-time.Second)
	s := Summarize("prog.json", started, groups)

	if s.Active != 1 || s.Completed != 1 || s.Deadended != 1 || s.Errored != 1 {
		t.Fatalf("expected one path per bucket, got %+v", s)
	}
	if len(s.Paths) != 4 {
		t.Fatalf("expected 4 path infos, got %d", len(s.Paths))
	}
	var found bool
	for _, p := range s.Paths {
		if p.ID == 4 {
			found = true
			if !strings.Contains(p.Error, "boom") {
				t.Errorf("expected errored path's Error to mention %q, got %q", "boom", p.Error)
			}
		}
	}
	if !found {
		t.Errorf("expected to find path id 4 among the rendered infos")
	}
}

func TestWriteTextNonTerminalSkipsColor(t *testing.T) {
	groups := &explorer.Groups{
		Errored: []*path.Path{{ID: 1, Status: path.Errored, Err: &execerr.ExecError{Message: "boom"}}},
	}
	s := Summarize("prog.json", time.Now(), groups)

	var buf bytes.Buffer
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("unexpected error creating pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	WriteText(&buf, w, s)
	out := buf.String()
	if bytes.Contains([]byte(out), []byte("\033[31m")) {
		t.Errorf("expected no ANSI color codes when writing to a non-terminal, got %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("errored=1")) {
		t.Errorf("expected the summary line to report errored=1, got %q", out)
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	groups := &explorer.Groups{Completed: []*path.Path{{ID: 7, Status: path.Completed}}}
	s := Summarize("prog.json", time.Now(), groups)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unexpected error decoding JSON: %v", err)
	}
	if decoded.Source != "prog.json" || decoded.Completed != 1 {
		t.Errorf("unexpected decoded summary: %+v", decoded)
	}
}
