package liveview

import (
	"testing"

	"symexec/internal/execerr"
	"symexec/internal/explorer"
	"symexec/internal/path"
)

func TestSnapshotOfCountsAndFlattensPaths(t *testing.T) {
	groups := &explorer.Groups{
		Active:    []*path.Path{{ID: 1, Status: path.Active}},
		Completed: []*path.Path{{ID: 2, Status: path.Completed}},
		Errored: []*path.Path{
			{ID: 3, Status: path.Errored, Err: &execerr.ExecError{Message: "boom"}},
		},
	}
	snap := snapshotOf(7, groups)

	if snap.Round != 7 {
		t.Errorf("expected round 7, got %d", snap.Round)
	}
	if snap.Active != 1 || snap.Completed != 1 || snap.Errored != 1 || snap.Deadended != 0 {
		t.Fatalf("unexpected counts: %+v", snap)
	}
	if len(snap.Paths) != 3 {
		t.Fatalf("expected 3 flattened paths, got %d", len(snap.Paths))
	}

	var sawErrored bool
	for _, p := range snap.Paths {
		if p.ID == 3 {
			sawErrored = true
			if p.Status != "errored" {
				t.Errorf("expected status %q, got %q", "errored", p.Status)
			}
			if p.Error == "" {
				t.Errorf("expected a non-empty error message for the errored path")
			}
		}
	}
	if !sawErrored {
		t.Errorf("expected to find path id 3 among the snapshot paths")
	}
}

func TestNewServerStartsWithNoClients(t *testing.T) {
	s := New("127.0.0.1:0")
	if len(s.clients) != 0 {
		t.Errorf("expected a freshly constructed server to have no clients")
	}
	if s.addr != "127.0.0.1:0" {
		t.Errorf("expected addr to be stored verbatim, got %q", s.addr)
	}
}
