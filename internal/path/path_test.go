package path

import (
	"testing"

	"symexec/internal/ast"
	"symexec/internal/interp"
	"symexec/internal/solver/refsolver"
	"symexec/internal/state"
)

func program() []ast.Stmt {
	return []ast.Stmt{
		&ast.Assign{
			Target: "x",
			Value: &ast.Call{
				Callee: &ast.Name{Id: "Symbolic.Int"},
			},
		},
		&ast.If{
			Test: &ast.Compare{
				Left: &ast.Name{Id: "x"},
				Ops:  []string{">"},
				Comparators: []ast.Expr{&ast.Num{Int: 0}},
			},
			Body:   []ast.Stmt{&ast.Pass{}},
			Orelse: []ast.Stmt{&ast.Pass{}},
		},
	}
}

func newTestPath(t *testing.T) (*Path, *interp.Interp) {
	t.Helper()
	st := state.New(refsolver.New(), program())
	return New(0, st), interp.New()
}

func TestStepOnInactivePathErrors(t *testing.T) {
	p, ip := newTestPath(t)
	p.Status = Completed
	if _, err := p.Step(ip, func() int { return 1 }); err == nil {
		t.Fatalf("expected Step on a non-active path to error")
	}
}

func TestStepAssignReturnsSingleActiveSuccessor(t *testing.T) {
	p, ip := newTestPath(t)
	next := 1
	successors, err := p.Step(ip, func() int { id := next; next++; return id })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(successors) != 1 {
		t.Fatalf("expected a single successor for Assign, got %d", len(successors))
	}
	if successors[0].Status != Active {
		t.Errorf("expected the successor to stay active, got %v", successors[0].Status)
	}
	if len(successors[0].Trace) != 1 {
		t.Errorf("expected one trace entry after stepping Assign, got %d", len(successors[0].Trace))
	}
}

func TestStepIfForksIntoTwoSuccessors(t *testing.T) {
	p, ip := newTestPath(t)
	next := 1
	allocID := func() int { id := next; next++; return id }

	successors, err := p.Step(ip, allocID)
	if err != nil {
		t.Fatalf("unexpected error stepping assign: %v", err)
	}
	p = successors[0]

	successors, err = p.Step(ip, allocID)
	if err != nil {
		t.Fatalf("unexpected error stepping if: %v", err)
	}
	if len(successors) != 2 {
		t.Fatalf("expected If to fork into 2 successors, got %d", len(successors))
	}
	if successors[0].ID != p.ID {
		t.Errorf("expected the first fork to keep the parent's id %d, got %d", p.ID, successors[0].ID)
	}
	if successors[1].ID == p.ID {
		t.Errorf("expected the second fork to get a fresh id distinct from %d", p.ID)
	}
}
