package interp_test

import (
	"context"
	"testing"

	"symexec/internal/ast"
	"symexec/internal/ctxid"
	"symexec/internal/explorer"
	"symexec/internal/interp"
	"symexec/internal/solver/refsolver"
	"symexec/internal/state"
)

func runExplorer(t *testing.T, program []ast.Stmt) *explorer.Groups {
	t.Helper()
	st := state.New(refsolver.New(), program)
	ex := explorer.New(interp.New(), st)
	groups, err := ex.Explore(context.Background())
	if err != nil {
		t.Fatalf("unexpected explore error: %v", err)
	}
	if len(groups.Errored) != 0 {
		t.Fatalf("unexpected errored paths: %+v", groups.Errored)
	}
	return groups
}

// x = 1; x = 2; x = 3.1415 — exactly one completed path; the final value
// is real, and any_int on it fails.
func TestRetypingIntToRealKeepsOneCompletedPath(t *testing.T) {
	program := []ast.Stmt{
		&ast.Assign{Target: "x", Value: &ast.Num{Int: 1}},
		&ast.Assign{Target: "x", Value: &ast.Num{Int: 2}},
		&ast.Assign{Target: "x", Value: &ast.Num{IsReal: true, Real: 3.1415}},
	}
	groups := runExplorer(t, program)
	if len(groups.Completed) != 1 {
		t.Fatalf("expected exactly one completed path, got %d", len(groups.Completed))
	}
	p := groups.Completed[0]

	if _, ok, err := p.State.AnyInt("x", ctxid.Global); err != nil {
		t.Fatalf("unexpected error from AnyInt: %v", err)
	} else if ok {
		t.Errorf("expected any_int('x') to fail once x is real")
	}

	f, ok, err := p.State.AnyReal("x", ctxid.Global)
	if err != nil {
		t.Fatalf("unexpected error from AnyReal: %v", err)
	}
	if !ok {
		t.Fatalf("expected any_real('x') to succeed")
	}
	if f != 3.1415 {
		t.Errorf("expected x == 3.1415, got %v", f)
	}
}

// def f(): return 5
// x = f()
// z = 1
// — one completed path; x == 5, z == 1.
func TestSimpleFunctionReturnBindsCallerValue(t *testing.T) {
	program := []ast.Stmt{
		&ast.FunctionDef{Name: "f", Body: []ast.Stmt{
			&ast.Return{Value: &ast.Num{Int: 5}},
		}},
		&ast.Assign{Target: "x", Value: &ast.Call{Callee: &ast.Name{Id: "f"}}},
		&ast.Assign{Target: "z", Value: &ast.Num{Int: 1}},
	}
	groups := runExplorer(t, program)
	if len(groups.Completed) != 1 {
		t.Fatalf("expected exactly one completed path, got %d", len(groups.Completed))
	}
	p := groups.Completed[0]

	x, ok, err := p.State.AnyInt("x", ctxid.Global)
	if err != nil || !ok {
		t.Fatalf("expected any_int('x') to succeed, got ok=%v err=%v", ok, err)
	}
	if x != 5 {
		t.Errorf("expected x == 5, got %d", x)
	}

	z, ok, err := p.State.AnyInt("z", ctxid.Global)
	if err != nil || !ok {
		t.Fatalf("expected any_int('z') to succeed, got ok=%v err=%v", ok, err)
	}
	if z != 1 {
		t.Errorf("expected z == 1, got %d", z)
	}
}

// def t2(): return 5
// def t(): return t2() + t2()
// x = t()
// — one completed path; x == 10; backtrace length >= 11.
func TestNestedCallsSumReturnValues(t *testing.T) {
	program := []ast.Stmt{
		&ast.FunctionDef{Name: "t2", Body: []ast.Stmt{
			&ast.Return{Value: &ast.Num{Int: 5}},
		}},
		&ast.FunctionDef{Name: "t", Body: []ast.Stmt{
			&ast.Return{Value: &ast.BinOp{
				Left:  &ast.Call{Callee: &ast.Name{Id: "t2"}},
				Op:    "+",
				Right: &ast.Call{Callee: &ast.Name{Id: "t2"}},
			}},
		}},
		&ast.Assign{Target: "x", Value: &ast.Call{Callee: &ast.Name{Id: "t"}}},
	}
	groups := runExplorer(t, program)
	if len(groups.Completed) != 1 {
		t.Fatalf("expected exactly one completed path, got %d", len(groups.Completed))
	}
	p := groups.Completed[0]

	x, ok, err := p.State.AnyInt("x", ctxid.Global)
	if err != nil || !ok {
		t.Fatalf("expected any_int('x') to succeed, got ok=%v err=%v", ok, err)
	}
	if x != 10 {
		t.Errorf("expected x == 10, got %d", x)
	}
	if len(p.Trace) < 11 {
		t.Errorf("expected a backtrace of at least 11 instructions, got %d", len(p.Trace))
	}
}

// l = [x for x in range(5)] — one completed path; any_list('l') == [0,1,2,3,4].
func TestListCompBuildsRangeList(t *testing.T) {
	program := []ast.Stmt{
		&ast.Assign{Target: "l", Value: &ast.ListComp{
			Elt:    &ast.Name{Id: "x"},
			Target: "x",
			Iter: &ast.Call{
				Callee: &ast.Name{Id: "range"},
				Args:   []ast.Expr{&ast.Num{Int: 5}},
			},
		}},
	}
	groups := runExplorer(t, program)
	if len(groups.Completed) != 1 {
		t.Fatalf("expected exactly one completed path, got %d", len(groups.Completed))
	}
	p := groups.Completed[0]

	l, ok, err := p.State.AnyList("l", ctxid.Global)
	if err != nil || !ok {
		t.Fatalf("expected any_list('l') to succeed, got ok=%v err=%v", ok, err)
	}
	want := []int64{0, 1, 2, 3, 4}
	if len(l) != len(want) {
		t.Fatalf("expected %v, got %v", want, l)
	}
	for i := range want {
		if l[i] != want[i] {
			t.Errorf("expected l[%d] == %d, got %d", i, want[i], l[i])
		}
	}
}

// x = int("0b1101", 2) — one completed path, x == 13.
// q = int("12","10") — one errored path (non-integer base argument).
func TestIntBuiltinParsesBaseAndRejectsStringBase(t *testing.T) {
	good := []ast.Stmt{
		&ast.Assign{Target: "x", Value: &ast.Call{
			Callee: &ast.Name{Id: "int"},
			Args: []ast.Expr{
				&ast.Str{Value: "0b1101"},
				&ast.Num{Int: 2},
			},
		}},
	}
	groups := runExplorer(t, good)
	if len(groups.Completed) != 1 {
		t.Fatalf("expected exactly one completed path, got %d", len(groups.Completed))
	}
	x, ok, err := groups.Completed[0].State.AnyInt("x", ctxid.Global)
	if err != nil || !ok {
		t.Fatalf("expected any_int('x') to succeed, got ok=%v err=%v", ok, err)
	}
	if x != 13 {
		t.Errorf("expected x == 13, got %d", x)
	}

	bad := []ast.Stmt{
		&ast.Assign{Target: "q", Value: &ast.Call{
			Callee: &ast.Name{Id: "int"},
			Args: []ast.Expr{
				&ast.Str{Value: "12"},
				&ast.Str{Value: "10"},
			},
		}},
	}
	st := state.New(refsolver.New(), bad)
	ex := explorer.New(interp.New(), st)
	badGroups, err := ex.Explore(context.Background())
	if err != nil {
		t.Fatalf("unexpected explore error: %v", err)
	}
	if len(badGroups.Errored) != 1 {
		t.Fatalf("expected exactly one errored path for a non-integer base argument, got %d", len(badGroups.Errored))
	}
}
