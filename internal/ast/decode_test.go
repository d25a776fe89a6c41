package ast_test

import (
	"testing"

	"symexec/internal/ast"
	"symexec/internal/execerr"
)

func TestDecodeProgramBuildsExpectedShape(t *testing.T) {
	src := `[
		{"kind":"Assign","line":1,"col":1,"target":"x","value":{"kind":"Num","int":5}},
		{"kind":"If","line":2,"col":1,
		 "test":{"kind":"Compare","left":{"kind":"Name","id":"x"},"ops":[">"],"comparators":[{"kind":"Num","int":0}]},
		 "body":[{"kind":"Pass"}],
		 "orelse":[{"kind":"Break"}]}
	]`
	prog, err := ast.DecodeProgram([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog) != 2 {
		t.Fatalf("expected 2 top-level statements, got %d", len(prog))
	}

	assign, ok := prog[0].(*ast.Assign)
	if !ok {
		t.Fatalf("expected an Assign, got %T", prog[0])
	}
	if assign.Target != "x" {
		t.Errorf("expected target %q, got %q", "x", assign.Target)
	}
	num, ok := assign.Value.(*ast.Num)
	if !ok || num.Int != 5 {
		t.Fatalf("expected Num{Int: 5}, got %#v", assign.Value)
	}

	ifStmt, ok := prog[1].(*ast.If)
	if !ok {
		t.Fatalf("expected an If, got %T", prog[1])
	}
	if len(ifStmt.Body) != 1 {
		t.Errorf("expected 1 body statement, got %d", len(ifStmt.Body))
	}
	if _, ok := ifStmt.Orelse[0].(*ast.Break); !ok {
		t.Errorf("expected orelse[0] to be a Break, got %T", ifStmt.Orelse[0])
	}
	cmp, ok := ifStmt.Test.(*ast.Compare)
	if !ok {
		t.Fatalf("expected a Compare test, got %T", ifStmt.Test)
	}
	if len(cmp.Ops) != 1 || cmp.Ops[0] != ">" {
		t.Errorf("expected ops [\">\"], got %v", cmp.Ops)
	}
}

func TestDecodeProgramRejectsUnsupportedStmtKind(t *testing.T) {
	src := `[{"kind":"Global","line":3,"col":7}]`
	_, err := ast.DecodeProgram([]byte(src))
	if err == nil {
		t.Fatalf("expected an error for an unsupported statement kind")
	}
	if !execerr.Is(err, execerr.UnsupportedASTKind) {
		t.Fatalf("expected an UnsupportedASTKind error, got %T: %v", err, err)
	}
	ee, ok := err.(*execerr.ExecError)
	if !ok {
		t.Fatalf("expected an *execerr.ExecError, got %T", err)
	}
	if ee.Location.Line != 3 || ee.Location.Column != 7 {
		t.Errorf("expected location 3:7, got %d:%d", ee.Location.Line, ee.Location.Column)
	}
}

func TestDecodeProgramRejectsUnsupportedExprKind(t *testing.T) {
	src := `[{"kind":"Assign","line":4,"col":2,"target":"y","value":{"kind":"Lambda","line":4,"col":6}}]`
	_, err := ast.DecodeProgram([]byte(src))
	if err == nil {
		t.Fatalf("expected an error for an unsupported expression kind")
	}
	if !execerr.Is(err, execerr.UnsupportedASTKind) {
		t.Fatalf("expected an UnsupportedASTKind error, got %T: %v", err, err)
	}
}
