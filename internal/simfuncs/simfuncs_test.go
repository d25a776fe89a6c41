package simfuncs

import (
	"context"
	"testing"

	"symexec/internal/solver"
	"symexec/internal/solver/refsolver"
	"symexec/internal/state"
	"symexec/internal/symvalue"
)

func newTestState(t *testing.T) *state.State {
	t.Helper()
	return state.New(refsolver.New(), nil)
}

func strLit(st *state.State, s string) *symvalue.String {
	chars := make([]*symvalue.Char, len(s))
	for i := 0; i < len(s); i++ {
		chars[i] = &symvalue.Char{Variable: &symvalue.BitVec{Term: st.Solver.MkBVLit(int64(s[i]), 8), Size: 8}}
	}
	return &symvalue.String{Chars: chars}
}

func concreteIntVal(n int64) *symvalue.Int { return &symvalue.Int{Concrete: &n} }

// s = Symbolic.String(8); x = s.index('a') — eight completed paths; the
// set of any_int('x') values equals {0,1,2,3,4,5,6,7}.
func TestHandleIndexForksOnePerPosition(t *testing.T) {
	st := newTestState(t)
	recv, err := handleSymbolicString(st, []symvalue.Value{concreteIntVal(8)})
	if err != nil {
		t.Fatalf("unexpected error constructing Symbolic.String: %v", err)
	}
	needle := strLit(st, "a")

	out, err := handleIndex(st, []symvalue.Value{recv.Value, needle})
	if err != nil {
		t.Fatalf("unexpected error from String.index: %v", err)
	}
	if len(out.Forks) != 8 {
		t.Fatalf("expected 8 forks, got %d", len(out.Forks))
	}

	seen := map[int64]bool{}
	for _, f := range out.Forks {
		status, err := f.State.Solver.Check(context.Background())
		if err != nil {
			t.Fatalf("unexpected solver error: %v", err)
		}
		if status != solver.Sat {
			t.Errorf("expected fork to be sat, got %v", status)
		}
		iv, ok := f.Value.(*symvalue.Int)
		if !ok || !iv.IsConcrete() {
			t.Fatalf("expected a concrete Int fork value, got %#v", f.Value)
		}
		seen[*iv.Concrete] = true
	}
	for i := int64(0); i < 8; i++ {
		if !seen[i] {
			t.Errorf("expected index %d among the forked witnesses", i)
		}
	}
}

func TestHandleIndexRejectsMultiCharTarget(t *testing.T) {
	st := newTestState(t)
	recv := strLit(st, "hello")
	target := strLit(st, "lo")
	if _, err := handleIndex(st, []symvalue.Value{recv, target}); err == nil {
		t.Fatalf("expected an error for a multi-character index target")
	}
}

func TestHandleRstripStripsDefaultWhitespace(t *testing.T) {
	st := newTestState(t)
	recv := strLit(st, "hello   \t\n")
	out, err := handleRstrip(st, []symvalue.Value{recv})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sv, ok := out.Value.(*symvalue.String)
	if !ok {
		t.Fatalf("expected a String result")
	}
	got, serr := concreteString(st, sv)
	if serr != nil {
		t.Fatalf("unexpected error materializing result: %v", serr)
	}
	if got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}

func TestHandleRstripCustomCutSet(t *testing.T) {
	st := newTestState(t)
	recv := strLit(st, "mississippi")
	cut := strLit(st, "ip")
	out, err := handleRstrip(st, []symvalue.Value{recv, cut})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, serr := concreteString(st, out.Value.(*symvalue.String))
	if serr != nil {
		t.Fatalf("unexpected error: %v", serr)
	}
	if got != "mississ" {
		t.Errorf("expected %q, got %q", "mississ", got)
	}
}

func TestHandleJoinConcatenatesWithSeparator(t *testing.T) {
	st := newTestState(t)
	sep := strLit(st, ", ")
	parts := &symvalue.List{Elements: []symvalue.Value{
		strLit(st, "a"), strLit(st, "b"), strLit(st, "c"),
	}}
	out, err := handleJoin(st, []symvalue.Value{sep, parts})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, serr := concreteString(st, out.Value.(*symvalue.String))
	if serr != nil {
		t.Fatalf("unexpected error: %v", serr)
	}
	if got != "a, b, c" {
		t.Errorf("expected %q, got %q", "a, b, c", got)
	}
}

// x = int("0b1101", 2) — x == 13.
func TestHandleIntParsesExplicitBase(t *testing.T) {
	st := newTestState(t)
	out, err := handleInt(st, []symvalue.Value{strLit(st, "0b1101"), concreteIntVal(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	iv := out.Value.(*symvalue.Int)
	if !iv.IsConcrete() || *iv.Concrete != 13 {
		t.Errorf("expected 13, got %#v", out.Value)
	}
}

// q = int("12", "10") — a non-integer base argument errors.
func TestHandleIntRejectsNonIntegerBase(t *testing.T) {
	st := newTestState(t)
	if _, err := handleInt(st, []symvalue.Value{strLit(st, "12"), strLit(st, "10")}); err == nil {
		t.Fatalf("expected an error for a string base argument")
	}
}

func TestHandleLenReportsStringAndListLength(t *testing.T) {
	st := newTestState(t)
	out, err := handleLen(st, []symvalue.Value{strLit(st, "hello")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *out.Value.(*symvalue.Int).Concrete != 5 {
		t.Errorf("expected len 5, got %#v", out.Value)
	}

	lst := &symvalue.List{Elements: []symvalue.Value{concreteIntVal(1), concreteIntVal(2)}}
	out, err = handleLen(st, []symvalue.Value{lst})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *out.Value.(*symvalue.Int).Concrete != 2 {
		t.Errorf("expected len 2, got %#v", out.Value)
	}
}

func TestHandleRangeSingleArgument(t *testing.T) {
	st := newTestState(t)
	out, err := handleRange(st, []symvalue.Value{concreteIntVal(5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lst := out.Value.(*symvalue.List)
	if len(lst.Elements) != 5 {
		t.Fatalf("expected 5 elements, got %d", len(lst.Elements))
	}
	for i, e := range lst.Elements {
		if *e.(*symvalue.Int).Concrete != int64(i) {
			t.Errorf("expected element %d == %d, got %v", i, i, e)
		}
	}
}

func TestHandleRangeStartStopStep(t *testing.T) {
	st := newTestState(t)
	out, err := handleRange(st, []symvalue.Value{concreteIntVal(10), concreteIntVal(0), concreteIntVal(-2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lst := out.Value.(*symvalue.List)
	want := []int64{10, 8, 6, 4, 2}
	if len(lst.Elements) != len(want) {
		t.Fatalf("expected %v, got %d elements", want, len(lst.Elements))
	}
	for i, w := range want {
		if *lst.Elements[i].(*symvalue.Int).Concrete != w {
			t.Errorf("expected element %d == %d, got %v", i, w, lst.Elements[i])
		}
	}
}

func TestHandleRangeRejectsZeroStep(t *testing.T) {
	st := newTestState(t)
	if _, err := handleRange(st, []symvalue.Value{concreteIntVal(0), concreteIntVal(5), concreteIntVal(0)}); err == nil {
		t.Fatalf("expected an error for a zero step")
	}
}

func TestHandleRangeRejectsSymbolicBound(t *testing.T) {
	st := newTestState(t)
	sym, err := handleSymbolicInt(st, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := handleRange(st, []symvalue.Value{sym.Value}); err == nil {
		t.Fatalf("expected an error for a symbolic range bound")
	}
}
