package state

import (
	"testing"

	"symexec/internal/object"
	"symexec/internal/solver"
	"symexec/internal/solver/refsolver"
	"symexec/internal/symvalue"
)

func TestAnyIntConcrete(t *testing.T) {
	sv := refsolver.New()
	st := New(sv, nil)
	lit := int64(42)
	st.Objects.Set("x", st.Ctx, &symvalue.Int{VarName: "x", CtxID: st.Ctx, Concrete: &lit})

	got, ok, err := st.AnyInt("x", st.Ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a witness for x")
	}
	if got != 42 {
		t.Errorf("expected witness 42, got %d", got)
	}
}

func TestAnyIntUnknownNameIsNotOK(t *testing.T) {
	st := New(refsolver.New(), nil)
	_, ok, err := st.AnyInt("missing", st.Ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected ok=false for a name never assigned")
	}
}

func TestIsStaticDistinguishesConstrainedFromFree(t *testing.T) {
	sv := refsolver.New()
	st := New(sv, nil)
	v := st.Objects.GetVar(sv, "x", st.Ctx, object.Kind{Sort: solver.SortInt})
	term := v.(*symvalue.Int).Term

	free, err := st.IsStatic("x", st.Ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if free {
		t.Errorf("expected an unconstrained variable to not be static")
	}

	sv.Assert(sv.Eq(term, sv.MkIntLit(7)))
	static, err := st.IsStatic("x", st.Ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !static {
		t.Errorf("expected x==7 to make the variable static")
	}
}

func TestAnyNIntStopsAtN(t *testing.T) {
	sv := refsolver.New()
	st := New(sv, nil)
	v := st.Objects.GetVar(sv, "x", st.Ctx, object.Kind{Sort: solver.SortInt})
	term := v.(*symvalue.Int).Term
	sv.Assert(sv.Ge(term, sv.MkIntLit(0)))
	sv.Assert(sv.Le(term, sv.MkIntLit(3)))

	witnesses, err := st.AnyNInt("x", st.Ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(witnesses) != 2 {
		t.Fatalf("expected exactly 2 witnesses, got %d", len(witnesses))
	}
	if witnesses[0] == witnesses[1] {
		t.Errorf("expected distinct witnesses, got %d twice", witnesses[0])
	}
}
