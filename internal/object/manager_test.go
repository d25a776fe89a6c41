package object

import (
	"testing"

	"symexec/internal/solver"
	"symexec/internal/solver/refsolver"
	"symexec/internal/symvalue"
)

func TestGetVarCreatesFresh(t *testing.T) {
	m := New()
	s := refsolver.New()

	v := m.GetVar(s, "x", 0, Kind{Sort: solver.SortInt})
	i, ok := v.(*symvalue.Int)
	if !ok {
		t.Fatalf("expected *symvalue.Int, got %T", v)
	}
	if i.Count() != 0 {
		t.Errorf("expected first count to be 0, got %d", i.Count())
	}
	if !m.Has("x", 0) {
		t.Errorf("expected x@0 to be tracked after GetVar")
	}
}

func TestGetVarReusesMatchingValue(t *testing.T) {
	m := New()
	s := refsolver.New()

	first := m.GetVar(s, "x", 0, Kind{Sort: solver.SortInt})
	second := m.GetVar(s, "x", 0, Kind{Sort: solver.SortInt})
	if first != second {
		t.Errorf("expected GetVar to return the same value when sort matches")
	}
}

func TestGetVarRetypesOnSortMismatch(t *testing.T) {
	m := New()
	s := refsolver.New()

	i := m.GetVar(s, "x", 0, Kind{Sort: solver.SortInt})
	r := m.GetVar(s, "x", 0, Kind{Sort: solver.SortReal})

	if _, ok := r.(*symvalue.Real); !ok {
		t.Fatalf("expected retyping to produce *symvalue.Real, got %T", r)
	}
	if r.Count() != i.Count()+1 {
		t.Errorf("expected retyped value's count to progress from %d, got %d", i.Count(), r.Count())
	}
}

// NextSSACount must agree with the count GetVar would have produced,
// without registering GetVar's fresh solver variable — callers like
// storeAssign are about to overwrite the slot with their own value and
// never look at what GetVar would have built.
func TestNextSSACountMatchesGetVarWithoutRegisteringAVariable(t *testing.T) {
	m := New()
	s := refsolver.New()

	before := s.VarCount()
	count := m.NextSSACount("x", 0, Kind{Sort: solver.SortInt})
	if count != 0 {
		t.Errorf("expected count 0 for an absent slot, got %d", count)
	}
	if s.VarCount() != before {
		t.Errorf("expected NextSSACount to register no solver variable, went from %d to %d", before, s.VarCount())
	}

	m.Set("x", 0, &symvalue.Int{VarName: "x", CtxID: 0, CountVal: 0, Term: s.MkVar("0x@0", solver.SortInt, 0)})
	before = s.VarCount()

	if got := m.NextSSACount("x", 0, Kind{Sort: solver.SortInt}); got != 0 {
		t.Errorf("expected count to stay 0 when the kind still matches, got %d", got)
	}
	if got := m.NextSSACount("x", 0, Kind{Sort: solver.SortReal}); got != 1 {
		t.Errorf("expected count 1 when retyping to Real, got %d", got)
	}
	if s.VarCount() != before {
		t.Errorf("expected NextSSACount to register no solver variable even when retyping, went from %d to %d", before, s.VarCount())
	}
}

func TestDeepCopyIsIndependent(t *testing.T) {
	m := New()
	s := refsolver.New()
	m.GetVar(s, "x", 0, Kind{Sort: solver.SortInt})

	clone := m.DeepCopy()
	clone.Set("x", 0, &symvalue.Int{VarName: "x", CtxID: 0, CountVal: 99})

	orig := m.Get("x", 0).(*symvalue.Int)
	cloned := clone.Get("x", 0).(*symvalue.Int)
	if orig.CountVal == cloned.CountVal {
		t.Errorf("expected DeepCopy to be independent of the original manager")
	}
}

func TestNamesReportsEveryTrackedPair(t *testing.T) {
	m := New()
	s := refsolver.New()
	m.GetVar(s, "x", 0, Kind{Sort: solver.SortInt})
	m.GetVar(s, "y", 1, Kind{Sort: solver.SortReal})

	names := m.Names()
	if len(names) != 2 {
		t.Fatalf("expected 2 tracked names, got %d", len(names))
	}
	seen := map[string]int{}
	for _, n := range names {
		seen[n.Name] = n.Ctx
	}
	if seen["x"] != 0 || seen["y"] != 1 {
		t.Errorf("unexpected name/ctx pairs: %+v", seen)
	}
}
