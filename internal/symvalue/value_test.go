package symvalue_test

import (
	"testing"

	"symexec/internal/solver"
	"symexec/internal/symvalue"
)

func TestQualNameEncodesCountNameCtx(t *testing.T) {
	v := &symvalue.Int{VarName: "x", CtxID: 0, CountVal: 3}
	if got, want := v.QualName(), "3x@0"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIntIsConcreteOnlyWhenLiteralSet(t *testing.T) {
	n := int64(5)
	concrete := &symvalue.Int{Concrete: &n}
	if !concrete.IsConcrete() {
		t.Errorf("expected a literal Int to report concrete")
	}
	symbolic := &symvalue.Int{VarName: "y"}
	if symbolic.IsConcrete() {
		t.Errorf("expected a solver-backed Int to report non-concrete")
	}
}

func TestIntCopyIsIndependentOfOriginal(t *testing.T) {
	n := int64(7)
	orig := &symvalue.Int{VarName: "x", Concrete: &n}
	clone := orig.Copy().(*symvalue.Int)

	*clone.Concrete = 99
	if *orig.Concrete != 7 {
		t.Errorf("expected mutating the clone's literal to leave the original untouched, got %d", *orig.Concrete)
	}
}

func TestStringCopyDeepCopiesChars(t *testing.T) {
	orig := &symvalue.String{Chars: []*symvalue.Char{
		{Variable: &symvalue.BitVec{VarName: "c0", Size: 8}},
		{Variable: &symvalue.BitVec{VarName: "c1", Size: 8}},
	}}
	clone := orig.Copy().(*symvalue.String)
	clone.Chars[0].Variable.VarName = "mutated"
	if orig.Chars[0].Variable.VarName != "c0" {
		t.Errorf("expected mutating the clone's chars to leave the original untouched, got %q", orig.Chars[0].Variable.VarName)
	}
}

func TestListCopyDeepCopiesElements(t *testing.T) {
	n := int64(1)
	orig := &symvalue.List{Elements: []symvalue.Value{&symvalue.Int{Concrete: &n}}}
	clone := orig.Copy().(*symvalue.List)
	*clone.Elements[0].(*symvalue.Int).Concrete = 2
	if *orig.Elements[0].(*symvalue.Int).Concrete != 1 {
		t.Errorf("expected mutating the clone's elements to leave the original untouched")
	}
}

func TestSortReportsContainersAsNotOk(t *testing.T) {
	if _, ok := symvalue.Sort(&symvalue.String{}); ok {
		t.Errorf("expected String to have no single sort")
	}
	if _, ok := symvalue.Sort(&symvalue.List{}); ok {
		t.Errorf("expected List to have no single sort")
	}
	if s, ok := symvalue.Sort(&symvalue.BitVec{}); !ok || s != solver.SortBitVec {
		t.Errorf("expected BitVec to report SortBitVec, got %v ok=%v", s, ok)
	}
	if s, ok := symvalue.Sort(&symvalue.Bool{}); !ok || s != solver.SortBool {
		t.Errorf("expected Bool to report SortBool, got %v ok=%v", s, ok)
	}
}

func TestWidthReportsBitVecAndCharSize(t *testing.T) {
	if w := symvalue.Width(&symvalue.BitVec{Size: 32}); w != 32 {
		t.Errorf("expected width 32, got %d", w)
	}
	ch := &symvalue.Char{Variable: &symvalue.BitVec{Size: 8}}
	if w := symvalue.Width(ch); w != 8 {
		t.Errorf("expected Char width 8, got %d", w)
	}
	if w := symvalue.Width(&symvalue.Int{}); w != 0 {
		t.Errorf("expected Int width 0, got %d", w)
	}
}

func TestAsTermReturnsNilForConcreteInt(t *testing.T) {
	n := int64(4)
	if term := symvalue.AsTerm(&symvalue.Int{Concrete: &n}); term != nil {
		t.Errorf("expected a nil term for a concrete Int, got %v", term)
	}
}
