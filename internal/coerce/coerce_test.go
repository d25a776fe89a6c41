package coerce

import (
	"testing"

	"symexec/internal/solver"
	"symexec/internal/solver/refsolver"
)

func TestMatchIntIntStaysInt(t *testing.T) {
	s := refsolver.New()
	one := int64(1)
	two := int64(2)
	l := Operand{Sort: solver.SortInt, Concrete: &one}
	r := Operand{Sort: solver.SortInt, Concrete: &two}

	_, _, sort, _ := Match(s, l, r, "+")
	if sort != solver.SortInt {
		t.Errorf("expected int+int to stay int, got %v", sort)
	}
}

func TestMatchIntRealPromotesToReal(t *testing.T) {
	s := refsolver.New()
	one := int64(1)
	l := Operand{Sort: solver.SortInt, Concrete: &one}
	r := Operand{Sort: solver.SortReal, Term: s.MkRealLit(2.5)}

	_, _, sort, _ := Match(s, l, r, "+")
	if sort != solver.SortReal {
		t.Errorf("expected int+real to promote to real, got %v", sort)
	}
}

func TestMatchBitwiseOpCoercesBothToBitVec(t *testing.T) {
	s := refsolver.New()
	one := int64(1)
	two := int64(2)
	l := Operand{Sort: solver.SortInt, Concrete: &one}
	r := Operand{Sort: solver.SortInt, Concrete: &two}

	_, _, sort, width := Match(s, l, r, "&")
	if sort != solver.SortBitVec {
		t.Errorf("expected a bitwise op to coerce to bitvec, got %v", sort)
	}
	if width != DefaultBitVecSize {
		t.Errorf("expected default width %d, got %d", DefaultBitVecSize, width)
	}
}

func TestMatchBitVecWidthsJoinOnTheWider(t *testing.T) {
	s := refsolver.New()
	lv := s.MkVar("l", solver.SortBitVec, 8)
	rv := s.MkVar("r", solver.SortBitVec, 32)
	l := Operand{Sort: solver.SortBitVec, Width: 8, Term: lv}
	r := Operand{Sort: solver.SortBitVec, Width: 32, Term: rv}

	_, _, sort, width := Match(s, l, r, "+")
	if sort != solver.SortBitVec {
		t.Errorf("expected bitvec+bitvec to stay bitvec, got %v", sort)
	}
	if width != 32 {
		t.Errorf("expected joint width to be the wider operand's 32, got %d", width)
	}
}

func TestOverflowSafetyDivHasOnlyOnePredicate(t *testing.T) {
	s := refsolver.New()
	l := s.MkVar("l", solver.SortBitVec, 32)
	r := s.MkVar("r", solver.SortBitVec, 32)

	preds := OverflowSafety(s, "/", l, r)
	if len(preds) != 1 {
		t.Errorf("expected exactly one overflow predicate for division, got %d", len(preds))
	}
}

func TestOverflowSafetyAddHasTwoPredicates(t *testing.T) {
	s := refsolver.New()
	l := s.MkVar("l", solver.SortBitVec, 32)
	r := s.MkVar("r", solver.SortBitVec, 32)

	preds := OverflowSafety(s, "+", l, r)
	if len(preds) != 2 {
		t.Errorf("expected overflow and underflow predicates for addition, got %d", len(preds))
	}
}
