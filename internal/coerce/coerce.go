// Package coerce implements the sort coercion: match_left_right
// normalizes two operands for a binary op, and the bvadd_safe/bvsub_safe/
// bvmul_safe/bvdiv_safe companions build the overflow-safety predicates the
// step interpreter asserts alongside arithmetic results. Behavior here is
// grounded directly in original_source/pyState/z3Helpers.py's
// z3_matchLeftAndRight and the bv*_safe helpers.
package coerce

import (
	"golang.org/x/exp/constraints"

	"symexec/internal/solver"
	"symexec/internal/symvalue"
)

// DefaultBitVecSize is the width used when coercing a bare integer to a
// bit-vector with no other width in play, matching
// z3Helpers.Z3_DEFAULT_BITVEC_SIZE.
const DefaultBitVecSize = 64

var bitwiseOps = map[string]bool{"^": true, "&": true, "|": true, "<<": true, ">>": true}

// Operand is a resolved scalar ready for a binary operator: its solver term
// (nil if concrete), its sort, width (for bit-vectors) and, when concrete,
// the literal integer value.
type Operand struct {
	Term     solver.Term
	Sort     solver.Sort
	Width    int
	Concrete *int64
}

func FromValue(v symvalue.Value) Operand {
	sort, _ := symvalue.Sort(v)
	op := Operand{Term: symvalue.AsTerm(v), Sort: sort, Width: symvalue.Width(v)}
	if iv, ok := v.(*symvalue.Int); ok && iv.IsConcrete() {
		c := *iv.Concrete
		op.Concrete = &c
	}
	return op
}

func maxWidth[T constraints.Integer](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Match normalizes l and r for a binary operator:
//   - two bit-vectors of differing widths: sign-extend the narrower;
//   - one bit-vector, one integer: convert the integer to a bit-vector of
//     the wider width (or DefaultBitVecSize), using a literal construction
//     when the integer is concrete, else int-to-bv conversion;
//   - a bitwise op with a non-bit-vector side: coerce both operands to
//     bit-vectors of the default width;
//   - real+int stays mixed; the presence of any real forces the result
//     sort to real.
//
// It returns the two terms ready to hand to a solver.Solver binary builder,
// plus the joint result sort/width the caller should use for the fresh SSA
// temporary.
func Match(s solver.Solver, l, r Operand, op string) (lt, rt solver.Term, resultSort solver.Sort, resultWidth int) {
	if bitwiseOps[op] {
		l = toBitVec(s, l, DefaultBitVecSize)
		r = toBitVec(s, r, DefaultBitVecSize)
	}

	if l.Sort == solver.SortBitVec || r.Sort == solver.SortBitVec {
		width := 0
		if l.Sort == solver.SortBitVec {
			width = maxWidth(width, l.Width)
		}
		if r.Sort == solver.SortBitVec {
			width = maxWidth(width, r.Width)
		}
		if width == 0 {
			width = DefaultBitVecSize
		}
		l = toBitVec(s, l, width)
		r = toBitVec(s, r, width)
		// Sign-extend the narrower side up to the joint width.
		if l.Width < width {
			l.Term = s.SignExtend(l.Term, width)
			l.Width = width
		}
		if r.Width < width {
			r.Term = s.SignExtend(r.Term, width)
			r.Width = width
		}
		return termOf(s, l), termOf(s, r), solver.SortBitVec, width
	}

	if l.Sort == solver.SortReal || r.Sort == solver.SortReal {
		return termOf(s, l), termOf(s, r), solver.SortReal, 0
	}

	return termOf(s, l), termOf(s, r), solver.SortInt, 0
}

func termOf(s solver.Solver, o Operand) solver.Term {
	if o.Term != nil {
		return o.Term
	}
	if o.Concrete != nil {
		switch o.Sort {
		case solver.SortBitVec:
			return s.MkBVLit(*o.Concrete, o.Width)
		case solver.SortReal:
			return s.MkRealLit(float64(*o.Concrete))
		default:
			return s.MkIntLit(*o.Concrete)
		}
	}
	panic("coerce: operand has neither a term nor a concrete value")
}

func toBitVec(s solver.Solver, o Operand, width int) Operand {
	if o.Sort == solver.SortBitVec {
		return o
	}
	if o.Concrete != nil {
		return Operand{Term: s.MkBVLit(*o.Concrete, width), Sort: solver.SortBitVec, Width: width}
	}
	return Operand{Term: s.IntToBV(o.Term, width), Sort: solver.SortBitVec, Width: width}
}

// OverflowSafety builds the "no overflow" ∧ "no underflow" predicate pair
// for a bit-vector arithmetic op, per the bv*_safe companions of
// z3Helpers.py. div has only an overflow predicate (signed division
// overflow, e.g. MIN_INT / -1).
func OverflowSafety(s solver.Solver, op string, l, r solver.Term) []solver.Term {
	switch op {
	case "+":
		a, b := s.BVAddSafe(l, r)
		return []solver.Term{a, b}
	case "-":
		a, b := s.BVSubSafe(l, r)
		return []solver.Term{a, b}
	case "*":
		a, b := s.BVMulSafe(l, r)
		return []solver.Term{a, b}
	case "/":
		return []solver.Term{s.BVDivSafe(l, r)}
	default:
		return nil
	}
}
