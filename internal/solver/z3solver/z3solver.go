// Package z3solver adapts github.com/aclements/go-z3/z3 to the
// solver.Solver facade. It is the production backend: the engine treats the
// SMT solver as an out-of-scope collaborator, so this file's job is purely
// translation between solver.Term/solver.Sort and z3's AST/Sort types, the
// same shape as the original pySym engine's z3Helpers.mk_var and
// z3_matchLeftAndRight (see original_source/pyState/z3Helpers.py).
//
// Building this package requires cgo and a local Z3 installation; it is
// excluded from the default build via the z3 build tag so the rest of the
// module (and its tests, which run against internal/solver/refsolver)
// builds without either.
//go:build z3

package z3solver

import (
	"context"
	"fmt"

	"github.com/aclements/go-z3/z3"

	"symexec/internal/solver"
)

// Solver wraps a z3.Solver and its owning z3.Context.
type Solver struct {
	ctx *z3.Context
	s   *z3.Solver
}

// New constructs a Z3-backed solver with the default context configuration.
func New() *Solver {
	cfg := z3.NewContextConfig()
	ctx := z3.NewContext(cfg)
	return &Solver{ctx: ctx, s: z3.NewSolver(ctx)}
}

// term wraps a z3.AST alongside the solver.Sort/width the engine asked for,
// since z3's own sort objects don't round-trip cleanly through the narrow
// solver.Term interface.
type term struct {
	ast   z3.AST
	sort  solver.Sort
	width int
}

func (t *term) Sort() solver.Sort { return t.sort }
func (t *term) Width() int        { return t.width }

func wrap(sort solver.Sort, width int, ast z3.AST) solver.Term {
	return &term{ast: ast, sort: sort, width: width}
}

func unwrap(t solver.Term) *term {
	rt, ok := t.(*term)
	if !ok {
		panic(fmt.Sprintf("z3solver: foreign term %T", t))
	}
	return rt
}

func (s *Solver) MkVar(name string, sort solver.Sort, width int) solver.Term {
	switch sort {
	case solver.SortInt:
		return wrap(sort, 0, s.ctx.IntConst(name))
	case solver.SortReal:
		return wrap(sort, 0, s.ctx.RealConst(name))
	case solver.SortBool:
		return wrap(sort, 0, s.ctx.BoolConst(name))
	case solver.SortBitVec:
		return wrap(sort, width, s.ctx.BVConst(name, width))
	default:
		panic("z3solver: unhandled sort")
	}
}

func (s *Solver) MkIntLit(v int64) solver.Term   { return wrap(solver.SortInt, 0, s.ctx.FromInt(v, s.ctx.IntSort())) }
func (s *Solver) MkRealLit(v float64) solver.Term {
	return wrap(solver.SortReal, 0, s.ctx.FromFloat64(v, s.ctx.RealSort()))
}
func (s *Solver) MkBoolLit(v bool) solver.Term { return wrap(solver.SortBool, 0, s.ctx.FromBool(v)) }
func (s *Solver) MkBVLit(v int64, width int) solver.Term {
	return wrap(solver.SortBitVec, width, s.ctx.FromInt(v, s.ctx.BVSort(width)))
}

func (s *Solver) Assert(f solver.Term) { s.s.Assert(unwrap(f).ast.(z3.Bool)) }
func (s *Solver) Push()                { s.s.Push() }
func (s *Solver) Pop()                 { s.s.Pop(1) }

func (s *Solver) Check(ctx context.Context) (solver.Status, error) {
	sat, err := s.s.Check()
	if err != nil {
		return solver.Unknown, err
	}
	switch sat {
	case z3.Sat:
		return solver.Sat, nil
	case z3.Unsat:
		return solver.Unsat, nil
	default:
		return solver.Unknown, nil
	}
}

func (s *Solver) Model() (solver.Model, error) {
	m, err := s.s.Model()
	if err != nil {
		return nil, err
	}
	return &model{m: m}, nil
}

func (s *Solver) Assertions() []solver.Term {
	// go-z3 does not expose a typed assertion list, so this returns nil;
	// internal/state does not rely on it (DeepCopy goes through Clone).
	return nil
}

func (s *Solver) Clone() solver.Solver {
	clone := New()
	for _, a := range s.s.Assertions() {
		clone.s.Assert(a)
	}
	return clone
}

func (s *Solver) Close() error { return nil }

type model struct{ m *z3.Model }

func (m *model) EvalInt(t solver.Term) (int64, bool) {
	v, ok := m.m.Eval(unwrap(t).ast, true)
	if !ok {
		return 0, false
	}
	i, ok := v.(z3.Int).AsInt64()
	return i, ok
}

func (m *model) EvalReal(t solver.Term) (float64, bool) {
	v, ok := m.m.Eval(unwrap(t).ast, true)
	if !ok {
		return 0, false
	}
	f, _, ok := v.(z3.Real).AsFloat64()
	return f, ok
}

func (m *model) EvalBool(t solver.Term) (bool, bool) {
	v, ok := m.m.Eval(unwrap(t).ast, true)
	if !ok {
		return false, false
	}
	return v.(z3.Bool).AsBool()
}

func (m *model) EvalBV(t solver.Term) (int64, bool) {
	v, ok := m.m.Eval(unwrap(t).ast, true)
	if !ok {
		return 0, false
	}
	i, ok := v.(z3.BV).AsInt64()
	return i, ok
}

func (s *Solver) Neg(a solver.Term) solver.Term {
	at := unwrap(a)
	switch x := at.ast.(type) {
	case z3.Int:
		return wrap(at.sort, at.width, x.Neg())
	case z3.Real:
		return wrap(at.sort, at.width, x.Neg())
	case z3.BV:
		return wrap(at.sort, at.width, x.Neg())
	default:
		panic(fmt.Sprintf("z3solver: unsupported negation operand %T", at.ast))
	}
}

func (s *Solver) Add(a, b solver.Term) solver.Term { return numOp(s, a, b, "+") }
func (s *Solver) Sub(a, b solver.Term) solver.Term { return numOp(s, a, b, "-") }
func (s *Solver) Mul(a, b solver.Term) solver.Term { return numOp(s, a, b, "*") }
func (s *Solver) Div(a, b solver.Term) solver.Term { return numOp(s, a, b, "/") }
func (s *Solver) Mod(a, b solver.Term) solver.Term { return numOp(s, a, b, "%") }
func (s *Solver) Pow(a, b solver.Term) solver.Term { return numOp(s, a, b, "**") }

func (s *Solver) Lt(a, b solver.Term) solver.Term { return cmpOp(a, b, "<") }
func (s *Solver) Le(a, b solver.Term) solver.Term { return cmpOp(a, b, "<=") }
func (s *Solver) Gt(a, b solver.Term) solver.Term { return cmpOp(a, b, ">") }
func (s *Solver) Ge(a, b solver.Term) solver.Term { return cmpOp(a, b, ">=") }
func (s *Solver) Eq(a, b solver.Term) solver.Term { return cmpOp(a, b, "==") }
func (s *Solver) Ne(a, b solver.Term) solver.Term { return cmpOp(a, b, "!=") }

func (s *Solver) And(terms ...solver.Term) solver.Term { return boolOp(terms, "and") }
func (s *Solver) Or(terms ...solver.Term) solver.Term  { return boolOp(terms, "or") }
func (s *Solver) Not(a solver.Term) solver.Term        { return boolOp([]solver.Term{a}, "not") }

func (s *Solver) BVAnd(a, b solver.Term) solver.Term { return bvOp(a, b, "&") }
func (s *Solver) BVOr(a, b solver.Term) solver.Term  { return bvOp(a, b, "|") }
func (s *Solver) BVXor(a, b solver.Term) solver.Term { return bvOp(a, b, "^") }
func (s *Solver) BVShl(a, b solver.Term) solver.Term { return bvOp(a, b, "<<") }
func (s *Solver) BVShr(a, b solver.Term) solver.Term { return bvOp(a, b, ">>") }
func (s *Solver) BVNot(a solver.Term) solver.Term    { return bvOp(a, nil, "~") }

func (s *Solver) SignExtend(t solver.Term, newWidth int) solver.Term {
	bv := unwrap(t).ast.(z3.BV)
	extra := newWidth - unwrap(t).width
	return wrap(solver.SortBitVec, newWidth, bv.SignExtend(extra))
}

func (s *Solver) IntToBV(t solver.Term, width int) solver.Term {
	i := unwrap(t).ast.(z3.Int)
	return wrap(solver.SortBitVec, width, i.ToBV(width))
}

func (s *Solver) BVToInt(t solver.Term) solver.Term {
	bv := unwrap(t).ast.(z3.BV)
	return wrap(solver.SortInt, 0, bv.ToInt(true))
}

// BVAddSafe, BVSubSafe, BVMulSafe and BVDivSafe mirror
// original_source/pyState/z3Helpers.py's bvadd_safe/bvsub_safe/bvmul_safe/
// bvdiv_safe: each asserts the corresponding no-overflow/no-underflow
// predicate as an *additional* constraint alongside the arithmetic result.
func (s *Solver) BVAddSafe(a, b solver.Term) (solver.Term, solver.Term) {
	av, bv := unwrap(a).ast.(z3.BV), unwrap(b).ast.(z3.BV)
	return wrap(solver.SortBool, 0, av.AddNoOverflow(bv, true)), wrap(solver.SortBool, 0, av.AddNoUnderflow(bv))
}

func (s *Solver) BVSubSafe(a, b solver.Term) (solver.Term, solver.Term) {
	av, bv := unwrap(a).ast.(z3.BV), unwrap(b).ast.(z3.BV)
	return wrap(solver.SortBool, 0, av.SubNoOverflow(bv)), wrap(solver.SortBool, 0, av.SubNoUnderflow(bv, true))
}

func (s *Solver) BVMulSafe(a, b solver.Term) (solver.Term, solver.Term) {
	av, bv := unwrap(a).ast.(z3.BV), unwrap(b).ast.(z3.BV)
	return wrap(solver.SortBool, 0, av.MulNoOverflow(bv, true)), wrap(solver.SortBool, 0, av.MulNoUnderflow(bv))
}

func (s *Solver) BVDivSafe(a, b solver.Term) solver.Term {
	av, bv := unwrap(a).ast.(z3.BV), unwrap(b).ast.(z3.BV)
	return wrap(solver.SortBool, 0, av.SDivNoOverflow(bv))
}

// numOp dispatches a binary arithmetic op across z3's Int/Real/BV ASTs.
// internal/coerce guarantees both operands share a sort class before this
// is reached (the match_left_right runs in the step
// interpreter, not here).
func numOp(s *Solver, a, b solver.Term, op string) solver.Term {
	at, bt := unwrap(a), unwrap(b)
	sort, width := joinSort(at, bt)
	switch x := at.ast.(type) {
	case z3.Int:
		y := bt.ast.(z3.Int)
		return wrap(sort, width, applyArith(x, y, op))
	case z3.Real:
		y := bt.ast.(z3.Real)
		return wrap(sort, width, applyArith(x, y, op))
	case z3.BV:
		y := bt.ast.(z3.BV)
		return wrap(sort, width, applyBV(x, y, op))
	default:
		panic(fmt.Sprintf("z3solver: unsupported operand type %T", at.ast))
	}
}

func joinSort(a, b *term) (solver.Sort, int) {
	if a.sort == solver.SortBitVec || b.sort == solver.SortBitVec {
		w := a.width
		if b.width > w {
			w = b.width
		}
		return solver.SortBitVec, w
	}
	if a.sort == solver.SortReal || b.sort == solver.SortReal {
		return solver.SortReal, 0
	}
	return solver.SortInt, 0
}

func applyArith(x, y z3.AST, op string) z3.AST {
	switch a := x.(type) {
	case z3.Int:
		b := y.(z3.Int)
		switch op {
		case "+":
			return a.Add(b)
		case "-":
			return a.Sub(b)
		case "*":
			return a.Mul(b)
		case "/":
			return a.Div(b)
		case "%":
			return a.Mod(b)
		case "**":
			return a.Power(b)
		}
	case z3.Real:
		b := y.(z3.Real)
		switch op {
		case "+":
			return a.Add(b)
		case "-":
			return a.Sub(b)
		case "*":
			return a.Mul(b)
		case "/":
			return a.Div(b)
		case "**":
			return a.Power(b)
		}
	}
	panic("z3solver: unsupported arithmetic operator " + op)
}

func applyBV(x, y z3.BV, op string) z3.AST {
	switch op {
	case "+":
		return x.Add(y)
	case "-":
		return x.Sub(y)
	case "*":
		return x.Mul(y)
	case "/":
		return x.SDiv(y)
	case "%":
		return x.SRem(y)
	case "-unary":
		return x.Neg()
	}
	panic("z3solver: unsupported bit-vector operator " + op)
}

func cmpOp(a, b solver.Term, op string) solver.Term {
	at, bt := unwrap(a), unwrap(b)
	var out z3.Bool
	switch x := at.ast.(type) {
	case z3.Int:
		y := bt.ast.(z3.Int)
		out = intCmp(x, y, op)
	case z3.Real:
		y := bt.ast.(z3.Real)
		out = realCmp(x, y, op)
	case z3.BV:
		y := bt.ast.(z3.BV)
		out = bvCmp(x, y, op)
	default:
		panic(fmt.Sprintf("z3solver: unsupported comparison operand %T", at.ast))
	}
	return wrap(solver.SortBool, 0, out)
}

func intCmp(a, b z3.Int, op string) z3.Bool {
	switch op {
	case "<":
		return a.LT(b)
	case "<=":
		return a.LE(b)
	case ">":
		return a.GT(b)
	case ">=":
		return a.GE(b)
	case "==":
		return a.Eq(b)
	case "!=":
		return a.Eq(b).Not()
	}
	panic("z3solver: unsupported comparison " + op)
}

func realCmp(a, b z3.Real, op string) z3.Bool {
	switch op {
	case "<":
		return a.LT(b)
	case "<=":
		return a.LE(b)
	case ">":
		return a.GT(b)
	case ">=":
		return a.GE(b)
	case "==":
		return a.Eq(b)
	case "!=":
		return a.Eq(b).Not()
	}
	panic("z3solver: unsupported comparison " + op)
}

func bvCmp(a, b z3.BV, op string) z3.Bool {
	switch op {
	case "<":
		return a.SLT(b)
	case "<=":
		return a.SLE(b)
	case ">":
		return a.SGT(b)
	case ">=":
		return a.SGE(b)
	case "==":
		return a.Eq(b)
	case "!=":
		return a.Eq(b).Not()
	}
	panic("z3solver: unsupported comparison " + op)
}

func boolOp(terms []solver.Term, op string) solver.Term {
	bools := make([]z3.Bool, len(terms))
	for i, t := range terms {
		bools[i] = unwrap(t).ast.(z3.Bool)
	}
	switch op {
	case "and":
		return wrap(solver.SortBool, 0, bools[0].And(bools[1:]...))
	case "or":
		return wrap(solver.SortBool, 0, bools[0].Or(bools[1:]...))
	case "not":
		return wrap(solver.SortBool, 0, bools[0].Not())
	}
	panic("z3solver: unsupported boolean operator " + op)
}

func bvOp(a solver.Term, b solver.Term, op string) solver.Term {
	at := unwrap(a).ast.(z3.BV)
	if op == "~" {
		return wrap(solver.SortBitVec, unwrap(a).width, at.Not())
	}
	bt := unwrap(b).ast.(z3.BV)
	switch op {
	case "&":
		return wrap(solver.SortBitVec, unwrap(a).width, at.And(bt))
	case "|":
		return wrap(solver.SortBitVec, unwrap(a).width, at.Or(bt))
	case "^":
		return wrap(solver.SortBitVec, unwrap(a).width, at.Xor(bt))
	case "<<":
		return wrap(solver.SortBitVec, unwrap(a).width, at.Lsh(bt))
	case ">>":
		return wrap(solver.SortBitVec, unwrap(a).width, at.SRsh(bt))
	}
	panic("z3solver: unsupported bit-vector operator " + op)
}
