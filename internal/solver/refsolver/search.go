package refsolver

import (
	"context"
	"fmt"
	"math"

	"symexec/internal/solver"
)

// val is the tagged runtime value used while brute-forcing an assignment.
type val struct {
	sort solver.Sort
	i    int64
	r    float64
	b    bool
}

// Model is a satisfying assignment discovered by Solver.Check.
type Model struct {
	assign map[string]val
}

func (m *Model) EvalInt(t solver.Term) (int64, bool) {
	v, ok := m.eval(asTerm(t))
	if !ok || v.sort != solver.SortInt {
		return 0, false
	}
	return v.i, true
}

func (m *Model) EvalReal(t solver.Term) (float64, bool) {
	v, ok := m.eval(asTerm(t))
	if !ok {
		return 0, false
	}
	switch v.sort {
	case solver.SortReal:
		return v.r, true
	case solver.SortInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

func (m *Model) EvalBool(t solver.Term) (bool, bool) {
	v, ok := m.eval(asTerm(t))
	if !ok || v.sort != solver.SortBool {
		return false, false
	}
	return v.b, true
}

func (m *Model) EvalBV(t solver.Term) (int64, bool) {
	v, ok := m.eval(asTerm(t))
	if !ok || v.sort != solver.SortBitVec {
		return 0, false
	}
	return v.i, true
}

func (m *Model) eval(t *term) (val, bool) {
	switch t.kind {
	case kVar:
		v, ok := m.assign[t.name]
		return v, ok
	case kIntLit:
		return val{sort: solver.SortInt, i: t.ival}, true
	case kRealLit:
		return val{sort: solver.SortReal, r: t.rval}, true
	case kBoolLit:
		return val{sort: solver.SortBool, b: t.bval}, true
	case kBVLit:
		return val{sort: solver.SortBitVec, i: t.ival}, true
	}
	args := make([]val, len(t.args))
	for i, a := range t.args {
		v, ok := m.eval(a)
		if !ok {
			return val{}, false
		}
		args[i] = v
	}
	return evalOp(t, args)
}

func toFloat(v val) float64 {
	if v.sort == solver.SortReal {
		return v.r
	}
	return float64(v.i)
}

func isReal(args ...val) bool {
	for _, a := range args {
		if a.sort == solver.SortReal {
			return true
		}
	}
	return false
}

func evalOp(t *term, args []val) (val, bool) {
	switch t.kind {
	case kNeg:
		if isReal(args[0]) {
			return val{sort: solver.SortReal, r: -args[0].r}, true
		}
		return val{sort: args[0].sort, i: truncate(-args[0].i, t.width)}, true
	case kAdd:
		if isReal(args...) {
			return val{sort: solver.SortReal, r: toFloat(args[0]) + toFloat(args[1])}, true
		}
		return val{sort: t.sort, i: truncate(args[0].i+args[1].i, t.width)}, true
	case kSub:
		if isReal(args...) {
			return val{sort: solver.SortReal, r: toFloat(args[0]) - toFloat(args[1])}, true
		}
		return val{sort: t.sort, i: truncate(args[0].i-args[1].i, t.width)}, true
	case kMul:
		if isReal(args...) {
			return val{sort: solver.SortReal, r: toFloat(args[0]) * toFloat(args[1])}, true
		}
		return val{sort: t.sort, i: truncate(args[0].i*args[1].i, t.width)}, true
	case kDiv:
		if isReal(args...) {
			if toFloat(args[1]) == 0 {
				return val{}, false
			}
			return val{sort: solver.SortReal, r: toFloat(args[0]) / toFloat(args[1])}, true
		}
		if args[1].i == 0 {
			return val{}, false
		}
		return val{sort: t.sort, i: truncate(args[0].i/args[1].i, t.width)}, true
	case kMod:
		if args[1].i == 0 {
			return val{}, false
		}
		return val{sort: t.sort, i: truncate(args[0].i%args[1].i, t.width)}, true
	case kPow:
		return val{sort: solver.SortReal, r: math.Pow(toFloat(args[0]), toFloat(args[1]))}, true
	case kLt:
		return val{sort: solver.SortBool, b: toFloat(args[0]) < toFloat(args[1])}, true
	case kLe:
		return val{sort: solver.SortBool, b: toFloat(args[0]) <= toFloat(args[1])}, true
	case kGt:
		return val{sort: solver.SortBool, b: toFloat(args[0]) > toFloat(args[1])}, true
	case kGe:
		return val{sort: solver.SortBool, b: toFloat(args[0]) >= toFloat(args[1])}, true
	case kEq:
		return val{sort: solver.SortBool, b: valuesEqual(args[0], args[1])}, true
	case kNe:
		return val{sort: solver.SortBool, b: !valuesEqual(args[0], args[1])}, true
	case kAnd:
		for _, a := range args {
			if !a.b {
				return val{sort: solver.SortBool, b: false}, true
			}
		}
		return val{sort: solver.SortBool, b: true}, true
	case kOr:
		for _, a := range args {
			if a.b {
				return val{sort: solver.SortBool, b: true}, true
			}
		}
		return val{sort: solver.SortBool, b: false}, true
	case kNot:
		return val{sort: solver.SortBool, b: !args[0].b}, true
	case kBVAnd:
		return val{sort: solver.SortBitVec, i: truncate(args[0].i&args[1].i, t.width)}, true
	case kBVOr:
		return val{sort: solver.SortBitVec, i: truncate(args[0].i|args[1].i, t.width)}, true
	case kBVXor:
		return val{sort: solver.SortBitVec, i: truncate(args[0].i^args[1].i, t.width)}, true
	case kBVShl:
		return val{sort: solver.SortBitVec, i: truncate(args[0].i<<uint(args[1].i), t.width)}, true
	case kBVShr:
		return val{sort: solver.SortBitVec, i: truncate(args[0].i>>uint(args[1].i), t.width)}, true
	case kBVNot:
		return val{sort: solver.SortBitVec, i: truncate(^args[0].i, t.width)}, true
	case kSignExtend:
		return val{sort: solver.SortBitVec, i: args[0].i}, true
	case kIntToBV:
		return val{sort: solver.SortBitVec, i: truncate(args[0].i, t.width)}, true
	case kBVToInt:
		return val{sort: solver.SortInt, i: args[0].i}, true
	}
	return val{}, false
}

func valuesEqual(a, b val) bool {
	if isReal(a, b) {
		return toFloat(a) == toFloat(b)
	}
	if a.sort == solver.SortBool {
		return a.b == b.b
	}
	return a.i == b.i
}

// maxCombos bounds the brute-force search so a pathological program cannot
// hang the test suite; beyond this the search reports an error rather than
// silently returning Unsat.
const maxCombos = 2_000_000

// search enumerates every free variable's domain and returns the first
// assignment that satisfies every assertion.
func (s *Solver) search(ctx context.Context) (*Model, bool, error) {
	free := s.varOrder
	if len(free) == 0 {
		if s.evalAll(map[string]val{}) {
			return &Model{assign: map[string]val{}}, true, nil
		}
		return nil, false, nil
	}

	domains := make([][]val, len(free))
	total := 1
	for i, name := range free {
		v := s.vars[name]
		domains[i] = domainFor(v, s.domainLo, s.domainHi)
		total *= len(domains[i])
		if total > maxCombos {
			return nil, false, fmt.Errorf("refsolver: search space too large for %q (add NewWithDomain bounds)", name)
		}
	}

	assign := make(map[string]val, len(free))
	var rec func(i int) bool
	rec = func(i int) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if i == len(free) {
			return s.evalAll(assign)
		}
		for _, v := range domains[i] {
			assign[free[i]] = v
			if rec(i + 1) {
				return true
			}
		}
		delete(assign, free[i])
		return false
	}
	if rec(0) {
		out := make(map[string]val, len(assign))
		for k, v := range assign {
			out[k] = v
		}
		return &Model{assign: out}, true, nil
	}
	return nil, false, nil
}

func domainFor(v *term, lo, hi int64) []val {
	switch v.sort {
	case solver.SortBool:
		return []val{{sort: solver.SortBool, b: false}, {sort: solver.SortBool, b: true}}
	case solver.SortReal:
		lo, hi := -8, 8
		out := make([]val, 0, (hi-lo)*4+1)
		for i := lo * 4; i <= hi*4; i++ {
			out = append(out, val{sort: solver.SortReal, r: float64(i) / 4})
		}
		return out
	default: // Int or BitVec
		out := make([]val, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			out = append(out, val{sort: v.sort, i: truncate(i, v.width)})
		}
		return out
	}
}

func (m *Model) has(name string) bool {
	_, ok := m.assign[name]
	return ok
}

func (s *Solver) evalAll(assign map[string]val) bool {
	m := &Model{assign: assign}
	for _, a := range s.assertions {
		v, ok := m.eval(a)
		if !ok || v.sort != solver.SortBool || !v.b {
			return false
		}
	}
	return true
}
