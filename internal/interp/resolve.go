package interp

import (
	"fmt"

	"symexec/internal/ast"
	"symexec/internal/coerce"
	"symexec/internal/ctxid"
	"symexec/internal/execerr"
	"symexec/internal/object"
	"symexec/internal/solver"
	"symexec/internal/state"
	"symexec/internal/symvalue"
)

// resolveExpr walks e and either fully resolves it to a Value, or finds
// that resolution needs a user function call to run first. In the latter
// case it returns suspended=true and rewritten: a copy of e with the one
// suspending Call subtree replaced by an ast.ReturnRef, and every
// already-resolved sibling wrapped in ast.ResolvedExpr so the statement
// can be retried without recomputing or re-triggering work it already did.
// Only one call suspends per resolveExpr pass; siblings to its right in
// evaluation order are left untouched and resolved fresh on retry.
func (ip *Interp) resolveExpr(st *state.State, e ast.Expr) (symvalue.Value, ast.Expr, bool, *execerr.ExecError) {
	switch n := e.(type) {
	case *ast.ResolvedExpr:
		return n.Value, n, false, nil

	case *ast.ReturnRef:
		name := fmt.Sprintf("ret%d", n.Cell.RetID)
		v := st.Objects.Get(name, ctxid.Returns)
		if v == nil {
			return nil, nil, false, execerr.SymbolicConstraintMissing("pending call return", n.Position().Line, n.Position().Col)
		}
		return v, &ast.ResolvedExpr{Value: v}, false, nil

	case *ast.Num:
		if n.IsReal {
			return &symvalue.Real{Term: st.Solver.MkRealLit(n.Real)}, n, false, nil
		}
		c := n.Int
		return &symvalue.Int{Concrete: &c}, n, false, nil

	case *ast.Str:
		return strLiteral(st, n.Value), n, false, nil

	case *ast.Name:
		v := st.Objects.Get(n.Id, st.Ctx)
		if v == nil {
			// An unbound read denotes an implicit symbolic input, matching
			// pySym's treatment of names the driver never pre-seeded.
			v = st.Objects.GetVar(st.Solver, n.Id, st.Ctx, object.Kind{Sort: solver.SortInt})
		}
		return v, &ast.ResolvedExpr{Value: v}, false, nil

	case *ast.ListExpr:
		vals, rewritten, susp, err := ip.resolveSeq(st, n.Elts)
		if err != nil || susp {
			return nil, &ast.ListExpr{Base: n.Base, Elts: rewritten}, susp, err
		}
		return &symvalue.List{Elements: vals}, &ast.ResolvedExpr{Value: &symvalue.List{Elements: vals}}, false, nil

	case *ast.BinOp:
		pair, rewritten, susp, err := ip.resolveSeq(st, []ast.Expr{n.Left, n.Right})
		if err != nil || susp {
			return nil, &ast.BinOp{Base: n.Base, Left: rewritten[0], Op: n.Op, Right: rewritten[1]}, susp, err
		}
		v, err := ip.binOp(st, n.Op, pair[0], pair[1], n.Position())
		if err != nil {
			return nil, nil, false, err
		}
		return v, &ast.ResolvedExpr{Value: v}, false, nil

	case *ast.UnaryOp:
		vals, rewritten, susp, err := ip.resolveSeq(st, []ast.Expr{n.Operand})
		if err != nil || susp {
			return nil, &ast.UnaryOp{Base: n.Base, Op: n.Op, Operand: rewritten[0]}, susp, err
		}
		v, err := ip.unaryOp(st, n.Op, vals[0], n.Position())
		if err != nil {
			return nil, nil, false, err
		}
		return v, &ast.ResolvedExpr{Value: v}, false, nil

	case *ast.Compare:
		operands := append([]ast.Expr{n.Left}, n.Comparators...)
		vals, rewritten, susp, err := ip.resolveSeq(st, operands)
		if err != nil || susp {
			return nil, &ast.Compare{Base: n.Base, Left: rewritten[0], Ops: n.Ops, Comparators: rewritten[1:]}, susp, err
		}
		v, err := ip.compareChain(st, n.Ops, vals, n.Position())
		if err != nil {
			return nil, nil, false, err
		}
		return v, &ast.ResolvedExpr{Value: v}, false, nil

	case *ast.BoolOp:
		vals, rewritten, susp, err := ip.resolveSeq(st, n.Values)
		if err != nil || susp {
			return nil, &ast.BoolOp{Base: n.Base, Op: n.Op, Values: rewritten}, susp, err
		}
		v, err := ip.boolOp(st, n.Op, vals, n.Position())
		if err != nil {
			return nil, nil, false, err
		}
		return v, &ast.ResolvedExpr{Value: v}, false, nil

	case *ast.Subscript:
		if n.IsSlice {
			parts := []ast.Expr{n.Value}
			if n.Lo != nil {
				parts = append(parts, n.Lo)
			}
			if n.Hi != nil {
				parts = append(parts, n.Hi)
			}
			vals, rewritten, susp, err := ip.resolveSeq(st, parts)
			if err != nil || susp {
				return nil, rebuildSlice(n, rewritten), susp, err
			}
			v, err := ip.sliceValue(st, n, vals)
			if err != nil {
				return nil, nil, false, err
			}
			return v, &ast.ResolvedExpr{Value: v}, false, nil
		}
		vals, rewritten, susp, err := ip.resolveSeq(st, []ast.Expr{n.Value, n.Index})
		if err != nil || susp {
			return nil, &ast.Subscript{Base: n.Base, Value: rewritten[0], Index: rewritten[1]}, susp, err
		}
		v, err := ip.indexValue(st, vals[0], vals[1], n.Position())
		if err != nil {
			return nil, nil, false, err
		}
		return v, &ast.ResolvedExpr{Value: v}, false, nil

	case *ast.ListComp:
		return ip.resolveListComp(st, n)

	case *ast.Call:
		return ip.resolveCall(st, n)

	default:
		pos := e.Position()
		return nil, nil, false, execerr.UnsupportedAST(fmt.Sprintf("%T", e), pos.Line, pos.Col)
	}
}

// resolveSeq resolves exprs left to right, stopping at the first suspend.
// Already-resolved entries (including ones from earlier in this same call)
// are wrapped in ast.ResolvedExpr in the returned rewritten slice so a
// retry never re-evaluates or re-triggers them.
func (ip *Interp) resolveSeq(st *state.State, exprs []ast.Expr) ([]symvalue.Value, []ast.Expr, bool, *execerr.ExecError) {
	vals := make([]symvalue.Value, len(exprs))
	rewritten := make([]ast.Expr, len(exprs))
	for i, e := range exprs {
		v, rw, susp, err := ip.resolveExpr(st, e)
		if err != nil {
			return nil, nil, false, err
		}
		if susp {
			rewritten[i] = rw
			for j := i + 1; j < len(exprs); j++ {
				rewritten[j] = exprs[j]
			}
			return nil, rewritten, true, nil
		}
		vals[i] = v
		rewritten[i] = &ast.ResolvedExpr{Value: v}
	}
	return vals, rewritten, false, nil
}

func rebuildSlice(n *ast.Subscript, rewritten []ast.Expr) ast.Expr {
	out := &ast.Subscript{Value: rewritten[0], IsSlice: true}
	i := 1
	if n.Lo != nil {
		out.Lo = rewritten[i]
		i++
	}
	if n.Hi != nil {
		out.Hi = rewritten[i]
	}
	return out
}

func strLiteral(st *state.State, s string) *symvalue.String {
	chars := make([]*symvalue.Char, len(s))
	for i := 0; i < len(s); i++ {
		chars[i] = &symvalue.Char{Variable: &symvalue.BitVec{Term: st.Solver.MkBVLit(int64(s[i]), 8), Size: 8}}
	}
	return &symvalue.String{Chars: chars}
}

func (ip *Interp) binOp(st *state.State, op string, l, r symvalue.Value, pos ast.Pos) (symvalue.Value, *execerr.ExecError) {
	ls, lok := l.(*symvalue.String)
	rs, rok := r.(*symvalue.String)
	if lok && rok && op == "+" {
		out := append(append([]*symvalue.Char{}, ls.Chars...), rs.Chars...)
		return &symvalue.String{Chars: out}, nil
	}
	if ll, ok := l.(*symvalue.List); ok {
		if rl, ok := r.(*symvalue.List); ok && op == "+" {
			out := append(append([]symvalue.Value{}, ll.Elements...), rl.Elements...)
			return &symvalue.List{Elements: out}, nil
		}
	}
	if lok && op == "*" {
		n, err := concreteIndex(st, r, "string repeat count", pos.Line, pos.Col)
		if err != nil {
			return nil, err
		}
		return repeatString(ls, n), nil
	}
	if ll, ok := l.(*symvalue.List); ok && op == "*" {
		n, err := concreteIndex(st, r, "list repeat count", pos.Line, pos.Col)
		if err != nil {
			return nil, err
		}
		return repeatList(ll, n), nil
	}

	if _, ok := l.(*symvalue.String); ok {
		return nil, execerr.TypeClash(op, "String", fmt.Sprintf("%T", r), pos.Line, pos.Col)
	}
	if _, ok := l.(*symvalue.List); ok {
		return nil, execerr.TypeClash(op, "List", fmt.Sprintf("%T", r), pos.Line, pos.Col)
	}
	if _, ok := r.(*symvalue.String); ok {
		return nil, execerr.TypeClash(op, fmt.Sprintf("%T", l), "String", pos.Line, pos.Col)
	}
	if _, ok := r.(*symvalue.List); ok {
		return nil, execerr.TypeClash(op, fmt.Sprintf("%T", l), "List", pos.Line, pos.Col)
	}

	lo, ro := coerce.FromValue(l), coerce.FromValue(r)
	lt, rt, sort, width := coerce.Match(st.Solver, lo, ro, op)
	binOpOverflowGuard(st, op, sort, lt, rt)
	result, err := numericBinOp(st.Solver, op, sort, lt, rt)
	if err != nil {
		err.Location.Line, err.Location.Column = pos.Line, pos.Col
		return nil, err
	}
	name := st.FreshTempName("bin")
	switch sort {
	case solver.SortReal:
		return &symvalue.Real{VarName: name, CtxID: st.Ctx, Term: result}, nil
	case solver.SortBitVec:
		return &symvalue.BitVec{VarName: name, CtxID: st.Ctx, Size: width, Term: result}, nil
	default:
		return &symvalue.Int{VarName: name, CtxID: st.Ctx, Term: result}, nil
	}
}

func repeatString(s *symvalue.String, n int64) *symvalue.String {
	if n <= 0 {
		return &symvalue.String{}
	}
	out := make([]*symvalue.Char, 0, int64(len(s.Chars))*n)
	for i := int64(0); i < n; i++ {
		out = append(out, s.Chars...)
	}
	return &symvalue.String{Chars: out}
}

func repeatList(l *symvalue.List, n int64) *symvalue.List {
	if n <= 0 {
		return &symvalue.List{}
	}
	out := make([]symvalue.Value, 0, int64(len(l.Elements))*n)
	for i := int64(0); i < n; i++ {
		out = append(out, l.Elements...)
	}
	return &symvalue.List{Elements: out}
}

func (ip *Interp) unaryOp(st *state.State, op string, v symvalue.Value, pos ast.Pos) (symvalue.Value, *execerr.ExecError) {
	switch op {
	case "not":
		t, err := truthy(st, v)
		if err != nil {
			return nil, err
		}
		return &symvalue.Bool{Term: st.Solver.Not(t)}, nil
	case "+":
		return v, nil
	case "-":
		switch t := v.(type) {
		case *symvalue.Int:
			if t.IsConcrete() {
				c := -*t.Concrete
				return &symvalue.Int{Concrete: &c}, nil
			}
			return &symvalue.Int{VarName: st.FreshTempName("neg"), CtxID: st.Ctx, Term: st.Solver.Neg(t.Term)}, nil
		case *symvalue.Real:
			return &symvalue.Real{VarName: st.FreshTempName("neg"), CtxID: st.Ctx, Term: st.Solver.Neg(t.Term)}, nil
		case *symvalue.BitVec:
			return &symvalue.BitVec{VarName: st.FreshTempName("neg"), CtxID: st.Ctx, Size: t.Size, Term: st.Solver.Neg(t.Term)}, nil
		default:
			return nil, execerr.TypeClash(op, fmt.Sprintf("%T", v), "", pos.Line, pos.Col)
		}
	default:
		return nil, execerr.UnsupportedAST("UnaryOp:"+op, pos.Line, pos.Col)
	}
}

func (ip *Interp) compareChain(st *state.State, ops []string, vals []symvalue.Value, pos ast.Pos) (symvalue.Value, *execerr.ExecError) {
	var terms []solver.Term
	for i, op := range ops {
		l, r := vals[i], vals[i+1]
		lo, ro := coerce.FromValue(l), coerce.FromValue(r)
		lt, rt, _, _ := coerce.Match(st.Solver, lo, ro, "==")
		t, err := cmpOp(st.Solver, op, lt, rt)
		if err != nil {
			err.Location.Line, err.Location.Column = pos.Line, pos.Col
			return nil, err
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return &symvalue.Bool{Term: terms[0]}, nil
	}
	return &symvalue.Bool{Term: st.Solver.And(terms...)}, nil
}

func (ip *Interp) boolOp(st *state.State, op string, vals []symvalue.Value, pos ast.Pos) (symvalue.Value, *execerr.ExecError) {
	terms := make([]solver.Term, len(vals))
	for i, v := range vals {
		t, err := truthy(st, v)
		if err != nil {
			return nil, err
		}
		terms[i] = t
	}
	if op == "or" {
		return &symvalue.Bool{Term: st.Solver.Or(terms...)}, nil
	}
	return &symvalue.Bool{Term: st.Solver.And(terms...)}, nil
}

func (ip *Interp) indexValue(st *state.State, base, idx symvalue.Value, pos ast.Pos) (symvalue.Value, *execerr.ExecError) {
	i, err := concreteIndex(st, idx, "subscript index", pos.Line, pos.Col)
	if err != nil {
		return nil, err
	}
	switch t := base.(type) {
	case *symvalue.String:
		n := normalizeIndex(i, int64(len(t.Chars)))
		if n < 0 || n >= int64(len(t.Chars)) {
			return nil, execerr.TypeClash("subscript", "in-range index", "out-of-range index", pos.Line, pos.Col)
		}
		return t.Chars[n], nil
	case *symvalue.List:
		n := normalizeIndex(i, int64(len(t.Elements)))
		if n < 0 || n >= int64(len(t.Elements)) {
			return nil, execerr.TypeClash("subscript", "in-range index", "out-of-range index", pos.Line, pos.Col)
		}
		return t.Elements[n], nil
	default:
		return nil, execerr.TypeClash("subscript", "String or List", fmt.Sprintf("%T", base), pos.Line, pos.Col)
	}
}

func (ip *Interp) sliceValue(st *state.State, n *ast.Subscript, vals []symvalue.Value) (symvalue.Value, *execerr.ExecError) {
	pos := n.Position()
	i := 1
	var lo, hi int64 = 0, -1
	haveLo, haveHi := n.Lo != nil, n.Hi != nil
	if haveLo {
		v, err := concreteIndex(st, vals[i], "slice bound", pos.Line, pos.Col)
		if err != nil {
			return nil, err
		}
		lo = v
		i++
	}
	if haveHi {
		v, err := concreteIndex(st, vals[i], "slice bound", pos.Line, pos.Col)
		if err != nil {
			return nil, err
		}
		hi = v
	}
	switch t := vals[0].(type) {
	case *symvalue.String:
		l := normalizeIndex(lo, int64(len(t.Chars)))
		h := int64(len(t.Chars))
		if haveHi {
			h = normalizeIndex(hi, int64(len(t.Chars)))
		}
		if l < 0 {
			l = 0
		}
		if h > int64(len(t.Chars)) {
			h = int64(len(t.Chars))
		}
		if h < l {
			h = l
		}
		return &symvalue.String{Chars: append([]*symvalue.Char{}, t.Chars[l:h]...)}, nil
	case *symvalue.List:
		l := normalizeIndex(lo, int64(len(t.Elements)))
		h := int64(len(t.Elements))
		if haveHi {
			h = normalizeIndex(hi, int64(len(t.Elements)))
		}
		if l < 0 {
			l = 0
		}
		if h > int64(len(t.Elements)) {
			h = int64(len(t.Elements))
		}
		if h < l {
			h = l
		}
		return &symvalue.List{Elements: append([]symvalue.Value{}, t.Elements[l:h]...)}, nil
	default:
		return nil, execerr.TypeClash("slice", "String or List", fmt.Sprintf("%T", vals[0]), pos.Line, pos.Col)
	}
}

func normalizeIndex(i, length int64) int64 {
	if i < 0 {
		return length + i
	}
	return i
}
