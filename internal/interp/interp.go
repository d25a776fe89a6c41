package interp

import (
	"fmt"

	"symexec/internal/ast"
	"symexec/internal/ctxid"
	"symexec/internal/execerr"
	"symexec/internal/state"
	"symexec/internal/symvalue"
)

// Step executes exactly one statement of st's work-list in place, mutating
// st, and returns the successor states it produces: one in the common
// case, two for a branching If/While, or one per materialized fork from a
// forking simulated function call. st itself is always among, or the
// basis of, the returned successors — callers that want isolation should
// clone st before calling Step (internal/path does this once per step).
func (ip *Interp) Step(st *state.State) ([]*state.State, *execerr.ExecError) {
	for len(st.Work) == 0 {
		if !st.PopFrame() {
			return nil, nil
		}
	}

	stmt := st.Work[0]
	switch n := stmt.(type) {
	case *ast.Assign:
		return ip.stepAssign(st, n)
	case *ast.AugAssign:
		return ip.stepAugAssign(st, n)
	case *ast.FunctionDef:
		st.Funcs.Define(n)
		st.Work = st.Work[1:]
		return []*state.State{st}, nil
	case *ast.ExprStmt:
		return ip.stepExprStmt(st, n)
	case *ast.Pass:
		st.Work = st.Work[1:]
		return []*state.State{st}, nil
	case *ast.Return:
		return ip.stepReturn(st, n)
	case *ast.If:
		return ip.stepIf(st, n)
	case *ast.While:
		return ip.stepWhile(st, n)
	case *ast.Break:
		return ip.stepBreak(st, n)
	default:
		pos := stmt.Position()
		return nil, execerr.UnsupportedAST(fmt.Sprintf("%T", stmt), pos.Line, pos.Col)
	}
}

// patchFrame prepends newStmt (the current statement, rewritten with its
// suspended Call replaced by an ast.ReturnRef) to the resumption frame a
// nested setupUserCall just pushed, so it's the first thing that runs once
// the callee returns.
func patchFrame(st *state.State, newStmt ast.Stmt) {
	if len(st.Calls) == 0 {
		return
	}
	top := st.Calls[len(st.Calls)-1]
	top.RemainingWork = append([]ast.Stmt{newStmt}, top.RemainingWork...)
}

func (ip *Interp) stepAssign(st *state.State, n *ast.Assign) ([]*state.State, *execerr.ExecError) {
	if call, ok := n.Value.(*ast.Call); ok {
		out, err := ip.resolveTopLevelCall(st, call)
		if err != nil {
			return nil, err
		}
		if out.suspended {
			patchFrame(st, &ast.Assign{Base: n.Base, Target: n.Target, Value: out.rewritten})
			return []*state.State{st}, nil
		}
		if len(out.forks) > 0 {
			successors := make([]*state.State, 0, len(out.forks))
			for _, f := range out.forks {
				fst := f.State
				storeAssign(fst, n.Target, f.Value)
				fst.Work = fst.Work[1:]
				successors = append(successors, fst)
			}
			return successors, nil
		}
		storeAssign(st, n.Target, out.value)
		st.Work = st.Work[1:]
		return []*state.State{st}, nil
	}

	val, rewritten, susp, err := ip.resolveExpr(st, n.Value)
	if err != nil {
		return nil, err
	}
	if susp {
		patchFrame(st, &ast.Assign{Base: n.Base, Target: n.Target, Value: rewritten})
		return []*state.State{st}, nil
	}
	storeAssign(st, n.Target, val)
	st.Work = st.Work[1:]
	return []*state.State{st}, nil
}

func (ip *Interp) stepAugAssign(st *state.State, n *ast.AugAssign) ([]*state.State, *execerr.ExecError) {
	cur := st.Objects.Get(n.Target, st.Ctx)
	if cur == nil {
		pos := n.Position()
		return nil, execerr.ArityOrKeyword("augmented assignment to undefined name "+n.Target, pos.Line, pos.Col)
	}
	val, rewritten, susp, err := ip.resolveExpr(st, n.Value)
	if err != nil {
		return nil, err
	}
	if susp {
		patchFrame(st, &ast.AugAssign{Base: n.Base, Target: n.Target, Op: n.Op, Value: rewritten})
		return []*state.State{st}, nil
	}
	result, berr := ip.binOp(st, n.Op, cur, val, n.Position())
	if berr != nil {
		return nil, berr
	}
	storeAssign(st, n.Target, result)
	st.Work = st.Work[1:]
	return []*state.State{st}, nil
}

func (ip *Interp) stepExprStmt(st *state.State, n *ast.ExprStmt) ([]*state.State, *execerr.ExecError) {
	if call, ok := n.Value.(*ast.Call); ok {
		out, err := ip.resolveTopLevelCall(st, call)
		if err != nil {
			return nil, err
		}
		if out.suspended {
			patchFrame(st, &ast.ExprStmt{Base: n.Base, Value: out.rewritten})
			return []*state.State{st}, nil
		}
		if len(out.forks) > 0 {
			successors := make([]*state.State, 0, len(out.forks))
			for _, f := range out.forks {
				fst := f.State
				fst.Work = fst.Work[1:]
				successors = append(successors, fst)
			}
			return successors, nil
		}
		st.Work = st.Work[1:]
		return []*state.State{st}, nil
	}

	_, rewritten, susp, err := ip.resolveExpr(st, n.Value)
	if err != nil {
		return nil, err
	}
	if susp {
		patchFrame(st, &ast.ExprStmt{Base: n.Base, Value: rewritten})
		return []*state.State{st}, nil
	}
	st.Work = st.Work[1:]
	return []*state.State{st}, nil
}

func (ip *Interp) stepReturn(st *state.State, n *ast.Return) ([]*state.State, *execerr.ExecError) {
	var val symvalue.Value
	if n.Value == nil {
		zero := int64(0)
		val = &symvalue.Int{Concrete: &zero}
	} else {
		v, rewritten, susp, err := ip.resolveExpr(st, n.Value)
		if err != nil {
			return nil, err
		}
		if susp {
			patchFrame(st, &ast.Return{Base: n.Base, Value: rewritten})
			return []*state.State{st}, nil
		}
		val = v
	}

	name := fmt.Sprintf("ret%d", st.RetID)
	st.Objects.Set(name, ctxid.Returns, rebindAs(val, name, ctxid.Returns, 0))
	st.Work = nil
	st.PopFrame()
	return []*state.State{st}, nil
}

func (ip *Interp) stepIf(st *state.State, n *ast.If) ([]*state.State, *execerr.ExecError) {
	val, rewritten, susp, err := ip.resolveExpr(st, n.Test)
	if err != nil {
		return nil, err
	}
	if susp {
		patchFrame(st, &ast.If{Base: n.Base, Test: rewritten, Body: n.Body, Orelse: n.Orelse})
		return []*state.State{st}, nil
	}
	term, terr := truthy(st, val)
	if terr != nil {
		return nil, terr
	}

	falseSt := st.DeepCopy()
	tail := st.Work[1:]

	st.Solver.Assert(term)
	st.Work = append(append([]ast.Stmt{}, n.Body...), tail...)

	falseSt.Solver.Assert(falseSt.Solver.Not(term))
	falseSt.Work = append(append([]ast.Stmt{}, n.Orelse...), tail...)

	return []*state.State{st, falseSt}, nil
}

func (ip *Interp) stepWhile(st *state.State, n *ast.While) ([]*state.State, *execerr.ExecError) {
	val, rewritten, susp, err := ip.resolveExpr(st, n.Test)
	if err != nil {
		return nil, err
	}
	if susp {
		patchFrame(st, &ast.While{Base: n.Base, Test: rewritten, Body: n.Body, Orelse: n.Orelse})
		return []*state.State{st}, nil
	}
	term, terr := truthy(st, val)
	if terr != nil {
		return nil, terr
	}

	falseSt := st.DeepCopy()
	tail := st.Work[1:]

	// Re-testing the same loop replaces its frame instead of nesting on it.
	parent := st.Loop
	if parent != nil && parent.Node == n && parent.Ctx == st.Ctx {
		parent = parent.Parent
	}

	st.Solver.Assert(term)
	st.Loop = &state.LoopFrame{Node: n, Ctx: st.Ctx, Tail: tail, Parent: parent}
	st.Work = append(append(append([]ast.Stmt{}, n.Body...), n), tail...)

	falseSt.Solver.Assert(falseSt.Solver.Not(term))
	falseSt.Loop = parent
	falseSt.Work = append(append([]ast.Stmt{}, n.Orelse...), tail...)

	return []*state.State{st, falseSt}, nil
}

func (ip *Interp) stepBreak(st *state.State, n *ast.Break) ([]*state.State, *execerr.ExecError) {
	if st.Loop == nil {
		pos := n.Position()
		return nil, execerr.UnsupportedAST("Break outside a loop", pos.Line, pos.Col)
	}
	st.Work = st.Loop.Tail
	st.Loop = st.Loop.Parent
	return []*state.State{st}, nil
}
