package interp

import (
	"symexec/internal/ast"
	"symexec/internal/ctxid"
	"symexec/internal/execerr"
	"symexec/internal/simfuncs"
	"symexec/internal/state"
	"symexec/internal/symvalue"
)

// callOutcome is invokeCall's internal result shape before its caller
// decides whether forks are acceptable at this call site.
type callOutcome struct {
	value      symvalue.Value
	forks      []simfuncs.Fork
	rewritten  ast.Expr
	suspended  bool
}

func domainOf(v symvalue.Value) string {
	switch v.(type) {
	case *symvalue.Int:
		return "Int"
	case *symvalue.Real:
		return "Real"
	case *symvalue.BitVec:
		return "BitVec"
	case *symvalue.Char:
		return "Char"
	case *symvalue.String:
		return "String"
	case *symvalue.List:
		return "List"
	default:
		return ""
	}
}

// resolveCall is the non-top-level Call entry point used by resolveExpr:
// it rejects a forking outcome, since only the statement's top-level value
// expression may materialize more than one successor.
func (ip *Interp) resolveCall(st *state.State, n *ast.Call) (symvalue.Value, ast.Expr, bool, *execerr.ExecError) {
	out, err := ip.invokeCall(st, n)
	if err != nil {
		return nil, nil, false, err
	}
	if out.suspended {
		return nil, out.rewritten, true, nil
	}
	if len(out.forks) > 0 {
		return nil, nil, false, execerr.ArityOrKeyword("simulated function forking is only supported in a statement's top-level value position", n.Position().Line, n.Position().Col)
	}
	return out.value, &ast.ResolvedExpr{Value: out.value}, false, nil
}

// resolveTopLevelCall is used by statement handlers (Assign/ExprStmt's
// value expression) when that expression is itself exactly a Call: the one
// position where a simulated function may fork into multiple successor
// states.
func (ip *Interp) resolveTopLevelCall(st *state.State, n *ast.Call) (*callOutcome, *execerr.ExecError) {
	return ip.invokeCall(st, n)
}

func (ip *Interp) invokeCall(st *state.State, n *ast.Call) (*callOutcome, *execerr.ExecError) {
	callee, ok := n.Callee.(*ast.Name)
	if !ok {
		pos := n.Position()
		return nil, execerr.UnsupportedAST("indirect call target", pos.Line, pos.Col)
	}

	kwNames := make([]string, 0, len(n.Keywords))
	kwExprs := make([]ast.Expr, 0, len(n.Keywords))
	for k, v := range n.Keywords {
		kwNames = append(kwNames, k)
		kwExprs = append(kwExprs, v)
	}
	allExprs := append(append([]ast.Expr{}, n.Args...), kwExprs...)
	vals, rewritten, susp, err := ip.resolveSeq(st, allExprs)
	if err != nil {
		return nil, err
	}
	if susp {
		rewrittenArgs := rewritten[:len(n.Args)]
		rewrittenKw := map[string]ast.Expr{}
		for i, name := range kwNames {
			rewrittenKw[name] = rewritten[len(n.Args)+i]
		}
		return &callOutcome{
			suspended: true,
			rewritten: &ast.Call{Base: n.Base, Callee: n.Callee, Args: rewrittenArgs, Keywords: rewrittenKw},
		}, nil
	}
	posVals := vals[:len(n.Args)]
	kwVals := map[string]symvalue.Value{}
	for i, name := range kwNames {
		kwVals[name] = vals[len(n.Args)+i]
	}

	if h, ok := ip.Funcs.Lookup(callee.Id); ok {
		outcome, oerr := h(st, posVals)
		if oerr != nil {
			return nil, execerr.ArityOrKeyword(oerr.Error(), n.Position().Line, n.Position().Col)
		}
		return &callOutcome{value: outcome.Value, forks: outcome.Forks}, nil
	}
	if len(posVals) > 0 {
		if domain := domainOf(posVals[0]); domain != "" {
			if h, ok := ip.Funcs.Lookup(domain + "." + callee.Id); ok {
				outcome, oerr := h(st, posVals)
				if oerr != nil {
					return nil, execerr.ArityOrKeyword(oerr.Error(), n.Position().Line, n.Position().Col)
				}
				return &callOutcome{value: outcome.Value, forks: outcome.Forks}, nil
			}
		}
	}

	return ip.setupUserCall(st, n, callee.Id, posVals, kwVals)
}

// setupUserCall allocates the callee's context, binds parameters, pushes a
// resumption frame and rewrites the call site to an ast.ReturnRef awaiting
// ret<ctx> in CTX_RETURNS. This is the only place a user-defined function
// call suspends; by the time the rewritten statement is retried the callee
// has already run to its Return and the ReturnRef resolves immediately.
func (ip *Interp) setupUserCall(st *state.State, n *ast.Call, name string, posVals []symvalue.Value, kwVals map[string]symvalue.Value) (*callOutcome, *execerr.ExecError) {
	pos := n.Position()
	fn, ok := st.Funcs.Lookup(name)
	if !ok {
		return nil, execerr.ArityOrKeyword("call to undefined function "+name, pos.Line, pos.Col)
	}
	if len(posVals) > len(fn.Params) {
		return nil, execerr.ArityOrKeyword("too many positional arguments to "+name, pos.Line, pos.Col)
	}

	calleeCtx := ctxid.ForCall(name, pos.Line, pos.Col, st.Ctx)
	bindings := map[string]symvalue.Value{}
	for i, p := range fn.Params {
		if i < len(posVals) {
			bindings[p] = posVals[i]
			continue
		}
		if v, ok := kwVals[p]; ok {
			bindings[p] = v
			continue
		}
		if def, ok := fn.Defaults[p]; ok {
			v, _, susp, derr := ip.resolveExpr(st, def)
			if derr != nil {
				return nil, derr
			}
			if susp {
				return nil, execerr.ArityOrKeyword("default argument expressions that call a user function are not supported for "+name, pos.Line, pos.Col)
			}
			bindings[p] = v
			continue
		}
		return nil, execerr.ArityOrKeyword("missing required argument "+p+" to "+name, pos.Line, pos.Col)
	}

	st.Objects.NewCtx(calleeCtx)
	for p, v := range bindings {
		st.Objects.Set(p, calleeCtx, storeParam(v, p, calleeCtx))
	}

	// Push the resumption frame now, with whatever follows the current
	// statement in the caller's work-list; the current statement's own
	// rewritten form (substituting the ReturnRef this produces) isn't known
	// until resolveExpr finishes bubbling back up through its caller, so
	// Step prepends it to this frame's RemainingWork once that happens.
	rest := append([]ast.Stmt{}, st.Work[1:]...)
	st.PushFrame(&state.CallFrame{RemainingWork: rest, Ctx: st.Ctx, ReturnID: st.RetID, Loop: st.Loop})

	st.Ctx = calleeCtx
	st.RetID = calleeCtx
	st.Loop = nil
	st.Work = append([]ast.Stmt{}, fn.Body...)

	cell := &ast.RetCell{RetID: calleeCtx}
	rewrittenCall := &ast.ReturnRef{Base: n.Base, Cell: cell}
	return &callOutcome{suspended: true, rewritten: rewrittenCall}, nil
}

func storeParam(v symvalue.Value, name string, ctx int) symvalue.Value {
	return rebindAs(v, name, ctx, 0)
}
