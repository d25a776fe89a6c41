package interp

import (
	"fmt"

	"symexec/internal/ast"
	"symexec/internal/execerr"
	"symexec/internal/state"
	"symexec/internal/symvalue"
)

// resolveListComp evaluates `[elt for target in iter]` by desugaring it
// into a synthetic single-parameter (__iter) function — a __i/__result while
// loop over __iter, indexing __iter[__i] into target each pass and
// concatenating [elt] onto __result — and invoking it through the same
// suspend/resume path as an ordinary user-defined call. The comprehension
// variable lives in the synthetic function's own context, so it never
// leaks into the caller's scope, matching Python's own comprehension
// scoping.
func (ip *Interp) resolveListComp(st *state.State, n *ast.ListComp) (symvalue.Value, ast.Expr, bool, *execerr.ExecError) {
	pos := n.Position()
	iterVal, rewrittenIter, susp, err := ip.resolveExpr(st, n.Iter)
	if err != nil {
		return nil, nil, false, err
	}
	if susp {
		return nil, &ast.ListComp{Base: n.Base, Elt: n.Elt, Target: n.Target, Iter: rewrittenIter}, true, nil
	}

	fnName := fmt.Sprintf("__listcomp_L%d_C%d", pos.Line, pos.Col)
	st.Funcs.Define(listCompFunc(n, fnName))

	call := &ast.Call{
		Base:   n.Base,
		Callee: &ast.Name{Base: n.Base, Id: fnName},
		Args:   []ast.Expr{&ast.ResolvedExpr{Base: n.Base, Value: iterVal}},
	}
	out, cerr := ip.invokeCall(st, call)
	if cerr != nil {
		return nil, nil, false, cerr
	}
	if out.suspended {
		return nil, out.rewritten, true, nil
	}
	return out.value, &ast.ResolvedExpr{Value: out.value}, false, nil
}

// listCompFunc builds the synthetic function body for one ListComp node:
//
//	def fnName(__iter):
//	    __i = 0
//	    __result = []
//	    while __i < len(__iter):
//	        target = __iter[__i]
//	        __result = __result + [elt]
//	        __i = __i + 1
//	    return __result
func listCompFunc(n *ast.ListComp, fnName string) *ast.FunctionDef {
	b := n.Base
	iterName := &ast.Name{Base: b, Id: "__iter"}
	iName := &ast.Name{Base: b, Id: "__i"}
	resultName := &ast.Name{Base: b, Id: "__result"}

	return &ast.FunctionDef{
		Base:     b,
		Name:     fnName,
		Params:   []string{"__iter"},
		Defaults: map[string]ast.Expr{},
		Body: []ast.Stmt{
			&ast.Assign{Base: b, Target: "__i", Value: &ast.Num{Base: b, Int: 0}},
			&ast.Assign{Base: b, Target: "__result", Value: &ast.ListExpr{Base: b}},
			&ast.While{
				Base: b,
				Test: &ast.Compare{
					Base: b,
					Left: iName,
					Ops:  []string{"<"},
					Comparators: []ast.Expr{&ast.Call{
						Base:   b,
						Callee: &ast.Name{Base: b, Id: "len"},
						Args:   []ast.Expr{iterName},
					}},
				},
				Body: []ast.Stmt{
					&ast.Assign{Base: b, Target: n.Target, Value: &ast.Subscript{Base: b, Value: iterName, Index: iName}},
					&ast.Assign{Base: b, Target: "__result", Value: &ast.BinOp{
						Base:  b,
						Left:  resultName,
						Op:    "+",
						Right: &ast.ListExpr{Base: b, Elts: []ast.Expr{n.Elt}},
					}},
					&ast.AugAssign{Base: b, Target: "__i", Op: "+", Value: &ast.Num{Base: b, Int: 1}},
				},
			},
			&ast.Return{Base: b, Value: resultName},
		},
	}
}
