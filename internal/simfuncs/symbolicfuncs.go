// The Symbolic.* namespace declares fresh, unconstrained symbolic inputs —
// `Symbolic.Int()`, `Symbolic.Real()`, `Symbolic.BitVec(width)`,
// `Symbolic.String(length)` — the driver-facing entry points a symbolic
// execution run seeds its initial state with, grounded in pySym's own
// convention of exposing a dedicated constructor namespace distinct from
// ordinary value construction.
package simfuncs

import (
	"fmt"

	"symexec/internal/solver"
	"symexec/internal/state"
	"symexec/internal/symvalue"
)

// RegisterSymbolicFunctions installs the Symbolic.* input constructors.
func RegisterSymbolicFunctions(r *Registry) {
	r.Register("Symbolic.Int", handleSymbolicInt)
	r.Register("Symbolic.Real", handleSymbolicReal)
	r.Register("Symbolic.BitVec", handleSymbolicBitVec)
	r.Register("Symbolic.String", handleSymbolicString)
}

func handleSymbolicInt(st *state.State, args []symvalue.Value) (Outcome, error) {
	name := st.FreshTempName("sym_int")
	return Outcome{Value: &symvalue.Int{VarName: name, Term: st.Solver.MkVar(name, solver.SortInt, 0)}}, nil
}

func handleSymbolicReal(st *state.State, args []symvalue.Value) (Outcome, error) {
	name := st.FreshTempName("sym_real")
	return Outcome{Value: &symvalue.Real{VarName: name, Term: st.Solver.MkVar(name, solver.SortReal, 0)}}, nil
}

func handleSymbolicBitVec(st *state.State, args []symvalue.Value) (Outcome, error) {
	width := 64
	if len(args) > 0 {
		w, ok, err := concreteInt(st, args[0])
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			return Outcome{}, fmt.Errorf("Symbolic.BitVec: width must be a concrete integer")
		}
		width = int(w)
	}
	name := st.FreshTempName("sym_bv")
	return Outcome{Value: &symvalue.BitVec{VarName: name, Size: width, Term: st.Solver.MkVar(name, solver.SortBitVec, width)}}, nil
}

func handleSymbolicString(st *state.State, args []symvalue.Value) (Outcome, error) {
	if len(args) == 0 {
		return Outcome{}, fmt.Errorf("Symbolic.String: missing length argument")
	}
	n, ok, err := concreteInt(st, args[0])
	if err != nil {
		return Outcome{}, err
	}
	if !ok || n < 0 {
		return Outcome{}, fmt.Errorf("Symbolic.String: length must be a concrete non-negative integer")
	}
	chars := make([]*symvalue.Char, n)
	for i := int64(0); i < n; i++ {
		name := st.FreshTempName("sym_chr")
		chars[i] = &symvalue.Char{Variable: &symvalue.BitVec{VarName: name, Size: 8, Term: st.Solver.MkVar(name, solver.SortBitVec, 8)}}
	}
	return Outcome{Value: &symvalue.String{Chars: chars}}, nil
}
