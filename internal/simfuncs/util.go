package simfuncs

import (
	"context"
	"fmt"

	"symexec/internal/solver"
	"symexec/internal/state"
	"symexec/internal/symvalue"
)

// concreteByte resolves a BitVec(8) term to the single byte it must denote,
// pushing a disposable solver frame rather than touching the caller's
// assertion stack. It mirrors internal/state's any_int machinery, applied
// to a raw term instead of a named variable.
func concreteByte(st *state.State, term solver.Term) (byte, bool, error) {
	status, err := st.Solver.Check(context.Background())
	if err != nil {
		return 0, false, err
	}
	if status != solver.Sat {
		return 0, false, nil
	}
	model, err := st.Solver.Model()
	if err != nil {
		return 0, false, err
	}
	witness, ok := model.EvalBV(term)
	if !ok {
		return 0, false, nil
	}

	st.Solver.Push()
	defer st.Solver.Pop()
	st.Solver.Assert(st.Solver.Ne(term, st.Solver.MkBVLit(witness, 8)))
	status, err = st.Solver.Check(context.Background())
	if err != nil {
		return 0, false, err
	}
	if status == solver.Sat {
		return 0, false, nil
	}
	return byte(witness), true, nil
}

// concreteString materializes every character of s, failing if any
// character has more than one satisfying model.
func concreteString(st *state.State, s *symvalue.String) (string, error) {
	buf := make([]byte, len(s.Chars))
	for i, ch := range s.Chars {
		b, ok, err := concreteByte(st, ch.Variable.Term)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("character %d is not concrete", i)
		}
		buf[i] = b
	}
	return string(buf), nil
}

// concreteInt resolves v to the single integer it must denote, the same
// "exactly one satisfying model" rule interp.concreteIndex applies to a
// subscript index: a value with more than one witness isn't a usable
// argument for int()'s base, Symbolic.BitVec's width or range()'s bounds,
// any more than it is for a subscript index.
func concreteInt(st *state.State, v symvalue.Value) (int64, bool, error) {
	iv, ok := v.(*symvalue.Int)
	if !ok {
		return 0, false, nil
	}
	if iv.IsConcrete() {
		return *iv.Concrete, true, nil
	}
	st.Solver.Push()
	defer st.Solver.Pop()
	status, err := st.Solver.Check(context.Background())
	if err != nil || status != solver.Sat {
		return 0, false, err
	}
	model, err := st.Solver.Model()
	if err != nil {
		return 0, false, err
	}
	witness, ok := model.EvalInt(iv.Term)
	if !ok {
		return 0, false, nil
	}
	st.Solver.Assert(st.Solver.Ne(iv.Term, st.Solver.MkIntLit(witness)))
	status, err = st.Solver.Check(context.Background())
	if err != nil {
		return 0, false, err
	}
	if status == solver.Sat {
		return 0, false, nil
	}
	return witness, true, nil
}
