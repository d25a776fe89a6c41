package state

import (
	"context"

	"symexec/internal/execerr"
	"symexec/internal/solver"
	"symexec/internal/symvalue"
)

// AnyInt implements the any_int: a SAT-check, evaluate, return one
// witness (integer or bit-vector valuation as a signed integer), else a
// false ok.
func (s *State) AnyInt(name string, ctx int) (int64, bool, error) {
	v := s.Objects.Get(name, ctx)
	if v == nil {
		return 0, false, nil
	}
	switch t := v.(type) {
	case *symvalue.Int:
		if t.IsConcrete() {
			return *t.Concrete, true, nil
		}
		return s.evalIntTerm(t.Term)
	case *symvalue.BitVec:
		return s.evalBVTerm(t.Term)
	default:
		return 0, false, nil
	}
}

// AnyReal implements any_real, accepting integer witnesses implicitly.
func (s *State) AnyReal(name string, ctx int) (float64, bool, error) {
	v := s.Objects.Get(name, ctx)
	if v == nil {
		return 0, false, nil
	}
	switch t := v.(type) {
	case *symvalue.Real:
		status, model, err := s.checkAndModel()
		if err != nil || status != solver.Sat {
			return 0, false, err
		}
		f, ok := model.EvalReal(t.Term)
		return f, ok, nil
	case *symvalue.Int:
		if t.IsConcrete() {
			return float64(*t.Concrete), true, nil
		}
		i, ok, err := s.evalIntTerm(t.Term)
		return float64(i), ok, err
	default:
		return 0, false, nil
	}
}

// AnyStr implements any_str: materializes a String container by
// byte-wise evaluating its Char sequence.
func (s *State) AnyStr(name string, ctx int) (string, bool, error) {
	v := s.Objects.Get(name, ctx)
	str, ok := v.(*symvalue.String)
	if !ok {
		return "", false, nil
	}
	buf := make([]byte, len(str.Chars))
	for i, ch := range str.Chars {
		b, ok, err := s.evalBVTerm(ch.Variable.Term)
		if err != nil {
			return "", false, err
		}
		if !ok {
			return "", false, nil
		}
		buf[i] = byte(b)
	}
	return string(buf), true, nil
}

// AnyList implements any_list: materializes each list element as an
// integer. Only Int and BitVec elements are supported; any other element,
// a nested list included, is reported as TypeClash.
func (s *State) AnyList(name string, ctx int) ([]int64, bool, error) {
	v := s.Objects.Get(name, ctx)
	lst, ok := v.(*symvalue.List)
	if !ok {
		return nil, false, nil
	}
	out := make([]int64, 0, len(lst.Elements))
	for _, e := range lst.Elements {
		switch t := e.(type) {
		case *symvalue.Int:
			if t.IsConcrete() {
				out = append(out, *t.Concrete)
				continue
			}
			i, ok, err := s.evalIntTerm(t.Term)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, nil
			}
			out = append(out, i)
		case *symvalue.BitVec:
			i, ok, err := s.evalBVTerm(t.Term)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, nil
			}
			out = append(out, i)
		default:
			return nil, false, execerr.TypeClash("any_list", "scalar", "non-scalar element", 0, 0)
		}
	}
	return out, true, nil
}

// AnyNInt implements any_n_int: up to n distinct witnesses by iteratively
// asserting var != previous in a temporary solver frame (Push/Pop). A value
// object is static iff this returns exactly one witness.
func (s *State) AnyNInt(name string, ctx int, n int) ([]int64, error) {
	v := s.Objects.Get(name, ctx)
	if v == nil {
		return nil, nil
	}
	var term solver.Term
	switch t := v.(type) {
	case *symvalue.Int:
		if t.IsConcrete() {
			return []int64{*t.Concrete}, nil
		}
		term = t.Term
	case *symvalue.BitVec:
		term = t.Term
	default:
		return nil, nil
	}

	out := []int64{}
	s.Solver.Push()
	defer s.Solver.Pop()
	for len(out) < n {
		status, err := s.Solver.Check(context.Background())
		if err != nil {
			return out, execerr.SolverError(err, 0, 0)
		}
		if status != solver.Sat {
			break
		}
		model, err := s.Solver.Model()
		if err != nil {
			return out, execerr.SolverError(err, 0, 0)
		}
		var witness int64
		var ok bool
		if term.Sort() == solver.SortBitVec {
			witness, ok = model.EvalBV(term)
		} else {
			witness, ok = model.EvalInt(term)
		}
		if !ok {
			break
		}
		out = append(out, witness)
		s.Solver.Assert(s.Solver.Ne(term, s.literalFor(term, witness)))
	}
	return out, nil
}

// IsStatic reports whether a value object has exactly one satisfying
// model, per the definition.
func (s *State) IsStatic(name string, ctx int) (bool, error) {
	witnesses, err := s.AnyNInt(name, ctx, 2)
	if err != nil {
		return false, err
	}
	return len(witnesses) == 1, nil
}

func (s *State) literalFor(term solver.Term, v int64) solver.Term {
	if term.Sort() == solver.SortBitVec {
		return s.Solver.MkBVLit(v, term.Width())
	}
	return s.Solver.MkIntLit(v)
}

func (s *State) checkAndModel() (solver.Status, solver.Model, error) {
	status, err := s.Solver.Check(context.Background())
	if err != nil {
		return solver.Unknown, nil, execerr.SolverError(err, 0, 0)
	}
	if status != solver.Sat {
		return status, nil, nil
	}
	model, err := s.Solver.Model()
	if err != nil {
		return solver.Unknown, nil, execerr.SolverError(err, 0, 0)
	}
	return status, model, nil
}

func (s *State) evalIntTerm(t solver.Term) (int64, bool, error) {
	status, model, err := s.checkAndModel()
	if err != nil || status != solver.Sat {
		return 0, false, err
	}
	v, ok := model.EvalInt(t)
	return v, ok, nil
}

func (s *State) evalBVTerm(t solver.Term) (int64, bool, error) {
	status, model, err := s.checkAndModel()
	if err != nil || status != solver.Sat {
		return 0, false, err
	}
	v, ok := model.EvalBV(t)
	return v, ok, nil
}
