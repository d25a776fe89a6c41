// String simulated functions, grounded in original_source/pyState/functions/String/
// (join.py, index.py and its test_function_String_index.py): each operates
// on the structural Char sequence of a String rather than asking the
// solver to reason about string theory directly, matching the engine's
// rule that containers stay structural and never touch the solver
// themselves (only their element BitVecs do).
package simfuncs

import (
	"fmt"

	"symexec/internal/state"
	"symexec/internal/symvalue"
)

// RegisterStringFunctions installs String.rstrip, String.join and
// String.index.
func RegisterStringFunctions(r *Registry) {
	r.Register("String.rstrip", handleRstrip)
	r.Register("String.join", handleJoin)
	r.Register("String.index", handleIndex)
}

func handleRstrip(st *state.State, args []symvalue.Value) (Outcome, error) {
	recv, ok := args[0].(*symvalue.String)
	if !ok {
		return Outcome{}, fmt.Errorf("rstrip: receiver is not a String")
	}
	cut := map[byte]bool{' ': true, '\t': true, '\n': true, '\r': true}
	if len(args) > 1 {
		chars, ok := args[1].(*symvalue.String)
		if !ok {
			return Outcome{}, fmt.Errorf("rstrip: strip set is not a String")
		}
		s, err := concreteString(st, chars)
		if err != nil {
			return Outcome{}, fmt.Errorf("rstrip: strip set must be concrete: %w", err)
		}
		cut = map[byte]bool{}
		for i := 0; i < len(s); i++ {
			cut[s[i]] = true
		}
	}

	end := len(recv.Chars)
	for end > 0 {
		b, ok, err := concreteByte(st, recv.Chars[end-1].Variable.Term)
		if err != nil {
			return Outcome{}, err
		}
		if !ok || !cut[b] {
			break
		}
		end--
	}
	return Outcome{Value: &symvalue.String{Chars: append([]*symvalue.Char{}, recv.Chars[:end]...)}}, nil
}

func handleJoin(st *state.State, args []symvalue.Value) (Outcome, error) {
	sep, ok := args[0].(*symvalue.String)
	if !ok {
		return Outcome{}, fmt.Errorf("join: receiver is not a String")
	}
	if len(args) < 2 {
		return Outcome{}, fmt.Errorf("join: missing iterable argument")
	}
	parts, ok := args[1].(*symvalue.List)
	if !ok {
		return Outcome{}, fmt.Errorf("join: argument is not a List")
	}

	var out []*symvalue.Char
	for i, elem := range parts.Elements {
		s, ok := elem.(*symvalue.String)
		if !ok {
			return Outcome{}, fmt.Errorf("join: element %d is not a String", i)
		}
		if i > 0 {
			out = append(out, sep.Chars...)
		}
		out = append(out, s.Chars...)
	}
	return Outcome{Value: &symvalue.String{Chars: out}}, nil
}

// handleIndex implements String.index's forking behavior: one successor
// state per possible first-match position of a single-character target,
// each asserting that position's character equals the target and every
// earlier character does not, matching
// test_function_String_index.py's enumeration of every feasible index.
func handleIndex(st *state.State, args []symvalue.Value) (Outcome, error) {
	recv, ok := args[0].(*symvalue.String)
	if !ok {
		return Outcome{}, fmt.Errorf("index: receiver is not a String")
	}
	if len(args) < 2 {
		return Outcome{}, fmt.Errorf("index: missing target argument")
	}
	target, ok := args[1].(*symvalue.String)
	if !ok || len(target.Chars) != 1 {
		return Outcome{}, fmt.Errorf("index: target must be a single character")
	}
	needle := target.Chars[0].Variable.Term

	forks := make([]Fork, 0, len(recv.Chars))
	for i := range recv.Chars {
		fst := st.DeepCopy()
		fst.Solver.Assert(fst.Solver.Eq(recv.Chars[i].Variable.Term, needle))
		for j := 0; j < i; j++ {
			fst.Solver.Assert(fst.Solver.Ne(recv.Chars[j].Variable.Term, needle))
		}
		idx := int64(i)
		forks = append(forks, Fork{State: fst, Value: &symvalue.Int{Concrete: &idx}})
	}
	return Outcome{Forks: forks}, nil
}
