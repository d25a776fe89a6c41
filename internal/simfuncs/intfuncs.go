// int() and len(), the two free-standing builtins original_source exercises
// most (pyState/functions/int.py, len.py), plus range(); grounded the same way the
// teacher registers its own built-ins in internal/vm's NativeFunction table
// (stdlib/database_funcs.go's RegisterDatabaseFunctions is the structural
// template every Register* function in this package follows).
package simfuncs

import (
	"fmt"
	"strconv"
	"strings"

	"symexec/internal/state"
	"symexec/internal/symvalue"
)

// RegisterIntFunctions installs the free-standing int() builtin.
func RegisterIntFunctions(r *Registry) {
	r.Register("int", handleInt)
}

// RegisterLenFunction installs the free-standing len() builtin.
func RegisterLenFunction(r *Registry) {
	r.Register("len", handleLen)
}

// RegisterRangeFunction installs the free-standing range() builtin, the
// concrete-integer generator test_pyState_ListComp.py's
// `l = [x for x in range(5)]` iterates over. A bound without a single
// satisfying model is rejected with a plain error, which the interpreter
// reports as ArityKeywordError like every other simulated-function error.
func RegisterRangeFunction(r *Registry) {
	r.Register("range", handleRange)
}

func handleInt(st *state.State, args []symvalue.Value) (Outcome, error) {
	if len(args) == 0 {
		return Outcome{}, fmt.Errorf("int: missing argument")
	}
	if iv, ok := args[0].(*symvalue.Int); ok {
		return Outcome{Value: iv}, nil
	}
	sv, ok := args[0].(*symvalue.String)
	if !ok {
		return Outcome{}, fmt.Errorf("int: unsupported argument type")
	}
	s, err := concreteString(st, sv)
	if err != nil {
		return Outcome{}, fmt.Errorf("int: argument must be concrete: %w", err)
	}

	base := 10
	if len(args) > 1 {
		b, ok, err := concreteInt(st, args[1])
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			return Outcome{}, fmt.Errorf("int: base argument is not an integer")
		}
		base = int(b)
	}

	s = stripBasePrefix(s, base)
	n, perr := strconv.ParseInt(s, base, 64)
	if perr != nil {
		return Outcome{}, fmt.Errorf("int: %q is not a valid base-%d literal", s, base)
	}
	return Outcome{Value: &symvalue.Int{Concrete: &n}}, nil
}

func stripBasePrefix(s string, base int) string {
	switch base {
	case 2:
		return strings.TrimPrefix(strings.TrimPrefix(s, "0b"), "0B")
	case 8:
		return strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0O")
	case 16:
		return strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	default:
		return s
	}
}

func handleRange(st *state.State, args []symvalue.Value) (Outcome, error) {
	if len(args) == 0 || len(args) > 3 {
		return Outcome{}, fmt.Errorf("range: expected 1 to 3 arguments, got %d", len(args))
	}
	bounds := make([]int64, len(args))
	for i, a := range args {
		n, ok, err := concreteInt(st, a)
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			return Outcome{}, fmt.Errorf("range: argument %d is not concrete", i)
		}
		bounds[i] = n
	}

	start, stop, step := int64(0), bounds[0], int64(1)
	if len(bounds) >= 2 {
		start, stop = bounds[0], bounds[1]
	}
	if len(bounds) == 3 {
		step = bounds[2]
	}
	if step == 0 {
		return Outcome{}, fmt.Errorf("range: step argument must not be zero")
	}

	var elems []symvalue.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			v := i
			elems = append(elems, &symvalue.Int{Concrete: &v})
		}
	} else {
		for i := start; i > stop; i += step {
			v := i
			elems = append(elems, &symvalue.Int{Concrete: &v})
		}
	}
	return Outcome{Value: &symvalue.List{Elements: elems}}, nil
}

func handleLen(st *state.State, args []symvalue.Value) (Outcome, error) {
	if len(args) == 0 {
		return Outcome{}, fmt.Errorf("len: missing argument")
	}
	var n int64
	switch t := args[0].(type) {
	case *symvalue.String:
		n = int64(len(t.Chars))
	case *symvalue.List:
		n = int64(len(t.Elements))
	default:
		return Outcome{}, fmt.Errorf("len: unsupported argument type")
	}
	return Outcome{Value: &symvalue.Int{Concrete: &n}}, nil
}
