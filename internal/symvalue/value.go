// Package symvalue implements the typed symbolic value objects:
// Int, Real, BitVec, Char, String and List. Each scalar carries the SSA
// naming triple (name, ctx, count); containers are structural and never
// touch the solver directly.
package symvalue

import (
	"fmt"

	"symexec/internal/solver"
)

// Value is the tagged variant every symbolic object implements.
type Value interface {
	// QualName is the fully-qualified SSA name "<count><name>@<ctx>" this
	// value denotes.
	QualName() string
	Name() string
	Ctx() int
	Count() int
	// Copy produces a deep, fully independent clone.
	Copy() Value
}

func qualName(count int, name string, ctx int) string {
	return fmt.Sprintf("%d%s@%d", count, name, ctx)
}

// Int is the Int case: if Concrete is set the object is a literal
// and never touches the solver; otherwise it denotes an integer-sort
// solver variable.
type Int struct {
	VarName  string
	CtxID    int
	CountVal int
	Concrete *int64
	Term     solver.Term // nil when Concrete != nil
}

func (v *Int) QualName() string { return qualName(v.CountVal, v.VarName, v.CtxID) }
func (v *Int) Name() string     { return v.VarName }
func (v *Int) Ctx() int         { return v.CtxID }
func (v *Int) Count() int       { return v.CountVal }
func (v *Int) Copy() Value {
	c := *v
	if v.Concrete != nil {
		cv := *v.Concrete
		c.Concrete = &cv
	}
	return &c
}

// IsConcrete reports whether this Int carries a literal instead of a
// solver-backed variable.
func (v *Int) IsConcrete() bool { return v.Concrete != nil }

// Real is always symbolic.
type Real struct {
	VarName  string
	CtxID    int
	CountVal int
	Term     solver.Term
}

func (v *Real) QualName() string { return qualName(v.CountVal, v.VarName, v.CtxID) }
func (v *Real) Name() string     { return v.VarName }
func (v *Real) Ctx() int         { return v.CtxID }
func (v *Real) Count() int       { return v.CountVal }
func (v *Real) Copy() Value      { c := *v; return &c }

// BitVec is a fixed-width bit-vector.
type BitVec struct {
	VarName  string
	CtxID    int
	CountVal int
	Size     int
	Term     solver.Term
}

func (v *BitVec) QualName() string { return qualName(v.CountVal, v.VarName, v.CtxID) }
func (v *BitVec) Name() string     { return v.VarName }
func (v *BitVec) Ctx() int         { return v.CtxID }
func (v *BitVec) Count() int       { return v.CountVal }
func (v *BitVec) Copy() Value      { c := *v; return &c }

// Char is a single byte, usable as either a character or a small integer;
// it is backed by an 8-bit BitVec.
type Char struct {
	Variable *BitVec
}

func (v *Char) QualName() string { return v.Variable.QualName() }
func (v *Char) Name() string     { return v.Variable.Name() }
func (v *Char) Ctx() int         { return v.Variable.Ctx() }
func (v *Char) Count() int       { return v.Variable.Count() }
func (v *Char) Copy() Value      { return &Char{Variable: v.Variable.Copy().(*BitVec)} }

// String is a structural container of Chars; its length is len(Chars), and
// equality/concatenation happen element-wise in the engine, never in the
// solver.
type String struct {
	VarName  string
	CtxID    int
	CountVal int
	Chars    []*Char
}

func (v *String) QualName() string { return qualName(v.CountVal, v.VarName, v.CtxID) }
func (v *String) Name() string     { return v.VarName }
func (v *String) Ctx() int         { return v.CtxID }
func (v *String) Count() int       { return v.CountVal }
func (v *String) Copy() Value {
	c := &String{VarName: v.VarName, CtxID: v.CtxID, CountVal: v.CountVal, Chars: make([]*Char, len(v.Chars))}
	for i, ch := range v.Chars {
		c.Chars[i] = ch.Copy().(*Char)
	}
	return c
}

// List is a heterogeneous, structural container of any Value.
type List struct {
	VarName  string
	CtxID    int
	CountVal int
	Elements []Value
}

func (v *List) QualName() string { return qualName(v.CountVal, v.VarName, v.CtxID) }
func (v *List) Name() string     { return v.VarName }
func (v *List) Ctx() int         { return v.CtxID }
func (v *List) Count() int       { return v.CountVal }
func (v *List) Copy() Value {
	c := &List{VarName: v.VarName, CtxID: v.CtxID, CountVal: v.CountVal, Elements: make([]Value, len(v.Elements))}
	for i, e := range v.Elements {
		c.Elements[i] = e.Copy()
	}
	return c
}

// Bool is a transient boolean formula produced by Compare/BoolOp/UnaryOp
// `not` evaluation. the Value variant enumerates only the
// assignable sorts (Int/Real/BitVec/Char/String/List); Bool is the engine's
// own addition for the intermediate test formulas If/While feed
// into If/While, recorded as an Open Question resolution in DESIGN.md.
type Bool struct {
	Term     solver.Term
	Concrete *bool
}

func (v *Bool) QualName() string { return "" }
func (v *Bool) Name() string     { return "" }
func (v *Bool) Ctx() int         { return 0 }
func (v *Bool) Count() int       { return 0 }
func (v *Bool) Copy() Value {
	c := *v
	if v.Concrete != nil {
		cv := *v.Concrete
		c.Concrete = &cv
	}
	return &c
}

// Sort reports the solver.Sort a scalar value occupies. Container values
// (String, List) have no single sort and return a zero value; callers must
// special-case them.
func Sort(v Value) (s solver.Sort, ok bool) {
	switch t := v.(type) {
	case *Int:
		return solver.SortInt, true
	case *Real:
		return solver.SortReal, true
	case *BitVec:
		return solver.SortBitVec, true
	case *Char:
		return solver.SortBitVec, true
	case *Bool:
		return solver.SortBool, true
	default:
		_ = t
		return 0, false
	}
}

// Width returns the bit-width of a BitVec or Char, and 0 otherwise.
func Width(v Value) int {
	switch t := v.(type) {
	case *BitVec:
		return t.Size
	case *Char:
		return t.Variable.Size
	default:
		return 0
	}
}

// AsTerm returns the solver term backing a scalar value, or nil if the
// value is a concrete Int (concreteness short-circuits constraint
// emission).
func AsTerm(v Value) solver.Term {
	switch t := v.(type) {
	case *Int:
		return t.Term
	case *Real:
		return t.Term
	case *BitVec:
		return t.Term
	case *Char:
		return t.Variable.Term
	case *Bool:
		return t.Term
	default:
		return nil
	}
}
