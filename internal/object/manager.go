// Package object implements the object manager: the per-context
// mapping from source variable name to its current value object. It owns
// creation, retyping on sort change, and deep copy across a state fork,
// adapted from the teacher's per-context variable table in
// internal/vm.EnhancedCallFrame/ScopeFrame.
package object

import (
	"fmt"

	"symexec/internal/solver"
	"symexec/internal/symvalue"
)

// key is the (name, ctx) pair invariant 1 keys the manager by.
type key struct {
	name string
	ctx  int
}

// Manager is a State's exclusive object manager (ownership is exclusive to one State).
type Manager struct {
	values map[key]symvalue.Value
	ctxs   map[int]bool
}

// New returns an empty manager; no context is registered until NewCtx is
// called.
func New() *Manager {
	m := &Manager{values: map[key]symvalue.Value{}, ctxs: map[int]bool{}}
	return m
}

// NewCtx registers an empty scope. It is idempotent.
func (m *Manager) NewCtx(ctx int) { m.ctxs[ctx] = true }

// Has reports whether (name, ctx) currently has a value.
func (m *Manager) Has(name string, ctx int) bool {
	_, ok := m.values[key{name, ctx}]
	return ok
}

// Get returns the current value for (name, ctx), or nil if unset.
func (m *Manager) Get(name string, ctx int) symvalue.Value {
	return m.values[key{name, ctx}]
}

// Set stores value under (name, ctx) directly, without bumping its SSA
// count — callers that want SSA progression should go through GetVar's
// retyping path or bump the count themselves before calling Set.
func (m *Manager) Set(name string, ctx int, value symvalue.Value) {
	m.NewCtx(ctx)
	m.values[key{name, ctx}] = value
}

// Kind identifies the sort (and, for bit-vectors, the width) GetVar should
// ensure the stored value matches.
type Kind struct {
	Sort  solver.Sort
	Width int
	// IsContainer is set for String/List requests, which have no solver
	// Sort of their own.
	IsContainer bool
	Container   string // "string" or "list"
}

// GetVar returns the current value for (name, ctx). If absent, or if its
// stored sort/width differs from kind, a fresh value is constructed at
// count = prev_count + 1 (preserving SSA progression across retyping) and
// installed.
func (m *Manager) GetVar(s solver.Solver, name string, ctx int, kind Kind) symvalue.Value {
	cur := m.Get(name, ctx)
	if cur != nil && kindMatches(cur, kind) {
		return cur
	}
	count := 0
	if cur != nil {
		count = cur.Count() + 1
	}
	fresh := freshValue(s, name, ctx, count, kind)
	m.Set(name, ctx, fresh)
	return fresh
}

// NextSSACount reports the count a value stored at (name, ctx) would carry
// if GetVar were called with kind — without GetVar's side effect of
// registering a fresh solver variable. Callers that are about to overwrite
// whatever GetVar would have returned (storeAssign rebinds its own already-
// resolved value under the same name) use this instead, so a value that's
// immediately discarded never leaves a throwaway unconstrained variable
// registered in the solver.
func (m *Manager) NextSSACount(name string, ctx int, kind Kind) int {
	cur := m.Get(name, ctx)
	if cur == nil {
		return 0
	}
	if kindMatches(cur, kind) {
		return cur.Count()
	}
	return cur.Count() + 1
}

func kindMatches(v symvalue.Value, kind Kind) bool {
	if kind.IsContainer {
		switch v.(type) {
		case *symvalue.String:
			return kind.Container == "string"
		case *symvalue.List:
			return kind.Container == "list"
		default:
			return false
		}
	}
	sort, ok := symvalue.Sort(v)
	if !ok {
		return false
	}
	if sort != kind.Sort {
		return false
	}
	if sort == solver.SortBitVec && symvalue.Width(v) != kind.Width {
		return false
	}
	return true
}

func freshValue(s solver.Solver, name string, ctx, count int, kind Kind) symvalue.Value {
	if kind.IsContainer {
		switch kind.Container {
		case "string":
			return &symvalue.String{VarName: name, CtxID: ctx, CountVal: count}
		default:
			return &symvalue.List{VarName: name, CtxID: ctx, CountVal: count}
		}
	}
	switch kind.Sort {
	case solver.SortInt:
		return &symvalue.Int{VarName: name, CtxID: ctx, CountVal: count, Term: s.MkVar(qualNameFor(name, ctx, count), solver.SortInt, 0)}
	case solver.SortReal:
		return &symvalue.Real{VarName: name, CtxID: ctx, CountVal: count, Term: s.MkVar(qualNameFor(name, ctx, count), solver.SortReal, 0)}
	case solver.SortBool:
		// Booleans ride on Int(0/1); callers needing a boolean term go
		// through solver.Solver directly.
		return &symvalue.Int{VarName: name, CtxID: ctx, CountVal: count, Term: s.MkVar(qualNameFor(name, ctx, count), solver.SortBool, 0)}
	case solver.SortBitVec:
		return &symvalue.BitVec{VarName: name, CtxID: ctx, CountVal: count, Size: kind.Width, Term: s.MkVar(qualNameFor(name, ctx, count), solver.SortBitVec, kind.Width)}
	default:
		panic("object: unhandled kind")
	}
}

func qualNameFor(name string, ctx, count int) string {
	return fmt.Sprintf("%d%s@%d", count, name, ctx)
}

// DeepCopy clones every value object and nested container into a fresh
// Manager.
func (m *Manager) DeepCopy() *Manager {
	out := New()
	for c := range m.ctxs {
		out.ctxs[c] = true
	}
	for k, v := range m.values {
		out.values[k] = v.Copy()
	}
	return out
}

// Names returns every (name, ctx) pair currently tracked, used by the query
// interface and by debugging/backtrace rendering.
func (m *Manager) Names() []struct {
	Name string
	Ctx  int
} {
	out := make([]struct {
		Name string
		Ctx  int
	}, 0, len(m.values))
	for k := range m.values {
		out = append(out, struct {
			Name string
			Ctx  int
		}{k.name, k.ctx})
	}
	return out
}
