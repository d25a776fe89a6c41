// Package state implements the State: a complete execution
// snapshot combining the object manager, solver handle, remaining AST
// work-list, call stack and loop frame. It exposes name resolution, call
// bookkeeping and deep copy; the step interpreter (internal/interp)
// is the only other package that mutates it.
package state

import (
	"fmt"

	"symexec/internal/ast"
	"symexec/internal/ctxid"
	"symexec/internal/object"
	"symexec/internal/solver"
)

// LoopFrame records the currently active While loop. Tail is the
// statement sequence that follows the loop entirely, captured once at loop
// entry, so Break can jump straight past both the remaining loop body and
// any orelse clause. Parent chains to whatever loop frame (if any) was
// active before this one, so nested while loops restore the outer loop's
// Break target once the inner one is exited.
type LoopFrame struct {
	Node   *ast.While
	Ctx    int
	Tail   []ast.Stmt
	Parent *LoopFrame
}

// CallFrame is a resumption frame: the caller's remaining work-list,
// context, return id and loop frame, saved across a call or branch body.
type CallFrame struct {
	RemainingWork []ast.Stmt
	Ctx           int
	ReturnID      int
	Loop          *LoopFrame
}

// FuncTable is the shared, read-only function registry, safe to share by
// reference across every clone of a state.
type FuncTable struct {
	defs map[string]*ast.FunctionDef
}

func NewFuncTable() *FuncTable { return &FuncTable{defs: map[string]*ast.FunctionDef{}} }

func (t *FuncTable) Define(fn *ast.FunctionDef)      { t.defs[fn.Name] = fn }
func (t *FuncTable) Lookup(name string) (*ast.FunctionDef, bool) {
	fn, ok := t.defs[name]
	return fn, ok
}

// State is the complete execution snapshot.
type State struct {
	Solver  solver.Solver
	Objects *object.Manager
	Work    []ast.Stmt
	Calls   []*CallFrame
	Loop    *LoopFrame
	Ctx     int
	RetID   int
	Funcs   *FuncTable

	tempCounter int
}

// New constructs the initial state for a top-level statement sequence: the
// module-level work-list in CTX_GLOBAL, with an empty call stack and no
// loop frame.
func New(sv solver.Solver, program []ast.Stmt) *State {
	return &State{
		Solver:  sv,
		Objects: object.New(),
		Work:    program,
		Ctx:     ctxid.Global,
		RetID:   ctxid.Returns,
		Funcs:   NewFuncTable(),
	}
}

// FreshTempName allocates a fresh anonymous temporary variable name, unique
// within this state's solver instance, for numeric BinOp temporaries.
func (s *State) FreshTempName(prefix string) string {
	s.tempCounter++
	return fmt.Sprintf("__%s%d", prefix, s.tempCounter)
}

// PushFrame saves a resumption frame onto the call stack.
func (s *State) PushFrame(f *CallFrame) { s.Calls = append(s.Calls, f) }

// PopFrame pops and applies the most recent resumption frame, restoring
// the caller's work-list, context and loop frame. It reports false if the
// call stack was empty.
func (s *State) PopFrame() bool {
	if len(s.Calls) == 0 {
		return false
	}
	f := s.Calls[len(s.Calls)-1]
	s.Calls = s.Calls[:len(s.Calls)-1]
	s.Work = f.RemainingWork
	s.Ctx = f.Ctx
	s.RetID = f.ReturnID
	s.Loop = f.Loop
	return true
}

// Done reports whether this state has nothing left to do: an empty
// work-list, an empty call stack, and no active loop frame.
func (s *State) Done() bool {
	return len(s.Work) == 0 && len(s.Calls) == 0 && s.Loop == nil
}

// DeepCopy produces a fully disjoint sibling: a cloned object manager, a
// cloned solver (all current assertions re-added to a fresh instance), and
// copies of the work-list/call-stack/loop-frame slices. The function table
// is shared by reference across every clone, since function definitions
// never change once a program is loaded.
func (s *State) DeepCopy() *State {
	out := &State{
		Solver:      s.Solver.Clone(),
		Objects:     s.Objects.DeepCopy(),
		Work:        append([]ast.Stmt(nil), s.Work...),
		Calls:       make([]*CallFrame, len(s.Calls)),
		Ctx:         s.Ctx,
		RetID:       s.RetID,
		Funcs:       s.Funcs,
		tempCounter: s.tempCounter,
	}
	for i, f := range s.Calls {
		out.Calls[i] = copyFrame(f)
	}
	if s.Loop != nil {
		l := *s.Loop
		out.Loop = &l
	}
	return out
}

func copyFrame(f *CallFrame) *CallFrame {
	out := &CallFrame{
		RemainingWork: append([]ast.Stmt(nil), f.RemainingWork...),
		Ctx:           f.Ctx,
		ReturnID:      f.ReturnID,
	}
	if f.Loop != nil {
		l := *f.Loop
		out.Loop = &l
	}
	return out
}
