// Package simfuncs is the simulated-function registry: a plug-in protocol
// for host-language routines (string operations, int(), len(), ...) that
// model a library function symbolically instead of stepping into Python
// source for it. Registration follows the teacher's
// RegisterDatabaseFunctions/RegisterHTTPFunctions pattern
// (internal/stdlib/database_funcs.go, internal/vm/network_http.go) — one
// Register* call per family, invoked once at engine start-up and shared
// read-only across every state clone thereafter.
//
// Handlers receive already-resolved argument values rather than AST nodes:
// the step interpreter resolves every argument expression (suspending on
// nested user calls exactly as it would for any other expression) before a
// simulated function ever runs, so this package never needs to call back
// into the interpreter and no import cycle exists between the two.
package simfuncs

import (
	"symexec/internal/state"
	"symexec/internal/symvalue"
)

// Fork is one successor a forking handler wants materialized: its own
// state (already cloned and constrained) and the value the call resolves
// to along that branch. A plug-in may fork by returning more than one;
// each corresponds to a state the explorer must materialize as a sibling
// path. Only a call in a statement's top-level value position may fork;
// the interpreter rejects a Forks result surfacing anywhere else.
type Fork struct {
	State *state.State
	Value symvalue.Value
}

// Outcome is a handler's result: either a single Value (the common case,
// mirroring a plain return), or one or more Forks. Exactly one of Value or
// Forks is populated.
type Outcome struct {
	Value symvalue.Value
	Forks []Fork
}

// Handler is a simulated function's entry point, given the call's already
// resolved argument values (receiver first, for a method-style dispatch).
type Handler func(st *state.State, args []symvalue.Value) (Outcome, error)

// Registry is the shared, read-only (after construction) map from
// qualified name to Handler.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register installs a handler under its qualified name, e.g.
// "String.rstrip".
func (r *Registry) Register(qualifiedName string, h Handler) {
	r.handlers[qualifiedName] = h
}

// Lookup returns the handler for a qualified name, if any. Simulated
// functions take priority over user-defined functions of the same name;
// callers check here before the function table.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Default returns the registry a fresh engine run should start with: every
// Register* family in this package, wired the way
// internal/vm.registerBuiltins wires the teacher's built-ins.
func Default() *Registry {
	r := NewRegistry()
	RegisterStringFunctions(r)
	RegisterIntFunctions(r)
	RegisterLenFunction(r)
	RegisterRangeFunction(r)
	RegisterSymbolicFunctions(r)
	return r
}
