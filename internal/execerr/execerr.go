// Package execerr is the typed error taxonomy. Handlers never
// recover locally from kinds 1-4; they record the error on the path and the
// explorer routes it to errored. Kinds 5-6 (Infeasible, SolverError) are
// routed by the explorer itself. The shape — a Kind enum, a SourceLocation,
// an optional wrapped cause — is adapted from the teacher's
// internal/errors.SentraError.
package execerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind names one of the six error categories.
type Kind string

const (
	UnsupportedASTKind            Kind = "UnsupportedAST"
	TypeClashKind                 Kind = "TypeClash"
	SymbolicConstraintMissingKind Kind = "SymbolicConstraintMissing"
	ArityKeywordKind              Kind = "ArityKeywordError"
	InfeasibleKind                Kind = "Infeasible"
	SolverErrorKind                Kind = "SolverError"
)

// Location is the source position an error is attributed to.
type Location struct {
	File   string
	Line   int
	Column int
}

// ExecError is the typed error record that rides along a Path into the
// explorer's errored bucket (the error taxonomy).
type ExecError struct {
	Kind     Kind
	Message  string
	Location Location
	Cause    error
}

func (e *ExecError) Error() string {
	if e.Location.Line != 0 || e.Location.Column != 0 {
		return fmt.Sprintf("%s: %s (at %d:%d)", e.Kind, e.Message, e.Location.Line, e.Location.Column)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ExecError) Unwrap() error { return e.Cause }

func new_(kind Kind, msg string, line, col int) *ExecError {
	return &ExecError{Kind: kind, Message: msg, Location: Location{Line: line, Column: col}, Cause: errors.New(msg)}
}

// UnsupportedAST reports an AST node kind the engine does not model,
// naming the node kind and position.
func UnsupportedAST(nodeKind string, line, col int) *ExecError {
	return new_(UnsupportedASTKind, fmt.Sprintf("unsupported AST node %q", nodeKind), line, col)
}

// TypeClash reports a binary/unary operation whose operand sorts no
// coercion in internal/coerce covers.
func TypeClash(op string, left, right string, line, col int) *ExecError {
	return new_(TypeClashKind, fmt.Sprintf("operator %q incompatible with operand sorts %s and %s", op, left, right), line, col)
}

// SymbolicConstraintMissing reports a subscript index or list multiplier
// required to be concrete that instead has zero or multiple satisfying
// models.
func SymbolicConstraintMissing(what string, line, col int) *ExecError {
	return new_(SymbolicConstraintMissingKind, fmt.Sprintf("%s must resolve to exactly one concrete model", what), line, col)
}

// ArityOrKeyword reports a call whose shape does not match the callee's
// signature.
func ArityOrKeyword(msg string, line, col int) *ExecError {
	return new_(ArityKeywordKind, msg, line, col)
}

// Infeasible marks a path whose accumulated constraints are UNSAT. It is
// not routed through the handler error path; it exists so callers that
// want a uniform error value for logging have one.
func Infeasible(line, col int) *ExecError {
	return new_(InfeasibleKind, "accumulated constraints are unsatisfiable", line, col)
}

// SolverError wraps a solver.Check returning Unknown or failing outright.
func SolverError(cause error, line, col int) *ExecError {
	return &ExecError{Kind: SolverErrorKind, Message: cause.Error(), Location: Location{Line: line, Column: col}, Cause: errors.WithStack(cause)}
}

// Is lets callers use errors.Is(err, execerr.UnsupportedASTKind)-shaped
// checks by kind rather than by pointer identity.
func Is(err error, kind Kind) bool {
	var ee *ExecError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}
