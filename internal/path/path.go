// Package path wraps a single state.State into the explorer's unit of
// scheduling: a Path additionally carries the trace of source lines it has
// executed and the terminal condition (if any) that took it out of the
// active set, mirroring the teacher's debugger.Breakpoint/call-stack
// bookkeeping (internal/debugger) applied to a symbolic rather than
// concrete execution.
package path

import (
	"fmt"

	"symexec/internal/ast"
	"symexec/internal/execerr"
	"symexec/internal/interp"
	"symexec/internal/state"
)

// Status is the bucket a Path currently belongs to in the explorer.
type Status int

const (
	Active Status = iota
	Completed
	Deadended
	Errored
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Completed:
		return "completed"
	case Deadended:
		return "deadended"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Path is one branch of the exploration tree: a state snapshot plus the
// bookkeeping the explorer and reporting layer need without reaching back
// into interp or state directly.
type Path struct {
	ID     int
	State  *state.State
	Trace  []string
	Status Status
	Err    *execerr.ExecError
}

// New wraps a freshly constructed state.State as path 0, the root of an
// exploration run.
func New(id int, st *state.State) *Path {
	return &Path{ID: id, State: st, Status: Active}
}

// Step advances this path by exactly one statement, delegating to
// interp.Step on an isolated clone of the underlying state so the caller's
// own Path is never mutated in place — every returned successor (including
// a lone non-branching one) is a distinct Path value ready to replace this
// one in the explorer's active set.
func (p *Path) Step(ip *interp.Interp, nextID func() int) ([]*Path, error) {
	if p.Status != Active {
		return nil, fmt.Errorf("path: Step called on a %s path", p.Status)
	}

	working := p.State.DeepCopy()
	stmt := firstStmt(working)

	successors, err := ip.Step(working)
	if err != nil {
		errored := &Path{ID: p.ID, State: working, Trace: p.Trace, Status: Errored, Err: err}
		return []*Path{errored}, nil
	}
	if len(successors) == 0 {
		// Step returned no successors only when the work-list and call
		// stack were already exhausted: the path is done.
		done := &Path{ID: p.ID, State: working, Trace: p.Trace, Status: Completed}
		return []*Path{done}, nil
	}

	out := make([]*Path, 0, len(successors))
	for i, s := range successors {
		id := p.ID
		if i > 0 {
			id = nextID()
		}
		trace := p.Trace
		if stmt != nil {
			trace = append(append([]string{}, p.Trace...), describeStmt(stmt))
		}
		status := Active
		if s.Done() {
			status = Completed
		}
		out = append(out, &Path{ID: id, State: s, Trace: trace, Status: status})
	}
	return out, nil
}

func firstStmt(st *state.State) ast.Stmt {
	if len(st.Work) == 0 {
		return nil
	}
	return st.Work[0]
}

func describeStmt(s ast.Stmt) string {
	pos := s.Position()
	return fmt.Sprintf("%T@%d:%d", s, pos.Line, pos.Col)
}
