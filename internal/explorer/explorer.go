// Package explorer drives a run to completion: it owns the four path-group
// buckets (active, completed, deadended, errored), repeatedly steps every
// active path, and reclassifies each path's successors into the right
// bucket. It is the symbolic analogue of the teacher's VM's bytecode
// dispatch loop (internal/vm.EnhancedVM.Run) applied to a forking
// work-list instead of a single instruction pointer.
package explorer

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"symexec/internal/interp"
	"symexec/internal/path"
	"symexec/internal/solver"
	"symexec/internal/state"
)

// Groups is the explorer's current classification of every path produced
// so far.
type Groups struct {
	Active    []*path.Path
	Completed []*path.Path
	Deadended []*path.Path
	Errored   []*path.Path
}

// Observer is notified after every round so a caller (liveview, a CLI
// progress line) can react without the explorer depending on it directly.
type Observer func(round int, groups *Groups)

// Explorer schedules path stepping breadth-first: every active path
// advances exactly one statement per round, matching spec-independent
// fairness (no path starves another) rather than depth-first recursion.
type Explorer struct {
	ip       *interp.Interp
	nextID   int
	groups   Groups
	MaxRound int
	Observer Observer
}

// New constructs an Explorer seeded with a single root path wrapping st.
func New(ip *interp.Interp, st *state.State) *Explorer {
	return &Explorer{
		ip:       ip,
		nextID:   1,
		groups:   Groups{Active: []*path.Path{path.New(0, st)}},
		MaxRound: 0,
	}
}

func (e *Explorer) allocID() int {
	id := e.nextID
	e.nextID++
	return id
}

// Groups returns the explorer's current path classification.
func (e *Explorer) Groups() *Groups { return &e.groups }

// Explore runs rounds until no active path remains, or MaxRound is reached
// (0 means unbounded). It returns the final Groups.
func (e *Explorer) Explore(ctx context.Context) (*Groups, error) {
	round := 0
	for len(e.groups.Active) > 0 {
		if e.MaxRound > 0 && round >= e.MaxRound {
			break
		}
		if err := ctx.Err(); err != nil {
			return &e.groups, err
		}
		if err := e.Step(); err != nil {
			return &e.groups, err
		}
		round++
		if e.Observer != nil {
			e.Observer(round, &e.groups)
		}
	}
	return &e.groups, nil
}

// Step advances every currently active path by one statement and
// reclassifies the results, checking feasibility of each successor
// against its solver before admitting it into Active or Completed.
func (e *Explorer) Step() error {
	current := e.groups.Active
	e.groups.Active = nil

	for _, p := range current {
		successors, err := p.Step(e.ip, e.allocID)
		if err != nil {
			return fmt.Errorf("explorer: stepping path %d: %w", p.ID, err)
		}
		for _, s := range successors {
			e.classify(s)
		}
	}
	return nil
}

// classify files a freshly-produced path into the right bucket, running a
// satisfiability check on every non-errored successor, completed ones
// included (If/While forks and simulated-function forks assert a fresh
// constraint the parent never checked) so an infeasible path is routed to
// deadended rather than counted as completed or stepped further.
func (e *Explorer) classify(p *path.Path) {
	if p.Status == path.Errored {
		e.groups.Errored = append(e.groups.Errored, p)
		return
	}

	status, err := p.State.Solver.Check(context.Background())
	if err != nil {
		p.Status = path.Errored
		e.groups.Errored = append(e.groups.Errored, p)
		return
	}
	if status == solver.Unsat {
		p.Status = path.Deadended
		e.groups.Deadended = append(e.groups.Deadended, p)
		return
	}
	if p.Status == path.Completed {
		e.groups.Completed = append(e.groups.Completed, p)
		return
	}
	e.groups.Active = append(e.groups.Active, p)
}

// Witness is one variable's concrete value, read back out of a finished
// path's solver model.
type Witness struct {
	PathID   int
	Variable string
	Value    string
}

// QueryWitnesses evaluates every named variable across paths concurrently,
// one goroutine per path, the way the query command needs a full witness
// report without serializing on each path's own solver round-trip. Path
// stepping itself is never parallelized this way — only this read-only
// lookup over already-finished paths.
func QueryWitnesses(ctx context.Context, paths []*path.Path) ([]Witness, error) {
	var mu sync.Mutex
	var out []Witness

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range paths {
		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ws, err := queryPath(p)
			if err != nil {
				return fmt.Errorf("explorer: querying path %d: %w", p.ID, err)
			}
			mu.Lock()
			out = append(out, ws...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func queryPath(p *path.Path) ([]Witness, error) {
	var out []Witness
	for _, nc := range p.State.Objects.Names() {
		if i, ok, err := p.State.AnyInt(nc.Name, nc.Ctx); err != nil {
			return nil, err
		} else if ok {
			out = append(out, Witness{PathID: p.ID, Variable: nc.Name, Value: fmt.Sprintf("%d", i)})
			continue
		}
		if str, ok, err := p.State.AnyStr(nc.Name, nc.Ctx); err != nil {
			return nil, err
		} else if ok {
			out = append(out, Witness{PathID: p.ID, Variable: nc.Name, Value: str})
		}
	}
	return out, nil
}
