package explorer

import (
	"context"
	"testing"

	"symexec/internal/ast"
	"symexec/internal/interp"
	"symexec/internal/solver/refsolver"
	"symexec/internal/state"
)

func program() []ast.Stmt {
	return []ast.Stmt{
		&ast.Assign{
			Target: "x",
			Value: &ast.Call{
				Callee: &ast.Name{Id: "Symbolic.Int"},
			},
		},
		&ast.If{
			Test: &ast.Compare{
				Left: &ast.Name{Id: "x"},
				Ops:  []string{">"},
				Comparators: []ast.Expr{&ast.Num{Int: 0}},
			},
			Body:   []ast.Stmt{&ast.Pass{}},
			Orelse: []ast.Stmt{&ast.Pass{}},
		},
	}
}

func TestExploreForksIntoTwoCompletedPaths(t *testing.T) {
	st := state.New(refsolver.New(), program())
	ex := New(interp.New(), st)

	groups, err := ex.Explore(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups.Active) != 0 {
		t.Errorf("expected no active paths left, got %d", len(groups.Active))
	}
	if len(groups.Completed) != 2 {
		t.Fatalf("expected both branches to complete, got %d", len(groups.Completed))
	}
	if len(groups.Errored) != 0 {
		t.Errorf("expected no errored paths, got %d", len(groups.Errored))
	}
}

func TestExploreRespectsMaxRound(t *testing.T) {
	st := state.New(refsolver.New(), program())
	ex := New(interp.New(), st)
	ex.MaxRound = 1

	groups, err := ex.Explore(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups.Completed) == 2 {
		t.Errorf("expected MaxRound=1 to stop before both branches complete")
	}
}

func TestObserverIsCalledEveryRound(t *testing.T) {
	st := state.New(refsolver.New(), program())
	ex := New(interp.New(), st)
	rounds := 0
	ex.Observer = func(round int, groups *Groups) { rounds++ }

	if _, err := ex.Explore(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rounds == 0 {
		t.Errorf("expected the observer to be called at least once")
	}
}

func TestQueryWitnessesCollectsCompletedPaths(t *testing.T) {
	st := state.New(refsolver.New(), program())
	ex := New(interp.New(), st)

	groups, err := ex.Explore(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	witnesses, err := QueryWitnesses(context.Background(), groups.Completed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, w := range witnesses {
		if w.Variable == "x" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a witness for x across completed paths, got %+v", witnesses)
	}
}
