package bip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assaykit/panelopt/pkg/errors"
	"github.com/assaykit/panelopt/pkg/testutil"
)

func TestSolveSimpleMaximize(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	p := NewProgram(Maximize)
	x0 := p.AddBinary("x0")
	x1 := p.AddBinary("x1")
	x2 := p.AddBinary("x2")
	p.SetObjective(x0, 3)
	p.SetObjective(x1, 2)
	p.SetObjective(x2, 1)
	p.AddConstraint([]Term{{x0, 1}, {x1, 1}, {x2, 1}}, LessEq, 2)

	sol, err := NewBranchAndBound(testutil.TestLogger(t)).Solve(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 5.0, sol.Objective, 1e-9)
	assert.True(t, sol.Selected(x0))
	assert.True(t, sol.Selected(x1))
	assert.False(t, sol.Selected(x2))
}

func TestSolveMinimizeWithLowerBound(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	p := NewProgram(Minimize)
	x0 := p.AddBinary("x0")
	x1 := p.AddBinary("x1")
	p.SetObjective(x0, 1)
	p.SetObjective(x1, 2)
	p.AddConstraint([]Term{{x0, 1}, {x1, 1}}, GreaterEq, 1)

	sol, err := NewBranchAndBound(testutil.TestLogger(t)).Solve(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 1.0, sol.Objective, 1e-9)
	assert.True(t, sol.Selected(x0))
	assert.False(t, sol.Selected(x1))
}

// A knapsack whose LP relaxation is fractional, forcing at least one
// branching step. Relaxation value 10.5 (x1 = 0.5); integer optimum is 8.
func TestSolveBranchesOnFractionalRelaxation(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	p := NewProgram(Maximize)
	x0 := p.AddBinary("x0")
	x1 := p.AddBinary("x1")
	p.SetObjective(x0, 8)
	p.SetObjective(x1, 5)
	p.AddConstraint([]Term{{x0, 3}, {x1, 2}}, LessEq, 4)

	sol, err := NewBranchAndBound(testutil.TestLogger(t)).Solve(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 8.0, sol.Objective, 1e-9)
	assert.True(t, sol.Selected(x0))
	assert.False(t, sol.Selected(x1))
	assert.Greater(t, sol.Nodes, 1)
}

func TestSolveInfeasible(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	p := NewProgram(Maximize)
	x0 := p.AddBinary("x0")
	x1 := p.AddBinary("x1")
	p.SetObjective(x0, 1)
	p.AddConstraint([]Term{{x0, 1}, {x1, 1}}, GreaterEq, 5)

	sol, err := NewBranchAndBound(testutil.TestLogger(t)).Solve(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.Nil(t, sol.Values)
}

func TestSolveEmptyProgram(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	sol, err := NewBranchAndBound(testutil.TestLogger(t)).Solve(ctx, NewProgram(Maximize))
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
}

// A cancelled context with no incumbent is a solver error, not a silent
// empty result.
func TestSolveCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProgram(Maximize)
	x0 := p.AddBinary("x0")
	p.SetObjective(x0, 1)

	_, err := NewBranchAndBound(testutil.TestLogger(t)).Solve(ctx, p)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSolver))
}

func TestSolveNodeCapWithoutIncumbent(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	p := NewProgram(Maximize)
	x0 := p.AddBinary("x0")
	x1 := p.AddBinary("x1")
	p.SetObjective(x0, 8)
	p.SetObjective(x1, 5)
	p.AddConstraint([]Term{{x0, 3}, {x1, 2}}, LessEq, 4)

	s := NewBranchAndBound(testutil.TestLogger(t))
	s.MaxNodes = 1

	_, err := s.Solve(ctx, p)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSolver))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "optimal", StatusOptimal.String())
	assert.Equal(t, "feasible", StatusFeasible.String())
	assert.Equal(t, "infeasible", StatusInfeasible.String())
}

func TestProgramObjective(t *testing.T) {
	p := NewProgram(Maximize)
	x0 := p.AddBinary("a")
	x1 := p.AddBinary("b")
	p.SetObjective(x0, 2.5)
	p.SetObjective(x1, -1)

	assert.Equal(t, "a", p.VarName(x0))
	assert.Equal(t, 2, p.NumVars())
	assert.InDelta(t, 1.5, p.Objective([]float64{1, 1}), 1e-12)
}
