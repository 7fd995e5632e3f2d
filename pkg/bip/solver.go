package bip

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/assaykit/panelopt/pkg/errors"
)

// BranchAndBound is the default Solver backend. It explores a depth-first
// search tree over variable fixings, bounding each node with the LP
// relaxation (variables in [0, 1]) solved by gonum's simplex method.
//
// The backend is exact: run to completion it proves optimality or
// infeasibility. A context deadline or the node cap stops the search early,
// in which case the best incumbent is returned as StatusFeasible.
type BranchAndBound struct {
	// Tolerance is the simplex pivot tolerance.
	Tolerance float64
	// IntTol is the threshold for treating a relaxation value as integral.
	IntTol float64
	// MaxNodes caps the number of explored nodes (0 = unlimited).
	MaxNodes int

	logger *zap.Logger
}

// NewBranchAndBound creates a solver with default tolerances.
func NewBranchAndBound(logger *zap.Logger) *BranchAndBound {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchAndBound{
		Tolerance: 1e-10,
		IntTol:    1e-6,
		logger:    logger,
	}
}

// row is one <=-form inequality over the original variables.
type row struct {
	coeffs []float64
	rhs    float64
}

// node is one subproblem: fixed[i] is -1 (free), 0 or 1.
type node struct {
	fixed []int8
}

// Solve runs branch and bound on p.
func (s *BranchAndBound) Solve(ctx context.Context, p *Program) (*Solution, error) {
	n := p.NumVars()
	if n == 0 {
		return &Solution{Status: StatusOptimal}, nil
	}

	// Internally minimize; negate the objective for maximization.
	c := make([]float64, n)
	for i := range c {
		c[i] = p.obj[i]
		if p.sense == Maximize {
			c[i] = -c[i]
		}
	}

	base := toRows(p)

	root := node{fixed: make([]int8, n)}
	for i := range root.fixed {
		root.fixed[i] = -1
	}
	stack := []node{root}

	var (
		bestX     []float64
		bestObj   = math.Inf(1)
		nodes     int
		exhausted = true
	)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			exhausted = false
			break
		}
		if s.MaxNodes > 0 && nodes >= s.MaxNodes {
			exhausted = false
			break
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		obj, x, err := s.relax(c, base, nd.fixed)
		if err != nil {
			if err == lp.ErrInfeasible {
				continue
			}
			return nil, errors.Wrap(err, errors.ErrorTypeSolver, "LP relaxation failed")
		}

		// The relaxation is a lower bound on every completion of this
		// node; prune when it cannot beat the incumbent.
		if obj >= bestObj-1e-9 {
			continue
		}

		if branchVar := s.mostFractional(x); branchVar < 0 {
			rounded := roundBinary(x)
			if !satisfies(base, rounded) {
				continue
			}
			exact := floats.Dot(c, rounded)
			if exact < bestObj {
				bestObj = exact
				bestX = rounded
				s.logger.Debug("new incumbent",
					zap.Float64("objective", s.outward(p, exact)),
					zap.Int("nodes", nodes))
			}
			continue
		} else {
			// Push the zero branch first so the one branch is explored
			// first; selecting variables early tends to find good
			// incumbents sooner in selection problems.
			stack = append(stack, nd.withFix(branchVar, 0), nd.withFix(branchVar, 1))
		}
	}

	switch {
	case bestX == nil && exhausted:
		return &Solution{Status: StatusInfeasible, Nodes: nodes}, nil
	case bestX == nil:
		return nil, errors.New(errors.ErrorTypeSolver,
			"solver stopped before finding a feasible solution").
			WithDetail("nodes", nodes)
	}

	status := StatusOptimal
	if !exhausted {
		status = StatusFeasible
	}
	return &Solution{
		Status:    status,
		Objective: s.outward(p, bestObj),
		Values:    bestX,
		Nodes:     nodes,
	}, nil
}

// relax solves the LP relaxation of the node with the given fixings.
// The relaxation is put in standard form by hand: variables are already
// nonnegative, so only slack columns are appended.
func (s *BranchAndBound) relax(c []float64, base []row, fixed []int8) (float64, []float64, error) {
	n := len(c)

	rows := make([]row, 0, len(base)+2*n)
	rows = append(rows, base...)
	for i := 0; i < n; i++ {
		ub := 1.0
		if fixed[i] == 0 {
			ub = 0
		}
		ubRow := row{coeffs: make([]float64, n), rhs: ub}
		ubRow.coeffs[i] = 1
		rows = append(rows, ubRow)

		if fixed[i] == 1 {
			lbRow := row{coeffs: make([]float64, n), rhs: -1}
			lbRow.coeffs[i] = -1
			rows = append(rows, lbRow)
		}
	}

	m := len(rows)
	a := mat.NewDense(m, n+m, nil)
	b := make([]float64, m)
	for i, r := range rows {
		for j, v := range r.coeffs {
			a.Set(i, j, v)
		}
		a.Set(i, n+i, 1) // slack
		b[i] = r.rhs
	}

	cStd := make([]float64, n+m)
	copy(cStd, c)

	obj, x, err := lp.Simplex(cStd, a, b, s.Tolerance, nil)
	if err != nil {
		return 0, nil, err
	}
	return obj, x[:n], nil
}

// mostFractional returns the index of the variable farthest from
// integrality, or -1 if every value is integral within tolerance.
func (s *BranchAndBound) mostFractional(x []float64) int {
	best := -1
	bestDist := s.IntTol
	for i, v := range x {
		dist := math.Abs(v - math.Round(v))
		if dist > bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

// outward converts an internal (minimization) objective back to the
// program's declared sense.
func (s *BranchAndBound) outward(p *Program, obj float64) float64 {
	if p.sense == Maximize {
		return -obj
	}
	return obj
}

func (nd node) withFix(v int, val int8) node {
	fixed := make([]int8, len(nd.fixed))
	copy(fixed, nd.fixed)
	fixed[v] = val
	return node{fixed: fixed}
}

// toRows converts every program constraint to <= form over the original
// variables.
func toRows(p *Program) []row {
	rows := make([]row, 0, len(p.cons))
	for _, con := range p.cons {
		r := row{coeffs: make([]float64, p.NumVars()), rhs: con.RHS}
		for _, t := range con.Terms {
			r.coeffs[t.Var] += t.Coeff
		}
		if con.Op == GreaterEq {
			for i := range r.coeffs {
				r.coeffs[i] = -r.coeffs[i]
			}
			r.rhs = -r.rhs
		}
		rows = append(rows, r)
	}
	return rows
}

func roundBinary(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Round(v)
	}
	return out
}

func satisfies(rows []row, x []float64) bool {
	const feasTol = 1e-6
	for _, r := range rows {
		if floats.Dot(r.coeffs, x) > r.rhs+feasTol {
			return false
		}
	}
	return true
}
