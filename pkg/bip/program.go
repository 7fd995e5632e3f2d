// Package bip models binary integer programs and provides a solver
// interface with a default branch-and-bound backend.
//
// A Program holds binary decision variables, a linear objective and linear
// inequality constraints. The model is solver-agnostic: callers build the
// program and hand it to any Solver implementation. The package's own
// BranchAndBound backend bounds each subproblem with the LP relaxation
// solved by gonum's simplex method.
package bip

import (
	"context"
)

// Sense is the optimization direction of a program.
type Sense int

const (
	// Minimize the objective.
	Minimize Sense = iota
	// Maximize the objective.
	Maximize
)

// VarID identifies a decision variable within its program.
type VarID int

// Term is one coefficient-variable product in a linear expression.
type Term struct {
	Var   VarID
	Coeff float64
}

// ConstraintOp is the comparison operator of a linear constraint.
type ConstraintOp int

const (
	// LessEq constrains the expression to be <= the right-hand side.
	LessEq ConstraintOp = iota
	// GreaterEq constrains the expression to be >= the right-hand side.
	GreaterEq
)

// Constraint is a linear inequality over program variables.
type Constraint struct {
	Terms []Term
	Op    ConstraintOp
	RHS   float64
}

// Program is a binary integer program: every variable takes a value in
// {0, 1}. Programs are built once and not modified while being solved.
type Program struct {
	sense Sense
	names []string
	obj   []float64
	cons  []Constraint
}

// NewProgram creates an empty program with the given optimization sense.
func NewProgram(sense Sense) *Program {
	return &Program{sense: sense}
}

// Sense returns the program's optimization direction.
func (p *Program) Sense() Sense {
	return p.sense
}

// AddBinary adds a binary decision variable with objective coefficient 0
// and returns its identifier.
func (p *Program) AddBinary(name string) VarID {
	p.names = append(p.names, name)
	p.obj = append(p.obj, 0)
	return VarID(len(p.names) - 1)
}

// SetObjective sets the objective coefficient of a variable.
func (p *Program) SetObjective(v VarID, coeff float64) {
	p.obj[v] = coeff
}

// AddConstraint appends a linear inequality to the program.
func (p *Program) AddConstraint(terms []Term, op ConstraintOp, rhs float64) {
	p.cons = append(p.cons, Constraint{Terms: terms, Op: op, RHS: rhs})
}

// NumVars returns the number of decision variables.
func (p *Program) NumVars() int {
	return len(p.names)
}

// NumConstraints returns the number of constraints.
func (p *Program) NumConstraints() int {
	return len(p.cons)
}

// VarName returns the name a variable was declared with.
func (p *Program) VarName(v VarID) string {
	return p.names[v]
}

// Objective evaluates the objective at the given assignment, in the
// program's declared sense.
func (p *Program) Objective(values []float64) float64 {
	var sum float64
	for i, c := range p.obj {
		sum += c * values[i]
	}
	return sum
}

// Status describes the outcome of a solve.
type Status int

const (
	// StatusOptimal means the solution is proven optimal.
	StatusOptimal Status = iota
	// StatusFeasible means the solution is the best incumbent found before
	// the solver hit its deadline or node cap; it is not proven optimal.
	StatusFeasible
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	}
	return "unknown"
}

// Solution is the result of solving a program. Values holds one 0/1 entry
// per variable when Status is not StatusInfeasible.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
}

// Selected reports whether variable v takes the value 1 in the solution.
func (s *Solution) Selected(v VarID) bool {
	return s.Values != nil && s.Values[v] > 0.5
}

// Solver solves binary integer programs. Implementations must honor
// context cancellation: on expiry they return the best incumbent found
// (StatusFeasible) or an error if there is none.
type Solver interface {
	Solve(ctx context.Context, p *Program) (*Solution, error)
}
