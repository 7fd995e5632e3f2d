// Package optimizer builds and solves the response-group selection program.
//
// Candidates are the groups present in both the statistics table and the
// correlation matrix; the two artifacts are derived independently, so any
// disagreement between them is reported as a join mismatch rather than
// silently dropped. The selection itself is a linearized binary integer
// program handed to a bip.Solver.
package optimizer

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/assaykit/panelopt/pkg/bip"
	"github.com/assaykit/panelopt/pkg/correlation"
	"github.com/assaykit/panelopt/pkg/errors"
	"github.com/assaykit/panelopt/pkg/models"
)

// Weights are the scalarized objective weights: Alpha scales the variance
// term, Beta the median-response term, and Gamma the pairwise redundancy
// penalty. Gamma must be non-negative; the linearization of the pairwise
// terms relies on the penalty coefficient being non-positive under a
// maximizing objective.
type Weights struct {
	Alpha float64
	Beta  float64
	Gamma float64
}

// Bounds are the selection cardinality bounds: Min <= |selected| <= Max.
type Bounds struct {
	Min int
	Max int
}

// Result is the optimizer's outcome before it is stamped with run identity.
type Result struct {
	Selected  []models.GroupKey
	Objective float64
	Status    models.SelectionStatus
	Nodes     int
}

// Optimizer selects a decorrelated subset of response groups.
type Optimizer struct {
	solver bip.Solver
	logger *zap.Logger
}

// New creates an optimizer backed by the given solver.
func New(solver bip.Solver, logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{solver: solver, logger: logger}
}

// Select builds the selection program over the candidate groups and solves
// it. The objective, maximized, is
//
//	alpha*sum(variance_g * x_g) + beta*sum(median_g * x_g)
//	  - gamma*sum(|corr_gh| * y_gh)
//
// where each auxiliary y_gh is forced to equal x_g AND x_h by the three
// linearization constraints y <= x_g, y <= x_h, y >= x_g + x_h - 1.
func (o *Optimizer) Select(ctx context.Context, stats models.StatisticsTable, corr *correlation.Matrix, w Weights, b Bounds) (*Result, error) {
	candidates, err := o.candidates(stats, corr)
	if err != nil {
		return nil, err
	}

	if b.Min > b.Max {
		return nil, errors.Newf(errors.ErrorTypeInfeasible,
			"cardinality bounds are contradictory: min %d > max %d", b.Min, b.Max)
	}
	if b.Min > len(candidates) {
		return nil, errors.Newf(errors.ErrorTypeInfeasible,
			"minimum selection %d exceeds candidate count %d", b.Min, len(candidates)).
			WithDetail("min_selection", b.Min).
			WithDetail("max_selection", b.Max).
			WithDetail("candidates", len(candidates))
	}

	program, xVars := o.buildProgram(candidates, stats, corr, w, b)

	o.logger.Info("solving selection program",
		zap.Int("candidates", len(candidates)),
		zap.Int("variables", program.NumVars()),
		zap.Int("constraints", program.NumConstraints()))

	solution, err := o.solver.Solve(ctx, program)
	if err != nil {
		return nil, err
	}
	if solution.Status == bip.StatusInfeasible {
		return nil, errors.New(errors.ErrorTypeInfeasible,
			"no selection satisfies the cardinality bounds").
			WithDetail("min_selection", b.Min).
			WithDetail("max_selection", b.Max).
			WithDetail("candidates", len(candidates))
	}

	selected := make([]models.GroupKey, 0, b.Max)
	for i, v := range xVars {
		if solution.Selected(v) {
			selected = append(selected, candidates[i])
		}
	}

	status := models.SelectionOptimal
	if solution.Status == bip.StatusFeasible {
		status = models.SelectionIncumbent
		o.logger.Warn("selection is an unproven incumbent",
			zap.Int("nodes", solution.Nodes))
	}

	return &Result{
		Selected:  selected,
		Objective: solution.Objective,
		Status:    status,
		Nodes:     solution.Nodes,
	}, nil
}

// candidates validates that the statistics table and the correlation matrix
// agree on the group set and returns it in canonical order. A group present
// on one side only indicates the two derivations disagree and is an error.
func (o *Optimizer) candidates(stats models.StatisticsTable, corr *correlation.Matrix) ([]models.GroupKey, error) {
	var statsOnly, matrixOnly []string

	for _, key := range stats.Keys() {
		if !corr.Has(key) {
			statsOnly = append(statsOnly, key.Label())
		}
	}
	for _, key := range corr.Keys() {
		if _, ok := stats[key]; !ok {
			matrixOnly = append(matrixOnly, key.Label())
		}
	}

	if len(statsOnly) > 0 || len(matrixOnly) > 0 {
		return nil, errors.New(errors.ErrorTypeJoinMismatch,
			"statistics table and correlation matrix disagree on groups").
			WithDetail("statistics_only", statsOnly).
			WithDetail("matrix_only", matrixOnly)
	}

	return stats.Keys(), nil
}

// buildProgram constructs the linearized binary program. Auxiliary pair
// variables are created only for pairs with a nonzero penalty coefficient;
// a y variable with coefficient 0 cannot affect the objective.
func (o *Optimizer) buildProgram(candidates []models.GroupKey, stats models.StatisticsTable, corr *correlation.Matrix, w Weights, b Bounds) (*bip.Program, []bip.VarID) {
	program := bip.NewProgram(bip.Maximize)

	xVars := make([]bip.VarID, len(candidates))
	for i, key := range candidates {
		xVars[i] = program.AddBinary("x_" + key.Label())
		s := stats[key]
		program.SetObjective(xVars[i], w.Alpha*s.Variance+w.Beta*s.Median)
	}

	if w.Gamma != 0 {
		for i := 0; i < len(candidates); i++ {
			for j := i + 1; j < len(candidates); j++ {
				r, _ := corr.At(candidates[i], candidates[j])
				penalty := w.Gamma * math.Abs(r)
				if penalty == 0 {
					continue
				}

				y := program.AddBinary("y_" + candidates[i].Label() + "_" + candidates[j].Label())
				program.SetObjective(y, -penalty)

				// y = x_i AND x_j: the upper bounds keep y at 0 unless
				// both are selected; the lower bound forces y to 1 when
				// they are. Valid only while the objective coefficient
				// on y is non-positive.
				program.AddConstraint([]bip.Term{
					{Var: y, Coeff: 1}, {Var: xVars[i], Coeff: -1},
				}, bip.LessEq, 0)
				program.AddConstraint([]bip.Term{
					{Var: y, Coeff: 1}, {Var: xVars[j], Coeff: -1},
				}, bip.LessEq, 0)
				program.AddConstraint([]bip.Term{
					{Var: y, Coeff: 1}, {Var: xVars[i], Coeff: -1}, {Var: xVars[j], Coeff: -1},
				}, bip.GreaterEq, -1)
			}
		}
	}

	cardinality := make([]bip.Term, len(xVars))
	for i, v := range xVars {
		cardinality[i] = bip.Term{Var: v, Coeff: 1}
	}
	if b.Min > 0 {
		program.AddConstraint(cardinality, bip.GreaterEq, float64(b.Min))
	}
	program.AddConstraint(cardinality, bip.LessEq, float64(b.Max))

	return program, xVars
}
