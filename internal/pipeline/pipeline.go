// Package pipeline orchestrates one panelopt run: observations are read,
// filtered, normalized against their basal condition, outlier-trimmed, then
// aggregated into per-group statistics and a group correlation matrix, and
// finally a decorrelated subset of groups is selected by the optimizer.
//
// The run is a single-pass batch transformation. Per-group statistics and
// correlation-vector assembly are computed concurrently; every intermediate
// artifact is produced once and immutable thereafter. The solve step is the
// one potentially long-running unit and is bounded by the configured
// deadline.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/assaykit/panelopt/pkg/bip"
	"github.com/assaykit/panelopt/pkg/config"
	"github.com/assaykit/panelopt/pkg/correlation"
	csvio "github.com/assaykit/panelopt/pkg/formats/csv"
	"github.com/assaykit/panelopt/pkg/formats/jsonout"
	"github.com/assaykit/panelopt/pkg/logger"
	"github.com/assaykit/panelopt/pkg/metrics"
	"github.com/assaykit/panelopt/pkg/models"
	"github.com/assaykit/panelopt/pkg/optimizer"
	"github.com/assaykit/panelopt/pkg/transform"
)

// Pipeline executes a configured run end to end.
type Pipeline struct {
	cfg    *config.Config
	logger *zap.Logger
	solver bip.Solver
}

// New creates a pipeline with the default branch-and-bound solver.
func New(cfg *config.Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = logger.Get()
	}
	solver := bip.NewBranchAndBound(log.With(zap.String("component", "solver")))
	solver.MaxNodes = cfg.Selection.MaxNodes
	return &Pipeline{cfg: cfg, logger: log, solver: solver}
}

// NewWithSolver creates a pipeline with a caller-provided solver backend.
func NewWithSolver(cfg *config.Config, log *zap.Logger, solver bip.Solver) *Pipeline {
	p := New(cfg, log)
	p.solver = solver
	return p
}

// Run executes the full pipeline and returns the terminal selection result.
// On any taxonomy error the run aborts; artifacts written before the
// failing stage are left in place, but the selection artifact is only
// written on success.
func (p *Pipeline) Run(ctx context.Context) (*models.SelectionResult, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))
	start := time.Now()

	log.Info("starting run",
		zap.String("input", p.cfg.Input.Path),
		zap.Int("workers", p.cfg.Runtime.Workers))

	retained, err := p.prepare(log)
	if err != nil {
		return nil, err
	}

	stats, matrix, err := p.derive(ctx, log, retained)
	if err != nil {
		return nil, err
	}

	if err := p.writeTables(log, stats, matrix); err != nil {
		return nil, err
	}

	result, err := p.selectGroups(ctx, log, runID, stats, matrix)
	if err != nil {
		return nil, err
	}

	if err := jsonout.WriteSelection(p.cfg.Output.SelectionPath, result); err != nil {
		return nil, err
	}

	log.Info("run completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("selected", len(result.Selected)),
		zap.Float64("objective", result.Objective),
		zap.String("status", string(result.Status)))

	return result, nil
}

// prepare runs the row-level stages: read, admission filtering, basal
// normalization and outlier removal.
func (p *Pipeline) prepare(log *zap.Logger) ([]models.NormalizedObservation, error) {
	timer := metrics.NewTimer("read")
	raw, err := csvio.ReadObservations(p.cfg.Input.Path)
	if err != nil {
		return nil, err
	}
	metrics.RowsRead.Add(float64(len(raw)))
	log.Info("read observations",
		zap.Int("rows", len(raw)),
		zap.Duration("elapsed", timer.Stop()))

	missing := 0
	for _, row := range raw {
		if row.ValueMissing() {
			missing++
		}
	}

	timer = metrics.NewTimer("normalize")
	filtered := transform.FilterData(raw, p.cfg.Filters.Initial)
	metrics.RowsDropped.WithLabelValues(metrics.DropMissingValue).Add(float64(missing))
	metrics.RowsDropped.WithLabelValues(metrics.DropFiltered).Add(float64(len(raw) - missing - len(filtered)))

	nonBasal := transform.FilterNotEquals(filtered, p.cfg.Normalization.Basal)
	normalized := transform.NormalizeByBasal(filtered, p.cfg.Normalization.Basal, p.cfg.Normalization.JoinColumns)
	if unmatched := len(nonBasal) - len(normalized); unmatched > 0 {
		metrics.RowsDropped.WithLabelValues(metrics.DropNoBasalMatch).Add(float64(unmatched))
	}
	log.Info("normalized against basal",
		zap.Int("admitted", len(filtered)),
		zap.Int("normalized", len(normalized)),
		zap.Duration("elapsed", timer.Stop()))

	timer = metrics.NewTimer("outliers")
	retained := transform.RemoveOutliers(normalized, p.cfg.Outliers.StdDevCount)
	metrics.RowsDropped.WithLabelValues(metrics.DropOutlier).Add(float64(len(normalized) - len(retained)))
	log.Info("removed outliers",
		zap.Float64("std_dev_count", p.cfg.Outliers.StdDevCount),
		zap.Int("retained", len(retained)),
		zap.Duration("elapsed", timer.Stop()))

	return retained, nil
}

// derive computes the statistics table and the correlation matrix. Both
// consume the same retained rows read-only, so they run concurrently.
func (p *Pipeline) derive(ctx context.Context, log *zap.Logger, retained []models.NormalizedObservation) (models.StatisticsTable, *correlation.Matrix, error) {
	var (
		stats  models.StatisticsTable
		matrix *correlation.Matrix
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		timer := metrics.NewTimer("aggregate")
		stats = transform.Aggregate(retained)
		metrics.GroupsAggregated.Set(float64(len(stats)))
		log.Info("aggregated groups",
			zap.Int("groups", len(stats)),
			zap.Duration("elapsed", timer.Stop()))
		return nil
	})
	g.Go(func() error {
		timer := metrics.NewTimer("correlate")
		builder := correlation.NewBuilder(p.cfg.Runtime.Workers, log.With(zap.String("component", "correlation")))
		var err error
		matrix, err = builder.Build(ctx, retained)
		if err != nil {
			return err
		}
		log.Info("built correlation matrix",
			zap.Int("groups", matrix.Dim()),
			zap.Duration("elapsed", timer.Stop()))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return stats, matrix, nil
}

func (p *Pipeline) writeTables(log *zap.Logger, stats models.StatisticsTable, matrix *correlation.Matrix) error {
	timer := metrics.NewTimer("write")
	if err := csvio.WriteStatistics(p.cfg.Output.StatisticsPath, stats); err != nil {
		return err
	}
	if err := csvio.WriteCorrelation(p.cfg.Output.CorrelationPath, matrix); err != nil {
		return err
	}
	log.Info("wrote tabular artifacts",
		zap.String("statistics", p.cfg.Output.StatisticsPath),
		zap.String("correlation", p.cfg.Output.CorrelationPath),
		zap.Duration("elapsed", timer.Stop()))
	return nil
}

func (p *Pipeline) selectGroups(ctx context.Context, log *zap.Logger, runID string, stats models.StatisticsTable, matrix *correlation.Matrix) (*models.SelectionResult, error) {
	if timeout := p.cfg.Selection.SolveTimeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	timer := metrics.NewTimer("solve")
	opt := optimizer.New(p.solver, log.With(zap.String("component", "optimizer")))
	res, err := opt.Select(ctx, stats, matrix,
		optimizer.Weights{
			Alpha: p.cfg.Selection.Alpha,
			Beta:  p.cfg.Selection.Beta,
			Gamma: p.cfg.Selection.Gamma,
		},
		optimizer.Bounds{
			Min: p.cfg.Selection.MinSelection,
			Max: p.cfg.Selection.MaxSelection,
		})
	if err != nil {
		return nil, err
	}
	metrics.GroupsSelected.Set(float64(len(res.Selected)))
	metrics.SolverNodes.Observe(float64(res.Nodes))
	log.Info("selection solved",
		zap.Int("nodes", res.Nodes),
		zap.Duration("elapsed", timer.Stop()))

	return models.NewSelectionResult(runID, res.Selected, res.Objective, res.Status), nil
}
