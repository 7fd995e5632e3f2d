// Package metrics provides Prometheus observability for panelopt runs.
//
// The pipeline records row counts per stage, drop counts by reason, group
// counts, and stage durations. Metrics are registered automatically via
// promauto; collection is thread-safe.
//
// Example:
//
//	metrics.RowsDropped.WithLabelValues("missing_value").Add(12)
//
//	timer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues("solve"))
//	defer timer.ObserveDuration()
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons used as label values on RowsDropped. Missing values, filter
// exclusions, basal-join misses and outlier removal are all intentional
// data cleaning; the counters exist so a run's attrition is inspectable.
const (
	DropMissingValue = "missing_value"
	DropFiltered     = "filtered"
	DropNoBasalMatch = "no_basal_match"
	DropOutlier      = "outlier"
)

var (
	// RowsRead counts raw observation rows read from the input table.
	RowsRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "panelopt_rows_read_total",
			Help: "Total raw observation rows read",
		},
	)

	// RowsDropped counts rows removed per cleaning stage.
	// Labels: reason (missing_value/filtered/no_basal_match/outlier)
	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panelopt_rows_dropped_total",
			Help: "Total rows dropped, by reason",
		},
		[]string{"reason"},
	)

	// GroupsAggregated tracks the number of response groups with statistics
	// in the most recent run.
	GroupsAggregated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "panelopt_groups_aggregated",
			Help: "Response groups with computed statistics",
		},
	)

	// GroupsSelected tracks the size of the selected subset in the most
	// recent run.
	GroupsSelected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "panelopt_groups_selected",
			Help: "Response groups chosen by the selection optimizer",
		},
	)

	// StageDuration tracks wall-clock duration per pipeline stage.
	// Labels: stage (read/normalize/outliers/aggregate/correlate/solve/write)
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "panelopt_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"stage"},
	)

	// SolverNodes tracks branch-and-bound nodes explored per solve.
	SolverNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "panelopt_solver_nodes",
			Help:    "Branch-and-bound nodes explored per solve",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		},
	)
)

// Timer measures one stage's duration and records it on stop.
type Timer struct {
	stage string
	start time.Time
}

// NewTimer starts a stage timer.
func NewTimer(stage string) *Timer {
	return &Timer{stage: stage, start: time.Now()}
}

// Stop records the elapsed duration and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	StageDuration.WithLabelValues(t.stage).Observe(elapsed.Seconds())
	return elapsed
}

// Serve exposes the default registry on addr under /metrics until ctx is
// cancelled. Shutdown waits for in-flight scrapes.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
