// Package config provides the configuration system for panelopt.
// It defines a single Config structure covering every stage of the run,
// loaded from YAML with environment-variable substitution and validated
// against the fixed input schema at load time.
//
// Filter predicates and join columns are declared as explicit
// (column, value) pairs and checked against the known schema when the
// configuration is loaded, never resolved dynamically while filtering rows.
//
// Example usage:
//
//	cfg := config.Default()
//	if err := config.Load("run.yaml", cfg); err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"runtime"
	"time"

	"github.com/assaykit/panelopt/pkg/errors"
	"github.com/assaykit/panelopt/pkg/models"
)

// Predicate is one (column, value) equality test. A predicate list composes
// as a logical AND.
type Predicate struct {
	Column string `yaml:"column" json:"column"`
	Value  string `yaml:"value" json:"value"`
}

// Config is the complete configuration for one pipeline run.
type Config struct {
	// Input locates the observation table.
	Input InputConfig `yaml:"input" json:"input"`

	// Filters select the rows admitted into the pipeline.
	Filters FilterConfig `yaml:"filters" json:"filters"`

	// Normalization controls the basal join.
	Normalization NormalizationConfig `yaml:"normalization" json:"normalization"`

	// Outliers controls the per-group outlier band.
	Outliers OutlierConfig `yaml:"outliers" json:"outliers"`

	// Aggregation defines the response-group key columns.
	Aggregation AggregationConfig `yaml:"aggregation" json:"aggregation"`

	// Selection holds the optimizer weights and cardinality bounds.
	Selection SelectionConfig `yaml:"selection" json:"selection"`

	// Output locates the run artifacts.
	Output OutputConfig `yaml:"output" json:"output"`

	// Runtime holds ambient settings (workers, logging, metrics).
	Runtime RuntimeConfig `yaml:"runtime" json:"runtime"`
}

// InputConfig locates and describes the input table.
type InputConfig struct {
	// Path to the observation CSV file
	Path string `yaml:"path" json:"path"`
}

// FilterConfig holds the initial row admission predicates.
type FilterConfig struct {
	// Initial predicates applied after missing-value rows are dropped,
	// e.g. Species == Human
	Initial []Predicate `yaml:"initial" json:"initial"`
}

// NormalizationConfig controls how non-basal rows are matched to their
// basal counterpart.
type NormalizationConfig struct {
	// Basal predicates identify the baseline condition rows
	Basal []Predicate `yaml:"basal" json:"basal"`
	// JoinColumns link a non-basal observation to its basal counterpart
	JoinColumns []string `yaml:"join_columns" json:"join_columns"`
}

// OutlierConfig controls the zero-centered outlier band.
type OutlierConfig struct {
	// StdDevCount scales the retention band: a row survives iff
	// -std*count <= value <= std*count within its group
	StdDevCount float64 `yaml:"std_dev_count" json:"std_dev_count"`
}

// AggregationConfig defines the group key columns.
type AggregationConfig struct {
	// GroupColumns must name exactly the population, reagent and condition
	// columns; their order fixes artifact column ordering
	GroupColumns []string `yaml:"group_columns" json:"group_columns"`
}

// SelectionConfig holds optimizer weights, bounds and solve limits.
// Defaults live here explicitly; there are no process-wide mutable knobs.
type SelectionConfig struct {
	// Alpha weights the variance term of the objective
	Alpha float64 `yaml:"alpha" json:"alpha"`
	// Beta weights the median-response term
	Beta float64 `yaml:"beta" json:"beta"`
	// Gamma weights the pairwise redundancy penalty
	Gamma float64 `yaml:"gamma" json:"gamma"`
	// MinSelection is the least number of groups that must be selected
	MinSelection int `yaml:"min_selection" json:"min_selection"`
	// MaxSelection caps the selected subset size
	MaxSelection int `yaml:"max_selection" json:"max_selection"`
	// SolveTimeout bounds the solver; on expiry the best incumbent is
	// returned flagged non-optimal (0 = no limit)
	SolveTimeout Duration `yaml:"solve_timeout" json:"solve_timeout"`
	// MaxNodes caps branch-and-bound nodes (0 = no limit)
	MaxNodes int `yaml:"max_nodes" json:"max_nodes"`
}

// OutputConfig locates the run artifacts.
type OutputConfig struct {
	// StatisticsPath receives the per-group median/variance CSV
	StatisticsPath string `yaml:"statistics_path" json:"statistics_path"`
	// CorrelationPath receives the symmetric correlation matrix CSV
	CorrelationPath string `yaml:"correlation_path" json:"correlation_path"`
	// SelectionPath receives the selection result JSON
	SelectionPath string `yaml:"selection_path" json:"selection_path"`
}

// RuntimeConfig holds ambient execution settings.
type RuntimeConfig struct {
	// Workers bounds per-group parallelism in the aggregation and
	// correlation stages
	Workers int `yaml:"workers" json:"workers"`
	// LogLevel sets the zap level (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// EnableMetrics exposes the Prometheus /metrics endpoint for the
	// duration of the run
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// MetricsAddr is the listen address of the metrics endpoint
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
}

// Default returns the reference configuration: human-species admission,
// Basal-condition normalization joined per donor, three-sigma outlier band
// and balanced selection weights.
func Default() *Config {
	return &Config{
		Filters: FilterConfig{
			Initial: []Predicate{{Column: models.ColumnSpecies, Value: "Human"}},
		},
		Normalization: NormalizationConfig{
			Basal: []Predicate{{Column: models.ColumnCondition, Value: "Basal"}},
			JoinColumns: []string{
				models.ColumnPopulation,
				models.ColumnReagent,
				models.ColumnDonor,
			},
		},
		Outliers: OutlierConfig{StdDevCount: 3},
		Aggregation: AggregationConfig{
			GroupColumns: []string{
				models.ColumnPopulation,
				models.ColumnReagent,
				models.ColumnCondition,
			},
		},
		Selection: SelectionConfig{
			Alpha:        1,
			Beta:         0.5,
			Gamma:        1,
			MinSelection: 1,
			MaxSelection: 3,
			SolveTimeout: Duration(5 * time.Minute),
		},
		Output: OutputConfig{
			StatisticsPath:  "data_normalized.csv",
			CorrelationPath: "correlation_matrix.csv",
			SelectionPath:   "selection.json",
		},
		Runtime: RuntimeConfig{
			Workers:     runtime.NumCPU(),
			LogLevel:    "info",
			MetricsAddr: ":9090",
		},
	}
}

// Validate checks the configuration against the fixed input schema and the
// optimizer's feasibility preconditions that are knowable before data load.
func (c *Config) Validate() error {
	if c.Input.Path == "" {
		return errors.New(errors.ErrorTypeConfig, "input.path is required")
	}

	if err := validatePredicates("filters.initial", c.Filters.Initial); err != nil {
		return err
	}
	if len(c.Normalization.Basal) == 0 {
		return errors.New(errors.ErrorTypeConfig, "normalization.basal must identify the baseline condition")
	}
	if err := validatePredicates("normalization.basal", c.Normalization.Basal); err != nil {
		return err
	}

	if len(c.Normalization.JoinColumns) == 0 {
		return errors.New(errors.ErrorTypeConfig, "normalization.join_columns is required")
	}
	for _, col := range c.Normalization.JoinColumns {
		if !models.IsStringColumn(col) {
			return errors.Newf(errors.ErrorTypeConfig,
				"normalization.join_columns: %q is not a categorical input column", col)
		}
	}

	if err := c.validateGroupColumns(); err != nil {
		return err
	}

	if c.Outliers.StdDevCount < 0 {
		return errors.New(errors.ErrorTypeConfig, "outliers.std_dev_count must be >= 0")
	}

	s := c.Selection
	if s.MinSelection < 0 {
		return errors.New(errors.ErrorTypeConfig, "selection.min_selection must be >= 0")
	}
	if s.MaxSelection < 1 {
		return errors.New(errors.ErrorTypeConfig, "selection.max_selection must be >= 1")
	}
	if s.MinSelection > s.MaxSelection {
		return errors.Newf(errors.ErrorTypeConfig,
			"selection bounds are contradictory: min %d > max %d", s.MinSelection, s.MaxSelection)
	}
	if s.Gamma < 0 {
		// The linearization constraints rely on the penalty coefficient
		// being non-positive in a maximizing objective.
		return errors.New(errors.ErrorTypeConfig, "selection.gamma must be >= 0")
	}
	if s.SolveTimeout < 0 {
		return errors.New(errors.ErrorTypeConfig, "selection.solve_timeout must be >= 0")
	}
	if s.MaxNodes < 0 {
		return errors.New(errors.ErrorTypeConfig, "selection.max_nodes must be >= 0")
	}

	if c.Runtime.Workers < 1 {
		c.Runtime.Workers = runtime.NumCPU()
	}
	if c.Runtime.LogLevel == "" {
		c.Runtime.LogLevel = "info"
	}
	if c.Runtime.EnableMetrics && c.Runtime.MetricsAddr == "" {
		return errors.New(errors.ErrorTypeConfig, "runtime.metrics_addr is required when metrics are enabled")
	}

	return nil
}

// validateGroupColumns requires the aggregation columns to be exactly the
// response-group triple, in any order.
func (c *Config) validateGroupColumns() error {
	want := map[string]bool{
		models.ColumnPopulation: false,
		models.ColumnReagent:    false,
		models.ColumnCondition:  false,
	}
	for _, col := range c.Aggregation.GroupColumns {
		seen, ok := want[col]
		if !ok {
			return errors.Newf(errors.ErrorTypeConfig,
				"aggregation.group_columns: %q is not a group key column", col)
		}
		if seen {
			return errors.Newf(errors.ErrorTypeConfig,
				"aggregation.group_columns: %q listed twice", col)
		}
		want[col] = true
	}
	for col, seen := range want {
		if !seen {
			return errors.Newf(errors.ErrorTypeConfig,
				"aggregation.group_columns must include %q", col)
		}
	}
	return nil
}

func validatePredicates(section string, preds []Predicate) error {
	for _, p := range preds {
		if p.Column == "" {
			return errors.Newf(errors.ErrorTypeConfig, "%s: predicate column must not be empty", section)
		}
		if !models.IsStringColumn(p.Column) {
			return errors.Newf(errors.ErrorTypeConfig,
				"%s: %q is not a categorical input column", section, p.Column)
		}
	}
	return nil
}
