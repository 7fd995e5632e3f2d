// Package panelopt turns raw per-donor assay measurements into a ranked,
// decorrelated subset of response groups (population x reagent x condition)
// that is simultaneously high-signal, variance-informative and mutually
// non-redundant.
//
// # Architecture
//
// A run is a single-pass batch transformation through two coupled stages:
//
// 1. Statistical normalization and aggregation: observations are admitted
// by configurable predicates, normalized against their donor-matched basal
// condition, trimmed of per-group outliers, then summarized into per-group
// median/variance statistics and a group-to-group Pearson correlation
// matrix.
//
// 2. Combinatorial selection: a linearized binary integer program over the
// candidate groups maximizes a weighted reward (variance and median
// response) while penalizing pairwise correlation, subject to cardinality
// bounds. The default backend is an exact branch-and-bound solver over the
// LP relaxation; any backend implementing bip.Solver can be substituted.
//
// # Packages
//
//   - pkg/models: observation, group key and result types
//   - pkg/transform: filtering, basal normalization, outliers, aggregation
//   - pkg/correlation: group correlation matrix construction
//   - pkg/bip: binary integer program model and solver backend
//   - pkg/optimizer: selection program construction and solving
//   - pkg/formats/csv, pkg/formats/jsonout: input and artifact I/O
//   - internal/pipeline: end-to-end run orchestration
//
// # Usage
//
//	cfg := config.Default()
//	cfg.Input.Path = "sup.csv"
//	result, err := pipeline.New(cfg, logger.Get()).Run(ctx)
package panelopt
