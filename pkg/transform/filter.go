// Package transform implements the statistical normalization stages of the
// panelopt pipeline: row admission filtering, basal-relative normalization,
// per-group outlier removal and per-group aggregation.
//
// All functions are pure over their inputs: they return new slices and
// never mutate the rows they are given. Rows with missing values and
// non-basal rows without a basal counterpart are dropped silently; that is
// intentional data cleaning, not an error condition.
package transform

import (
	"github.com/assaykit/panelopt/pkg/config"
	"github.com/assaykit/panelopt/pkg/models"
)

// FilterEquals keeps rows where, for every (column, value) predicate, the
// row's column equals the value. Predicates compose as logical AND. Rows
// whose predicate column is unknown match neither FilterEquals nor
// FilterNotEquals.
func FilterEquals(rows []models.Observation, predicates []config.Predicate) []models.Observation {
	out := make([]models.Observation, 0, len(rows))
	for _, row := range rows {
		if matchesAll(row, predicates) {
			out = append(out, row)
		}
	}
	return out
}

// FilterNotEquals keeps rows where the tested column differs from the value
// for every predicate (logical AND of per-column inequality). Used to select
// the non-basal partition.
func FilterNotEquals(rows []models.Observation, predicates []config.Predicate) []models.Observation {
	out := make([]models.Observation, 0, len(rows))
	for _, row := range rows {
		if differsAll(row, predicates) {
			out = append(out, row)
		}
	}
	return out
}

// FilterData drops rows whose value is absent or NaN, then applies the
// initial admission predicates. Missing-value rows are dropped silently,
// never reported as errors.
func FilterData(rows []models.Observation, initialFilters []config.Predicate) []models.Observation {
	withValue := make([]models.Observation, 0, len(rows))
	for _, row := range rows {
		if row.ValueMissing() {
			continue
		}
		withValue = append(withValue, row)
	}
	return FilterEquals(withValue, initialFilters)
}

func matchesAll(row models.Observation, predicates []config.Predicate) bool {
	for _, p := range predicates {
		got, ok := row.Field(p.Column)
		if !ok || got != p.Value {
			return false
		}
	}
	return true
}

func differsAll(row models.Observation, predicates []config.Predicate) bool {
	for _, p := range predicates {
		got, ok := row.Field(p.Column)
		if !ok || got == p.Value {
			return false
		}
	}
	return true
}
