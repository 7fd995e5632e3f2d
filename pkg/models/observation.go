// Package models defines the core data types flowing through the panelopt
// pipeline: raw observations, normalized observations, per-group response
// statistics, and the terminal selection result.
//
// All types here are value types derived once per run and treated as
// immutable after construction. Group identity is the strongly typed
// GroupKey struct; its comparable equality is the single canonical join key
// shared by the aggregator, the correlation builder, and the optimizer.
package models

import (
	"math"
	"sort"
	"strings"
)

// Well-known input column names. The input schema is fixed; configuration
// references columns by these names and is validated against them at load
// time rather than resolved dynamically per row.
const (
	ColumnSpecies    = "Species"
	ColumnPopulation = "population"
	ColumnReagent    = "reagent"
	ColumnDonor      = "Donor"
	ColumnCondition  = "Condition"
	ColumnValue      = "value"
)

// RequiredColumns lists every column the input table must carry.
// A missing column is a schema error and aborts the run.
var RequiredColumns = []string{
	ColumnSpecies,
	ColumnPopulation,
	ColumnReagent,
	ColumnDonor,
	ColumnCondition,
	ColumnValue,
}

// IsStringColumn reports whether name identifies one of the categorical
// input columns usable in equality predicates and join keys.
func IsStringColumn(name string) bool {
	switch name {
	case ColumnSpecies, ColumnPopulation, ColumnReagent, ColumnDonor, ColumnCondition:
		return true
	}
	return false
}

// Observation is one measured input row. Value may be absent (blank or NaN
// in the source file); such rows are dropped silently during initial
// filtering. Observations are never mutated after loading.
type Observation struct {
	Species    string
	Population string
	Reagent    string
	Donor      string
	Condition  string
	Value      float64
	HasValue   bool
}

// Field returns the categorical column value by name. The second return is
// false for the numeric value column and for unknown columns; predicate
// evaluation treats such rows as non-matching on both sides of a partition.
func (o Observation) Field(column string) (string, bool) {
	switch column {
	case ColumnSpecies:
		return o.Species, true
	case ColumnPopulation:
		return o.Population, true
	case ColumnReagent:
		return o.Reagent, true
	case ColumnDonor:
		return o.Donor, true
	case ColumnCondition:
		return o.Condition, true
	}
	return "", false
}

// ValueMissing reports whether the observation carries no usable value.
func (o Observation) ValueMissing() bool {
	return !o.HasValue || math.IsNaN(o.Value)
}

// NormalizedObservation is an observation joined with its donor-matched
// basal counterpart. NormalizedValue = Value - BasalValue. It exists only
// for rows whose (population, reagent, donor) key matched at least one
// basal row; donors without a basal measurement produce no normalized row.
type NormalizedObservation struct {
	Species         string
	Population      string
	Reagent         string
	Donor           string
	Condition       string
	Value           float64
	BasalValue      float64
	NormalizedValue float64
}

// Key returns the response-group key of the normalized observation.
func (n NormalizedObservation) Key() GroupKey {
	return GroupKey{
		Population: n.Population,
		Reagent:    n.Reagent,
		Condition:  n.Condition,
	}
}

// GroupKey identifies one response group: the unit of analysis throughout
// the pipeline. It is comparable and is used directly as a map key; the
// delimited Label form exists only for artifact output.
type GroupKey struct {
	Population string
	Reagent    string
	Condition  string
}

// Label renders the comma-joined artifact label for the group.
func (k GroupKey) Label() string {
	return strings.Join([]string{k.Population, k.Reagent, k.Condition}, ",")
}

// Less orders keys lexicographically by population, reagent, condition.
// Used wherever deterministic group ordering is required.
func (k GroupKey) Less(other GroupKey) bool {
	if k.Population != other.Population {
		return k.Population < other.Population
	}
	if k.Reagent != other.Reagent {
		return k.Reagent < other.Reagent
	}
	return k.Condition < other.Condition
}

// SortKeys sorts group keys in place in canonical order and returns them.
func SortKeys(keys []GroupKey) []GroupKey {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// GroupStatistics holds the per-group response summary computed over the
// retained normalized values: the median (response) and the sample variance
// (information content). The variance of a single retained observation is
// defined as 0.
type GroupStatistics struct {
	Median   float64
	Variance float64
}

// StatisticsTable maps each group with at least one retained observation to
// its statistics. Groups with zero retained rows are absent, never present
// with zeroed entries.
type StatisticsTable map[GroupKey]GroupStatistics

// Keys returns the table's group keys in canonical order.
func (t StatisticsTable) Keys() []GroupKey {
	keys := make([]GroupKey, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	return SortKeys(keys)
}
