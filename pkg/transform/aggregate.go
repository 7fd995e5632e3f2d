package transform

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/assaykit/panelopt/pkg/models"
)

// Aggregate computes the median and sample variance of the normalized value
// for each response group with at least one retained row. Groups with zero
// retained rows are simply absent from the table. The sample variance of a
// single retained observation is defined as 0.
func Aggregate(rows []models.NormalizedObservation) models.StatisticsTable {
	values := make(map[models.GroupKey][]float64)
	for _, row := range rows {
		key := row.Key()
		values[key] = append(values[key], row.NormalizedValue)
	}

	table := make(models.StatisticsTable, len(values))
	for key, vs := range values {
		table[key] = models.GroupStatistics{
			Median:   median(vs),
			Variance: sampleVariance(vs),
		}
	}
	return table
}

// median returns the middle value of vs, averaging the two central values
// for even lengths. vs is not modified.
func median(vs []float64) float64 {
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sampleVariance is the n-1 variance, with the single-sample case pinned to
// 0 rather than the library's NaN.
func sampleVariance(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	return stat.Variance(vs, nil)
}
