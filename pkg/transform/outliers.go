package transform

import (
	"gonum.org/v1/gonum/stat"

	"github.com/assaykit/panelopt/pkg/models"
)

// DefaultStdDevCount is the default width of the outlier retention band.
const DefaultStdDevCount = 3

// RemoveOutliers drops per-group statistical outliers. For each response
// group it computes the sample standard deviation of the raw (unnormalized)
// value and retains a row only if
//
//	-std*numStdDev <= value <= std*numStdDev
//
// The band is centered on zero, not on the group mean: a group whose values
// are systematically offset from zero can lose all of its rows regardless
// of true outlier status. Every downstream artifact depends on this exact
// band; see DESIGN.md before changing it. When a group's std is 0 the band
// collapses to {0} and only rows with value == 0 survive. A single-row
// group has std defined as 0.
func RemoveOutliers(rows []models.NormalizedObservation, numStdDev float64) []models.NormalizedObservation {
	values := make(map[models.GroupKey][]float64)
	for _, row := range rows {
		key := row.Key()
		values[key] = append(values[key], row.Value)
	}

	bands := make(map[models.GroupKey]float64, len(values))
	for key, vs := range values {
		std := 0.0
		if len(vs) > 1 {
			std = stat.StdDev(vs, nil)
		}
		bands[key] = std * numStdDev
	}

	out := make([]models.NormalizedObservation, 0, len(rows))
	for _, row := range rows {
		band := bands[row.Key()]
		if row.Value >= -band && row.Value <= band {
			out = append(out, row)
		}
	}
	return out
}
