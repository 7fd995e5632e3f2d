package transform

import (
	"strings"

	"github.com/assaykit/panelopt/pkg/config"
	"github.com/assaykit/panelopt/pkg/models"
)

// NormalizeByBasal partitions rows into a basal subset (matching the basal
// predicates) and a non-basal subset, inner-joins them on the join columns
// and emits one normalized observation per joined pair with
// NormalizedValue = Value - BasalValue.
//
// Join semantics follow a standard inner join: a non-basal row whose key
// matches multiple basal rows fans out into every combination, and
// non-basal rows without any basal match are dropped entirely. The basal
// row contributes only its value; the condition of the emitted row is the
// non-basal condition.
func NormalizeByBasal(rows []models.Observation, basalFilters []config.Predicate, joinColumns []string) []models.NormalizedObservation {
	basal := FilterEquals(rows, basalFilters)
	nonBasal := FilterNotEquals(rows, basalFilters)

	basalByKey := make(map[string][]float64, len(basal))
	for _, row := range basal {
		key, ok := joinKey(row, joinColumns)
		if !ok {
			continue
		}
		basalByKey[key] = append(basalByKey[key], row.Value)
	}

	out := make([]models.NormalizedObservation, 0, len(nonBasal))
	for _, row := range nonBasal {
		key, ok := joinKey(row, joinColumns)
		if !ok {
			continue
		}
		for _, basalValue := range basalByKey[key] {
			out = append(out, models.NormalizedObservation{
				Species:         row.Species,
				Population:      row.Population,
				Reagent:         row.Reagent,
				Donor:           row.Donor,
				Condition:       row.Condition,
				Value:           row.Value,
				BasalValue:      basalValue,
				NormalizedValue: row.Value - basalValue,
			})
		}
	}
	return out
}

// joinKey builds the composite join key for a row from the configured
// columns. The unit separator cannot occur in CSV field values, so the
// encoding is unambiguous. Join columns are validated against the schema at
// configuration load, so a missing column here means the row is unusable.
func joinKey(row models.Observation, columns []string) (string, bool) {
	var b strings.Builder
	for i, col := range columns {
		v, ok := row.Field(col)
		if !ok {
			return "", false
		}
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(v)
	}
	return b.String(), true
}
