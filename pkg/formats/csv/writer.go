package csv

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/assaykit/panelopt/pkg/correlation"
	"github.com/assaykit/panelopt/pkg/errors"
	"github.com/assaykit/panelopt/pkg/models"
)

// WriteStatistics writes the per-group statistics table with columns
// population, reagent, Condition, median, variance, one row per group in
// canonical order.
func WriteStatistics(path string, stats models.StatisticsTable) error {
	records := [][]string{{
		models.ColumnPopulation,
		models.ColumnReagent,
		models.ColumnCondition,
		"median",
		"variance",
	}}

	for _, key := range stats.Keys() {
		s := stats[key]
		records = append(records, []string{
			key.Population,
			key.Reagent,
			key.Condition,
			formatFloat(s.Median),
			formatFloat(s.Variance),
		})
	}

	return writeAll(path, records)
}

// WriteCorrelation writes the symmetric correlation matrix with group
// labels on both axes.
func WriteCorrelation(path string, matrix *correlation.Matrix) error {
	keys := matrix.Keys()

	header := make([]string, 0, len(keys)+1)
	header = append(header, "")
	for _, key := range keys {
		header = append(header, key.Label())
	}
	records := [][]string{header}

	for i, key := range keys {
		row := make([]string, 0, len(keys)+1)
		row = append(row, key.Label())
		for j := range keys {
			row = append(row, formatFloat(matrix.AtIndex(i, j)))
		}
		records = append(records, row)
	}

	return writeAll(path, records)
}

func writeAll(path string, records [][]string) error {
	file, err := os.Create(path) //nolint:gosec // G304: path is caller-controlled
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write output file")
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush output file")
	}
	return file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
