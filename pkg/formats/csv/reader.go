// Package csv reads the observation table and writes the tabular run
// artifacts. The input schema is validated up front: a missing required
// column is a fatal schema error and produces no partial output.
package csv

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/assaykit/panelopt/pkg/errors"
	"github.com/assaykit/panelopt/pkg/models"
)

// ReadObservations loads every row of the CSV file at path. The header must
// contain all required columns (extra columns are ignored). A blank or NaN
// value field yields an observation with no value, which later stages drop
// silently; any other unparsable value is a data error.
func ReadObservations(path string) ([]models.Observation, error) {
	file, err := os.Open(path) //nolint:gosec // G304: path is caller-controlled
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open input file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read header")
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var observations []models.Observation
	categorical := make(intern)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read row").
				WithDetail("line", line+1)
		}
		line++

		obs := models.Observation{
			Species:    categorical.get(field(row, index[models.ColumnSpecies])),
			Population: categorical.get(field(row, index[models.ColumnPopulation])),
			Reagent:    categorical.get(field(row, index[models.ColumnReagent])),
			Donor:      categorical.get(field(row, index[models.ColumnDonor])),
			Condition:  categorical.get(field(row, index[models.ColumnCondition])),
		}

		raw := strings.TrimSpace(field(row, index[models.ColumnValue]))
		switch {
		case raw == "" || strings.EqualFold(raw, "nan"):
			// Missing measurement; dropped silently downstream.
		default:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.Newf(errors.ErrorTypeData,
					"unparsable value %q", raw).WithDetail("line", line)
			}
			if !math.IsNaN(v) {
				obs.Value = v
				obs.HasValue = true
			}
		}

		observations = append(observations, obs)
	}

	return observations, nil
}

// ValidateSchema checks that the file at path carries every required
// column without reading its rows.
func ValidateSchema(path string) error {
	file, err := os.Open(path) //nolint:gosec // G304: path is caller-controlled
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to open input file")
	}
	defer file.Close()

	header, err := csv.NewReader(file).Read()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to read header")
	}

	_, err = columnIndex(header)
	return err
}

// columnIndex maps every required column to its header position, failing
// with a schema error naming all missing columns at once.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range models.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.ErrorTypeSchema,
			"required columns missing from input").
			WithDetail("missing", missing)
	}

	return index, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
