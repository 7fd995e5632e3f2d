package csv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assaykit/panelopt/pkg/errors"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validHeader = "Species,population,reagent,Donor,Condition,value\n"

func TestReadObservations(t *testing.T) {
	path := writeInput(t, validHeader+
		"Human,p1,r1,d1,Basal,1.5\n"+
		"Human,p1,r1,d1,Test1,10\n")

	rows, err := ReadObservations(path)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Human", rows[0].Species)
	assert.Equal(t, "d1", rows[0].Donor)
	assert.Equal(t, 1.5, rows[0].Value)
	assert.True(t, rows[0].HasValue)
	assert.Equal(t, "Test1", rows[1].Condition)
}

// Blank and NaN value fields become observations with no value, not errors.
func TestReadObservationsMissingValues(t *testing.T) {
	path := writeInput(t, validHeader+
		"Human,p1,r1,d1,Basal,\n"+
		"Human,p1,r1,d2,Basal,NaN\n"+
		"Human,p1,r1,d3,Basal,nan\n")

	rows, err := ReadObservations(path)
	require.NoError(t, err)

	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.True(t, row.ValueMissing())
	}
}

func TestReadObservationsUnparsableValue(t *testing.T) {
	path := writeInput(t, validHeader+"Human,p1,r1,d1,Basal,abc\n")

	_, err := ReadObservations(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestReadObservationsMissingColumn(t *testing.T) {
	path := writeInput(t, "Species,population,reagent,Donor,Condition\n"+
		"Human,p1,r1,d1,Basal\n")

	_, err := ReadObservations(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
}

// Extra columns and arbitrary column order are accepted.
func TestReadObservationsReorderedHeader(t *testing.T) {
	path := writeInput(t, "value,Donor,extra,Condition,reagent,population,Species\n"+
		"2.5,d1,x,Basal,r1,p1,Human\n")

	rows, err := ReadObservations(path)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, 2.5, rows[0].Value)
	assert.Equal(t, "p1", rows[0].Population)
}

func TestReadObservationsMissingFile(t *testing.T) {
	_, err := ReadObservations(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestValidateSchema(t *testing.T) {
	assert.NoError(t, ValidateSchema(writeInput(t, validHeader)))

	err := ValidateSchema(writeInput(t, "Species,population\n"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
}
