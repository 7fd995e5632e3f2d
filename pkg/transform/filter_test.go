package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/assaykit/panelopt/pkg/config"
	"github.com/assaykit/panelopt/pkg/models"
	"github.com/assaykit/panelopt/pkg/testutil"
)

func TestFilterEquals(t *testing.T) {
	rows := []models.Observation{
		testutil.Obs("d1", "Basal", 1),
		testutil.Obs("d2", "Basal", 2),
		testutil.Obs("d1", "Test1", 3),
		testutil.Obs("d2", "Test1", 4),
	}

	filtered := FilterEquals(rows, []config.Predicate{{Column: models.ColumnCondition, Value: "Basal"}})

	assert.Len(t, filtered, 2)
	for _, row := range filtered {
		assert.Equal(t, "Basal", row.Condition)
	}
}

func TestFilterEqualsMultiplePredicatesAreANDed(t *testing.T) {
	rows := []models.Observation{
		testutil.Obs("d1", "Basal", 1),
		testutil.Obs("d2", "Basal", 2),
		testutil.Obs("d1", "Test1", 3),
	}

	filtered := FilterEquals(rows, []config.Predicate{
		{Column: models.ColumnCondition, Value: "Basal"},
		{Column: models.ColumnDonor, Value: "d1"},
	})

	assert.Len(t, filtered, 1)
	assert.Equal(t, "d1", filtered[0].Donor)
}

func TestFilterNotEquals(t *testing.T) {
	rows := []models.Observation{
		testutil.Obs("d1", "Basal", 1),
		testutil.Obs("d1", "Test1", 3),
		testutil.Obs("d1", "Test2", 5),
	}

	filtered := FilterNotEquals(rows, []config.Predicate{{Column: models.ColumnCondition, Value: "Basal"}})

	assert.Len(t, filtered, 2)
	for _, row := range filtered {
		assert.NotEqual(t, "Basal", row.Condition)
	}
}

// FilterEquals and FilterNotEquals on the same predicate set must partition
// the input exactly: disjoint outputs whose union is the input.
func TestFilterPartitionProperty(t *testing.T) {
	rows := []models.Observation{
		testutil.Obs("d1", "Basal", 1),
		testutil.Obs("d2", "Basal", 2),
		testutil.Obs("d1", "Test1", 3),
		testutil.Obs("d2", "Test2", 4),
		testutil.Obs("d3", "Test1", 5),
	}
	preds := []config.Predicate{{Column: models.ColumnCondition, Value: "Basal"}}

	eq := FilterEquals(rows, preds)
	ne := FilterNotEquals(rows, preds)

	assert.Equal(t, len(rows), len(eq)+len(ne))
	for _, a := range eq {
		for _, b := range ne {
			assert.NotEqual(t, a, b)
		}
	}
}

func TestFilterData(t *testing.T) {
	mouse := testutil.Obs("d2", "Basal", 2)
	mouse.Species = "Mouse"
	noValue := testutil.Obs("d3", "Basal", 0)
	noValue.HasValue = false
	nanValue := testutil.Obs("d4", "Basal", math.NaN())

	rows := []models.Observation{
		testutil.Obs("d1", "Basal", 1),
		mouse,
		noValue,
		nanValue,
	}

	filtered := FilterData(rows, []config.Predicate{{Column: models.ColumnSpecies, Value: "Human"}})

	assert.Len(t, filtered, 1)
	assert.Equal(t, "d1", filtered[0].Donor)
}

func TestFilterDataNoPredicatesOnlyDropsMissing(t *testing.T) {
	noValue := testutil.Obs("d2", "Basal", 0)
	noValue.HasValue = false

	rows := []models.Observation{testutil.Obs("d1", "Basal", 1), noValue}

	filtered := FilterData(rows, nil)

	assert.Len(t, filtered, 1)
}
