package correlation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assaykit/panelopt/pkg/errors"
	"github.com/assaykit/panelopt/pkg/models"
	"github.com/assaykit/panelopt/pkg/testutil"
)

func groupRows(condition string, values ...float64) []models.NormalizedObservation {
	rows := make([]models.NormalizedObservation, len(values))
	for i, v := range values {
		rows[i] = testutil.NormObs(donor(i), condition, v, 0)
	}
	return rows
}

func donor(i int) string {
	return string(rune('a' + i))
}

func key(condition string) models.GroupKey {
	return models.GroupKey{Population: "p1", Reagent: "r1", Condition: condition}
}

func TestBuildPerfectCorrelation(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	rows := append(groupRows("Test1", 1, 2, 3), groupRows("Test2", 2, 4, 6)...)

	matrix, err := NewBuilder(2, testutil.TestLogger(t)).Build(ctx, rows)
	require.NoError(t, err)

	r, ok := matrix.At(key("Test1"), key("Test2"))
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)
}

func TestBuildAntiCorrelation(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	rows := append(groupRows("Test1", 1, 2, 3), groupRows("Test2", 3, 2, 1)...)

	matrix, err := NewBuilder(2, testutil.TestLogger(t)).Build(ctx, rows)
	require.NoError(t, err)

	r, ok := matrix.At(key("Test1"), key("Test2"))
	require.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-12)
}

func TestBuildSymmetryAndUnitDiagonal(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	rows := groupRows("Test1", 1, 2, 4)
	rows = append(rows, groupRows("Test2", 5, 3, 9)...)
	rows = append(rows, groupRows("Test3", -1, 7, 2)...)

	matrix, err := NewBuilder(4, testutil.TestLogger(t)).Build(ctx, rows)
	require.NoError(t, err)
	require.Equal(t, 3, matrix.Dim())

	for i := 0; i < matrix.Dim(); i++ {
		assert.Equal(t, 1.0, matrix.AtIndex(i, i))
		for j := 0; j < matrix.Dim(); j++ {
			assert.Equal(t, matrix.AtIndex(i, j), matrix.AtIndex(j, i))
			assert.GreaterOrEqual(t, matrix.AtIndex(i, j), -1.0-1e-12)
			assert.LessOrEqual(t, matrix.AtIndex(i, j), 1.0+1e-12)
		}
	}
}

// Vectors are truncated to the shortest group before correlating; with the
// longer group cut to its first two donors the pair is perfectly
// correlated.
func TestBuildTruncatesToShortestGroup(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	rows := append(groupRows("Test1", 1, 2), groupRows("Test2", 10, 20, 5)...)

	matrix, err := NewBuilder(2, testutil.TestLogger(t)).Build(ctx, rows)
	require.NoError(t, err)

	r, ok := matrix.At(key("Test1"), key("Test2"))
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)
}

// The matrix must not depend on input row order: vectors are assembled in
// donor order, not arrival order.
func TestBuildDeterministicUnderRowShuffle(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	ordered := append(groupRows("Test1", 1, 2, 4), groupRows("Test2", 5, 3, 9)...)
	shuffled := []models.NormalizedObservation{
		ordered[4], ordered[1], ordered[5], ordered[0], ordered[3], ordered[2],
	}

	builder := NewBuilder(1, testutil.TestLogger(t))
	m1, err := builder.Build(ctx, ordered)
	require.NoError(t, err)
	m2, err := builder.Build(ctx, shuffled)
	require.NoError(t, err)

	r1, _ := m1.At(key("Test1"), key("Test2"))
	r2, _ := m2.At(key("Test1"), key("Test2"))
	assert.Equal(t, r1, r2)
}

func TestBuildSingleGroup(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	matrix, err := NewBuilder(1, testutil.TestLogger(t)).Build(ctx, groupRows("Test1", 1, 2, 3))
	require.NoError(t, err)

	assert.Equal(t, 1, matrix.Dim())
	assert.Equal(t, 1.0, matrix.AtIndex(0, 0))
	assert.True(t, matrix.Has(key("Test1")))
	assert.False(t, matrix.Has(key("Test2")))
}

func TestBuildRejectsShortVectors(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	// Test2 has a single donor, truncating every vector to length 1.
	rows := append(groupRows("Test1", 1, 2, 3), groupRows("Test2", 7)...)

	_, err := NewBuilder(1, testutil.TestLogger(t)).Build(ctx, rows)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDegenerateGroup))
}

func TestBuildRejectsConstantVector(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	rows := append(groupRows("Test1", 1, 2, 3), groupRows("Test2", 4, 4, 4)...)

	_, err := NewBuilder(1, testutil.TestLogger(t)).Build(ctx, rows)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDegenerateGroup))
}

func TestBuildEmptyInput(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := NewBuilder(1, testutil.TestLogger(t)).Build(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}
