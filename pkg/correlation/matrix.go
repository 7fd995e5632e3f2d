// Package correlation builds the group-to-group Pearson correlation matrix
// over outlier-filtered normalized observations.
//
// Each response group's normalized values are collected into a vector,
// every vector is prefix-truncated to the shortest group's length, and the
// full pairwise correlation matrix is computed with gonum. Degenerate
// inputs (truncated length < 2, constant vectors) fail fast with a typed
// error; NaN is never allowed to propagate into the optimizer's objective.
package correlation

import (
	"github.com/assaykit/panelopt/pkg/models"
	"gonum.org/v1/gonum/mat"
)

// Matrix is the symmetric correlation matrix indexed by GroupKey on both
// axes. The diagonal is 1.0 by construction. Immutable once built.
type Matrix struct {
	keys  []models.GroupKey
	index map[models.GroupKey]int
	data  *mat.SymDense
}

func newMatrix(keys []models.GroupKey) *Matrix {
	index := make(map[models.GroupKey]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}
	return &Matrix{
		keys:  keys,
		index: index,
		data:  mat.NewSymDense(len(keys), nil),
	}
}

// Dim returns the number of groups on each axis.
func (m *Matrix) Dim() int {
	return len(m.keys)
}

// Keys returns the group keys in axis order (canonical group ordering).
func (m *Matrix) Keys() []models.GroupKey {
	return m.keys
}

// Has reports whether the group appears on the matrix axes.
func (m *Matrix) Has(key models.GroupKey) bool {
	_, ok := m.index[key]
	return ok
}

// At returns the correlation between two groups. The second return is false
// if either group is absent.
func (m *Matrix) At(g, h models.GroupKey) (float64, bool) {
	i, ok := m.index[g]
	if !ok {
		return 0, false
	}
	j, ok := m.index[h]
	if !ok {
		return 0, false
	}
	return m.data.At(i, j), true
}

// AtIndex returns the correlation at axis positions (i, j).
func (m *Matrix) AtIndex(i, j int) float64 {
	return m.data.At(i, j)
}
