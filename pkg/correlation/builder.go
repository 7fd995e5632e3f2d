package correlation

import (
	"context"
	"math"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/assaykit/panelopt/pkg/errors"
	"github.com/assaykit/panelopt/pkg/models"
)

// Builder assembles per-group value vectors and computes the pairwise
// correlation matrix. Vector assembly and the pairwise computation are
// fanned out across a bounded worker pool; inputs are read-only and each
// output cell is written exactly once, so no locking is needed.
type Builder struct {
	workers int
	logger  *zap.Logger
}

// NewBuilder creates a builder with the given parallelism. workers < 1
// falls back to the CPU count.
func NewBuilder(workers int, logger *zap.Logger) *Builder {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{workers: workers, logger: logger}
}

type entry struct {
	donor string
	value float64
}

// Build computes the correlation matrix over the normalized value vectors
// of every response group present in rows.
//
// Vectors are ordered by donor (stable within donor by arrival order) so
// the matrix is deterministic regardless of upstream row ordering, then
// prefix-truncated to the shortest group's length. If that length is below
// 2, or any truncated vector is constant, Build fails with a
// degenerate-group error rather than emitting NaN cells.
func (b *Builder) Build(ctx context.Context, rows []models.NormalizedObservation) (*Matrix, error) {
	grouped := make(map[models.GroupKey][]entry)
	for _, row := range rows {
		key := row.Key()
		grouped[key] = append(grouped[key], entry{donor: row.Donor, value: row.NormalizedValue})
	}
	if len(grouped) == 0 {
		return nil, errors.New(errors.ErrorTypeData, "no groups available for correlation")
	}

	keys := make([]models.GroupKey, 0, len(grouped))
	minLen := -1
	for key, entries := range grouped {
		keys = append(keys, key)
		if minLen < 0 || len(entries) < minLen {
			minLen = len(entries)
		}
	}
	models.SortKeys(keys)

	if minLen < 2 {
		shortest := shortestGroup(grouped)
		return nil, errors.Newf(errors.ErrorTypeDegenerateGroup,
			"truncated vector length %d is too short for correlation", minLen).
			WithDetail("group", shortest.Label()).
			WithDetail("min_length", minLen)
	}

	vectors := make([][]float64, len(keys))
	for i, key := range keys {
		entries := grouped[key]
		sort.SliceStable(entries, func(a, b int) bool { return entries[a].donor < entries[b].donor })

		vec := make([]float64, minLen)
		for j := 0; j < minLen; j++ {
			vec[j] = entries[j].value
		}
		if constant(vec) {
			return nil, errors.New(errors.ErrorTypeDegenerateGroup,
				"group vector is constant, correlation is undefined").
				WithDetail("group", key.Label())
		}
		vectors[i] = vec
	}

	b.logger.Debug("assembled group vectors",
		zap.Int("groups", len(keys)),
		zap.Int("vector_length", minLen))

	matrix := newMatrix(keys)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i := range keys {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, errors.ErrorTypeTimeout, "correlation build cancelled")
			}
			matrix.data.SetSym(i, i, 1.0)
			for j := i + 1; j < len(keys); j++ {
				r := stat.Correlation(vectors[i], vectors[j], nil)
				if math.IsNaN(r) || math.IsInf(r, 0) {
					return errors.New(errors.ErrorTypeDegenerateGroup,
						"correlation is not finite").
						WithDetail("group_a", keys[i].Label()).
						WithDetail("group_b", keys[j].Label())
				}
				matrix.data.SetSym(i, j, r)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return matrix, nil
}

func shortestGroup(grouped map[models.GroupKey][]entry) models.GroupKey {
	var shortest models.GroupKey
	best := -1
	for key, entries := range grouped {
		if best < 0 || len(entries) < best || (len(entries) == best && key.Less(shortest)) {
			shortest = key
			best = len(entries)
		}
	}
	return shortest
}

func constant(vec []float64) bool {
	for _, v := range vec[1:] {
		if v != vec[0] {
			return false
		}
	}
	return true
}
