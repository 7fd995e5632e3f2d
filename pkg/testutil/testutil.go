// Package testutil provides testing utilities for panelopt
package testutil

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/assaykit/panelopt/pkg/models"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// Obs builds a human observation for the default population/reagent with
// the given donor, condition and value. Most pipeline tests only vary
// those three fields.
func Obs(donor, condition string, value float64) models.Observation {
	return models.Observation{
		Species:    "Human",
		Population: "p1",
		Reagent:    "r1",
		Donor:      donor,
		Condition:  condition,
		Value:      value,
		HasValue:   true,
	}
}

// NormObs builds a normalized observation for the default
// population/reagent.
func NormObs(donor, condition string, value, basal float64) models.NormalizedObservation {
	return models.NormalizedObservation{
		Species:         "Human",
		Population:      "p1",
		Reagent:         "r1",
		Donor:           donor,
		Condition:       condition,
		Value:           value,
		BasalValue:      basal,
		NormalizedValue: value - basal,
	}
}
