package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assaykit/panelopt/pkg/errors"
)

func TestLoad(t *testing.T) {
	content := `
input:
  path: observations.csv
outliers:
  std_dev_count: 2.5
selection:
  alpha: 2.0
  max_selection: 5
  solve_timeout: 30s
`
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := Default()
	require.NoError(t, Load(path, cfg))

	assert.Equal(t, "observations.csv", cfg.Input.Path)
	assert.Equal(t, 2.5, cfg.Outliers.StdDevCount)
	assert.Equal(t, 2.0, cfg.Selection.Alpha)
	assert.Equal(t, 5, cfg.Selection.MaxSelection)
	assert.Equal(t, 30*time.Second, cfg.Selection.SolveTimeout.Std())
	// Untouched sections keep their defaults.
	assert.Equal(t, "Human", cfg.Filters.Initial[0].Value)
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("PANELOPT_INPUT", "from_env.csv")

	content := "input:\n  path: ${PANELOPT_INPUT}\n"
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := Default()
	require.NoError(t, Load(path, cfg))

	assert.Equal(t, "from_env.csv", cfg.Input.Path)
}

func TestLoadMissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "absent.yaml"), Default())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: ["), 0644))

	err := Load(path, Default())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	original := validConfig()
	original.Selection.Gamma = 1.25
	require.NoError(t, Save(path, original))

	loaded := Default()
	require.NoError(t, Load(path, loaded))
	assert.Equal(t, 1.25, loaded.Selection.Gamma)
	assert.Equal(t, original.Input.Path, loaded.Input.Path)
}
