package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/flag-inspector-go/internal/analyzer"
)

func writeSpec(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFlagSpec_Defaults(t *testing.T) {
	spec, err := LoadFlagSpec("")
	require.NoError(t, err)
	assert.Equal(t, analyzer.DefaultFlagSpec(), spec)
}

func TestLoadFlagSpec_YAMLOverlay(t *testing.T) {
	path := writeSpec(t, "spec.yaml", `
band_tolerance: 8
ratio_tolerance: 0.05
saffron: [250, 150, 50]
emblem_filter:
  min_blue: 60
`)

	spec, err := LoadFlagSpec(path)
	require.NoError(t, err)

	defaults := analyzer.DefaultFlagSpec()
	assert.Equal(t, 8.0, spec.BandTolerance)
	assert.Equal(t, 0.05, spec.RatioTolerance)
	assert.Equal(t, analyzer.RGB{250, 150, 50}, spec.Saffron)
	assert.Equal(t, uint8(60), spec.EmblemFilter.MinBlue)
	// untouched keys keep their defaults, including siblings of nested keys
	assert.Equal(t, defaults.EmblemFilter.MaxRed, spec.EmblemFilter.MaxRed)
	assert.Equal(t, defaults.Green, spec.Green)
	assert.Equal(t, defaults.ExpectedSpokes, spec.ExpectedSpokes)
}

func TestLoadFlagSpec_JSON(t *testing.T) {
	path := writeSpec(t, "spec.json", `{"expected_spokes": 16, "emblem_tolerance": 20}`)

	spec, err := LoadFlagSpec(path)
	require.NoError(t, err)
	assert.Equal(t, 16, spec.ExpectedSpokes)
	assert.Equal(t, 20.0, spec.EmblemTolerance)
}

func TestLoadFlagSpec_EnvOverrides(t *testing.T) {
	path := writeSpec(t, "spec.yaml", "band_tolerance: 8\n")
	t.Setenv("FLAGCHECK_BAND_TOLERANCE", "6.5")
	t.Setenv("FLAGCHECK_EXPECTED_SPOKES", "12")
	t.Setenv("FLAGCHECK_EMBLEM_FILTER_MAX_RED", "90")

	spec, err := LoadFlagSpec(path)
	require.NoError(t, err)
	assert.Equal(t, 6.5, spec.BandTolerance)
	assert.Equal(t, 12, spec.ExpectedSpokes)
	assert.Equal(t, uint8(90), spec.EmblemFilter.MaxRed)
}

func TestLoadFlagSpec_Errors(t *testing.T) {
	_, err := LoadFlagSpec(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFlagSpec(writeSpec(t, "bad.yaml", "band_row_stride: 0\n"))
	assert.ErrorContains(t, err, "invalid flag spec")

	_, err = LoadFlagSpec(writeSpec(t, "broken.yaml", "band_tolerance: [\n"))
	assert.Error(t, err)
}
