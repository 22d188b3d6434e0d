package strategy

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/anime-shed/flag-inspector-go/pkg/models"
)

func sampleResponse() models.InspectionResponse {
	return models.InspectionResponse{
		ID:     "abc",
		Source: "flag.png",
		AnalysisReport: models.AnalysisReport{
			AspectRatio:   models.AspectRatioResult{Status: models.StatusPass, Actual: "1.50", Expected: "1.50 (3:2)"},
			ChakraSpokes:  models.SpokesResult{Status: models.StatusPass, Detected: 24, Expected: 24},
			OverallStatus: models.StatusPass,
			TotalChecks:   8,
			PassedChecks:  8,
		},
	}
}

func TestNewRenderStrategy(t *testing.T) {
	for format, want := range map[string]string{"": "json", "json": "json", "YAML": "yaml", "yml": "yaml"} {
		s, err := NewRenderStrategy(format)
		require.NoError(t, err, format)
		assert.Equal(t, want, s.GetStrategyName())
	}

	_, err := NewRenderStrategy("xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestJSONRenderStrategy_FlattensReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONRenderStrategy{}.Render(&buf, sampleResponse()))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "pass", out["overall_status"])
	assert.Equal(t, "abc", out["id"])
	assert.Contains(t, out, "aspect_ratio")
	assert.NotContains(t, out, "AnalysisReport")
}

func TestYAMLRenderStrategy_FlattensReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAMLRenderStrategy{}.Render(&buf, sampleResponse()))

	var out map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "pass", out["overall_status"])
	assert.Equal(t, 8, out["passed_checks"])

	spokes, ok := out["chakra_spokes"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 24, spokes["detected"])
}
