package analyzer

import (
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/anime-shed/flag-inspector-go/internal/errors"
	"github.com/anime-shed/flag-inspector-go/internal/testutil"
	"github.com/anime-shed/flag-inspector-go/pkg/models"
)

func newTestAnalyzer(t *testing.T) FlagAnalyzer {
	t.Helper()
	a, err := NewFlagAnalyzer(DefaultFlagSpec())
	require.NoError(t, err)
	return a
}

// failedChecks lists the names of failing checks in report order
func failedChecks(r *models.AnalysisReport) []string {
	names := []string{
		"aspect_ratio", "saffron", "white", "green",
		"chakra_blue", "stripe_proportion", "chakra_position", "chakra_spokes",
	}
	var failed []string
	for i, s := range r.Statuses() {
		if s != models.StatusPass {
			failed = append(failed, names[i])
		}
	}
	return failed
}

func parsePixels(t *testing.T, offset string) float64 {
	t.Helper()
	v, err := strconv.Atoi(strings.TrimSuffix(offset, "px"))
	require.NoError(t, err, "offset %q", offset)
	return float64(v)
}

func TestNewFlagAnalyzer_InvalidSpec(t *testing.T) {
	spec := DefaultFlagSpec()
	spec.BandRowStride = 0

	_, err := NewFlagAnalyzer(spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strides must be > 0")
}

func TestAnalyze_ConformingFlag(t *testing.T) {
	a := newTestAnalyzer(t)

	report, err := a.Analyze(testutil.NewFlag(1500, 1000).Build())
	require.NoError(t, err)

	assert.Empty(t, failedChecks(report))
	assert.Equal(t, models.StatusPass, report.OverallStatus)
	assert.Equal(t, 8, report.TotalChecks)
	assert.Equal(t, 8, report.PassedChecks)
	assert.Equal(t, "1.50", report.AspectRatio.Actual)
	assert.Equal(t, "1.50 (3:2)", report.AspectRatio.Expected)
	assert.Equal(t, "0.0%", report.Colors.Saffron.Deviation)
	assert.Equal(t, "0.0%", report.Colors.Green.Deviation)
	assert.Equal(t, "0.0%", report.Colors.ChakraBlue.Deviation)
	assert.Less(t, report.Colors.White.DeviationPct, 5.0)
	assert.Equal(t, 24, report.ChakraSpokes.Detected)
	assert.Equal(t, 24, report.ChakraSpokes.Expected)
	assert.Equal(t, "0.33", report.StripeProportion.Top)
	assert.Equal(t, "0.33", report.StripeProportion.Middle)
	assert.Equal(t, "0.33", report.StripeProportion.Bottom)
}

func TestAnalyze_NavyDisc(t *testing.T) {
	a := newTestAnalyzer(t)

	report, err := a.Analyze(testutil.NewFlag(1500, 1000).WithEmblem(testutil.EmblemDisc).Build())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPass, report.AspectRatio.Status)
	assert.Equal(t, models.StatusPass, report.Colors.Saffron.Status)
	assert.Equal(t, models.StatusPass, report.Colors.White.Status)
	assert.Equal(t, models.StatusPass, report.Colors.Green.Status)
	assert.Equal(t, models.StatusPass, report.Colors.ChakraBlue.Status)
	assert.Equal(t, models.StatusPass, report.ChakraPosition.Status)

	// a solid disc has no background between spokes
	assert.Equal(t, 0, report.ChakraSpokes.Detected)
	assert.Equal(t, models.StatusFail, report.ChakraSpokes.Status)
}

func TestAnalyze_SwappedBands(t *testing.T) {
	a := newTestAnalyzer(t)

	img := testutil.NewFlag(1500, 1000).Bands(testutil.Green, testutil.White, testutil.Saffron).Build()
	report, err := a.Analyze(img)
	require.NoError(t, err)

	assert.Equal(t, []string{"saffron", "green"}, failedChecks(report))
	assert.Equal(t, models.StatusFail, report.OverallStatus)
	assert.Equal(t, 6, report.PassedChecks)
}

func TestAnalyze_SquareImage(t *testing.T) {
	a := newTestAnalyzer(t)

	report, err := a.Analyze(testutil.NewFlag(1000, 1000).Build())
	require.NoError(t, err)

	assert.Equal(t, []string{"aspect_ratio"}, failedChecks(report))
	assert.Equal(t, "1.00", report.AspectRatio.Actual)
	assert.Equal(t, 7, report.PassedChecks)
}

func TestAnalyze_AspectRatioTolerance(t *testing.T) {
	a := newTestAnalyzer(t)

	tests := []struct {
		width, height int
		want          models.Status
	}{
		{1500, 1000, models.StatusPass},
		{1515, 1000, models.StatusPass}, // +1%
		{1485, 1000, models.StatusPass}, // -1%
		{1520, 1000, models.StatusFail},
		{1480, 1000, models.StatusFail},
		{2000, 1000, models.StatusFail},
	}
	for _, tt := range tests {
		result := checkAspectRatio(tt.width, tt.height, a.Spec())
		assert.Equal(t, tt.want, result.Status, "%dx%d", tt.width, tt.height)
	}
}

func TestAnalyze_BandDeviationMonotonic(t *testing.T) {
	a := newTestAnalyzer(t)
	blue := color.RGBA{0, 0, 255, 255}

	pure, err := a.Analyze(testutil.NewFlag(600, 400).Build())
	require.NoError(t, err)
	blended, err := a.Analyze(testutil.NewFlag(600, 400).Bands(testutil.Blend(testutil.Saffron, blue, 0.5), testutil.White, testutil.Green).Build())
	require.NoError(t, err)

	assert.Greater(t, blended.Colors.Saffron.DeviationPct, pure.Colors.Saffron.DeviationPct)
	assert.Equal(t, models.StatusFail, blended.Colors.Saffron.Status)
	assert.Equal(t, models.StatusPass, blended.Colors.White.Status)
}

func TestAnalyze_EmblemMissing(t *testing.T) {
	a := newTestAnalyzer(t)

	report, err := a.Analyze(testutil.NewFlag(1500, 1000).WithEmblem(testutil.EmblemNone).Build())
	require.NoError(t, err)

	assert.Equal(t, []string{"chakra_blue", "chakra_position", "chakra_spokes"}, failedChecks(report))
	assert.Equal(t, "100.0%", report.Colors.ChakraBlue.Deviation)
	assert.Equal(t, "n/a", report.ChakraPosition.OffsetX)
	assert.Equal(t, "n/a", report.ChakraPosition.OffsetY)
	assert.Equal(t, 0, report.ChakraSpokes.Detected)
	assert.Equal(t, "0.0%", report.Colors.White.Deviation)
}

func TestAnalyze_EmblemOffCenter(t *testing.T) {
	a := newTestAnalyzer(t)

	report, err := a.Analyze(testutil.NewFlag(1500, 1000).Shifted(60, 0).Build())
	require.NoError(t, err)

	assert.Equal(t, []string{"chakra_position"}, failedChecks(report))
	assert.InDelta(t, 60, parsePixels(t, report.ChakraPosition.OffsetX), 2)
	assert.Equal(t, "0px", report.ChakraPosition.OffsetY)
}

func TestAnalyze_EmblemSlightlyOffCenter(t *testing.T) {
	a := newTestAnalyzer(t)

	report, err := a.Analyze(testutil.NewFlag(1500, 1000).Shifted(-10, 8).Build())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPass, report.ChakraPosition.Status)
	assert.InDelta(t, -10, parsePixels(t, report.ChakraPosition.OffsetX), 2)
	assert.InDelta(t, 8, parsePixels(t, report.ChakraPosition.OffsetY), 2)
}

func TestAnalyze_WrongSpokeCount(t *testing.T) {
	a := newTestAnalyzer(t)

	report, err := a.Analyze(testutil.NewFlag(1500, 1000).WithSpokes(16).Build())
	require.NoError(t, err)

	assert.Equal(t, []string{"chakra_spokes"}, failedChecks(report))
	assert.Equal(t, 16, report.ChakraSpokes.Detected)
}

func TestAnalyze_TinyImages(t *testing.T) {
	a := newTestAnalyzer(t)

	sizes := [][2]int{{1, 1}, {2, 2}, {3, 1}, {1, 7}, {15, 10}}
	for _, size := range sizes {
		img := testutil.NewFlag(size[0], size[1]).Build()
		report, err := a.Analyze(img)
		require.NoError(t, err, "%dx%d", size[0], size[1])

		assert.Equal(t, 8, report.TotalChecks)
		assert.GreaterOrEqual(t, report.PassedChecks, 0)
		assert.LessOrEqual(t, report.PassedChecks, report.TotalChecks)
	}
}

func TestAnalyze_EmptyBandFailsWithMaxDeviation(t *testing.T) {
	a := newTestAnalyzer(t)

	// height 2 gives two empty bands
	report, err := a.Analyze(testutil.NewFlag(3, 2).WithEmblem(testutil.EmblemNone).Build())
	require.NoError(t, err)

	assert.Equal(t, models.StatusFail, report.Colors.Saffron.Status)
	assert.Equal(t, "100.0%", report.Colors.Saffron.Deviation)
	assert.Equal(t, models.StatusFail, report.Colors.White.Status)
	assert.Equal(t, models.StatusFail, report.StripeProportion.Status)
	assert.Equal(t, models.StatusFail, report.OverallStatus)
}

func TestAnalyze_EmptyImage(t *testing.T) {
	a := newTestAnalyzer(t)

	_, err := a.Analyze(image.NewRGBA(image.Rect(0, 0, 0, 10)))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDecode))
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = a.Analyze(nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDecode))
}

func TestAnalyze_OffsetBounds(t *testing.T) {
	a := newTestAnalyzer(t)

	// the same pixels at a non-zero origin must give the same report
	full := testutil.NewFlag(1500, 1000).Build()
	shifted := image.NewRGBA(image.Rect(100, 100, 1600, 1100))
	draw.Draw(shifted, shifted.Bounds(), full, image.Point{}, draw.Src)

	fromShifted, err := a.Analyze(shifted)
	require.NoError(t, err)
	fromFull, err := a.Analyze(full)
	require.NoError(t, err)

	assert.Equal(t, fromFull, fromShifted)
}

func TestAnalyze_StripeProportionsMeasured(t *testing.T) {
	a := newTestAnalyzer(t)

	// 26/26/28 rows: the best a renderer can do is within a row per edge
	small, err := a.Analyze(testutil.NewFlag(120, 80).Build())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPass, small.StripeProportion.Status)
	assert.Equal(t, "0.35", small.StripeProportion.Bottom)

	// cropping 100px off the top and bottom leaves bands of 300/400/300 rows
	parent := testutil.NewFlag(1700, 1200).Build()
	cropped, err := a.Analyze(parent.SubImage(image.Rect(100, 100, 1600, 1100)))
	require.NoError(t, err)
	assert.Equal(t, models.StatusFail, cropped.StripeProportion.Status)
	assert.Equal(t, "0.30", cropped.StripeProportion.Top)
	assert.Equal(t, "0.40", cropped.StripeProportion.Middle)
	assert.Equal(t, "0.30", cropped.StripeProportion.Bottom)
	assert.Equal(t, models.StatusPass, cropped.AspectRatio.Status)
	assert.Equal(t, models.StatusPass, cropped.Colors.White.Status)
}

func TestAnalyze_EmblemColorThreshold(t *testing.T) {
	a := newTestAnalyzer(t)

	// every color here passes the dark-blue filter, so only the deviation decides
	tests := []struct {
		emblem    color.RGBA
		deviation string
		want      models.Status
	}{
		{color.RGBA{30, 30, 90, 255}, "12.9%", models.StatusPass},
		{color.RGBA{40, 40, 80, 255}, "16.8%", models.StatusFail},
		{color.RGBA{90, 90, 60, 255}, "32.7%", models.StatusFail},
	}
	for _, tt := range tests {
		report, err := a.Analyze(testutil.NewFlag(1500, 1000).WithEmblemColor(tt.emblem).Build())
		require.NoError(t, err)

		assert.Equal(t, tt.deviation, report.Colors.ChakraBlue.Deviation, "emblem %v", tt.emblem)
		assert.Equal(t, tt.want, report.Colors.ChakraBlue.Status, "emblem %v", tt.emblem)
		assert.Equal(t, models.StatusPass, report.ChakraPosition.Status, "emblem %v", tt.emblem)
		assert.Equal(t, 24, report.ChakraSpokes.Detected, "emblem %v", tt.emblem)
	}
}

func TestAnalyze_SpokesNeedResolution(t *testing.T) {
	a := newTestAnalyzer(t)

	for _, size := range [][2]int{{300, 200}, {450, 300}} {
		report, err := a.Analyze(testutil.NewFlag(size[0], size[1]).Build())
		require.NoError(t, err)

		assert.Equal(t, models.StatusFail, report.ChakraSpokes.Status, "%dx%d", size[0], size[1])
		assert.Equal(t, 0, report.ChakraSpokes.Detected, "%dx%d", size[0], size[1])
		assert.Equal(t, "emblem too small to resolve spokes", report.ChakraSpokes.Note)
		assert.Equal(t, models.StatusPass, report.ChakraPosition.Status)
	}

	report, err := a.Analyze(testutil.NewFlag(600, 400).Build())
	require.NoError(t, err)
	assert.Equal(t, 24, report.ChakraSpokes.Detected)
	assert.Empty(t, report.ChakraSpokes.Note)
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := newTestAnalyzer(t)
	img := testutil.NewFlag(1200, 800).Shifted(5, -3).Build()

	first, err := a.Analyze(img)
	require.NoError(t, err)
	second, err := a.Analyze(img)
	require.NoError(t, err)

	b1, err := json.Marshal(first)
	require.NoError(t, err)
	b2, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
}

func TestAnalyze_ConcurrentCallsDoNotInterfere(t *testing.T) {
	a := newTestAnalyzer(t)
	images := []image.Image{
		testutil.NewFlag(1500, 1000).Build(),
		testutil.NewFlag(1000, 1000).Build(),
		testutil.NewFlag(900, 600).Bands(testutil.Green, testutil.White, testutil.Saffron).Build(),
		testutil.NewFlag(600, 400).WithEmblem(testutil.EmblemNone).Build(),
	}

	want := make([]string, len(images))
	for i, img := range images {
		r, err := a.Analyze(img)
		require.NoError(t, err)
		b, _ := json.Marshal(r)
		want[i] = string(b)
	}

	var wg sync.WaitGroup
	got := make([][]string, 4)
	for w := range got {
		got[w] = make([]string, len(images))
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i, img := range images {
				r, err := a.Analyze(img)
				if err != nil {
					return
				}
				b, _ := json.Marshal(r)
				got[w][i] = string(b)
			}
		}(w)
	}
	wg.Wait()

	for w := range got {
		assert.Equal(t, want, got[w], "worker %d", w)
	}
}

func TestAnalyze_ReportJSONShape(t *testing.T) {
	a := newTestAnalyzer(t)

	report, err := a.Analyze(testutil.NewFlag(1500, 1000).Build())
	require.NoError(t, err)

	raw, err := json.Marshal(report)
	require.NoError(t, err)

	var shape map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &shape))

	for _, key := range []string{
		"aspect_ratio", "colors", "stripe_proportion", "chakra_position",
		"chakra_spokes", "overall_status", "total_checks", "passed_checks",
	} {
		assert.Contains(t, shape, key)
	}
	colors := shape["colors"].(map[string]interface{})
	for _, key := range []string{"saffron", "white", "green", "chakra_blue"} {
		require.Contains(t, colors, key)
		entry := colors[key].(map[string]interface{})
		assert.Len(t, entry, 2, "only status and deviation are serialized")
	}
	assert.Equal(t, "pass", shape["overall_status"])
}
