package analyzer

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/anime-shed/flag-inspector-go/pkg/models"
)

// emblemRegion is the circular region of interest around the image center
type emblemRegion struct {
	centerX, centerY int
	radius           float64
}

func (ca *coreAnalyzer) emblemRegion(buf *PixelBuffer) emblemRegion {
	return emblemRegion{
		centerX: buf.Width / 2,
		centerY: buf.Height / 2,
		radius:  float64(min(buf.Width, buf.Height)) / ca.spec.EmblemRadiusDivisor,
	}
}

// sampleEmblemColor averages the filtered pixels of a stride grid laid over
// the bounding square of the region.
func (ca *coreAnalyzer) sampleEmblemColor(buf *PixelBuffer, region emblemRegion) (models.ColorResult, error) {
	samples := acquireSamples()
	defer releaseSamples(samples)

	step := ca.spec.EmblemStride
	filter := ca.spec.EmblemFilter
	startY := int(math.Ceil(float64(region.centerY) - region.radius))
	startX := int(math.Ceil(float64(region.centerX) - region.radius))
	endY := float64(region.centerY) + region.radius
	endX := float64(region.centerX) + region.radius

	for y := startY; float64(y) < endY; y += step {
		for x := startX; float64(x) < endX; x += step {
			if !buf.Contains(x, y) {
				continue
			}
			r, g, b := buf.RGB(x, y)
			if filter.Matches(r, g, b) {
				samples.add(r, g, b)
			}
		}
	}

	return scoreColor(samples, ca.spec.Emblem, ca.spec.EmblemTolerance)
}

// centroid is a point in pixel-center coordinates (pixel x covers [x, x+1))
type centroid struct {
	x, y float64
}

// emblemCentroid locates the center of mass of emblem-colored pixels over the
// whole image on the emblem stride grid.
func (ca *coreAnalyzer) emblemCentroid(buf *PixelBuffer) (centroid, error) {
	step := ca.spec.EmblemStride
	filter := ca.spec.EmblemFilter
	var xs, ys []float64

	for y := 0; y < buf.Height; y += step {
		for x := 0; x < buf.Width; x += step {
			if filter.Matches(buf.RGB(x, y)) {
				xs = append(xs, float64(x)+0.5)
				ys = append(ys, float64(y)+0.5)
			}
		}
	}

	if len(xs) == 0 {
		return centroid{}, ErrDegenerateSample
	}
	return centroid{x: stat.Mean(xs, nil), y: stat.Mean(ys, nil)}, nil
}

func (ca *coreAnalyzer) checkPosition(buf *PixelBuffer, c centroid, err error) models.PositionResult {
	if err != nil {
		return models.PositionResult{Status: models.StatusFail, OffsetX: "n/a", OffsetY: "n/a"}
	}

	dx := c.x - float64(buf.Width)/2
	dy := c.y - float64(buf.Height)/2
	ok := math.Abs(dx) <= float64(buf.Width)*ca.spec.PositionTolerance &&
		math.Abs(dy) <= float64(buf.Height)*ca.spec.PositionTolerance

	return models.PositionResult{
		Status:  models.StatusOf(ok),
		OffsetX: formatPixels(dx),
		OffsetY: formatPixels(dy),
	}
}
