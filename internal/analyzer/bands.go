package analyzer

import (
	"github.com/anime-shed/flag-inspector-go/pkg/models"
)

// sampleBand averages every BandRowStride-th row and BandColumnStride-th column
// of the band. The grid is fixed, so repeated runs see the same pixels.
func (ca *coreAnalyzer) sampleBand(buf *PixelBuffer, b band, ref RGB) (models.ColorResult, error) {
	samples := acquireSamples()
	defer releaseSamples(samples)

	for y := b.startY; y < b.endY; y += ca.spec.BandRowStride {
		for x := 0; x < buf.Width; x += ca.spec.BandColumnStride {
			samples.add(buf.RGB(x, y))
		}
	}

	return scoreColor(samples, ref, ca.spec.BandTolerance)
}
