package analyzer

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/flag-inspector-go/internal/logger"
	"github.com/anime-shed/flag-inspector-go/pkg/models"
)

const (
	// angularSamples per ring, half a degree apart
	angularSamples = 720
	// smoothingWindow is the width of the cyclic majority filter applied to
	// each ring so pixel-grid aliasing at spoke edges is not counted as a crossing
	smoothingWindow = 5
	// searchWindowScale widens the region of interest when estimating the rim radius
	searchWindowScale = 1.25
	// minRingRadius is the smallest ring in pixels that still resolves spokes
	minRingRadius = 2.0
	// minSpokeSpacing is the arc length in pixels between neighbouring
	// spokes on the innermost ring below which thin spokes alias together
	minSpokeSpacing = 4.5
)

// unresolvedSpokesNote marks a spoke count that was not measured
const unresolvedSpokesNote = "emblem too small to resolve spokes"


// ringFractions are the ring radii relative to the outer emblem radius.
// They sit between the hub and the rim, where only the spokes are inked.
var ringFractions = []float64{0.40, 0.475, 0.55, 0.625, 0.70}

// countSpokes measures the number of radial spokes around the emblem centroid
// by counting background→ink crossings on concentric rings. The result is
// the median over all rings, or 0 when no ring can be sampled.
//
// An emblem whose innermost ring leaves less than minSpokeSpacing pixels
// between the expected spokes is reported as unresolved. For the default
// design that is an outer radius under about 43px, or roughly a short side
// under 400px.
func (ca *coreAnalyzer) countSpokes(buf *PixelBuffer, region emblemRegion, c centroid) (int, bool) {
	outer := ca.outerRadius(buf, c, region.radius*searchWindowScale)

	spacing := 2 * math.Pi * outer * ringFractions[0] / float64(ca.spec.ExpectedSpokes)
	if spacing < minSpokeSpacing {
		logger.WithFields(logrus.Fields{
			"outer_radius":  outer,
			"spoke_spacing": spacing,
		}).Debug("Emblem too small to resolve spokes")
		return 0, false
	}

	counts := make([]int, 0, len(ringFractions))
	for _, f := range ringFractions {
		r := outer * f
		if r < minRingRadius {
			continue
		}
		counts = append(counts, ca.ringCrossings(buf, c, r))
	}
	if len(counts) == 0 {
		return 0, true
	}

	sort.Ints(counts)
	return counts[len(counts)/2], true
}

// outerRadius is the largest distance from c of an emblem pixel inside a
// square window of the given half-size.
func (ca *coreAnalyzer) outerRadius(buf *PixelBuffer, c centroid, window float64) float64 {
	filter := ca.spec.EmblemFilter
	startX := max(0, int(math.Floor(c.x-window)))
	startY := max(0, int(math.Floor(c.y-window)))
	endX := min(buf.Width, int(math.Ceil(c.x+window)))
	endY := min(buf.Height, int(math.Ceil(c.y+window)))

	var best float64
	for y := startY; y < endY; y++ {
		for x := startX; x < endX; x++ {
			if !filter.Matches(buf.RGB(x, y)) {
				continue
			}
			d := math.Hypot(float64(x)+0.5-c.x, float64(y)+0.5-c.y)
			if d <= window && d > best {
				best = d
			}
		}
	}
	return best
}

// ringCrossings counts cyclic transitions into emblem ink along one ring
func (ca *coreAnalyzer) ringCrossings(buf *PixelBuffer, c centroid, radius float64) int {
	filter := ca.spec.EmblemFilter
	ink := make([]bool, angularSamples)
	for i := range ink {
		theta := 2 * math.Pi * float64(i) / angularSamples
		x := int(math.Floor(c.x + radius*math.Cos(theta)))
		y := int(math.Floor(c.y + radius*math.Sin(theta)))
		ink[i] = buf.Contains(x, y) && filter.Matches(buf.RGB(x, y))
	}

	ink = majorityFilter(ink, smoothingWindow)

	crossings := 0
	for i := range ink {
		prev := ink[(i+len(ink)-1)%len(ink)]
		if !prev && ink[i] {
			crossings++
		}
	}
	return crossings
}

// majorityFilter smooths a cyclic sequence with an odd-sized window
func majorityFilter(in []bool, window int) []bool {
	n := len(in)
	half := window / 2
	out := make([]bool, n)
	for i := range in {
		votes := 0
		for k := -half; k <= half; k++ {
			if in[((i+k)%n+n)%n] {
				votes++
			}
		}
		out[i] = votes > half
	}
	return out
}

func (ca *coreAnalyzer) checkSpokes(detected int, resolved bool) models.SpokesResult {
	if !resolved {
		return models.SpokesResult{
			Status:   models.StatusFail,
			Expected: ca.spec.ExpectedSpokes,
			Note:     unresolvedSpokesNote,
		}
	}
	return models.SpokesResult{
		Status:   models.StatusOf(detected == ca.spec.ExpectedSpokes),
		Detected: detected,
		Expected: ca.spec.ExpectedSpokes,
	}
}
