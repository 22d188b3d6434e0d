package analyzer

import (
	"fmt"
	"math"

	"github.com/anime-shed/flag-inspector-go/pkg/models"
)

// band is a half-open row range [startY, endY)
type band struct {
	startY, endY int
}

func (b band) height() int {
	return b.endY - b.startY
}

// splitBands partitions the height into three contiguous bands.
// The bottom band absorbs the remainder of height/3.
func splitBands(height int) [3]band {
	stripe := height / 3
	return [3]band{
		{0, stripe},
		{stripe, stripe * 2},
		{stripe * 2, height},
	}
}

func checkAspectRatio(width, height int, spec FlagSpec) models.AspectRatioResult {
	actual := float64(width) / float64(height)
	return models.AspectRatioResult{
		Status:   models.StatusOf(math.Abs(actual-spec.ExpectedRatio) <= spec.ExpectedRatio*spec.RatioTolerance),
		Actual:   formatRatio(actual),
		Expected: expectedRatioLabel(spec.ExpectedRatio),
	}
}

// expectedRatioLabel renders 1.5 as "1.50 (3:2)"
func expectedRatioLabel(ratio float64) string {
	for den := 1; den <= 10; den++ {
		num := ratio * float64(den)
		if math.Abs(num-math.Round(num)) < 1e-9 {
			return fmt.Sprintf("%s (%d:%d)", formatRatio(ratio), int(math.Round(num)), den)
		}
	}
	return formatRatio(ratio)
}

// stripeColumns are the sample columns for stripe measurement, as fractions
// of the width. They stay clear of the centered emblem.
var stripeColumns = [2]float64{0.1, 0.9}

// measureStripes assigns each row to the band color nearest to its pixels in
// the sample columns and returns the row count per band, top to bottom.
func measureStripes(buf *PixelBuffer, spec FlagSpec) [3]int {
	refs := [3]RGB{spec.Saffron, spec.White, spec.Green}
	var columns [2]int
	for i, f := range stripeColumns {
		columns[i] = min(buf.Width-1, int(f*float64(buf.Width)))
	}

	var rows [3]int
	for y := 0; y < buf.Height; y++ {
		var dist [3]float64
		for _, x := range columns {
			r, g, b := buf.RGB(x, y)
			px := [3]float64{float64(r), float64(g), float64(b)}
			for i, ref := range refs {
				dist[i] += colorDeviation(px, ref)
			}
		}
		nearest := 0
		for i := 1; i < len(dist); i++ {
			if dist[i] < dist[nearest] {
				nearest = i
			}
		}
		rows[nearest]++
	}
	return rows
}

// checkStripeProportions compares the measured share of each band with 1/3.
// On top of the configured tolerance each band may be off by two rows, one
// per edge, since no integer split of the height is exact.
func checkStripeProportions(rows [3]int, height int, spec FlagSpec) models.StripeProportionResult {
	tolerance := spec.StripeTolerance + 2/float64(height)
	ok := true
	var fractions [3]float64
	for i, n := range rows {
		fractions[i] = float64(n) / float64(height)
		if math.Abs(fractions[i]-1.0/3.0) > tolerance {
			ok = false
		}
	}
	return models.StripeProportionResult{
		Status: models.StatusOf(ok),
		Top:    formatRatio(fractions[0]),
		Middle: formatRatio(fractions[1]),
		Bottom: formatRatio(fractions[2]),
	}
}
