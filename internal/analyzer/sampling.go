package analyzer

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/anime-shed/flag-inspector-go/pkg/models"
)

// ErrDegenerateSample marks a sampling region that yielded no pixels.
// It never leaves the analyzer: the affected check is reported as failed.
var ErrDegenerateSample = errors.New("sampling region yielded no pixels")

// maxRGBDistance is the Euclidean distance between black and white
var maxRGBDistance = math.Sqrt(255 * 255 * 3)

// channelSamples accumulates sampled channel values for averaging
type channelSamples struct {
	r, g, b []float64
}

func (s *channelSamples) add(r, g, b uint8) {
	s.r = append(s.r, float64(r))
	s.g = append(s.g, float64(g))
	s.b = append(s.b, float64(b))
}

func (s *channelSamples) len() int {
	return len(s.r)
}

// mean returns the per-channel average or ErrDegenerateSample when empty
func (s *channelSamples) mean() ([3]float64, error) {
	if s.len() == 0 {
		return [3]float64{}, ErrDegenerateSample
	}
	return [3]float64{
		stat.Mean(s.r, nil),
		stat.Mean(s.g, nil),
		stat.Mean(s.b, nil),
	}, nil
}

var samplesPool = sync.Pool{
	New: func() interface{} {
		return &channelSamples{
			r: make([]float64, 0, 1024),
			g: make([]float64, 0, 1024),
			b: make([]float64, 0, 1024),
		}
	},
}

func acquireSamples() *channelSamples {
	s := samplesPool.Get().(*channelSamples)
	s.r, s.g, s.b = s.r[:0], s.g[:0], s.b[:0]
	return s
}

func releaseSamples(s *channelSamples) {
	samplesPool.Put(s)
}

// colorDeviation is the distance between avg and ref as a percentage of maxRGBDistance
func colorDeviation(avg [3]float64, ref RGB) float64 {
	dr := avg[0] - float64(ref[0])
	dg := avg[1] - float64(ref[1])
	db := avg[2] - float64(ref[2])
	return math.Sqrt(dr*dr+dg*dg+db*db) / maxRGBDistance * 100
}

// scoreColor turns sampled channels into a ColorResult against ref
func scoreColor(samples *channelSamples, ref RGB, tolerance float64) (models.ColorResult, error) {
	avg, err := samples.mean()
	if err != nil {
		return degenerateColorResult(), err
	}
	deviation := colorDeviation(avg, ref)
	return models.ColorResult{
		Status:       models.StatusOf(deviation <= tolerance),
		Deviation:    formatPercent(deviation),
		DeviationPct: deviation,
		SampleCount:  samples.len(),
	}, nil
}

// degenerateColorResult is the failing result for an empty sampling region
func degenerateColorResult() models.ColorResult {
	return models.ColorResult{
		Status:       models.StatusFail,
		Deviation:    formatPercent(100),
		DeviationPct: 100,
	}
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func formatRatio(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatPixels(v float64) string {
	return fmt.Sprintf("%dpx", int(math.Round(v)))
}
