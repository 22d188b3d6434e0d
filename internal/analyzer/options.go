package analyzer

import (
	"fmt"
	"math"
)

// RGB is a reference color with 8-bit channels
type RGB [3]uint8

// EmblemFilter is the coarse "looks dark blue" test used to isolate emblem ink
// from the surrounding white band.
type EmblemFilter struct {
	MaxRed   uint8 `mapstructure:"max_red" yaml:"max_red"`
	MaxGreen uint8 `mapstructure:"max_green" yaml:"max_green"`
	MinBlue  uint8 `mapstructure:"min_blue" yaml:"min_blue"`
}

// Matches reports whether a pixel passes the filter
func (f EmblemFilter) Matches(r, g, b uint8) bool {
	return r < f.MaxRed && g < f.MaxGreen && b > f.MinBlue
}

// FlagSpec holds the geometry and color constants of the reference design
// together with the sampling parameters of every check.
type FlagSpec struct {
	// Aspect ratio
	ExpectedRatio  float64 `mapstructure:"expected_ratio" yaml:"expected_ratio"`
	RatioTolerance float64 `mapstructure:"ratio_tolerance" yaml:"ratio_tolerance"` // relative

	// Reference colors
	Saffron RGB `mapstructure:"saffron" yaml:"saffron"`
	White   RGB `mapstructure:"white" yaml:"white"`
	Green   RGB `mapstructure:"green" yaml:"green"`
	Emblem  RGB `mapstructure:"emblem" yaml:"emblem"`

	// Deviation thresholds, in percent of the maximum RGB distance
	BandTolerance   float64 `mapstructure:"band_tolerance" yaml:"band_tolerance"`
	EmblemTolerance float64 `mapstructure:"emblem_tolerance" yaml:"emblem_tolerance"`

	// Stride sampling
	BandRowStride    int `mapstructure:"band_row_stride" yaml:"band_row_stride"`
	BandColumnStride int `mapstructure:"band_column_stride" yaml:"band_column_stride"`
	EmblemStride     int `mapstructure:"emblem_stride" yaml:"emblem_stride"`

	// Emblem geometry
	EmblemRadiusDivisor float64      `mapstructure:"emblem_radius_divisor" yaml:"emblem_radius_divisor"`
	EmblemFilter        EmblemFilter `mapstructure:"emblem_filter" yaml:"emblem_filter"`
	PositionTolerance   float64      `mapstructure:"position_tolerance" yaml:"position_tolerance"` // fraction of width/height
	ExpectedSpokes      int          `mapstructure:"expected_spokes" yaml:"expected_spokes"`

	// Stripe proportions, absolute tolerance around 1/3
	StripeTolerance float64 `mapstructure:"stripe_tolerance" yaml:"stripe_tolerance"`
}

// DefaultFlagSpec returns the published design of the Indian national flag
func DefaultFlagSpec() FlagSpec {
	return FlagSpec{
		ExpectedRatio:       3.0 / 2.0,
		RatioTolerance:      0.01,
		Saffron:             RGB{255, 153, 51},
		White:               RGB{255, 255, 255},
		Green:               RGB{19, 136, 8},
		Emblem:              RGB{0, 0, 128},
		BandTolerance:       5.0,
		EmblemTolerance:     15.0,
		BandRowStride:       5,
		BandColumnStride:    10,
		EmblemStride:        3,
		EmblemRadiusDivisor: 8,
		EmblemFilter:        EmblemFilter{MaxRed: 100, MaxGreen: 100, MinBlue: 50},
		PositionTolerance:   0.02,
		ExpectedSpokes:      24,
		StripeTolerance:     0.01,
	}
}

// Validate rejects specs that would make sampling or scoring meaningless
func (s FlagSpec) Validate() error {
	switch {
	case s.ExpectedRatio <= 0 || math.IsNaN(s.ExpectedRatio):
		return fmt.Errorf("expected_ratio must be > 0 (got %v)", s.ExpectedRatio)
	case s.RatioTolerance < 0:
		return fmt.Errorf("ratio_tolerance must be >= 0 (got %v)", s.RatioTolerance)
	case s.BandTolerance < 0 || s.EmblemTolerance < 0:
		return fmt.Errorf("color tolerances must be >= 0 (got band=%v, emblem=%v)", s.BandTolerance, s.EmblemTolerance)
	case s.BandRowStride <= 0 || s.BandColumnStride <= 0 || s.EmblemStride <= 0:
		return fmt.Errorf("strides must be > 0 (got rows=%d, columns=%d, emblem=%d)",
			s.BandRowStride, s.BandColumnStride, s.EmblemStride)
	case s.EmblemRadiusDivisor <= 0:
		return fmt.Errorf("emblem_radius_divisor must be > 0 (got %v)", s.EmblemRadiusDivisor)
	case s.PositionTolerance < 0 || s.StripeTolerance < 0:
		return fmt.Errorf("position and stripe tolerances must be >= 0")
	case s.ExpectedSpokes <= 0:
		return fmt.Errorf("expected_spokes must be > 0 (got %d)", s.ExpectedSpokes)
	}
	return nil
}

// WithBandTolerance returns a copy with a different band deviation threshold
func (s FlagSpec) WithBandTolerance(pct float64) FlagSpec {
	s.BandTolerance = pct
	return s
}

// WithEmblemTolerance returns a copy with a different emblem deviation threshold
func (s FlagSpec) WithEmblemTolerance(pct float64) FlagSpec {
	s.EmblemTolerance = pct
	return s
}

// WithRatioTolerance returns a copy with a different relative aspect ratio tolerance
func (s FlagSpec) WithRatioTolerance(tolerance float64) FlagSpec {
	s.RatioTolerance = tolerance
	return s
}

// WithPositionTolerance returns a copy with a different emblem position tolerance
func (s FlagSpec) WithPositionTolerance(fraction float64) FlagSpec {
	s.PositionTolerance = fraction
	return s
}
