// Package testutil draws synthetic flag images for tests.
package testutil

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

var (
	Saffron = color.RGBA{255, 153, 51, 255}
	White   = color.RGBA{255, 255, 255, 255}
	Green   = color.RGBA{19, 136, 8, 255}
	Navy    = color.RGBA{0, 0, 128, 255}
)

// EmblemStyle selects what is drawn at the center of a synthetic flag
type EmblemStyle int

const (
	EmblemChakra EmblemStyle = iota
	EmblemDisc
	EmblemNone
)

// FlagBuilder draws synthetic tricolours with a configurable emblem
type FlagBuilder struct {
	width, height       int
	top, middle, bottom color.RGBA
	emblem              EmblemStyle
	emblemColor         color.RGBA
	spokes              int
	offsetX, offsetY    float64
}

// NewFlag starts a conforming 24-spoke tricolour of the given size
func NewFlag(width, height int) *FlagBuilder {
	return &FlagBuilder{
		width:       width,
		height:      height,
		top:         Saffron,
		middle:      White,
		bottom:      Green,
		emblem:      EmblemChakra,
		emblemColor: Navy,
		spokes:      24,
	}
}

// Bands replaces the three band colors, top to bottom
func (f *FlagBuilder) Bands(top, middle, bottom color.RGBA) *FlagBuilder {
	f.top, f.middle, f.bottom = top, middle, bottom
	return f
}

func (f *FlagBuilder) WithEmblem(style EmblemStyle) *FlagBuilder {
	f.emblem = style
	return f
}

// WithEmblemColor inks the emblem in c instead of navy
func (f *FlagBuilder) WithEmblemColor(c color.RGBA) *FlagBuilder {
	f.emblemColor = c
	return f
}

func (f *FlagBuilder) WithSpokes(n int) *FlagBuilder {
	f.spokes = n
	return f
}

// Shifted moves the emblem center by dx, dy pixels
func (f *FlagBuilder) Shifted(dx, dy float64) *FlagBuilder {
	f.offsetX, f.offsetY = dx, dy
	return f
}

func (f *FlagBuilder) Build() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	stripe := f.height / 3
	for y := 0; y < f.height; y++ {
		c := f.middle
		switch {
		case y < stripe:
			c = f.top
		case y >= 2*stripe:
			c = f.bottom
		}
		for x := 0; x < f.width; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	if f.emblem == EmblemNone {
		return img
	}

	cx := float64(f.width)/2 + f.offsetX
	cy := float64(f.height)/2 + f.offsetY
	radius := 0.9 * float64(min(f.width, f.height)) / 8
	if f.emblem == EmblemDisc {
		// a solid disc inks far more of the white band than a wheel does
		radius /= 2
	}
	period := 2 * math.Pi / float64(f.spokes)
	halfSpoke := 0.12 * period

	for y := int(cy - radius - 1); y <= int(cy+radius+1); y++ {
		for x := int(cx - radius - 1); x <= int(cx+radius+1); x++ {
			if x < 0 || y < 0 || x >= f.width || y >= f.height {
				continue
			}
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			d := math.Hypot(dx, dy)
			if d > radius {
				continue
			}
			if f.emblem == EmblemDisc || d >= 0.94*radius || d <= 0.1*radius {
				img.SetRGBA(x, y, f.emblemColor)
				continue
			}
			theta := math.Atan2(dy, dx)
			if theta < 0 {
				theta += 2 * math.Pi
			}
			off := math.Mod(theta, period)
			if off <= halfSpoke || period-off <= halfSpoke {
				img.SetRGBA(x, y, f.emblemColor)
			}
		}
	}
	return img
}

// Blend mixes a toward b by t in [0, 1]
func Blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x)*(1-t) + float64(y)*t))
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}

// WritePNG encodes img into dir/name and returns the path
func WritePNG(t testing.TB, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}
