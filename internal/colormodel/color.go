// Package colormodel provides perceptual colour conversion and comparison
// for the cleanup operations.
//
// Conversions follow sRGB with the D65 white point. Perceptual distance is
// CIE76 Delta-E: the Euclidean distance between two colours in L*a*b*.
// A Delta-E below roughly 2.3 is a "just noticeable difference".
package colormodel

import (
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// Lab is a colour in CIE L*a*b* space (D65).
//
// L ranges from 0 (black) to 100 (white); A and B are roughly -128..127.
type Lab struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// RGBToLab converts an 8-bit sRGB colour to L*a*b*.
//
// The conversion linearises each channel (piecewise, threshold 0.04045,
// exponent 2.4), maps to XYZ with the D65 matrix and applies the cube-root
// (threshold 0.008856) or linear segment. go-colorful reports L in 0..1,
// so the result is scaled by 100 to the conventional range.
func RGBToLab(r, g, b uint8) Lab {
	c := colorful.Color{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
	l, a, bb := c.Lab()
	return Lab{L: l * 100, A: a * 100, B: bb * 100}
}

// ColorToLab converts the RGB channels of c, ignoring alpha.
func ColorToLab(c raster.Color) Lab {
	return RGBToLab(c.R, c.G, c.B)
}

// LabToRGB converts back to sRGB, clamping out-of-gamut values. The
// returned colour is fully opaque.
func LabToRGB(lab Lab) raster.Color {
	c := colorful.Lab(lab.L/100, lab.A/100, lab.B/100).Clamped()
	r, g, b := c.RGB255()
	return raster.Color{R: r, G: g, B: b, A: 255}
}

// DeltaE returns the CIE76 distance between two L*a*b* colours.
func DeltaE(c1, c2 Lab) float64 {
	dl := c1.L - c2.L
	da := c1.A - c2.A
	db := c1.B - c2.B
	return math.Sqrt(dl*dl + da*da + db*db)
}

// DeltaERGB converts both colours to L*a*b* and returns their Delta-E.
func DeltaERGB(c1, c2 raster.Color) float64 {
	return DeltaE(ColorToLab(c1), ColorToLab(c2))
}

// RGBDistance is the Euclidean distance between the RGB channels.
// Cheaper than DeltaERGB but not perceptually uniform.
func RGBDistance(c1, c2 raster.Color) float64 {
	dr := float64(c1.R) - float64(c2.R)
	dg := float64(c1.G) - float64(c2.G)
	db := float64(c1.B) - float64(c2.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// RGBManhattanDistance is the sum of absolute channel differences.
func RGBManhattanDistance(c1, c2 raster.Color) int {
	return absDiff(c1.R, c2.R) + absDiff(c1.G, c2.G) + absDiff(c1.B, c2.B)
}

// Palette is an ordered, index-addressable list of colours. The order is
// chosen by the caller and never sorted here.
type Palette []raster.Color

// Match is the result of a nearest-palette lookup.
type Match struct {
	Index    int     `json:"index"`    // Palette index, -1 for an empty palette
	Distance float64 `json:"distance"` // Delta-E or RGB distance to the match
}

// FindNearestPaletteColor scans palette linearly for the colour closest to
// c. With useLab the comparison is Delta-E, otherwise RGB Euclidean
// distance. Ties go to the lowest index.
func FindNearestPaletteColor(c raster.Color, palette Palette, useLab bool) Match {
	best := Match{Index: -1, Distance: math.Inf(1)}
	var lab Lab
	if useLab {
		lab = ColorToLab(c)
	}
	for i, p := range palette {
		var d float64
		if useLab {
			d = DeltaE(lab, ColorToLab(p))
		} else {
			d = RGBDistance(c, p)
		}
		if d < best.Distance {
			best = Match{Index: i, Distance: d}
		}
	}
	return best
}

// ColorCount is a colour together with its number of occurrences.
type ColorCount struct {
	Color raster.Color `json:"color"`
	Count int          `json:"count"`
}

// ExtractUniqueColors histograms the opaque samples (alpha >= 128) of buf.
// Semi-transparent samples are edge pixels, not fills, and are excluded.
//
// The result is sorted by count, most frequent first; colours with equal
// counts keep the order in which they first appear in a row-major scan.
func ExtractUniqueColors(buf *raster.Buffer) []ColorCount {
	index := make(map[raster.Color]int)
	colors := make([]ColorCount, 0)

	for i := 0; i < len(buf.Pix); i += 4 {
		if buf.Pix[i+3] < 128 {
			continue
		}
		c := raster.Color{R: buf.Pix[i], G: buf.Pix[i+1], B: buf.Pix[i+2], A: buf.Pix[i+3]}
		if idx, ok := index[c]; ok {
			colors[idx].Count++
			continue
		}
		index[c] = len(colors)
		colors = append(colors, ColorCount{Color: c, Count: 1})
	}

	sort.SliceStable(colors, func(i, j int) bool {
		return colors[i].Count > colors[j].Count
	})
	return colors
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
