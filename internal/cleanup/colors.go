package cleanup

import (
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/pixel-cleanup/internal/colormodel"
	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// Color reducer modes.
const (
	ColorAutoClean   = "auto-clean"
	ColorPaletteLock = "palette-lock"
	ColorQuantize    = "quantize"
)

// Distance metrics for colour comparison.
const (
	MetricLab = "lab"
	MetricRGB = "rgb"
)

// ColorOptions configures ReduceColorNoise.
type ColorOptions struct {
	// Mode is "auto-clean", "palette-lock" or "quantize". Default "auto-clean".
	Mode string `json:"mode,omitempty"`

	// Threshold is the auto-clean grouping distance: Delta-E with the lab
	// metric, RGB Euclidean distance with the rgb metric. Zero selects the
	// default of 10; a small positive value such as 0.001 merges only
	// colours that are effectively identical.
	Threshold float64 `json:"threshold,omitempty"`

	// Metric is "lab" (Delta-E) or "rgb". Default "lab". Applies to
	// auto-clean and palette-lock; quantize always clusters in L*a*b*.
	Metric string `json:"metric,omitempty"`

	// Palette is required for palette-lock.
	Palette colormodel.Palette `json:"palette,omitempty"`

	// Colors is the number of k-means clusters for quantize. Default 8.
	Colors int `json:"colors,omitempty"`

	// Seed drives k-means centroid seeding. Default 1.
	Seed int64 `json:"seed,omitempty"`

	// MaxIterations bounds k-means. Default 20.
	MaxIterations int `json:"max_iterations,omitempty"`

	// Progress receives per-iteration quantize progress. Optional.
	Progress raster.ProgressFunc `json:"-"`
}

func (o ColorOptions) withDefaults() ColorOptions {
	if o.Mode == "" {
		o.Mode = ColorAutoClean
	}
	if o.Threshold == 0 {
		o.Threshold = 10
	}
	if o.Metric == "" {
		o.Metric = MetricLab
	}
	if o.Colors == 0 {
		o.Colors = 8
	}
	if o.Seed == 0 {
		o.Seed = 1
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = 20
	}
	return o
}

// ReduceColorNoise removes colour noise from src.
//
// Auto-clean groups near-identical opaque colours and replaces every group
// with its count-weighted average. Palette-lock replaces every visible
// pixel (alpha > 0) with the nearest palette colour. Quantize clusters the
// opaque colours with k-means in L*a*b* and maps visible pixels to their
// nearest centroid. Alpha is preserved in every mode.
func ReduceColorNoise(src *raster.Buffer, opts ColorOptions) (*raster.Buffer, error) {
	opts = opts.withDefaults()
	if opts.Metric != MetricLab && opts.Metric != MetricRGB {
		return nil, fmt.Errorf("%w: color metric %q", ErrUnknownMode, opts.Metric)
	}

	switch opts.Mode {
	case ColorAutoClean:
		if opts.Threshold < 0 {
			return nil, fmt.Errorf("%w: negative color threshold %v", ErrInvalidOption, opts.Threshold)
		}
		return autoClean(src, opts), nil
	case ColorPaletteLock:
		if len(opts.Palette) == 0 {
			return nil, fmt.Errorf("%w: palette-lock requires a palette", ErrMissingOption)
		}
		return paletteLock(src, opts.Palette, opts.Metric == MetricLab), nil
	case ColorQuantize:
		if opts.Colors < 1 {
			return nil, fmt.Errorf("%w: quantize needs at least one color, got %d", ErrInvalidOption, opts.Colors)
		}
		return quantize(src, opts), nil
	default:
		return nil, fmt.Errorf("%w: color reducer mode %q", ErrUnknownMode, opts.Mode)
	}
}

// autoClean performs greedy single-link grouping: colours are visited by
// descending count, each unassigned colour seeds a group, and the group
// absorbs every unassigned colour within the threshold of any member.
func autoClean(src *raster.Buffer, opts ColorOptions) *raster.Buffer {
	unique := colormodel.ExtractUniqueColors(src)
	labs := make([]colormodel.Lab, len(unique))
	for i, u := range unique {
		labs[i] = colormodel.ColorToLab(u.Color)
	}

	distance := func(i, j int) float64 {
		if opts.Metric == MetricRGB {
			return colormodel.RGBDistance(unique[i].Color, unique[j].Color)
		}
		return colormodel.DeltaE(labs[i], labs[j])
	}

	group := make([]int, len(unique))
	for i := range group {
		group[i] = -1
	}

	replacement := make(map[raster.Color]raster.Color, len(unique))
	groups := 0
	for seed := range unique {
		if group[seed] >= 0 {
			continue
		}
		id := groups
		groups++
		group[seed] = id
		members := []int{seed}
		for k := 0; k < len(members); k++ {
			m := members[k]
			for j := range unique {
				if group[j] >= 0 {
					continue
				}
				if distance(m, j) <= opts.Threshold {
					group[j] = id
					members = append(members, j)
				}
			}
		}

		var sumR, sumG, sumB, total float64
		for _, m := range members {
			n := float64(unique[m].Count)
			sumR += float64(unique[m].Color.R) * n
			sumG += float64(unique[m].Color.G) * n
			sumB += float64(unique[m].Color.B) * n
			total += n
		}
		avg := raster.Color{
			R: uint8(math.Round(sumR / total)),
			G: uint8(math.Round(sumG / total)),
			B: uint8(math.Round(sumB / total)),
		}
		for _, m := range members {
			replacement[unique[m].Color] = avg
		}
	}

	out := src.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i+3] < 128 {
			continue
		}
		c := raster.Color{R: out.Pix[i], G: out.Pix[i+1], B: out.Pix[i+2], A: out.Pix[i+3]}
		r, ok := replacement[c]
		if !ok {
			continue
		}
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = r.R, r.G, r.B
	}
	return out
}

// paletteLock maps every visible pixel to its nearest palette colour. Rows
// are independent, so they are processed in parallel.
func paletteLock(src *raster.Buffer, palette colormodel.Palette, useLab bool) *raster.Buffer {
	out := src.Clone()
	w := src.Width

	parallel.Line(src.Height, func(start, end int) {
		cache := make(map[raster.Color]raster.Color)
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				if out.Pix[i+3] == 0 {
					continue
				}
				c := raster.Color{R: out.Pix[i], G: out.Pix[i+1], B: out.Pix[i+2]}
				p, ok := cache[c]
				if !ok {
					p = palette[colormodel.FindNearestPaletteColor(c, palette, useLab).Index]
					cache[c] = p
				}
				out.Pix[i], out.Pix[i+1], out.Pix[i+2] = p.R, p.G, p.B
			}
		}
	})
	return out
}
