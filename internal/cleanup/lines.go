package cleanup

import (
	"fmt"
	"math"

	"github.com/ironsheep/pixel-cleanup/internal/morphology"
	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// LineOptions configures NormalizeLines.
type LineOptions struct {
	// TargetWidth is the desired stroke width in pixels. Default 1.
	TargetWidth int `json:"target_width,omitempty"`

	// Predicate selects foreground pixels. Default alpha >= 128.
	Predicate raster.Predicate `json:"-"`
}

func (o LineOptions) withDefaults() LineOptions {
	if o.TargetWidth == 0 {
		o.TargetWidth = 1
	}
	o.Predicate = raster.OrDefault(o.Predicate)
	return o
}

// NormalizeLines evens out stroke thickness along the skeleton.
//
// The local thickness at each skeleton pixel is twice its distance to the
// background. Where it exceeds TargetWidth, foreground pixels between the
// target radius and the local radius around that skeleton pixel are
// marked for erosion. Where it falls short, background pixels within the
// target radius are marked for painting with the skeleton pixel's colour.
//
// Marks are collected from every skeleton pixel before anything is
// written. A pixel inside the target radius of any skeleton pixel is never
// eroded, and a painted pixel takes the colour of the first skeleton pixel
// in row-major order that claimed it, so the result does not depend on the
// order in which overlapping neighbourhoods are visited.
func NormalizeLines(src *raster.Buffer, opts LineOptions) (*raster.Buffer, error) {
	opts = opts.withDefaults()
	if opts.TargetWidth < 1 {
		return nil, fmt.Errorf("%w: target width %d", ErrInvalidOption, opts.TargetWidth)
	}

	w, h := src.Width, src.Height
	skeleton := morphology.SkeletonMask(src, opts.Predicate)
	dist := morphology.DistanceTransform(src, opts.Predicate)

	target := float64(opts.TargetWidth)
	keepRadius := (target - 1) / 2

	protect := make([]bool, w*h)
	erode := make([]bool, w*h)
	claim := make([]int, w*h)
	for i := range claim {
		claim[i] = -1
	}

	for i, on := range skeleton {
		if !on {
			continue
		}
		sx, sy := i%w, i/w
		thickness := 2 * dist[i]

		forDisk(w, h, sx, sy, keepRadius, func(j int, _ float64) {
			protect[j] = true
		})

		switch {
		case thickness > target:
			outer := math.Ceil(dist[i])
			forDisk(w, h, sx, sy, outer, func(j int, d float64) {
				if d > keepRadius {
					erode[j] = true
				}
			})
		case thickness < target:
			forDisk(w, h, sx, sy, keepRadius, func(j int, _ float64) {
				if claim[j] < 0 {
					claim[j] = i
				}
			})
		}
	}

	out := src.Clone()
	for j := 0; j < w*h; j++ {
		x, y := j%w, j/w
		fg := src.IsForeground(x, y, opts.Predicate)
		switch {
		case erode[j] && !protect[j] && fg:
			out.Clear(x, y)
		case claim[j] >= 0 && !fg:
			s := claim[j]
			out.Set(x, y, src.At(s%w, s/w))
		}
	}
	return out, nil
}

// forDisk calls fn for every in-bounds pixel whose Euclidean distance from
// (cx, cy) is at most radius.
func forDisk(w, h, cx, cy int, radius float64, fn func(idx int, d float64)) {
	r := int(math.Ceil(radius))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			x, y := cx+dx, cy+dy
			if x < 0 || y < 0 || x >= w || y >= h {
				continue
			}
			d := math.Hypot(float64(dx), float64(dy))
			if d <= radius {
				fn(y*w+x, d)
			}
		}
	}
}
