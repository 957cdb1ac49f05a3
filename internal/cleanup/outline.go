package cleanup

import (
	"fmt"
	"math"

	"github.com/ironsheep/pixel-cleanup/internal/contour"
	"github.com/ironsheep/pixel-cleanup/internal/morphology"
	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// OutlineOptions configures PerfectOutline. Every stage is off unless
// enabled; with no stage enabled the result is a copy of the input.
type OutlineOptions struct {
	CloseGaps bool `json:"close_gaps,omitempty"`
	// MaxGapSize is the widest gap, in pixels, that closing bridges. Default 2.
	MaxGapSize int `json:"max_gap_size,omitempty"`

	StraightenLines bool `json:"straighten_lines,omitempty"`
	// SnapAngles are the allowed line directions in degrees, modulo 180.
	// Default 0, 45, 90, 135.
	SnapAngles []float64 `json:"snap_angles,omitempty"`
	// SnapTolerance is the largest deviation in degrees that is snapped.
	// Zero selects the default of 10; a small positive value such as 0.001
	// snaps nothing.
	SnapTolerance float64 `json:"snap_tolerance,omitempty"`
	// SegmentLength is the number of contour steps per straightened
	// segment. Default 4.
	SegmentLength int `json:"segment_length,omitempty"`

	SmoothCurves bool `json:"smooth_curves,omitempty"`
	// SmoothStrength (1-100) scales the moving-average window. Default 50.
	SmoothStrength int `json:"smooth_strength,omitempty"`

	SharpenCorners bool `json:"sharpen_corners,omitempty"`
	// CornerThreshold in degrees. Default 30.
	CornerThreshold float64 `json:"corner_threshold,omitempty"`

	// Predicate selects foreground pixels. Default alpha >= 128.
	Predicate raster.Predicate `json:"-"`
}

func (o OutlineOptions) withDefaults() OutlineOptions {
	if o.MaxGapSize == 0 {
		o.MaxGapSize = 2
	}
	if len(o.SnapAngles) == 0 {
		o.SnapAngles = []float64{0, 45, 90, 135}
	}
	if o.SnapTolerance == 0 {
		o.SnapTolerance = 10
	}
	if o.SegmentLength == 0 {
		o.SegmentLength = 4
	}
	if o.SmoothStrength == 0 {
		o.SmoothStrength = 50
	}
	if o.CornerThreshold == 0 {
		o.CornerThreshold = 30
	}
	o.Predicate = raster.OrDefault(o.Predicate)
	return o
}

func (o OutlineOptions) validate() error {
	switch {
	case o.MaxGapSize < 1:
		return fmt.Errorf("%w: max gap size %d", ErrInvalidOption, o.MaxGapSize)
	case o.SegmentLength < 2:
		return fmt.Errorf("%w: segment length %d", ErrInvalidOption, o.SegmentLength)
	case o.SmoothStrength < 1 || o.SmoothStrength > 100:
		return fmt.Errorf("%w: smooth strength %d outside 1-100", ErrInvalidOption, o.SmoothStrength)
	case o.CornerThreshold <= 0 || o.CornerThreshold >= 90:
		return fmt.Errorf("%w: corner threshold %.1f outside (0,90)", ErrInvalidOption, o.CornerThreshold)
	case o.SnapTolerance < 0:
		return fmt.Errorf("%w: snap tolerance %.1f", ErrInvalidOption, o.SnapTolerance)
	}
	return nil
}

// PerfectOutline repairs shape outlines. Enabled stages run in the order
// close gaps, straighten, smooth, sharpen; each stage traces contours
// afresh from the previous stage's output.
func PerfectOutline(src *raster.Buffer, opts OutlineOptions) (*raster.Buffer, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	out := src.Clone()
	if opts.CloseGaps {
		k := opts.MaxGapSize + 1
		if k%2 == 0 {
			k++
		}
		closed, err := morphology.Close(out, k, opts.Predicate)
		if err != nil {
			return nil, err
		}
		out = closed
	}
	if opts.StraightenLines {
		out = straighten(out, opts)
	}
	if opts.SmoothCurves {
		out = smoothContours(out, opts)
	}
	if opts.SharpenCorners {
		out = sharpenCorners(out, opts)
	}
	return out, nil
}

func traceShapes(buf *raster.Buffer, pred raster.Predicate) []contour.Contour {
	edges := contour.MaskEdges(buf.Mask(pred), buf.Width, buf.Height)
	return contour.FindAll(edges, buf.Width, buf.Height)
}

// straighten walks each contour in segments of SegmentLength steps. A
// segment whose direction lies within SnapTolerance of a snap angle (but
// not exactly on it) is redrawn as a straight run along that angle. Its
// interior points that fall off the run are cleared only where they belong
// to a one-pixel stroke, so filled shapes never lose body pixels.
func straighten(buf *raster.Buffer, opts OutlineOptions) *raster.Buffer {
	out := buf.Clone()
	step := opts.SegmentLength

	for _, c := range traceShapes(buf, opts.Predicate) {
		pts := c.Points
		for i := 0; i+step < len(pts); i += step {
			a, b := pts[i], pts[i+step]
			dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
			if dx == 0 && dy == 0 {
				continue
			}
			angle := math.Mod(math.Atan2(dy, dx)*180/math.Pi+180, 180)
			snap, diff := nearestAngle(angle, opts.SnapAngles)
			if diff < 1e-9 || diff > opts.SnapTolerance {
				continue
			}

			rad := snap * math.Pi / 180
			ux, uy := math.Cos(rad), math.Sin(rad)
			if ux*dx+uy*dy < 0 {
				ux, uy = -ux, -uy
			}
			n := int(math.Round(math.Hypot(dx, dy)))
			colour := buf.At(a.X, a.Y)

			onRun := make(map[raster.Point]bool, n+1)
			for t := 0; t <= n; t++ {
				p := raster.Point{
					X: a.X + int(math.Round(ux*float64(t))),
					Y: a.Y + int(math.Round(uy*float64(t))),
				}
				onRun[p] = true
				if !out.IsForeground(p.X, p.Y, opts.Predicate) {
					out.Set(p.X, p.Y, colour)
				}
			}
			for _, p := range pts[i+1 : i+step] {
				if !onRun[p] && foregroundNeighbours(buf, p.X, p.Y, opts.Predicate) <= 2 {
					out.Clear(p.X, p.Y)
				}
			}
		}
	}
	return out
}

// nearestAngle returns the snap angle closest to angle, treating
// directions as equal modulo 180, and the absolute difference.
func nearestAngle(angle float64, snaps []float64) (float64, float64) {
	best, bestDiff := angle, math.Inf(1)
	for _, s := range snaps {
		d := math.Abs(math.Mod(angle-s, 180))
		if d > 90 {
			d = 180 - d
		}
		if d < bestDiff {
			best, bestDiff = s, d
		}
	}
	return best, bestDiff
}

// smoothWindow maps a 1-100 strength to a moving-average half window of
// 1 to 3 points.
func smoothWindow(strength int) int {
	half := int(math.Round(float64(strength) / 100 * 3))
	if half < 1 {
		half = 1
	}
	return half
}

// smoothContours replaces each contour point with the rounded mean of its
// neighbours along the contour. Where the mean lands on background that
// pixel is painted with the point's colour. A point that moved and has at
// most three foreground 8-neighbours is a spur or a convex tip and is
// cleared.
func smoothContours(buf *raster.Buffer, opts OutlineOptions) *raster.Buffer {
	out := buf.Clone()
	half := smoothWindow(opts.SmoothStrength)

	for _, c := range traceShapes(buf, opts.Predicate) {
		pts := c.Points
		n := len(pts)
		if n < 2*half+1 {
			continue
		}
		for i, p := range pts {
			var sx, sy float64
			for k := -half; k <= half; k++ {
				j := i + k
				if c.Closed {
					j = (j + n) % n
				} else if j < 0 {
					j = 0
				} else if j >= n {
					j = n - 1
				}
				sx += float64(pts[j].X)
				sy += float64(pts[j].Y)
			}
			w := float64(2*half + 1)
			mx, my := int(math.Round(sx/w)), int(math.Round(sy/w))
			if mx == p.X && my == p.Y {
				continue
			}
			if !out.IsForeground(mx, my, opts.Predicate) {
				out.Set(mx, my, buf.At(p.X, p.Y))
			}
			if foregroundNeighbours(buf, p.X, p.Y, opts.Predicate) <= 3 {
				out.Clear(p.X, p.Y)
			}
		}
	}
	return out
}

// sharpenCorners measures the turn at every contour vertex from the points
// two steps either side. A vertex whose deviation from straight lies
// strictly between CornerThreshold and 180-CornerThreshold is a corner.
// Background pixels around it with at least two foreground 4-neighbours
// are filled with the vertex colour, which restores the notch a rounded
// corner leaves without growing straight edges.
func sharpenCorners(buf *raster.Buffer, opts OutlineOptions) *raster.Buffer {
	const k = 2
	out := buf.Clone()
	lo, hi := opts.CornerThreshold, 180-opts.CornerThreshold

	for _, c := range traceShapes(buf, opts.Predicate) {
		pts := c.Points
		n := len(pts)
		if n < 2*k+1 {
			continue
		}
		for i, p := range pts {
			prev, next := i-k, i+k
			if c.Closed {
				prev, next = (prev+n)%n, next%n
			} else if prev < 0 || next >= n {
				continue
			}
			v1x, v1y := float64(pts[prev].X-p.X), float64(pts[prev].Y-p.Y)
			v2x, v2y := float64(pts[next].X-p.X), float64(pts[next].Y-p.Y)
			l1, l2 := math.Hypot(v1x, v1y), math.Hypot(v2x, v2y)
			if l1 == 0 || l2 == 0 {
				continue
			}
			cos := (v1x*v2x + v1y*v2y) / (l1 * l2)
			cos = math.Max(-1, math.Min(1, cos))
			deviation := 180 - math.Acos(cos)*180/math.Pi
			if deviation <= lo || deviation >= hi {
				continue
			}

			colour := buf.At(p.X, p.Y)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					x, y := p.X+dx, p.Y+dy
					if !buf.InBounds(x, y) || buf.IsForeground(x, y, opts.Predicate) {
						continue
					}
					if orthogonalNeighbours(buf, x, y, opts.Predicate) >= 2 {
						out.Set(x, y, colour)
					}
				}
			}
		}
	}
	return out
}

func foregroundNeighbours(buf *raster.Buffer, x, y int, pred raster.Predicate) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if (dx != 0 || dy != 0) && buf.IsForeground(x+dx, y+dy, pred) {
				n++
			}
		}
	}
	return n
}

func orthogonalNeighbours(buf *raster.Buffer, x, y int, pred raster.Predicate) int {
	n := 0
	for _, d := range [4]raster.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}} {
		if buf.IsForeground(x+d.X, y+d.Y, pred) {
			n++
		}
	}
	return n
}
