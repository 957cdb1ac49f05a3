// Package components labels connected foreground regions and removes or
// recolours the small ones.
package components

import (
	"errors"
	"fmt"

	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// Connectivity selects which neighbours are adjacent during labeling.
type Connectivity int

const (
	// Four joins pixels that share an edge.
	Four Connectivity = 4
	// Eight also joins pixels that share only a corner.
	Eight Connectivity = 8
)

// ErrInvalidConnectivity is returned for connectivity values other than 4 or 8.
var ErrInvalidConnectivity = errors.New("connectivity must be 4 or 8")

var (
	offsets4 = []raster.Point{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}
	offsets8 = []raster.Point{
		{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
		{X: -1, Y: 0}, {X: 1, Y: 0},
		{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
	}
)

func (c Connectivity) offsets() ([]raster.Point, error) {
	switch c {
	case Four:
		return offsets4, nil
	case Eight:
		return offsets8, nil
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConnectivity, int(c))
	}
}

// Component is one maximal connected set of foreground pixels.
type Component struct {
	// ID is the component's position in discovery order, starting at 0.
	ID int `json:"id"`

	// Pixels lists the member coordinates in flood-fill visiting order.
	Pixels []raster.Point `json:"-"`

	// Size is len(Pixels).
	Size int `json:"size"`

	// Bounds is the inclusive bounding box of Pixels.
	Bounds raster.Rect `json:"bounds"`
}

// Find labels the connected foreground regions of src.
//
// Seeds are taken in row-major order, so component IDs increase with the
// position of each component's top-most, left-most pixel. The flood fill
// uses an explicit stack rather than recursion so large regions cannot
// exhaust the goroutine stack.
func Find(src *raster.Buffer, pred raster.Predicate, conn Connectivity) ([]Component, error) {
	comps, _, err := Label(src, pred, conn)
	return comps, err
}

// Label is Find that also returns the per-pixel component index (-1 for
// background), row-major.
func Label(src *raster.Buffer, pred raster.Predicate, conn Connectivity) ([]Component, []int, error) {
	offsets, err := conn.offsets()
	if err != nil {
		return nil, nil, err
	}
	pred = raster.OrDefault(pred)

	w, h := src.Width, src.Height
	mask := src.Mask(pred)
	labels := make([]int, w*h)
	for i := range labels {
		labels[i] = -1
	}

	comps := make([]Component, 0)
	stack := make([]raster.Point, 0, 64)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if !mask[idx] || labels[idx] >= 0 {
				continue
			}

			id := len(comps)
			comp := Component{
				ID:     id,
				Pixels: make([]raster.Point, 0),
				Bounds: raster.Rect{MinX: x, MinY: y, MaxX: x, MaxY: y},
			}

			labels[idx] = id
			stack = append(stack[:0], raster.Point{X: x, Y: y})
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				comp.Pixels = append(comp.Pixels, p)
				grow(&comp.Bounds, p)

				for _, o := range offsets {
					nx, ny := p.X+o.X, p.Y+o.Y
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if mask[ni] && labels[ni] < 0 {
						labels[ni] = id
						stack = append(stack, raster.Point{X: nx, Y: ny})
					}
				}
			}

			comp.Size = len(comp.Pixels)
			comps = append(comps, comp)
		}
	}
	return comps, labels, nil
}

func grow(r *raster.Rect, p raster.Point) {
	if p.X < r.MinX {
		r.MinX = p.X
	}
	if p.X > r.MaxX {
		r.MaxX = p.X
	}
	if p.Y < r.MinY {
		r.MinY = p.Y
	}
	if p.Y > r.MaxY {
		r.MaxY = p.Y
	}
}

// RemoveSmall clears every pixel of each component smaller than minSize.
func RemoveSmall(src *raster.Buffer, minSize int, pred raster.Predicate, conn Connectivity) (*raster.Buffer, error) {
	comps, err := Find(src, pred, conn)
	if err != nil {
		return nil, err
	}

	out := src.Clone()
	for _, c := range comps {
		if c.Size >= minSize {
			continue
		}
		for _, p := range c.Pixels {
			out.Clear(p.X, p.Y)
		}
	}
	return out, nil
}

// NearestNeighborColor returns the most frequent opaque colour (alpha >= 128)
// found within radius pixels of comp's bounding box, ignoring comp's own
// pixels. Ties go to the colour met first in a row-major scan of that
// window. ok is false when no candidate pixel exists.
func NearestNeighborColor(src *raster.Buffer, comp Component, radius int) (c raster.Color, ok bool) {
	own := make(map[raster.Point]struct{}, len(comp.Pixels))
	for _, p := range comp.Pixels {
		own[p] = struct{}{}
	}

	counts := make(map[raster.Color]int)
	order := make([]raster.Color, 0)

	for y := comp.Bounds.MinY - radius; y <= comp.Bounds.MaxY+radius; y++ {
		for x := comp.Bounds.MinX - radius; x <= comp.Bounds.MaxX+radius; x++ {
			if !src.InBounds(x, y) {
				continue
			}
			if _, mine := own[raster.Point{X: x, Y: y}]; mine {
				continue
			}
			s := src.At(x, y)
			if s.A < 128 {
				continue
			}
			if counts[s] == 0 {
				order = append(order, s)
			}
			counts[s]++
		}
	}

	best := 0
	for _, candidate := range order {
		if counts[candidate] > best {
			best = counts[candidate]
			c = candidate
			ok = true
		}
	}
	return c, ok
}
