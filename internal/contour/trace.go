package contour

import (
	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// Contour is an ordered boundary walk.
type Contour struct {
	// Points in tracing order. The start point appears once, at index 0.
	Points []raster.Point `json:"points"`

	// Closed is true when the walk returned to its start point after at
	// least three points.
	Closed bool `json:"closed"`
}

// mooreOffsets lists the 8 neighbours clockwise starting east (y down).
var mooreOffsets = [8]raster.Point{
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
}

// Trace follows the boundary of edges starting at start.
//
// edges is a row-major binary map of size w*h. Every point appended to the
// contour is marked in visited, which may be nil when the caller does not
// need it.
func Trace(edges []bool, w, h int, start raster.Point, visited []bool) Contour {
	isEdge := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && edges[y*w+x]
	}

	mark := func(p raster.Point) {
		if visited != nil {
			visited[p.Y*w+p.X] = true
		}
	}

	c := Contour{Points: []raster.Point{start}}
	mark(start)

	cur := start
	dir := 0
	limit := w * h
	for step := 0; step < limit; step++ {
		found := false
		for i := 0; i < 8; i++ {
			d := (dir + i) % 8
			nx, ny := cur.X+mooreOffsets[d].X, cur.Y+mooreOffsets[d].Y
			if !isEdge(nx, ny) {
				continue
			}
			next := raster.Point{X: nx, Y: ny}
			if next == start {
				c.Closed = len(c.Points) >= 3
				return c
			}
			c.Points = append(c.Points, next)
			mark(next)
			cur = next
			// Back off two positions so the search starts just outside
			// the boundary on the next step.
			dir = (d + 6) % 8
			found = true
			break
		}
		if !found {
			break
		}
	}
	return c
}

// FindAll traces every contour of edges. Start points are the unvisited
// edge pixels in row-major order.
func FindAll(edges []bool, w, h int) []Contour {
	visited := make([]bool, w*h)
	contours := make([]Contour, 0)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !edges[i] || visited[i] {
				continue
			}
			contours = append(contours, Trace(edges, w, h, raster.Point{X: x, Y: y}, visited))
		}
	}
	return contours
}

// FromBuffer traces the alpha boundary of src.
func FromBuffer(src *raster.Buffer, threshold uint8) []Contour {
	return FindAll(AlphaEdges(src, threshold), src.Width, src.Height)
}
