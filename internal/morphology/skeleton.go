package morphology

import (
	"math"

	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// maxThinningRounds bounds Zhang-Suen iteration.
const maxThinningRounds = 1000

// Skeletonize thins the foreground to a one-pixel-wide skeleton using
// Zhang-Suen thinning.
//
// Ring neighbours are numbered P2..P9 clockwise starting from the pixel
// above. A pixel is removed in a sub-iteration when:
//   - 2 <= B(P1) <= 6, where B is the number of foreground neighbours
//   - A(P1) == 1, where A counts 0→1 transitions around P2..P9,P2
//   - first pass:  P2·P4·P6 == 0 and P4·P6·P8 == 0
//   - second pass: P2·P4·P8 == 0 and P2·P6·P8 == 0
//
// Rounds repeat until nothing changes or maxThinningRounds is reached.
// The result is a transparent buffer holding only the skeleton pixels, each
// in its original colour.
func Skeletonize(src *raster.Buffer, pred raster.Predicate) *raster.Buffer {
	out := raster.New(src.Width, src.Height)
	for i, on := range SkeletonMask(src, pred) {
		if on {
			copy(out.Pix[i*4:i*4+4], src.Pix[i*4:i*4+4])
		}
	}
	return out
}

// SkeletonMask is Skeletonize returning the row-major skeleton membership
// instead of a coloured buffer.
func SkeletonMask(src *raster.Buffer, pred raster.Predicate) []bool {
	pred = raster.OrDefault(pred)
	w, h := src.Width, src.Height
	img := make([]uint8, w*h)
	for i, fg := range src.Mask(pred) {
		if fg {
			img[i] = 1
		}
	}

	at := func(x, y int) uint8 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return img[y*w+x]
	}

	remove := make([]int, 0)
	for round := 0; round < maxThinningRounds; round++ {
		changed := false
		for pass := 0; pass < 2; pass++ {
			remove = remove[:0]
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					if img[y*w+x] == 0 {
						continue
					}
					p2 := at(x, y-1)
					p3 := at(x+1, y-1)
					p4 := at(x+1, y)
					p5 := at(x+1, y+1)
					p6 := at(x, y+1)
					p7 := at(x-1, y+1)
					p8 := at(x-1, y)
					p9 := at(x-1, y-1)

					b := int(p2 + p3 + p4 + p5 + p6 + p7 + p8 + p9)
					if b < 2 || b > 6 {
						continue
					}
					if transitions(p2, p3, p4, p5, p6, p7, p8, p9) != 1 {
						continue
					}
					if pass == 0 {
						if p2*p4*p6 != 0 || p4*p6*p8 != 0 {
							continue
						}
					} else {
						if p2*p4*p8 != 0 || p2*p6*p8 != 0 {
							continue
						}
					}
					remove = append(remove, y*w+x)
				}
			}
			for _, i := range remove {
				img[i] = 0
			}
			if len(remove) > 0 {
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	mask := make([]bool, w*h)
	for i, v := range img {
		mask[i] = v == 1
	}
	return mask
}

// transitions counts 0→1 changes in the cyclic sequence P2..P9,P2.
func transitions(p ...uint8) int {
	n := 0
	for i := range p {
		if p[i] == 0 && p[(i+1)%len(p)] == 1 {
			n++
		}
	}
	return n
}

// DistanceTransform returns, for every pixel, the chamfer distance to the
// nearest background pixel using steps of 1 (orthogonal) and √2 (diagonal).
//
// Background pixels have distance 0. Pixels outside the buffer count as
// background, so a foreground pixel on the border has distance 1. The
// result is row-major with one value per pixel.
func DistanceTransform(src *raster.Buffer, pred raster.Predicate) []float64 {
	pred = raster.OrDefault(pred)
	w, h := src.Width, src.Height
	mask := src.Mask(pred)
	dist := make([]float64, w*h)
	for i, fg := range mask {
		if fg {
			dist[i] = math.Inf(1)
		}
	}

	at := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return dist[y*w+x]
	}

	// Forward pass: top-left to bottom-right.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if dist[i] == 0 {
				continue
			}
			d := dist[i]
			d = math.Min(d, at(x-1, y)+1)
			d = math.Min(d, at(x, y-1)+1)
			d = math.Min(d, at(x-1, y-1)+math.Sqrt2)
			d = math.Min(d, at(x+1, y-1)+math.Sqrt2)
			dist[i] = d
		}
	}

	// Backward pass: bottom-right to top-left.
	for y := h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			i := y*w + x
			if dist[i] == 0 {
				continue
			}
			d := dist[i]
			d = math.Min(d, at(x+1, y)+1)
			d = math.Min(d, at(x, y+1)+1)
			d = math.Min(d, at(x+1, y+1)+math.Sqrt2)
			d = math.Min(d, at(x-1, y+1)+math.Sqrt2)
			dist[i] = d
		}
	}
	return dist
}
