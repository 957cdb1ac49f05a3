package contour

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// Luminance returns the ITU-R BT.601 luma of an 8-bit sample.
func Luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// Sobel computes the gradient magnitude of luminance for every pixel.
//
// Magnitudes are sqrt(Gx² + Gy²) on the 0-255 luma scale, so a hard
// black/white step yields about 1020. Pixels on the one-pixel border have
// no full 3x3 window and are left at 0. Rows are processed in parallel;
// each row writes only its own slice of the result.
func Sobel(src *raster.Buffer) []float32 {
	w, h := src.Width, src.Height
	gray := make([]float64, w*h)
	for i := range gray {
		p := i * 4
		gray[i] = Luminance(src.Pix[p], src.Pix[p+1], src.Pix[p+2])
	}

	mag := make([]float32, w*h)
	if w < 3 || h < 3 {
		return mag
	}

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			if y == 0 || y == h-1 {
				continue
			}
			for x := 1; x < w-1; x++ {
				var gx, gy float64
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						v := gray[(y+ky)*w+x+kx]
						gx += v * sobelX[ky+1][kx+1]
						gy += v * sobelY[ky+1][kx+1]
					}
				}
				mag[y*w+x] = float32(math.Sqrt(gx*gx + gy*gy))
			}
		}
	})
	return mag
}

// AlphaEdges marks the boundary pixels of the foreground.
//
// A pixel is foreground when its alpha is at least threshold. A foreground
// pixel is an edge if any of its 8 neighbours is background or lies
// outside the image.
func AlphaEdges(src *raster.Buffer, threshold uint8) []bool {
	return MaskEdges(src.Mask(raster.AlphaAtLeast(threshold)), src.Width, src.Height)
}

// MaskEdges is AlphaEdges over an arbitrary row-major foreground mask.
func MaskEdges(fg []bool, w, h int) []bool {
	edges := make([]bool, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !fg[y*w+x] {
				continue
			}
		neighbours:
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h || !fg[ny*w+nx] {
						edges[y*w+x] = true
						break neighbours
					}
				}
			}
		}
	}
	return edges
}
