package morphology

import (
	"errors"
	"fmt"

	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// ErrInvalidKernel is returned for even or non-positive kernel sizes.
var ErrInvalidKernel = errors.New("kernel size must be a positive odd number")

func kernelRadius(kernelSize int) (int, error) {
	if kernelSize < 1 || kernelSize%2 == 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidKernel, kernelSize)
	}
	return kernelSize / 2, nil
}

// Erode shrinks the foreground by the structuring element.
//
// A foreground pixel survives only if every pixel under the kernel is also
// foreground; otherwise it becomes fully transparent. Out-of-bounds
// neighbours count as background, so foreground on the image border always
// erodes. Background pixels are copied unchanged.
func Erode(src *raster.Buffer, kernelSize int, pred raster.Predicate) (*raster.Buffer, error) {
	radius, err := kernelRadius(kernelSize)
	if err != nil {
		return nil, err
	}
	pred = raster.OrDefault(pred)

	mask := src.Mask(pred)
	out := src.Clone()
	w, h := src.Width, src.Height

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			if !windowAllForeground(mask, w, h, x, y, radius) {
				out.Clear(x, y)
			}
		}
	}
	return out, nil
}

func windowAllForeground(mask []bool, w, h, x, y, radius int) bool {
	for ky := -radius; ky <= radius; ky++ {
		for kx := -radius; kx <= radius; kx++ {
			nx, ny := x+kx, y+ky
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				return false
			}
			if !mask[ny*w+nx] {
				return false
			}
		}
	}
	return true
}

// Dilate grows the foreground by the structuring element.
//
// Every in-bounds neighbour of a foreground pixel that is not itself
// foreground receives that pixel's full RGBA sample. When several
// foreground pixels reach the same neighbour, the first one in row-major
// order wins.
func Dilate(src *raster.Buffer, kernelSize int, pred raster.Predicate) (*raster.Buffer, error) {
	radius, err := kernelRadius(kernelSize)
	if err != nil {
		return nil, err
	}
	pred = raster.OrDefault(pred)

	mask := src.Mask(pred)
	out := src.Clone()
	w, h := src.Width, src.Height
	painted := make([]bool, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			c := src.At(x, y)
			for ky := -radius; ky <= radius; ky++ {
				for kx := -radius; kx <= radius; kx++ {
					nx, ny := x+kx, y+ky
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if mask[ni] || painted[ni] {
						continue
					}
					painted[ni] = true
					out.Set(nx, ny, c)
				}
			}
		}
	}
	return out, nil
}

// Open erodes then dilates, removing protrusions thinner than the kernel
// while roughly preserving the size of larger shapes.
func Open(src *raster.Buffer, kernelSize int, pred raster.Predicate) (*raster.Buffer, error) {
	eroded, err := Erode(src, kernelSize, pred)
	if err != nil {
		return nil, err
	}
	return Dilate(eroded, kernelSize, pred)
}

// Close dilates then erodes, filling gaps and holes smaller than the kernel.
func Close(src *raster.Buffer, kernelSize int, pred raster.Predicate) (*raster.Buffer, error) {
	dilated, err := Dilate(src, kernelSize, pred)
	if err != nil {
		return nil, err
	}
	return Erode(dilated, kernelSize, pred)
}

// Operation names accepted by Apply.
const (
	OpErode  = "erode"
	OpDilate = "dilate"
	OpOpen   = "open"
	OpClose  = "close"
)

// Apply dispatches to the operator named by op.
func Apply(op string, src *raster.Buffer, kernelSize int, pred raster.Predicate) (*raster.Buffer, error) {
	switch op {
	case OpErode:
		return Erode(src, kernelSize, pred)
	case OpDilate:
		return Dilate(src, kernelSize, pred)
	case OpOpen:
		return Open(src, kernelSize, pred)
	case OpClose:
		return Close(src, kernelSize, pred)
	default:
		return nil, fmt.Errorf("unknown morphology operation: %s", op)
	}
}
