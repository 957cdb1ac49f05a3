package raster

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Color is an 8-bit RGBA sample.
type Color struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// Transparent is the fully cleared sample written by erasing operations.
var Transparent = Color{}

// Opaque returns c with alpha forced to 255.
func (c Color) Opaque() Color {
	c.A = 255
	return c
}

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is an inclusive bounding box.
type Rect struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// Buffer is a row-major RGBA pixel grid, 4 bytes per pixel.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a fully transparent buffer.
func New(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}
	copy(out.Pix, b.Pix)
	return out
}

// Len returns the number of pixels.
func (b *Buffer) Len() int {
	return b.Width * b.Height
}

// InBounds reports whether (x, y) addresses a pixel of b.
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// Offset returns the index of the red sample of (x, y) in Pix.
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// At returns the sample at (x, y). Out-of-bounds reads return Transparent.
func (b *Buffer) At(x, y int) Color {
	if !b.InBounds(x, y) {
		return Transparent
	}
	i := b.Offset(x, y)
	return Color{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// Set writes c at (x, y). Out-of-bounds writes are ignored.
func (b *Buffer) Set(x, y int, c Color) {
	if !b.InBounds(x, y) {
		return
	}
	i := b.Offset(x, y)
	b.Pix[i] = c.R
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.B
	b.Pix[i+3] = c.A
}

// Clear zeroes all four channels at (x, y).
func (b *Buffer) Clear(x, y int) {
	b.Set(x, y, Transparent)
}

// IsForeground applies pred to the sample at (x, y). Out-of-bounds
// coordinates are never foreground. A nil pred means DefaultPredicate.
func (b *Buffer) IsForeground(x, y int, pred Predicate) bool {
	if !b.InBounds(x, y) {
		return false
	}
	pred = OrDefault(pred)
	i := b.Offset(x, y)
	return pred(b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3])
}

// Mask evaluates pred for every pixel and returns the results row-major.
func (b *Buffer) Mask(pred Predicate) []bool {
	pred = OrDefault(pred)
	mask := make([]bool, b.Len())
	for i := range mask {
		p := i * 4
		mask[i] = pred(b.Pix[p], b.Pix[p+1], b.Pix[p+2], b.Pix[p+3])
	}
	return mask
}

// SameSize returns an error unless b and other share dimensions.
func (b *Buffer) SameSize(other *Buffer) error {
	if b.Width != other.Width || b.Height != other.Height {
		return fmt.Errorf("dimension mismatch: %dx%d vs %dx%d", b.Width, b.Height, other.Width, other.Height)
	}
	return nil
}

// FromImage converts any image into a Buffer. The conversion goes through
// a non-premultiplied NRGBA copy so semi-transparent edge colours survive.
func FromImage(img image.Image) *Buffer {
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	buf := New(bounds.Dx(), bounds.Dy())
	rowLen := buf.Width * 4
	for y := 0; y < buf.Height; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+rowLen]
		copy(buf.Pix[y*rowLen:(y+1)*rowLen], src)
	}
	return buf
}

// ToNRGBA copies b into a new *image.NRGBA anchored at the origin.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}
