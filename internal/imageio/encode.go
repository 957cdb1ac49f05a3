package imageio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// MaxPreviewScale bounds PreviewOptions.Scale.
const MaxPreviewScale = 32

// Result is an encoded image ready for a JSON tool response.
type Result struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// PreviewOptions controls how Encode renders a buffer.
type PreviewOptions struct {
	// Scale enlarges the image by an integer factor with nearest-neighbour
	// sampling. 0 and 1 mean no enlargement.
	Scale int

	// Grid draws a line between source pixels. It needs Scale >= 4.
	Grid bool

	// GridColor defaults to semi-transparent grey.
	GridColor *raster.Color
}

// Encode renders buf as a base64 PNG. Width and Height in the result are
// those of the rendered image, so a scaled preview reports the scaled size.
func Encode(buf *raster.Buffer, opts PreviewOptions) (*Result, error) {
	if opts.Scale < 0 || opts.Scale > MaxPreviewScale {
		return nil, fmt.Errorf("preview scale %d outside 0-%d", opts.Scale, MaxPreviewScale)
	}

	var img image.Image = buf.ToNRGBA()
	if opts.Scale > 1 {
		scaled := imaging.Resize(img, buf.Width*opts.Scale, buf.Height*opts.Scale, imaging.NearestNeighbor)
		if opts.Grid && opts.Scale >= 4 {
			drawPixelGrid(scaled, opts.Scale, opts.GridColor)
		}
		img = scaled
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := img.Bounds()
	return &Result{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(out.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// drawPixelGrid draws a one-pixel line along the top and left edge of every
// enlarged source pixel.
func drawPixelGrid(img *image.NRGBA, spacing int, c *raster.Color) {
	gridColor := color.NRGBA{R: 128, G: 128, B: 128, A: 160}
	if c != nil {
		gridColor = color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	for x := spacing; x < width; x += spacing {
		for y := 0; y < height; y++ {
			img.SetNRGBA(x, y, gridColor)
		}
	}
	for y := spacing; y < height; y += spacing {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, gridColor)
		}
	}
}

// Save writes buf to path. The format follows the extension; see
// imaging.Save for the supported list.
func Save(buf *raster.Buffer, path string) error {
	if err := imaging.Save(buf.ToNRGBA(), path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
