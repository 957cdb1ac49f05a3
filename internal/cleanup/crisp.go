package cleanup

import (
	"fmt"
	"math"

	"github.com/ironsheep/pixel-cleanup/internal/morphology"
	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// Edge crispener methods.
const (
	CrispThreshold     = "threshold"
	CrispErode         = "erode"
	CrispDecontaminate = "decontaminate"
)

// CrispOptions configures CrispenEdges.
type CrispOptions struct {
	// Method is "threshold", "erode" or "decontaminate". Default "threshold".
	Method string `json:"method,omitempty"`

	// AlphaThreshold is the cutoff between transparent and opaque.
	// Zero selects the default of 128; a cutoff of 1 keeps every pixel
	// that is not fully transparent.
	AlphaThreshold uint8 `json:"alpha_threshold,omitempty"`

	// KernelSize is the erosion structuring element (odd). Default 3.
	KernelSize int `json:"kernel_size,omitempty"`

	// Background is the colour the artwork was blended against. Required
	// for decontaminate.
	Background *raster.Color `json:"background,omitempty"`
}

func (o CrispOptions) withDefaults() CrispOptions {
	if o.Method == "" {
		o.Method = CrispThreshold
	}
	if o.AlphaThreshold == 0 {
		o.AlphaThreshold = 128
	}
	if o.KernelSize == 0 {
		o.KernelSize = 3
	}
	return o
}

// CrispenEdges removes soft, anti-aliased edges.
//
// threshold binarizes alpha: samples at or above AlphaThreshold become
// fully opaque, the rest fully transparent. erode runs a morphological
// erosion of the alpha mask and then thresholds what is left, so fringe
// pixels below AlphaThreshold are cleared too. decontaminate reverses the alpha blend
// against Background for semi-transparent pixels,
//
//	c = (sample - bg*(1-α)) / α
//
// clamps each channel to [0,255] and then snaps α at 128.
func CrispenEdges(src *raster.Buffer, opts CrispOptions) (*raster.Buffer, error) {
	opts = opts.withDefaults()

	switch opts.Method {
	case CrispThreshold:
		return thresholdAlpha(src, opts.AlphaThreshold), nil
	case CrispErode:
		eroded, err := morphology.Erode(src, opts.KernelSize, raster.AlphaAtLeast(opts.AlphaThreshold))
		if err != nil {
			return nil, err
		}
		return thresholdAlpha(eroded, opts.AlphaThreshold), nil
	case CrispDecontaminate:
		if opts.Background == nil {
			return nil, fmt.Errorf("%w: decontaminate requires a background color", ErrMissingOption)
		}
		return decontaminate(src, *opts.Background), nil
	default:
		return nil, fmt.Errorf("%w: edge crispener method %q", ErrUnknownMode, opts.Method)
	}
}

func thresholdAlpha(src *raster.Buffer, cutoff uint8) *raster.Buffer {
	out := src.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i+3] >= cutoff {
			out.Pix[i+3] = 255
			continue
		}
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = 0, 0, 0, 0
	}
	return out
}

func decontaminate(src *raster.Buffer, bg raster.Color) *raster.Buffer {
	out := src.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		a := out.Pix[i+3]
		switch {
		case a == 255:
			continue
		case a == 0:
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = 0, 0, 0
			continue
		}

		alpha := float64(a) / 255.0
		out.Pix[i] = unblend(out.Pix[i], bg.R, alpha)
		out.Pix[i+1] = unblend(out.Pix[i+1], bg.G, alpha)
		out.Pix[i+2] = unblend(out.Pix[i+2], bg.B, alpha)

		if a >= 128 {
			out.Pix[i+3] = 255
		} else {
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = 0, 0, 0, 0
		}
	}
	return out
}

func unblend(sample, bg uint8, alpha float64) uint8 {
	v := (float64(sample) - float64(bg)*(1-alpha)) / alpha
	return clampByte(v)
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
