package colormodel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// ParseHex parses "#RRGGBB" or "#RRGGBBAA" (the leading '#' is optional).
// Six-digit colours are fully opaque.
func ParseHex(hex string) (raster.Color, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 0 {
		return raster.Color{}, fmt.Errorf("empty color string")
	}

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return raster.Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		return raster.Color{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return raster.Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		return raster.Color{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	default:
		return raster.Color{}, fmt.Errorf("invalid hex color length: %q", hex)
	}
}

// ParsePalette parses a list of hex colours in order.
func ParsePalette(hexes []string) (Palette, error) {
	palette := make(Palette, 0, len(hexes))
	for i, h := range hexes {
		c, err := ParseHex(h)
		if err != nil {
			return nil, fmt.Errorf("palette entry %d: %w", i, err)
		}
		palette = append(palette, c)
	}
	return palette, nil
}

// Hex formats the RGB channels of c as "#RRGGBB".
func Hex(c raster.Color) string {
	cf := colorful.Color{R: float64(c.R) / 255.0, G: float64(c.G) / 255.0, B: float64(c.B) / 255.0}
	return strings.ToUpper(cf.Hex())
}
