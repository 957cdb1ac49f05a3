package cleanup

import (
	"fmt"

	"github.com/ironsheep/pixel-cleanup/internal/components"
	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

// Stray pixel modes.
const (
	StrayDelete = "delete"
	StrayMerge  = "merge"
)

// StrayOptions configures RemoveStrayPixels.
type StrayOptions struct {
	// MinSize is the smallest component kept; smaller ones are strays.
	// Default 4.
	MinSize int `json:"min_size,omitempty"`

	// Mode is "delete" (clear strays) or "merge" (recolour strays with the
	// surrounding colour). Default "delete".
	Mode string `json:"mode,omitempty"`

	// MergeRadius is how far around a stray's bounding box merge looks for
	// a replacement colour. Default 2.
	MergeRadius int `json:"merge_radius,omitempty"`

	// Predicate selects foreground pixels. Default alpha >= 128.
	Predicate raster.Predicate `json:"-"`
}

func (o StrayOptions) withDefaults() StrayOptions {
	if o.MinSize == 0 {
		o.MinSize = 4
	}
	if o.Mode == "" {
		o.Mode = StrayDelete
	}
	if o.MergeRadius == 0 {
		o.MergeRadius = 2
	}
	o.Predicate = raster.OrDefault(o.Predicate)
	return o
}

// RemoveStrayPixels finds 8-connected foreground components smaller than
// MinSize and either clears them or, in merge mode, repaints them with the
// most common neighbouring colour. A stray with no opaque neighbour in
// MergeRadius is cleared even in merge mode.
func RemoveStrayPixels(src *raster.Buffer, opts StrayOptions) (*raster.Buffer, error) {
	opts = opts.withDefaults()
	if opts.MinSize < 1 {
		return nil, fmt.Errorf("%w: stray min size %d", ErrInvalidOption, opts.MinSize)
	}

	switch opts.Mode {
	case StrayDelete:
		return components.RemoveSmall(src, opts.MinSize, opts.Predicate, components.Eight)
	case StrayMerge:
		return mergeStrays(src, opts)
	default:
		return nil, fmt.Errorf("%w: stray pixel mode %q", ErrUnknownMode, opts.Mode)
	}
}

func mergeStrays(src *raster.Buffer, opts StrayOptions) (*raster.Buffer, error) {
	comps, err := components.Find(src, opts.Predicate, components.Eight)
	if err != nil {
		return nil, err
	}

	out := src.Clone()
	for _, comp := range comps {
		if comp.Size >= opts.MinSize {
			continue
		}
		// Neighbour colours come from the source so earlier merges do not
		// influence later ones.
		c, ok := components.NearestNeighborColor(src, comp, opts.MergeRadius)
		for _, p := range comp.Pixels {
			if ok {
				out.Set(p.X, p.Y, c)
			} else {
				out.Clear(p.X, p.Y)
			}
		}
	}
	return out, nil
}
