// Package cleanup implements the pixel-art repair operations.
//
// Each operation is a pure function from a *raster.Buffer and an options
// struct to a new *raster.Buffer of the same dimensions:
//
//   - RemoveStrayPixels: delete or merge small connected specks
//   - ReduceColorNoise: auto-clean near-duplicate colours, lock to a palette,
//     or quantize with k-means in L*a*b*
//   - CrispenEdges: binarize, erode or decontaminate semi-transparent edges
//   - SmoothEdges: soften staircase edges or apply pixel-perfect corner fixes
//   - NormalizeLines: even out line thickness along the skeleton
//   - PerfectOutline: close gaps, straighten, smooth and sharpen outlines
//
// # Options
//
// Every options struct documents its defaults; zero values are replaced by
// those defaults. Mode and method names are strings so they can travel
// through JSON unchanged. An unknown mode, or a mode whose required field is
// missing (for example palette-lock without a palette), is an error wrapping
// ErrUnknownMode or ErrMissingOption. Operations never fall back silently.
//
// # Determinism
//
// Identical inputs always produce byte-identical outputs, including
// k-means quantisation, whose random seeding is driven by ColorOptions.Seed.
package cleanup
