// Package raster defines the pixel buffer shared by every cleanup algorithm.
//
// A Buffer is a width × height grid of 8-bit RGBA samples stored row-major
// with 4 bytes per pixel. Samples are not premultiplied: a half-transparent
// red pixel is stored as (255, 0, 0, 128).
//
// # Coordinate System
//
// Coordinates are 0-based with the origin at the top-left corner:
//   - X increases rightward (0 to Width-1)
//   - Y increases downward (0 to Height-1)
//
// # Purity
//
// Algorithms built on this package treat their input Buffer as immutable and
// always return a freshly allocated Buffer of the same dimensions. Callers own
// the returned buffer exclusively.
//
// # Foreground Predicates
//
// Structural algorithms (morphology, connected components, line thickness)
// decide what counts as "ink" through a Predicate supplied by the caller.
// DefaultPredicate treats any sample with alpha >= 128 as foreground.
package raster
