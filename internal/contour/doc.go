// Package contour provides edge maps and boundary tracing for raster shapes.
//
// # Edge Maps
//
// Two edge detectors are available:
//
//   - Sobel: gradient magnitude of luminance (0.299*R + 0.587*G + 0.114*B)
//     using 3x3 Sobel kernels. The one-pixel image border is always 0.
//   - AlphaEdges: a binary map marking foreground pixels (alpha at or above
//     a threshold) that touch background or the image border.
//
// # Tracing
//
// Trace walks a binary edge map with Moore-neighbour tracing. Neighbours
// are visited clockwise starting east:
//
//	5 6 7
//	4 . 0
//	3 2 1
//
// After each step the search restarts two positions counter-clockwise of
// the direction just taken (the back-off that keeps the walk hugging the
// boundary). A walk that returns to its start after at least three points
// is closed; a walk that runs out of neighbours or hits the width*height
// step bound is open.
//
// FindAll repeats Trace from every edge pixel not yet visited, scanning in
// row-major order, until every edge pixel belongs to some contour.
package contour
