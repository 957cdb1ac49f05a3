// Package imageio moves raster buffers in and out of image files.
//
// Loading goes through a Cache keyed by path. PNG, JPEG and GIF decoders
// come from the standard library; BMP, TIFF and WebP are registered from
// golang.org/x/image. Every decoded image is normalised to a non-premultiplied
// RGBA raster.Buffer.
//
// Encode renders a buffer as a base64 PNG for transport in tool results,
// optionally enlarged with nearest-neighbour sampling and overlaid with a
// pixel grid so individual pixels stay visible. Save writes a buffer to disk
// in the format implied by the file extension.
package imageio
