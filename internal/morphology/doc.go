// Package morphology implements binary morphological operators over RGBA
// buffers.
//
// Every operator is driven by a caller-supplied raster.Predicate that decides
// which samples are foreground. Colours travel with the pixels: erosion
// clears pixels to transparent, dilation copies the colour of the pixel that
// grew into a neighbour.
//
// # Structuring Element
//
// Erode, Dilate, Open and Close use a square structuring element whose side
// (kernelSize) must be odd. The radius is kernelSize/2, so a kernel of 3
// inspects the 8-neighbourhood.
//
// # Border Handling
//
// Pixels outside the buffer count as background. Foreground pixels touching
// the border therefore always erode, and the distance transform measures
// the border as distance 0.
package morphology
