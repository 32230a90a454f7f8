// Package filter derives displayed rasters from committed ones.
//
// A composite applies, in this fixed order:
//   - brightness: every color channel scaled by Brightness/100
//   - contrast: channels pushed away from mid-gray by Contrast/100
//   - Gaussian blur with standard deviation Blur pixels (separable, edge clamped)
//
// Composite never mutates its input, so live previews can be re-derived from
// the same committed raster on every slider move without drift.
package filter
