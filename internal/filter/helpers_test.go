package filter

import (
	"image"
	"image/color"

	"picfix/internal/raster"
)

// createTestRaster builds a deterministic raster with varied samples.
func createTestRaster(w, h int) *image.NRGBA {
	img := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 37) ^ (y * 11)),
				G: uint8(x*y + 3),
				B: uint8(255 - x*5),
				A: uint8(128 + (x+y)%128),
			})
		}
	}
	return img
}

func createUniformRaster(w, h int, c color.NRGBA) *image.NRGBA {
	img := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
