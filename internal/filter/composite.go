package filter

import (
	"image"

	"picfix/internal/raster"
)

// Composite returns base with p applied. base is never modified and the
// result never shares its pixel buffer.
func Composite(base *image.NRGBA, p Params) *image.NRGBA {
	out := raster.Clone(base)
	if p.IsIdentity() {
		return out
	}

	if p.Brightness != 100 || p.Contrast != 100 {
		applyLUT(out, toneLUT(p.Brightness/100, p.Contrast/100))
	}
	if p.Blur > 0 {
		NewBlurFilter(p.Blur).Apply(out)
	}
	return out
}
