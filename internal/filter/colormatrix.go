package filter

import "image"

// toneLUT folds brightness and contrast into one lookup table. Each stage
// rounds and clamps to 8 bits, as a canvas filter chain does between steps.
//
// brightness: c' = c * b
// contrast:   c' = (c - 127.5) * k + 127.5
func toneLUT(brightness, contrast float64) *[256]uint8 {
	var lut [256]uint8
	for v := 0; v < 256; v++ {
		c := clampUint8(float32(float64(v) * brightness))
		lut[v] = clampUint8(float32((float64(c)-127.5)*contrast + 127.5))
	}
	return &lut
}

// applyLUT maps the color channels of img in place. Alpha is untouched.
func applyLUT(img *image.NRGBA, lut *[256]uint8) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			row[i+0] = lut[row[i+0]]
			row[i+1] = lut[row[i+1]]
			row[i+2] = lut[row[i+2]]
		}
	}
}

// clampUint8 clamps a float32 to [0, 255] and converts to uint8.
func clampUint8(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5) // Round to nearest
}
