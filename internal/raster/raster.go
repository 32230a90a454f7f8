// Package raster holds the pixel buffers the editor works on.
//
// Every raster is an *image.NRGBA anchored at the origin with 8-bit,
// non-premultiplied channels, which is the layout a canvas ImageData exposes.
package raster

import (
	"bytes"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// New allocates a transparent w×h raster.
func New(w, h int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

// FromImage converts any decoded image into an origin-anchored NRGBA raster.
// The source is never aliased, even when it already is an NRGBA.
func FromImage(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := New(b.Dx(), b.Dy())
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Clone returns a deep copy of r with a tight stride.
func Clone(r *image.NRGBA) *image.NRGBA {
	if r == nil {
		return nil
	}
	w, h := r.Bounds().Dx(), r.Bounds().Dy()
	dst := New(w, h)
	rowLen := w * 4
	for y := 0; y < h; y++ {
		so := r.PixOffset(r.Rect.Min.X, r.Rect.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowLen], r.Pix[so:so+rowLen])
	}
	return dst
}

// Equal reports whether a and b have the same dimensions and identical samples.
func Equal(a, b *image.NRGBA) bool {
	if a == nil || b == nil {
		return a == b
	}
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	if w != b.Bounds().Dx() || h != b.Bounds().Dy() {
		return false
	}
	rowLen := w * 4
	for y := 0; y < h; y++ {
		ao := a.PixOffset(a.Rect.Min.X, a.Rect.Min.Y+y)
		bo := b.PixOffset(b.Rect.Min.X, b.Rect.Min.Y+y)
		if !bytes.Equal(a.Pix[ao:ao+rowLen], b.Pix[bo:bo+rowLen]) {
			return false
		}
	}
	return true
}

// FitSize returns the dimensions of a w×h image scaled down to fit inside
// maxW×maxH with its aspect ratio kept. Images that already fit are unchanged;
// nothing is ever scaled up.
func FitSize(w, h, maxW, maxH int) (int, int) {
	fw, fh := float64(w), float64(h)
	if maxW > 0 && fw > float64(maxW) {
		fh = float64(maxW) / fw * fh
		fw = float64(maxW)
	}
	if maxH > 0 && fh > float64(maxH) {
		fw = float64(maxH) / fh * fw
		fh = float64(maxH)
	}
	return max(1, int(math.Floor(fw))), max(1, int(math.Floor(fh)))
}

// FitWithin converts img to a raster no larger than maxW×maxH.
func FitWithin(img image.Image, maxW, maxH int) *image.NRGBA {
	b := img.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), maxW, maxH)
	if w == b.Dx() && h == b.Dy() {
		return FromImage(img)
	}
	dst := New(w, h)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
