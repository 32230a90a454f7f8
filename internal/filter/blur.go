package filter

import (
	"image"
	"sync"
)

// BlurFilter applies a separable Gaussian blur. Colors are blurred
// premultiplied by alpha so transparent pixels do not bleed their color.
type BlurFilter struct {
	// Radius is the standard deviation in pixels.
	Radius float64
}

// NewBlurFilter creates a blur filter with the given radius.
func NewBlurFilter(radius float64) *BlurFilter {
	return &BlurFilter{Radius: radius}
}

// Apply blurs img in place.
func (f *BlurFilter) Apply(img *image.NRGBA) {
	if f.Radius <= 0 {
		return
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return
	}

	kernel := truncatedKernel(f.Radius, max(width, height))

	src := getTempBuffer(width * height * 4)
	defer putTempBuffer(src)
	tmp := getTempBuffer(width * height * 4)
	defer putTempBuffer(tmp)

	premultiply(img, src)
	blurHorizontal(src, tmp, width, height, kernel)
	blurVertical(tmp, src, width, height, kernel)
	unpremultiply(src, img)
}

func premultiply(img *image.NRGBA, dst []float32) {
	b := img.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for x := 0; x < len(row); x += 4 {
			a := float32(row[x+3])
			dst[i+0] = float32(row[x+0]) * a / 255
			dst[i+1] = float32(row[x+1]) * a / 255
			dst[i+2] = float32(row[x+2]) * a / 255
			dst[i+3] = a
			i += 4
		}
	}
}

func unpremultiply(src []float32, img *image.NRGBA) {
	b := img.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for x := 0; x < len(row); x += 4 {
			a := src[i+3]
			if a <= 0 {
				row[x+0], row[x+1], row[x+2], row[x+3] = 0, 0, 0, 0
			} else {
				row[x+0] = clampUint8(src[i+0] * 255 / a)
				row[x+1] = clampUint8(src[i+1] * 255 / a)
				row[x+2] = clampUint8(src[i+2] * 255 / a)
				row[x+3] = clampUint8(a)
			}
			i += 4
		}
	}
}

// blurHorizontal convolves each row of src into dst.
func blurHorizontal(src, dst []float32, width, height int, kernel []float32) {
	half := len(kernel) / 2
	for y := 0; y < height; y++ {
		rowStart := y * width
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k, weight := range kernel {
				kx := x + k - half
				// Clamp to source bounds (edge extension)
				if kx < 0 {
					kx = 0
				} else if kx >= width {
					kx = width - 1
				}
				idx := (rowStart + kx) * 4
				r += src[idx+0] * weight
				g += src[idx+1] * weight
				b += src[idx+2] * weight
				a += src[idx+3] * weight
			}
			idx := (rowStart + x) * 4
			dst[idx+0], dst[idx+1], dst[idx+2], dst[idx+3] = r, g, b, a
		}
	}
}

// blurVertical convolves each column of src into dst.
func blurVertical(src, dst []float32, width, height int, kernel []float32) {
	half := len(kernel) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k, weight := range kernel {
				ky := y + k - half
				if ky < 0 {
					ky = 0
				} else if ky >= height {
					ky = height - 1
				}
				idx := (ky*width + x) * 4
				r += src[idx+0] * weight
				g += src[idx+1] * weight
				b += src[idx+2] * weight
				a += src[idx+3] * weight
			}
			idx := (y*width + x) * 4
			dst[idx+0], dst[idx+1], dst[idx+2], dst[idx+3] = r, g, b, a
		}
	}
}

// floatBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type floatBuffer struct {
	data []float32
}

var tempBufferPool = sync.Pool{
	New: func() any { return &floatBuffer{} },
}

// getTempBuffer gets a float buffer of exactly size elements from the pool.
// Contents are unspecified; callers overwrite every element.
func getTempBuffer(size int) []float32 {
	wrapper := tempBufferPool.Get().(*floatBuffer)
	if cap(wrapper.data) < size {
		tempBufferPool.Put(wrapper)
		return make([]float32, size)
	}
	return wrapper.data[:size]
}

// putTempBuffer returns a temporary buffer to the pool.
func putTempBuffer(buf []float32) {
	// Only pool reasonably-sized buffers
	if cap(buf) <= 16*1024*1024 {
		tempBufferPool.Put(&floatBuffer{data: buf[:cap(buf)]})
	}
}
