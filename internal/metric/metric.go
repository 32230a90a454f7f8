// Package metric scores how far a re-encoded raster drifted from its source.
package metric

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/jasonmoo/go-butteraugli"
	"golang.org/x/image/draw"
)

// ErrSizeMismatch is returned when the compared images differ in size.
var ErrSizeMismatch = errors.New("metric: image sizes differ")

// Report gathers every score for one comparison. Butteraugli is -1 when it
// was not computed.
type Report struct {
	MSE         float64 `json:"mse"`
	SSIM        float64 `json:"ssim"`
	PSNR        float64 `json:"psnr_db"`
	Butteraugli float64 `json:"butteraugli"`
	Sample      int     `json:"sample"`
}

// Compare scores b against the reference a. Sampling follows AdaptiveSample;
// butteraugli, the slowest metric, runs only when perceptual is set.
func Compare(a, b image.Image, perceptual bool) (Report, error) {
	if a.Bounds().Size() != b.Bounds().Size() {
		return Report{}, ErrSizeMismatch
	}
	sample := AdaptiveSample(a.Bounds())
	if sample == 0 {
		sample = 16
	}
	r := Report{
		MSE:         MSE(a, b, sample),
		SSIM:        SSIM(a, b, sample),
		PSNR:        PSNR(a, b, sample),
		Butteraugli: -1,
		Sample:      sample,
	}
	if perceptual {
		d, err := Butteraugli(a, b)
		if err != nil {
			return r, err
		}
		r.Butteraugli = d
	}
	return r, nil
}

// AdaptiveSample picks a pixel stride that keeps metric cost roughly flat as
// images grow. It returns 0 above 128 megapixels.
func AdaptiveSample(b image.Rectangle) int {
	pixels := b.Dx() * b.Dy()
	switch {
	case pixels > 128000000:
		return 0
	case pixels <= 1000000:
		return 1
	case pixels <= 4000000:
		return 2
	case pixels <= 16000000:
		return 4
	case pixels <= 64000000:
		return 8
	default:
		return 16
	}
}

// sqDiff returns the mean squared RGB difference of two samples on the
// 0..255 scale.
func sqDiff(c1, c2 color.Color) float64 {
	r1, g1, b1, _ := c1.RGBA()
	r2, g2, b2, _ := c2.RGBA()
	dr := float64(r1>>8) - float64(r2>>8)
	dg := float64(g1>>8) - float64(g2>>8)
	db := float64(b1>>8) - float64(b2>>8)
	return (dr*dr + dg*dg + db*db) / 3.0
}

func meanSqDiff(a, b image.Image, sample int) float64 {
	ab, bb := a.Bounds(), b.Bounds()
	var sum, count float64
	for y := 0; y < ab.Dy(); y += sample {
		for x := 0; x < ab.Dx(); x += sample {
			sum += sqDiff(a.At(ab.Min.X+x, ab.Min.Y+y), b.At(bb.Min.X+x, bb.Min.Y+y))
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / count
}

// PSNR returns the peak signal-to-noise ratio in dB, capped at 100 for
// identical images.
func PSNR(a, b image.Image, sample int) float64 {
	mse := meanSqDiff(a, b, sample)
	if mse == 0 {
		return 100.0
	}
	return 20*math.Log10(255) - 10*math.Log10(mse)
}

// MSE returns the mean squared error normalized to [0, 1].
func MSE(a, b image.Image, sample int) float64 {
	return meanSqDiff(a, b, sample) / (255 * 255)
}

// SSIM returns the mean structural similarity over 8×8 luminance blocks.
func SSIM(a, b image.Image, sample int) float64 {
	ab, bb := a.Bounds(), b.Bounds()
	w, h := ab.Dx(), ab.Dy()
	const c1, c2 = 6.5025, 58.5225
	var total, count float64
	step := 8 * sample
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			var m1, m2, s1, s2, s12, n float64
			for by := y; by < y+8 && by < h; by++ {
				for bx := x; bx < x+8 && bx < w; bx++ {
					m1 += luminance(a.At(ab.Min.X+bx, ab.Min.Y+by))
					m2 += luminance(b.At(bb.Min.X+bx, bb.Min.Y+by))
					n++
				}
			}
			m1 /= n
			m2 /= n
			for by := y; by < y+8 && by < h; by++ {
				for bx := x; bx < x+8 && bx < w; bx++ {
					v1 := luminance(a.At(ab.Min.X+bx, ab.Min.Y+by))
					v2 := luminance(b.At(bb.Min.X+bx, bb.Min.Y+by))
					s1 += (v1 - m1) * (v1 - m1)
					s2 += (v2 - m2) * (v2 - m2)
					s12 += (v1 - m1) * (v2 - m2)
				}
			}
			if n > 1 {
				s1 /= n - 1
				s2 /= n - 1
				s12 /= n - 1
			} else {
				s1, s2, s12 = 0, 0, 0
			}
			total += ((2*m1*m2 + c1) * (2*s12 + c2)) / ((m1*m1 + m2*m2 + c1) * (s1 + s2 + c2))
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return total / count
}

func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
}

// maxButteraugliPixels bounds the area fed to butteraugli, which is far
// slower than the other metrics.
const maxButteraugliPixels = 500000

// Butteraugli returns the perceptual distance between a and b. Smaller is
// better; values under 1.0 are usually invisible. Large images are
// downsampled first.
func Butteraugli(a, b image.Image) (float64, error) {
	bounds := a.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels <= maxButteraugliPixels {
		return butteraugli.CompareImages(a, b)
	}

	scale := math.Sqrt(float64(maxButteraugliPixels) / float64(pixels))
	rect := image.Rect(0, 0, int(float64(bounds.Dx())*scale), int(float64(bounds.Dy())*scale))
	small1 := image.NewRGBA(rect)
	small2 := image.NewRGBA(rect)
	draw.BiLinear.Scale(small1, rect, a, bounds, draw.Over, nil)
	draw.BiLinear.Scale(small2, rect, b, b.Bounds(), draw.Over, nil)
	return butteraugli.CompareImages(small1, small2)
}
