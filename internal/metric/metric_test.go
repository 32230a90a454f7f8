package metric

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"picfix/internal/raster"
)

func checker(w, h int, dark, light uint8) *image.NRGBA {
	img := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := dark
			if (x/4+y/4)%2 == 0 {
				v = light
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestIdenticalImages(t *testing.T) {
	a := checker(32, 32, 20, 230)
	r, err := Compare(a, raster.Clone(a), false)
	if err != nil {
		t.Fatal(err)
	}
	if r.PSNR != 100 || r.MSE != 0 {
		t.Errorf("PSNR=%v MSE=%v, want 100 0", r.PSNR, r.MSE)
	}
	if r.SSIM < 0.9999 {
		t.Errorf("SSIM = %v, want 1", r.SSIM)
	}
	if r.Butteraugli != -1 || r.Sample != 1 {
		t.Errorf("Butteraugli=%v Sample=%d", r.Butteraugli, r.Sample)
	}
}

func TestDegradationLowersScores(t *testing.T) {
	a := checker(32, 32, 20, 230)
	near := checker(32, 32, 24, 226)
	far := checker(32, 32, 100, 150)
	if PSNR(a, near, 1) <= PSNR(a, far, 1) {
		t.Error("PSNR does not rank the closer image higher")
	}
	if MSE(a, near, 1) >= MSE(a, far, 1) {
		t.Error("MSE does not rank the closer image lower")
	}
	if SSIM(a, near, 1) <= SSIM(a, far, 1) {
		t.Error("SSIM does not rank the closer image higher")
	}
}

func TestCompareSizeMismatch(t *testing.T) {
	if _, err := Compare(checker(8, 8, 0, 1), checker(8, 9, 0, 1), false); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("err = %v, want ErrSizeMismatch", err)
	}
}

func TestAdaptiveSample(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{1200, 800, 1},
		{2000, 1500, 2},
		{4000, 4000, 4},
		{8000, 8000, 8},
		{10000, 10000, 16},
		{20000, 20000, 0},
	}
	for _, tt := range tests {
		if got := AdaptiveSample(image.Rect(0, 0, tt.w, tt.h)); got != tt.want {
			t.Errorf("AdaptiveSample(%dx%d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}
