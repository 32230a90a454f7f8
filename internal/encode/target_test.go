package encode

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"picfix/internal/raster"
)

// linearEncoder produces payloads whose size grows linearly from minSize at
// quality 0.1 to maxSize at quality 1.0.
type linearEncoder struct {
	minSize, maxSize int
	calls            int
	qualities        []float64
}

func (e *linearEncoder) Name() string { return "linear" }

func (e *linearEncoder) Encode(_ image.Image, q float64) ([]byte, error) {
	e.calls++
	e.qualities = append(e.qualities, q)
	size := float64(e.minSize) + (q-0.1)/0.9*float64(e.maxSize-e.minSize)
	return make([]byte, int(size)), nil
}

type failingEncoder struct{}

func (failingEncoder) Name() string { return "failing" }
func (failingEncoder) Encode(image.Image, float64) ([]byte, error) {
	return nil, errors.New("boom")
}

func noise(w, h int) *image.NRGBA {
	img := raster.New(w, h)
	seed := uint32(1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			seed = seed*1103515245 + 12345
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(seed >> 16), G: uint8(seed >> 8), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func TestCompressToTargetConverges(t *testing.T) {
	enc := &linearEncoder{minSize: 10 * 1024, maxSize: 200 * 1024}
	target := 50 * 1024
	res, err := CompressToTarget(context.Background(), enc, noise(2, 2), target, DefaultSearch())
	if err != nil {
		t.Fatal(err)
	}
	if res.Iterations > 10 {
		t.Errorf("Iterations = %d, want <= 10", res.Iterations)
	}
	if !res.Converged {
		t.Errorf("did not converge: size %d for target %d", res.Size, target)
	}
	if res.Size != len(res.Payload) {
		t.Errorf("Size = %d, len(Payload) = %d", res.Size, len(res.Payload))
	}
	if enc.qualities[0] != 0.9 {
		t.Errorf("first quality = %v, want 0.9", enc.qualities[0])
	}
}

func TestCompressToTargetUnreachableBelow(t *testing.T) {
	enc := &linearEncoder{minSize: 10 * 1024, maxSize: 200 * 1024}
	res, err := CompressToTarget(context.Background(), enc, noise(2, 2), 1024, DefaultSearch())
	if err != nil {
		t.Fatal(err)
	}
	if res.Converged {
		t.Error("reported convergence on an unreachable target")
	}
	if res.Iterations != 10 || enc.calls != 11 {
		t.Errorf("iterations=%d calls=%d, want 10 11", res.Iterations, enc.calls)
	}
	if res.Quality > 0.11 {
		t.Errorf("Quality = %v, want the lower boundary", res.Quality)
	}
	if res.Size > 11*1024 {
		t.Errorf("Size = %d, want close to the 10KB floor", res.Size)
	}
}

func TestCompressToTargetUnreachableAbove(t *testing.T) {
	enc := &linearEncoder{minSize: 10 * 1024, maxSize: 200 * 1024}
	res, err := CompressToTarget(context.Background(), enc, noise(2, 2), 400*1024, DefaultSearch())
	if err != nil {
		t.Fatal(err)
	}
	if res.Converged || res.Quality < 0.99 {
		t.Errorf("quality=%v converged=%v, want upper boundary and no convergence", res.Quality, res.Converged)
	}
}

func TestCompressToTargetSearchOrder(t *testing.T) {
	enc := &linearEncoder{minSize: 0, maxSize: 900}
	// Size at q=0.9 is 800, well above 300: the ceiling must drop to 0.9.
	if _, err := CompressToTarget(context.Background(), enc, noise(1, 1), 300, DefaultSearch()); err != nil {
		t.Fatal(err)
	}
	if got := enc.qualities[1]; got != 0.5 {
		t.Errorf("second quality = %v, want 0.5", got)
	}
	for i := 1; i < len(enc.qualities); i++ {
		if enc.qualities[i] < 0.1 || enc.qualities[i] > 1.0 {
			t.Errorf("quality %v escaped [0.1, 1.0]", enc.qualities[i])
		}
	}
}

func TestCompressToTargetErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := CompressToTarget(ctx, StdJPEG{}, noise(2, 2), 0, DefaultSearch()); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("zero target err = %v", err)
	}
	if _, err := CompressToTarget(ctx, failingEncoder{}, noise(2, 2), 100, DefaultSearch()); err == nil {
		t.Error("encoder failure not reported")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	enc := &linearEncoder{minSize: 10, maxSize: 1000}
	if _, err := CompressToTarget(cancelled, enc, noise(2, 2), 20, DefaultSearch()); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled err = %v", err)
	}
}

func TestCompressToTargetStdJPEG(t *testing.T) {
	img := noise(96, 64)
	full, err := StdJPEG{}.Encode(img, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	target := len(full) / 4
	res, err := CompressToTarget(context.Background(), StdJPEG{}, img, target, DefaultSearch())
	if err != nil {
		t.Fatal(err)
	}
	if res.Size != len(res.Payload) || res.Iterations > 10 {
		t.Errorf("Size = %d, len(Payload) = %d, Iterations = %d", res.Size, len(res.Payload), res.Iterations)
	}
	if res.Quality < 0.1 || res.Quality >= 1 {
		t.Errorf("Quality = %v outside the search range", res.Quality)
	}
	dec, err := Decode(res.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Bounds().Dx() != 96 || dec.Bounds().Dy() != 64 {
		t.Errorf("decoded bounds = %v", dec.Bounds())
	}
}

func TestParseTargetKB(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"50", 50 * 1024, true},
		{" 1.5 ", 1536, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseTargetKB(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseTargetKB(%q) = %d, %v; want %d ok=%v", tt.in, got, err, tt.want, tt.ok)
		}
		if err != nil && !errors.Is(err, ErrInvalidTarget) {
			t.Errorf("ParseTargetKB(%q) error does not wrap ErrInvalidTarget", tt.in)
		}
	}
}

func TestQualityPercent(t *testing.T) {
	for q, want := range map[float64]int{0: 1, 0.1: 10, 0.55: 55, 0.9: 90, 1: 100, 1.7: 100} {
		if got := QualityPercent(q); got != want {
			t.Errorf("QualityPercent(%v) = %d, want %d", q, got, want)
		}
	}
}

func TestNewEncoder(t *testing.T) {
	if e, err := New("std", ""); err != nil || e.Name() != "std" {
		t.Errorf("New(std) = %v, %v", e, err)
	}
	if e, err := New("jpegli", "420"); err != nil || e.(Jpegli).Chroma != image.YCbCrSubsampleRatio420 {
		t.Errorf("New(jpegli, 420) = %v, %v", e, err)
	}
	if _, err := New("jpegli", "411"); err == nil {
		t.Error("New accepted chroma 411")
	}
	if _, err := New("webp", ""); !errors.Is(err, ErrUnknownEncoder) {
		t.Errorf("New(webp) err = %v", err)
	}
}
