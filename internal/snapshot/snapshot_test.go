package snapshot

import (
	"image"
	"image/color"
	"testing"

	"picfix/internal/raster"
)

func noisy(w, h int) *image.NRGBA {
	img := raster.New(w, h)
	seed := uint32(7)
	for i := range img.Pix {
		seed = seed*1664525 + 1013904223
		img.Pix[i] = uint8(seed >> 24)
	}
	return img
}

func TestZstdRoundTrip(t *testing.T) {
	z := NewZstd()
	for _, img := range []*image.NRGBA{noisy(17, 9), raster.New(64, 64), noisy(1, 1)} {
		p := z.Pack(img)
		if p.Width() != img.Bounds().Dx() || p.Height() != img.Bounds().Dy() {
			t.Errorf("dims = %dx%d, want %v", p.Width(), p.Height(), img.Bounds())
		}
		got, err := z.Unpack(p)
		if err != nil {
			t.Fatalf("Unpack: %v", err)
		}
		if !raster.Equal(got, img) {
			t.Errorf("round trip of %v is not bit-identical", img.Bounds())
		}
	}
}

func TestZstdCompressesFlatImage(t *testing.T) {
	img := raster.New(200, 200)
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 40, G: 80, B: 120, A: 255})
		}
	}
	p := NewZstd().Pack(img)
	if p.Size() >= len(img.Pix)/10 {
		t.Errorf("Size = %d, want well under %d", p.Size(), len(img.Pix))
	}
}

func TestZstdSubImage(t *testing.T) {
	src := noisy(10, 10)
	sub := src.SubImage(image.Rect(3, 3, 8, 6)).(*image.NRGBA)
	got, err := NewZstd().Unpack(NewZstd().Pack(sub))
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if !raster.Equal(got, sub) {
		t.Error("sub-image round trip differs")
	}
}

func TestZstdCorrupt(t *testing.T) {
	z := NewZstd()
	p := z.Pack(noisy(4, 4))
	p.data = p.data[:len(p.data)/2]
	if _, err := z.Unpack(p); err == nil {
		t.Error("Unpack of truncated payload succeeded")
	}
}

func TestRaw(t *testing.T) {
	img := noisy(3, 3)
	got, err := Raw{}.Unpack(Raw{}.Pack(img))
	if err != nil || got != img {
		t.Errorf("Raw round trip = %p, %v; want %p", got, err, img)
	}
	if _, err := (Raw{}).Unpack(Packed{}); err == nil {
		t.Error("Raw.Unpack of empty snapshot succeeded")
	}
}
