package picfix

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"picfix/internal/raster"
	"picfix/internal/transform"
)

func testImage(w, h int) *image.NRGBA {
	img := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 9), G: uint8(y * 13), B: uint8((x + y) * 5), A: 255})
		}
	}
	return img
}

func loadedSession(t *testing.T, w, h int, opts ...Option) *Session {
	t.Helper()
	s := New(opts...)
	s.LoadImage(testImage(w, h))
	return s
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func working(t *testing.T, s *Session) *image.NRGBA {
	t.Helper()
	img, err := s.Working()
	if err != nil {
		t.Fatal(err)
	}
	return raster.Clone(img)
}

func decline(string) bool { return false }

// recordingCropper hands out sessions that remember how they ended.
type recordingCropper struct {
	rect     image.Rectangle
	sessions []*recordingSession
}

type recordingSession struct {
	rect      image.Rectangle
	cancelled bool
	confirmed bool
}

func (c *recordingCropper) Begin(*image.NRGBA) (transform.CropSession, error) {
	cs := &recordingSession{rect: c.rect}
	c.sessions = append(c.sessions, cs)
	return cs, nil
}

func (s *recordingSession) Confirm() (image.Rectangle, error) {
	s.confirmed = true
	return s.rect, nil
}

func (s *recordingSession) Cancel() { s.cancelled = true }
