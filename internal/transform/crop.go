package transform

import (
	"errors"
	"image"
)

// ErrSessionClosed is returned when confirming a crop session that was
// already confirmed or cancelled.
var ErrSessionClosed = errors.New("transform: crop session closed")

// Cropper is the interactive crop tool. Begin hands it the raster to show;
// the returned session yields the user's selection.
type Cropper interface {
	Begin(img *image.NRGBA) (CropSession, error)
}

// CropSession is one interactive selection. Exactly one of Confirm or Cancel
// ends it; Cancel on an ended session is a no-op.
type CropSession interface {
	Confirm() (image.Rectangle, error)
	Cancel()
}

// DefaultCropArea is the share of each dimension preselected when a crop starts.
const DefaultCropArea = 0.8

// DefaultSelection returns a centered rectangle covering DefaultCropArea of
// each dimension of b.
func DefaultSelection(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	cw := max(1, int(float64(w)*DefaultCropArea))
	ch := max(1, int(float64(h)*DefaultCropArea))
	x := (w - cw) / 2
	y := (h - ch) / 2
	return image.Rect(x, y, x+cw, y+ch)
}

// FixedCropper is a non-interactive Cropper that always selects Rect, or the
// default centered selection when Rect is empty. The selection is clamped to
// the raster so a fixed rectangle survives earlier rotations.
type FixedCropper struct {
	Rect image.Rectangle
}

func (c FixedCropper) Begin(img *image.NRGBA) (CropSession, error) {
	b := img.Bounds()
	full := image.Rect(0, 0, b.Dx(), b.Dy())
	sel := c.Rect
	if sel.Empty() {
		sel = DefaultSelection(full)
	}
	return &fixedSession{sel: sel.Intersect(full)}, nil
}

type fixedSession struct {
	sel  image.Rectangle
	done bool
}

func (s *fixedSession) Confirm() (image.Rectangle, error) {
	if s.done {
		return image.Rectangle{}, ErrSessionClosed
	}
	s.done = true
	return s.sel, nil
}

func (s *fixedSession) Cancel() { s.done = true }
