// Package transform implements the geometric edits: quarter-turn rotation,
// mirroring and cropping. All functions return new rasters and leave their
// input untouched.
package transform

import (
	"errors"
	"fmt"
	"image"

	"picfix/internal/raster"
)

var (
	// ErrUnsupportedAngle is returned for rotations other than ±90 degrees.
	ErrUnsupportedAngle = errors.New("transform: unsupported rotation angle")
	// ErrInvalidCrop is returned when a crop rectangle is empty or leaves the raster.
	ErrInvalidCrop = errors.New("transform: crop rectangle out of bounds")
	// ErrUnknownAxis is returned by ParseAxis and Flip for unknown axes.
	ErrUnknownAxis = errors.New("transform: unknown flip axis")
)

// Axis selects the mirror line of a flip.
type Axis int

const (
	// Horizontal mirrors left to right.
	Horizontal Axis = iota
	// Vertical mirrors top to bottom.
	Vertical
)

func (a Axis) String() string {
	switch a {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// ParseAxis accepts "h", "horizontal", "v" and "vertical".
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "h", "horizontal":
		return Horizontal, nil
	case "v", "vertical":
		return Vertical, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAxis, s)
}

// Rotate turns src a quarter turn. Positive degrees rotate clockwise.
// Width and height are swapped; no resampling takes place.
func Rotate(src *image.NRGBA, degrees int) (*image.NRGBA, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := raster.New(h, w)

	var at func(dx, dy int) (int, int)
	switch degrees {
	case 90:
		at = func(dx, dy int) (int, int) { return dy, h - 1 - dx }
	case -90:
		at = func(dx, dy int) (int, int) { return w - 1 - dy, dx }
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedAngle, degrees)
	}

	for dy := 0; dy < w; dy++ {
		di := dy * dst.Stride
		for dx := 0; dx < h; dx++ {
			sx, sy := at(dx, dy)
			si := src.PixOffset(b.Min.X+sx, b.Min.Y+sy)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
			di += 4
		}
	}
	return dst, nil
}

// Flip mirrors src along axis. Dimensions are unchanged.
func Flip(src *image.NRGBA, axis Axis) (*image.NRGBA, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	rowSize := w * 4
	dst := raster.New(w, h)

	switch axis {
	case Horizontal:
		for y := 0; y < h; y++ {
			i := y * dst.Stride
			so := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[i:i+rowSize], src.Pix[so:so+rowSize])
			reverse(dst.Pix[i : i+rowSize])
		}
	case Vertical:
		for y := 0; y < h; y++ {
			i := y * dst.Stride
			so := src.PixOffset(b.Min.X, b.Max.Y-1-y)
			copy(dst.Pix[i:i+rowSize], src.Pix[so:so+rowSize])
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownAxis, axis)
	}
	return dst, nil
}

// reverse reverses the order of 4-byte pixels in a row.
func reverse(pix []uint8) {
	for i, j := 0, len(pix)-4; i < j; i, j = i+4, j-4 {
		pix[i+0], pix[j+0] = pix[j+0], pix[i+0]
		pix[i+1], pix[j+1] = pix[j+1], pix[i+1]
		pix[i+2], pix[j+2] = pix[j+2], pix[i+2]
		pix[i+3], pix[j+3] = pix[j+3], pix[i+3]
	}
}

// Crop copies the region r (in src's origin-relative coordinates) into a new
// raster of r's size.
func Crop(src *image.NRGBA, r image.Rectangle) (*image.NRGBA, error) {
	b := src.Bounds()
	full := image.Rect(0, 0, b.Dx(), b.Dy())
	if r.Empty() || !r.In(full) {
		return nil, fmt.Errorf("%w: %v not within %v", ErrInvalidCrop, r, full)
	}
	sub := src.SubImage(r.Add(b.Min)).(*image.NRGBA)
	return raster.Clone(sub), nil
}
