package filter

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned by Validate for negative or non-finite values.
var ErrInvalidParams = errors.New("filter: invalid parameters")

// Params is the adjustment state of one edit. It is a plain value; copying it
// never aliases.
type Params struct {
	Brightness float64 `json:"brightness" yaml:"brightness"` // percent, 100 = unchanged
	Contrast   float64 `json:"contrast" yaml:"contrast"`     // percent, 100 = unchanged
	Blur       float64 `json:"blur" yaml:"blur"`             // radius in pixels
}

// Identity returns parameters that leave a raster untouched.
func Identity() Params {
	return Params{Brightness: 100, Contrast: 100}
}

// AutoRetouch is the one-click enhancement preset.
func AutoRetouch() Params {
	return Params{Brightness: 110, Contrast: 105}
}

// IsIdentity reports whether p changes nothing.
func (p Params) IsIdentity() bool {
	return p.Brightness == 100 && p.Contrast == 100 && p.Blur <= 0
}

// Validate rejects values outside [0, +Inf).
func (p Params) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"brightness", p.Brightness},
		{"contrast", p.Contrast},
		{"blur", p.Blur},
	} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) || v.val < 0 {
			return fmt.Errorf("%w: %s = %v", ErrInvalidParams, v.name, v.val)
		}
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("brightness(%g%%) contrast(%g%%) blur(%gpx)", p.Brightness, p.Contrast, p.Blur)
}
