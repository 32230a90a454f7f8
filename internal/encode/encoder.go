// Package encode re-encodes rasters into lossy JPEG payloads, including the
// binary search that hits a target byte size.
package encode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"github.com/gen2brain/jpegli"
)

// ErrUnknownEncoder is returned by New for names it does not recognize.
var ErrUnknownEncoder = errors.New("encode: unknown encoder")

// Encoder turns a raster into a lossy payload. Quality is continuous in
// [0, 1]; implementations map it onto their own scale. Encode must be a pure
// function of its arguments.
type Encoder interface {
	Name() string
	Encode(img image.Image, quality float64) ([]byte, error)
}

// QualityPercent maps a continuous quality onto the 1..100 JPEG scale.
func QualityPercent(q float64) int {
	if math.IsNaN(q) {
		return 1
	}
	return min(100, max(1, int(math.Round(q*100))))
}

// StdJPEG encodes with the standard library encoder.
type StdJPEG struct{}

func (StdJPEG) Name() string { return "std" }

func (StdJPEG) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: QualityPercent(quality)}); err != nil {
		return nil, fmt.Errorf("encode: jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Jpegli encodes with the jpegli encoder, which usually reaches a given
// visual quality at a smaller size than the standard encoder.
type Jpegli struct {
	Chroma image.YCbCrSubsampleRatio
}

func (Jpegli) Name() string { return "jpegli" }

func (e Jpegli) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	err := jpegli.Encode(&buf, img, &jpegli.EncodingOptions{
		Quality:           QualityPercent(quality),
		ChromaSubsampling: e.Chroma,
	})
	if err != nil {
		return nil, fmt.Errorf("encode: jpegli: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseChroma maps "444", "422" and "420" to subsampling ratios.
func ParseChroma(s string) (image.YCbCrSubsampleRatio, error) {
	switch s {
	case "444", "":
		return image.YCbCrSubsampleRatio444, nil
	case "422":
		return image.YCbCrSubsampleRatio422, nil
	case "420":
		return image.YCbCrSubsampleRatio420, nil
	}
	return 0, fmt.Errorf("encode: invalid chroma subsampling %q (use 444, 422, or 420)", s)
}

// New returns the encoder registered under name ("std" or "jpegli").
func New(name, chroma string) (Encoder, error) {
	switch name {
	case "", "std", "jpeg":
		return StdJPEG{}, nil
	case "jpegli":
		ratio, err := ParseChroma(chroma)
		if err != nil {
			return nil, err
		}
		return Jpegli{Chroma: ratio}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoder, name)
}

// Decode turns a payload produced by an Encoder back into an image.
func Decode(payload []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("encode: decode payload: %w", err)
	}
	return img, nil
}
