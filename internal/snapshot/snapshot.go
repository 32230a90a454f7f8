// Package snapshot stores committed rasters for the history log, optionally
// compressed with zstd so a full log of large frames stays small in memory.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrCorrupt is returned when a packed snapshot cannot be restored.
var ErrCorrupt = errors.New("snapshot: corrupt payload")

// Packed is an opaque stored raster.
type Packed struct {
	w, h int
	img  *image.NRGBA // set by Raw
	data []byte       // set by Zstd
}

// Width and Height report the stored dimensions without unpacking.
func (p Packed) Width() int  { return p.w }
func (p Packed) Height() int { return p.h }

// Size is the number of bytes the snapshot holds on to.
func (p Packed) Size() int {
	if p.img != nil {
		return len(p.img.Pix)
	}
	return len(p.data)
}

// Packer converts committed rasters to and from their stored form.
// Unpack must return samples identical to what was packed.
type Packer interface {
	Pack(img *image.NRGBA) Packed
	Unpack(p Packed) (*image.NRGBA, error)
}

// Raw keeps rasters as they are. Callers must not mutate a packed raster.
type Raw struct{}

func (Raw) Pack(img *image.NRGBA) Packed {
	b := img.Bounds()
	return Packed{w: b.Dx(), h: b.Dy(), img: img}
}

func (Raw) Unpack(p Packed) (*image.NRGBA, error) {
	if p.img == nil {
		return nil, ErrCorrupt
	}
	return p.img, nil
}

// Zstd compresses the tight pixel buffer of each raster.
type Zstd struct {
	once sync.Once
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	err  error
}

// NewZstd returns a zstd packer. Encoder and decoder are created lazily.
func NewZstd() *Zstd {
	return &Zstd{}
}

func (z *Zstd) init() {
	z.once.Do(func() {
		z.enc, z.err = zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedFastest),
			zstd.WithLowerEncoderMem(true),
		)
		if z.err != nil {
			return
		}
		z.dec, z.err = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(true),
		)
	})
}

func (z *Zstd) Pack(img *image.NRGBA) Packed {
	z.init()
	b := img.Bounds()
	p := Packed{w: b.Dx(), h: b.Dy()}
	if z.err != nil {
		// Fall back to holding the raster uncompressed.
		p.img = img
		return p
	}
	p.data = z.enc.EncodeAll(tight(img), make([]byte, 0, len(img.Pix)/4))
	return p
}

func (z *Zstd) Unpack(p Packed) (*image.NRGBA, error) {
	if p.img != nil {
		return p.img, nil
	}
	z.init()
	if z.err != nil {
		return nil, fmt.Errorf("snapshot: zstd init: %w", z.err)
	}
	pix, err := z.dec.DecodeAll(p.data, make([]byte, 0, p.w*p.h*4))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(pix) != p.w*p.h*4 {
		return nil, ErrCorrupt
	}
	return &image.NRGBA{Pix: pix, Stride: p.w * 4, Rect: image.Rect(0, 0, p.w, p.h)}, nil
}

// tight returns the pixel rows of img without stride padding.
func tight(img *image.NRGBA) []byte {
	b := img.Bounds()
	rowLen := b.Dx() * 4
	if img.Stride == rowLen && b.Min == (image.Point{}) {
		return img.Pix[:rowLen*b.Dy()]
	}
	out := make([]byte, 0, rowLen*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		o := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[o:o+rowLen]...)
	}
	return out
}
