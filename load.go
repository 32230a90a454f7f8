package picfix

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Load decodes an image file (PNG, JPEG, GIF, WebP, BMP or TIFF) and starts
// editing it. On error the session is left as it was.
func (s *Session) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("picfix: read image: %w", err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("picfix: decode image: %w", err)
	}
	s.LoadImage(img)
	s.sourceBytes = len(data)
	s.log.Debug("decoded", "format", format, "bytes", len(data))
	return nil
}

// SourceSize is the byte size of the file passed to Load, 0 after LoadImage.
func (s *Session) SourceSize() int { return s.sourceBytes }
