package picfix

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"picfix/internal/encode"
)

// ExportName returns a download name stamped with the current time, e.g.
// "PicFix-edited-1700000000000.png".
func (s *Session) ExportName() string {
	return fmt.Sprintf("PicFix-edited-%d.png", s.now().UnixMilli())
}

// Export writes the displayed raster as a lossless PNG.
func (s *Session) Export(w io.Writer) error {
	img, err := s.Working()
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("picfix: export: %w", err)
	}
	return nil
}

// ExportDataURL returns the PNG export as a base64 data URL.
func (s *Session) ExportDataURL() (string, error) {
	var buf bytes.Buffer
	if err := s.Export(&buf); err != nil {
		return "", err
	}
	url := encode.DataURL("image/png", buf.Bytes())
	if n, err := encode.DataURLSize(url); err == nil {
		s.log.Debug("exported data url", "bytes", n, "length", len(url))
	}
	return url, nil
}
