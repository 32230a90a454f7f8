package encode

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrNotDataURL is returned by DataURLSize for strings without a base64 payload.
var ErrNotDataURL = errors.New("encode: not a base64 data URL")

// DataURL wraps payload as "data:<mime>;base64,<payload>".
func DataURL(mime string, payload []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// DataURLSize returns the exact decoded byte length of a base64 data URL
// without decoding it: every 4 characters carry 3 bytes, minus one byte per
// trailing '=' pad.
func DataURLSize(url string) (int, error) {
	comma := strings.IndexByte(url, ',')
	if !strings.HasPrefix(url, "data:") || comma < 0 || !strings.HasSuffix(url[:comma], ";base64") {
		return 0, ErrNotDataURL
	}
	body := url[comma+1:]
	if len(body)%4 != 0 {
		return 0, ErrNotDataURL
	}
	padding := 0
	switch {
	case strings.HasSuffix(body, "=="):
		padding = 2
	case strings.HasSuffix(body, "="):
		padding = 1
	}
	return len(body)/4*3 - padding, nil
}
