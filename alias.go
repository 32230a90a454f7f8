package picfix

import (
	"picfix/internal/encode"
	"picfix/internal/filter"
	"picfix/internal/metric"
	"picfix/internal/transform"
)

// Types from the internal packages that appear in the Session API.
type (
	FilterParams = filter.Params
	Axis         = transform.Axis
	Cropper      = transform.Cropper
	CropSession  = transform.CropSession
	Encoder      = encode.Encoder
	Report       = metric.Report
)

const (
	Horizontal = transform.Horizontal
	Vertical   = transform.Vertical
)

// IdentityFilters leaves the image unchanged.
func IdentityFilters() FilterParams { return filter.Identity() }
