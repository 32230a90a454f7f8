package main

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"picfix"
	"picfix/internal/transform"
)

// op is one step of an edit script, e.g. "rotate:90" or "crop:10:10:200:100".
type op struct {
	name string
	args []float64
}

func (o op) String() string {
	if len(o.args) == 0 {
		return o.name
	}
	parts := make([]string, 0, len(o.args)+1)
	parts = append(parts, o.name)
	for _, a := range o.args {
		parts = append(parts, strconv.FormatFloat(a, 'f', -1, 64))
	}
	return strings.Join(parts, ":")
}

// arity lists the number of numeric arguments each operation takes.
var arity = map[string]int{
	"rotate":     1,
	"flip":       1,
	"crop":       4,
	"brightness": 1,
	"contrast":   1,
	"blur":       1,
	"auto":       0,
	"undo":       0,
	"redo":       0,
	"reset":      0,
	"removebg":   0,
}

// parseOps parses a comma separated edit script. The flip axis is given as
// h or v and stored as 0 or 1.
func parseOps(script string) ([]op, error) {
	var ops []op
	for _, raw := range strings.Split(script, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		fields := strings.Split(raw, ":")
		name := strings.ToLower(fields[0])
		n, ok := arity[name]
		if !ok {
			return nil, fmt.Errorf("unknown operation %q", raw)
		}
		if len(fields)-1 != n {
			return nil, fmt.Errorf("operation %q takes %d argument(s)", name, n)
		}
		o := op{name: name}
		for _, f := range fields[1:] {
			if name == "flip" {
				axis, err := transform.ParseAxis(f)
				if err != nil {
					return nil, fmt.Errorf("operation %q: %w", raw, err)
				}
				o.args = append(o.args, float64(axis))
				continue
			}
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("operation %q: bad number %q", raw, f)
			}
			o.args = append(o.args, v)
		}
		ops = append(ops, o)
	}
	return ops, nil
}

// scriptCropper feeds crop rectangles from the edit script to the session.
// The rectangle is passed on as written, so bounds are checked by the crop
// itself rather than clipped.
type scriptCropper struct {
	next image.Rectangle
}

func (c *scriptCropper) Begin(*image.NRGBA) (transform.CropSession, error) {
	return &scriptSelection{rect: c.next}, nil
}

type scriptSelection struct {
	rect image.Rectangle
	done bool
}

func (s *scriptSelection) Confirm() (image.Rectangle, error) {
	if s.done {
		return image.Rectangle{}, transform.ErrSessionClosed
	}
	s.done = true
	return s.rect, nil
}

func (s *scriptSelection) Cancel() { s.done = true }

// apply runs o against s. Unavailable features are reported as warnings
// rather than failing the whole script.
func apply(s *picfix.Session, c *scriptCropper, o op) (warning string, err error) {
	switch o.name {
	case "rotate":
		return "", s.Rotate(int(o.args[0]))
	case "flip":
		return "", s.Flip(transform.Axis(o.args[0]))
	case "crop":
		x, y, w, h := int(o.args[0]), int(o.args[1]), int(o.args[2]), int(o.args[3])
		// Not image.Rect, which would swap a negative width into a valid rectangle.
		c.next = image.Rectangle{Min: image.Pt(x, y), Max: image.Pt(x+w, y+h)}
		if err := s.BeginCrop(); err != nil {
			return "", err
		}
		return "", s.ConfirmCrop()
	case "brightness", "contrast", "blur":
		p := s.Filters()
		switch o.name {
		case "brightness":
			p.Brightness = o.args[0]
		case "contrast":
			p.Contrast = o.args[0]
		default:
			p.Blur = o.args[0]
		}
		return "", s.CommitFilters(p)
	case "auto":
		return "", s.AutoRetouch()
	case "undo":
		if ok, err := s.Undo(); err != nil || !ok {
			return "nothing to undo", err
		}
	case "redo":
		if ok, err := s.Redo(); err != nil || !ok {
			return "nothing to redo", err
		}
	case "reset":
		_, err := s.Reset(picfix.AutoConfirm)
		return "", err
	case "removebg":
		if err := s.RemoveBackground(); errors.Is(err, picfix.ErrUnavailable) {
			return err.Error(), nil
		} else if err != nil {
			return "", err
		}
	}
	return "", nil
}
