package main

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"picfix"
	"picfix/internal/filter"
	"picfix/internal/transform"
)

func TestParseOps(t *testing.T) {
	ops, err := parseOps(" rotate:90, flip:h ,crop:1:2:30:40,brightness:120,blur:1.5,auto,undo,redo,reset,removebg,")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"rotate:90", "flip:0", "crop:1:2:30:40", "brightness:120", "blur:1.5", "auto", "undo", "redo", "reset", "removebg"}
	if len(ops) != len(want) {
		t.Fatalf("len(ops) = %d, want %d", len(ops), len(want))
	}
	for i, o := range ops {
		if o.String() != want[i] {
			t.Errorf("ops[%d] = %q, want %q", i, o.String(), want[i])
		}
	}
	if ops[1].args[0] != float64(transform.Horizontal) {
		t.Errorf("flip axis = %v", ops[1].args[0])
	}
}

func TestParseOpsErrors(t *testing.T) {
	for _, script := range []string{
		"spin:90",
		"rotate",
		"rotate:90:1",
		"crop:1:2:3",
		"brightness:lots",
		"flip:d",
	} {
		if _, err := parseOps(script); err == nil {
			t.Errorf("parseOps(%q) succeeded", script)
		}
	}
	if ops, err := parseOps(""); err != nil || len(ops) != 0 {
		t.Errorf("empty script = %v, %v", ops, err)
	}
}

func TestApplyScript(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})

	c := &scriptCropper{}
	s := picfix.New(picfix.WithCropper(c))
	s.LoadImage(img)

	ops, err := parseOps("rotate:90,crop:0:0:10:30,brightness:120,contrast:90,undo,redo,removebg")
	if err != nil {
		t.Fatal(err)
	}
	var warnings []string
	for _, o := range ops {
		w, err := apply(s, c, o)
		if err != nil {
			t.Fatalf("%s: %v", o, err)
		}
		if w != "" {
			warnings = append(warnings, w)
		}
	}
	if s.Bounds() != image.Rect(0, 0, 10, 30) {
		t.Errorf("Bounds = %v, want 10x30", s.Bounds())
	}
	if got, want := s.Filters(), (filter.Params{Brightness: 120, Contrast: 90}); got != want {
		t.Errorf("Filters = %+v, want %+v", got, want)
	}
	if s.HistoryLen() != 5 {
		t.Errorf("HistoryLen = %d, want 5", s.HistoryLen())
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %q, want one for removebg", warnings)
	}
}

func TestApplyCropOutOfBounds(t *testing.T) {
	for _, script := range []string{
		"crop:0:0:0:0",
		"crop:-5:-5:10:10",
		"crop:10:10:15:5",
		"crop:15:15:-10:-10",
	} {
		c := &scriptCropper{}
		s := picfix.New(picfix.WithCropper(c))
		s.LoadImage(image.NewNRGBA(image.Rect(0, 0, 20, 20)))

		ops, err := parseOps(script)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := apply(s, c, ops[0]); !errors.Is(err, transform.ErrInvalidCrop) {
			t.Errorf("%s: err = %v, want ErrInvalidCrop", script, err)
		}
		if s.Bounds() != image.Rect(0, 0, 20, 20) || s.HistoryLen() != 1 {
			t.Errorf("%s: bounds=%v len=%d, want untouched", script, s.Bounds(), s.HistoryLen())
		}
	}
}
