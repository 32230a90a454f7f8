package encode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidTarget is returned for target sizes that are not positive numbers.
var ErrInvalidTarget = errors.New("encode: target size must be a positive number")

// Search tunes the quality bisection. The zero value is not useful; start
// from DefaultSearch.
type Search struct {
	InitialQuality float64
	MinQuality     float64
	MaxQuality     float64
	MaxIterations  int
	// Tolerance is the accepted distance from the target as a fraction of it.
	Tolerance float64
	Logger    *slog.Logger
}

// DefaultSearch starts at 0.9 within [0.1, 1.0] and stops after 10 steps or
// once within 5% of the target.
func DefaultSearch() Search {
	return Search{
		InitialQuality: 0.9,
		MinQuality:     0.1,
		MaxQuality:     1.0,
		MaxIterations:  10,
		Tolerance:      0.05,
	}
}

// Result is the outcome of a size-constrained encode.
type Result struct {
	Payload    []byte
	Size       int
	Quality    float64
	Iterations int
	Target     int
	// Converged reports whether Size ended within tolerance of Target.
	Converged bool
}

func withinTolerance(size, target int, tol float64) bool {
	return math.Abs(float64(size-target)) <= tol*float64(target)
}

// CompressToTarget searches for the quality whose payload size is closest to
// targetBytes. It always returns the last payload it produced, whether or not
// the tolerance was met; only encoder failures and cancellation are errors.
func CompressToTarget(ctx context.Context, enc Encoder, img image.Image, targetBytes int, s Search) (Result, error) {
	if targetBytes <= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidTarget, targetBytes)
	}
	log := s.Logger
	if log == nil {
		log = slog.New(discardHandler{})
	}

	q, lo, hi := s.InitialQuality, s.MinQuality, s.MaxQuality
	payload, err := enc.Encode(img, q)
	if err != nil {
		return Result{}, err
	}
	size := len(payload)
	log.Debug("encode attempt", "encoder", enc.Name(), "iteration", 0, "quality", q, "size", size, "target", targetBytes)

	iterations := 0
	for iterations < s.MaxIterations && !withinTolerance(size, targetBytes, s.Tolerance) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if size > targetBytes {
			hi = q
		} else {
			lo = q
		}
		q = (lo + hi) / 2

		payload, err = enc.Encode(img, q)
		if err != nil {
			return Result{}, err
		}
		size = len(payload)
		iterations++
		log.Debug("encode attempt", "encoder", enc.Name(), "iteration", iterations, "quality", q, "size", size, "target", targetBytes)
	}

	return Result{
		Payload:    payload,
		Size:       size,
		Quality:    q,
		Iterations: iterations,
		Target:     targetBytes,
		Converged:  withinTolerance(size, targetBytes, s.Tolerance),
	}, nil
}

// ParseTargetKB parses a user-entered size in kilobytes and returns bytes.
func ParseTargetKB(s string) (int, error) {
	kb, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(kb) || math.IsInf(kb, 0) || kb <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	b := int(math.Round(kb * 1024))
	if b <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	return b, nil
}
