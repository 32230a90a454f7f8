package picfix

import (
	"context"
	"fmt"
	"image"

	"picfix/internal/encode"
	"picfix/internal/filter"
	"picfix/internal/metric"
	"picfix/internal/raster"
)

// Proposal is a re-encoded version of the displayed raster awaiting the
// user's decision. Nothing changes until ApplyCompression.
type Proposal struct {
	encode.Result
	Encoder string
	// Report is nil unless metrics are enabled.
	Report *metric.Report

	decoded *image.NRGBA
	gen     uint64 // session state the proposal was made against
}

// SizeKB is the achieved size in kilobytes.
func (p *Proposal) SizeKB() float64 { return float64(p.Size) / 1024 }

// Compress re-encodes the displayed raster to approximately targetKB
// kilobytes. Invalid input is rejected with encode.ErrInvalidTarget before
// any encoding happens. Missing the target is not an error: the proposal
// carries the closest size reached.
func (s *Session) Compress(ctx context.Context, targetKB string) (*Proposal, error) {
	target, err := encode.ParseTargetKB(targetKB)
	if err != nil {
		return nil, err
	}
	return s.CompressBytes(ctx, target)
}

// CompressBytes is Compress with the target already in bytes.
func (s *Session) CompressBytes(ctx context.Context, targetBytes int) (*Proposal, error) {
	img, err := s.Working()
	if err != nil {
		return nil, err
	}
	search := s.cfg.search()
	search.Logger = s.log
	res, err := encode.CompressToTarget(ctx, s.encoder, img, targetBytes, search)
	if err != nil {
		return nil, err
	}

	dec, err := encode.Decode(res.Payload)
	if err != nil {
		return nil, err
	}
	p := &Proposal{
		Result:  res,
		Encoder: s.encoder.Name(),
		decoded: raster.FromImage(dec),
		gen:     s.gen,
	}
	if s.cfg.Metrics.Enabled {
		rep, err := metric.Compare(img, p.decoded, s.cfg.Metrics.Perceptual)
		if err != nil {
			s.log.Warn("quality metrics failed", "err", err)
		} else {
			p.Report = &rep
		}
	}
	s.log.Info("compression proposed",
		"encoder", p.Encoder,
		"target", targetBytes,
		"size", res.Size,
		"quality", res.Quality,
		"iterations", res.Iterations,
		"converged", res.Converged)
	return p, nil
}

// ApplyCompression replaces the image with the decoded proposal, after
// confirmation, and commits. The filters that produced the proposal are
// baked in, so the new entry carries identity parameters.
func (s *Session) ApplyCompression(p *Proposal, confirm Confirmer) (bool, error) {
	if !s.Loaded() {
		return false, ErrNoImage
	}
	if p == nil || p.decoded == nil {
		return false, fmt.Errorf("picfix: empty compression proposal")
	}
	if p.gen != s.gen {
		return false, fmt.Errorf("picfix: compression proposal is stale")
	}
	if !confirm.ask(fmt.Sprintf("Compressed to %.2f KB. Apply this compression?", p.SizeKB())) {
		return false, nil
	}
	s.commit("compress", p.decoded, filter.Identity())
	return true, nil
}
