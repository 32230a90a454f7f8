package picfix

import (
	"context"
	"errors"
	"image"
	"testing"

	"picfix/internal/encode"
	"picfix/internal/filter"
)

// sizedEncoder emits a real JPEG padded to a size that grows with quality.
type sizedEncoder struct{}

func (sizedEncoder) Name() string { return "sized" }

func (sizedEncoder) Encode(img image.Image, q float64) ([]byte, error) {
	payload, err := encode.StdJPEG{}.Encode(img, 0.5)
	if err != nil {
		return nil, err
	}
	pad := make([]byte, int(q*100000))
	// Bytes after EOI are ignored by the decoder.
	return append(payload, pad...), nil
}

func TestCompressRejectsBadTarget(t *testing.T) {
	s := loadedSession(t, 8, 8)
	for _, in := range []string{"", "abc", "0", "-10"} {
		if _, err := s.Compress(context.Background(), in); !errors.Is(err, encode.ErrInvalidTarget) {
			t.Errorf("Compress(%q) err = %v", in, err)
		}
	}
	if s.HistoryLen() != 1 {
		t.Error("rejected target changed history")
	}
}

func TestCompressAndApply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	s := loadedSession(t, 32, 24, WithConfig(cfg), WithEncoder(sizedEncoder{}))
	s.PreviewFilters(filter.Params{Brightness: 120, Contrast: 100})

	p, err := s.Compress(context.Background(), "40")
	if err != nil {
		t.Fatal(err)
	}
	if p.Size != len(p.Payload) || p.Iterations > 10 {
		t.Errorf("Size=%d len=%d Iterations=%d", p.Size, len(p.Payload), p.Iterations)
	}
	if !p.Converged {
		t.Errorf("did not converge: %d bytes for %d", p.Size, p.Target)
	}
	if p.Report == nil || p.Report.PSNR <= 0 {
		t.Errorf("Report = %+v", p.Report)
	}
	if s.HistoryLen() != 1 {
		t.Fatal("Compress committed before apply")
	}

	if ok, _ := s.ApplyCompression(p, decline); ok || s.HistoryLen() != 1 {
		t.Fatal("declined apply committed")
	}
	ok, err := s.ApplyCompression(p, AutoConfirm)
	if err != nil || !ok {
		t.Fatalf("ApplyCompression = %v, %v", ok, err)
	}
	if s.HistoryLen() != 2 || s.Filters() != filter.Identity() {
		t.Errorf("len=%d filters=%+v after apply", s.HistoryLen(), s.Filters())
	}
	if s.Bounds() != image.Rect(0, 0, 32, 24) {
		t.Errorf("Bounds = %v", s.Bounds())
	}
}

func TestStaleProposalRejected(t *testing.T) {
	s := loadedSession(t, 16, 16)
	p, err := s.CompressBytes(context.Background(), 2000)
	if err != nil {
		t.Fatal(err)
	}
	s.Rotate(90)
	if ok, err := s.ApplyCompression(p, AutoConfirm); ok || err == nil {
		t.Errorf("stale ApplyCompression = %v, %v", ok, err)
	}
	if s.HistoryLen() != 2 {
		t.Errorf("HistoryLen = %d, want 2", s.HistoryLen())
	}
}
