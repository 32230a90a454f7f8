package picfix

import (
	"fmt"

	"picfix/internal/transform"
)

// BeginCrop hands the displayed raster to the crop tool. A crop already in
// progress is cancelled first; history is not touched.
func (s *Session) BeginCrop() error {
	if !s.Loaded() {
		return ErrNoImage
	}
	s.cancelCrop()
	cs, err := s.cropper.Begin(s.working)
	if err != nil {
		return fmt.Errorf("picfix: begin crop: %w", err)
	}
	s.crop = cs
	s.log.Debug("crop started")
	return nil
}

// CropActive reports whether a crop session is waiting for confirmation.
func (s *Session) CropActive() bool { return s.crop != nil }

// ConfirmCrop applies the selected rectangle and commits.
func (s *Session) ConfirmCrop() error {
	if s.crop == nil {
		return ErrNoCrop
	}
	cs := s.crop
	s.crop = nil
	rect, err := cs.Confirm()
	if err != nil {
		return fmt.Errorf("picfix: confirm crop: %w", err)
	}

	_, base, err := s.current()
	if err != nil {
		return err
	}
	cropped, err := transform.Crop(base, rect)
	if err != nil {
		return err
	}
	s.commit(fmt.Sprintf("crop %v", rect), cropped, s.live)
	return nil
}

// CancelCrop abandons the crop in progress, if any.
func (s *Session) CancelCrop() { s.cancelCrop() }

func (s *Session) cancelCrop() {
	if s.crop == nil {
		return
	}
	s.crop.Cancel()
	s.crop = nil
	s.log.Debug("crop cancelled")
}
