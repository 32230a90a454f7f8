package picfix

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"picfix/internal/encode"
	"picfix/internal/filter"
	"picfix/internal/history"
	"picfix/internal/raster"
	"picfix/internal/snapshot"
	"picfix/internal/transform"
)

var (
	// ErrNoImage is returned by editing operations before an image is loaded
	// or after the session was closed.
	ErrNoImage = errors.New("picfix: no image loaded")
	// ErrUnavailable is returned by features that need an external service.
	ErrUnavailable = errors.New("picfix: feature unavailable")
	// ErrNoCrop is returned when confirming without an active crop session.
	ErrNoCrop = errors.New("picfix: no crop in progress")
)

// Confirmer asks the user to approve a destructive action. Returning false
// leaves the session untouched. A nil Confirmer declines.
type Confirmer func(prompt string) bool

func (c Confirmer) ask(prompt string) bool {
	return c != nil && c(prompt)
}

// AutoConfirm approves every prompt.
func AutoConfirm(string) bool { return true }

// Option configures a Session.
type Option func(*Session)

// WithConfig replaces the default configuration. Zero fields take defaults.
func WithConfig(cfg Config) Option {
	return func(s *Session) {
		cfg.applyDefaults()
		s.cfg = cfg
	}
}

// WithLogger sets the session logger instead of the package default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithEncoder overrides the encoder chosen by the configuration.
func WithEncoder(e encode.Encoder) Option {
	return func(s *Session) { s.encoder = e }
}

// WithCropper sets the interactive crop tool. The default selects the
// centered 80% of the image.
func WithCropper(c transform.Cropper) Option {
	return func(s *Session) { s.cropper = c }
}

// WithClock replaces time.Now, used for export names.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is one editing session over one image.
//
// History entries hold the raster before filters plus the filter parameters
// in effect. The displayed raster is always derived from the entry under the
// cursor and the live parameters, so slider previews never compound.
type Session struct {
	id      uuid.UUID
	cfg     Config
	log     *slog.Logger
	encoder encode.Encoder
	cropper transform.Cropper
	now     func() time.Time

	original    *image.NRGBA
	sourceBytes int
	history     *history.Log
	live        filter.Params
	working     *image.NRGBA
	crop        transform.CropSession
	gen         uint64 // bumped whenever the displayed raster changes
}

// New creates an empty session. Call Load or LoadImage before editing.
func New(opts ...Option) *Session {
	s := &Session{
		id:   uuid.Must(uuid.NewV7()),
		cfg:  DefaultConfig(),
		now:  time.Now,
		live: filter.Identity(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = Logger()
	}
	s.log = s.log.With("session", s.id.String())
	if s.encoder == nil {
		enc, err := encode.New(s.cfg.Encoder.Name, s.cfg.Encoder.Chroma)
		if err != nil {
			s.log.Warn("falling back to standard encoder", "encoder", s.cfg.Encoder.Name, "err", err)
			enc = encode.StdJPEG{}
		}
		s.encoder = enc
	}
	if s.cropper == nil {
		s.cropper = transform.FixedCropper{}
	}
	return s
}

// ID identifies the session in log records.
func (s *Session) ID() uuid.UUID { return s.id }

// Config returns the effective configuration.
func (s *Session) Config() Config { return s.cfg }

func (s *Session) newHistory() *history.Log {
	var p snapshot.Packer
	if s.cfg.History.Compress {
		p = snapshot.NewZstd()
	}
	return history.New(s.cfg.History.Capacity, p)
}

// LoadImage starts editing img: it is scaled down to the display bound and
// becomes both the original and the only history entry.
func (s *Session) LoadImage(img image.Image) {
	s.cancelCrop()
	s.original = raster.FitWithin(img, s.cfg.Display.MaxWidth, s.cfg.Display.MaxHeight)
	s.history = s.newHistory()
	s.live = filter.Identity()
	s.history.Commit(s.original, s.live)
	s.working = raster.Clone(s.original)
	s.gen++

	b := img.Bounds()
	s.log.Info("image loaded",
		"source_width", b.Dx(), "source_height", b.Dy(),
		"width", s.original.Bounds().Dx(), "height", s.original.Bounds().Dy())
}

// Loaded reports whether an image is being edited.
func (s *Session) Loaded() bool { return s.history != nil }

// Working returns the displayed raster. It must not be modified.
func (s *Session) Working() (*image.NRGBA, error) {
	if !s.Loaded() {
		return nil, ErrNoImage
	}
	return s.working, nil
}

// Bounds returns the size of the displayed raster.
func (s *Session) Bounds() image.Rectangle {
	if s.working == nil {
		return image.Rectangle{}
	}
	return s.working.Bounds()
}

// Filters returns the live filter parameters.
func (s *Session) Filters() filter.Params { return s.live }

// current returns the committed entry and its base raster.
func (s *Session) current() (history.Entry, *image.NRGBA, error) {
	if !s.Loaded() {
		return history.Entry{}, nil, ErrNoImage
	}
	e, ok := s.history.Current()
	if !ok {
		return history.Entry{}, nil, ErrNoImage
	}
	base, err := e.Raster()
	if err != nil {
		return history.Entry{}, nil, fmt.Errorf("picfix: restore history entry: %w", err)
	}
	return e, base, nil
}

// commit records base with params as a new history entry and re-derives the
// working raster. Every committing action goes through here exactly once.
func (s *Session) commit(action string, base *image.NRGBA, params filter.Params) {
	s.cancelCrop()
	evicted := s.history.Commit(base, params)
	s.live = params
	s.working = filter.Composite(base, params)
	s.gen++
	s.log.Debug("commit",
		"action", action,
		"index", s.history.Index(),
		"len", s.history.Len(),
		"evicted", evicted,
		"footprint", s.history.Footprint(),
		"filters", params.String())
}

// restore makes e the displayed state after an undo or redo.
func (s *Session) restore(e history.Entry) error {
	base, err := e.Raster()
	if err != nil {
		return fmt.Errorf("picfix: restore history entry: %w", err)
	}
	s.cancelCrop()
	s.live = e.Filters
	s.working = filter.Composite(base, e.Filters)
	s.gen++
	return nil
}

// PreviewFilters shows params without recording them. The preview is always
// derived from the last committed raster.
func (s *Session) PreviewFilters(params filter.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	_, base, err := s.current()
	if err != nil {
		return err
	}
	s.live = params
	s.working = filter.Composite(base, params)
	s.gen++
	return nil
}

// CommitFilters records params as a new history entry over the last
// committed raster.
func (s *Session) CommitFilters(params filter.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	_, base, err := s.current()
	if err != nil {
		return err
	}
	s.commit("filters", base, params)
	return nil
}

// AutoRetouch commits the one-click enhancement preset.
func (s *Session) AutoRetouch() error {
	_, base, err := s.current()
	if err != nil {
		return err
	}
	s.commit("auto-retouch", base, filter.AutoRetouch())
	return nil
}

// Rotate turns the image a quarter turn (90 clockwise, -90 counter-clockwise)
// and commits. Live filter parameters are kept.
func (s *Session) Rotate(degrees int) error {
	_, base, err := s.current()
	if err != nil {
		return err
	}
	rotated, err := transform.Rotate(base, degrees)
	if err != nil {
		return err
	}
	s.commit(fmt.Sprintf("rotate %d", degrees), rotated, s.live)
	return nil
}

// Flip mirrors the image and commits. Live filter parameters are kept.
func (s *Session) Flip(axis transform.Axis) error {
	_, base, err := s.current()
	if err != nil {
		return err
	}
	flipped, err := transform.Flip(base, axis)
	if err != nil {
		return err
	}
	s.commit("flip "+axis.String(), flipped, s.live)
	return nil
}

// Undo steps back one committed state. At the head of the history it does
// nothing and returns false.
func (s *Session) Undo() (bool, error) {
	if !s.Loaded() {
		return false, nil
	}
	e, ok := s.history.Undo()
	if !ok {
		return false, nil
	}
	if err := s.restore(e); err != nil {
		return false, err
	}
	s.log.Debug("undo", "index", s.history.Index(), "len", s.history.Len(), "bounds", e.Bounds())
	return true, nil
}

// Redo steps forward one committed state. At the tail it does nothing and
// returns false.
func (s *Session) Redo() (bool, error) {
	if !s.Loaded() {
		return false, nil
	}
	e, ok := s.history.Redo()
	if !ok {
		return false, nil
	}
	if err := s.restore(e); err != nil {
		return false, err
	}
	s.log.Debug("redo", "index", s.history.Index(), "len", s.history.Len(), "bounds", e.Bounds())
	return true, nil
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool { return s.Loaded() && s.history.CanUndo() }

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool { return s.Loaded() && s.history.CanRedo() }

// HistoryLen and HistoryIndex expose the log position, e.g. for a UI.
func (s *Session) HistoryLen() int {
	if !s.Loaded() {
		return 0
	}
	return s.history.Len()
}

func (s *Session) HistoryIndex() int {
	if !s.Loaded() {
		return -1
	}
	return s.history.Index()
}

// HistoryCapacity is the number of undo states kept.
func (s *Session) HistoryCapacity() int {
	if !s.Loaded() {
		return s.cfg.History.Capacity
	}
	return s.history.Capacity()
}

// Reset discards every edit and restores the loaded image, after
// confirmation. It reports whether the reset happened.
func (s *Session) Reset(confirm Confirmer) (bool, error) {
	if !s.Loaded() {
		return false, ErrNoImage
	}
	if !confirm.ask("Reset all changes? This will restore the original image.") {
		return false, nil
	}
	s.cancelCrop()
	s.live = filter.Identity()
	s.history.Reset(s.original, s.live)
	s.working = raster.Clone(s.original)
	s.gen++
	s.log.Info("reset")
	return true, nil
}

// Close leaves the editor, after confirmation, dropping every buffer and
// cancelling a pending crop. It reports whether the session was closed.
func (s *Session) Close(confirm Confirmer) bool {
	if !s.Loaded() {
		return true
	}
	if !confirm.ask("Are you sure you want to go back? Unsaved changes will be lost.") {
		return false
	}
	s.cancelCrop()
	s.history.Clear()
	s.history = nil
	s.original = nil
	s.working = nil
	s.gen++
	s.sourceBytes = 0
	s.live = filter.Identity()
	s.log.Info("closed")
	return true
}

// RemoveBackground needs an external segmentation service and always
// reports ErrUnavailable without touching the image.
func (s *Session) RemoveBackground() error {
	return fmt.Errorf("%w: background removal requires an external API", ErrUnavailable)
}
