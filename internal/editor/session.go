/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor owns one editing session: the three layers, the viewport,
// the crop selector and the mask history, plus the tool mode that decides
// where pointer input goes. Surfaces (desktop UI, replay scripts) drive a
// Session through unified events and read back a rendered view or an export.
package editor

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"maskpaint/internal/compose"
	"maskpaint/internal/crop"
	"maskpaint/internal/geom"
	"maskpaint/internal/history"
	"maskpaint/internal/layer"
	applog "maskpaint/internal/log"
	"maskpaint/internal/viewport"
)

var (
	// ErrNoImage is returned by operations that need a loaded image.
	ErrNoImage = errors.New("no image loaded")
	// ErrBusy is returned when an export is requested while one is in flight.
	ErrBusy = errors.New("export already in progress")
)

// Options configures a Session. Zero values fall back to DefaultOptions.
type Options struct {
	DevicePixelRatio float64
	Limits           viewport.Limits
	ZoomInFactor     float64
	ZoomOutFactor    float64
	BrushSize        float64
	HistoryLimit     int
	ResizeDebounce   time.Duration
	Filename         string
	Compression      png.CompressionLevel
	Logger           *slog.Logger
}

// Brush size bounds in layout units.
const (
	MinBrushSize = 1
	MaxBrushSize = 500
)

func DefaultOptions() Options {
	return Options{
		DevicePixelRatio: 1,
		Limits:           viewport.DefaultLimits(),
		ZoomInFactor:     1.25,
		ZoomOutFactor:    0.8,
		BrushSize:        40,
		HistoryLimit:     history.DefaultMaxEntries,
		ResizeDebounce:   100 * time.Millisecond,
		Filename:         compose.DefaultFilename,
		Compression:      png.DefaultCompression,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DevicePixelRatio <= 0 {
		o.DevicePixelRatio = d.DevicePixelRatio
	}
	if o.Limits == (viewport.Limits{}) {
		o.Limits = d.Limits
	}
	if o.ZoomInFactor <= 1 {
		o.ZoomInFactor = d.ZoomInFactor
	}
	if o.ZoomOutFactor <= 0 || o.ZoomOutFactor >= 1 {
		o.ZoomOutFactor = d.ZoomOutFactor
	}
	if o.BrushSize <= 0 {
		o.BrushSize = d.BrushSize
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = d.HistoryLimit
	}
	if o.ResizeDebounce <= 0 {
		o.ResizeDebounce = d.ResizeDebounce
	}
	if o.Filename == "" {
		o.Filename = d.Filename
	}
	return o
}

// Session is safe for concurrent use; all mutation is serialized by one mutex
// so the debounced relayout and pointer handlers never interleave.
type Session struct {
	mu   sync.Mutex
	opts Options
	log  *slog.Logger

	src     image.Image
	natural geom.Size
	avail   geom.Size

	vp      *viewport.Viewport
	base    *layer.Layer
	mask    *layer.Layer
	overlay *layer.Layer
	hist    *history.Manager
	crop    *crop.Selector

	tool     Tool
	brush    float64
	painting bool
	last     geom.Pt

	exporting atomic.Bool
	encode    func(image.Image) ([]byte, error)

	resize   *debouncer
	onChange func()
}

// New creates an empty session. Load must be called before painting.
func New(opts Options) *Session {
	opts = opts.withDefaults()
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("editor")
	}
	s := &Session{
		opts:   opts,
		log:    l,
		vp:     viewport.New(opts.Limits),
		hist:   history.NewManager(history.Config{MaxEntries: opts.HistoryLimit}),
		crop:   crop.NewSelector(),
		brush:  clampBrush(opts.BrushSize),
		resize: &debouncer{delay: opts.ResizeDebounce},
	}
	s.encode = func(img image.Image) ([]byte, error) { return compose.PNGBytes(img, s.opts.Compression) }
	return s
}

// SetOnChange registers a callback run after any visible state change.
// It is called without the session lock held.
func (s *Session) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Close stops any pending debounced relayout.
func (s *Session) Close() { s.resize.Stop() }

func (s *Session) HasImage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base != nil
}

// Load installs a decoded image, fitted into avail (the largest display size
// the surface can offer). The mask starts empty, the viewport at identity and
// history holds a single empty snapshot.
func (s *Session) Load(img image.Image, avail geom.Size) error {
	if img == nil {
		return fmt.Errorf("load: nil image")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("load: empty image %dx%d", b.Dx(), b.Dy())
	}
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.src = img
	s.natural = geom.Size{W: float64(b.Dx()), H: float64(b.Dy())}
	s.avail = avail
	s.base, s.mask, s.overlay = nil, nil, nil
	s.relayoutLocked(false)
	s.hist.Reset(s.mask)
	s.crop.Exit()
	s.tool = ToolPaint

	st := s.vp.State()
	s.log.Info("image loaded",
		slog.Int("natural_w", b.Dx()), slog.Int("natural_h", b.Dy()),
		slog.Float64("display_w", st.DisplayW), slog.Float64("display_h", st.DisplayH))
	return nil
}

// Resize schedules a relayout for a new available size. Bursts of calls are
// coalesced; only the last one within the debounce window runs.
func (s *Session) Resize(avail geom.Size) {
	if !s.HasImage() {
		return
	}
	s.resize.Trigger(func() { s.Relayout(avail) })
}

// Relayout refits the image into avail immediately, resampling the mask into
// the new layer size. Zoom, pan and any crop view are reset.
func (s *Session) Relayout(avail geom.Size) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil {
		return
	}
	s.avail = avail
	s.relayoutLocked(true)
	s.log.Debug("relayout", slog.Float64("avail_w", avail.W), slog.Float64("avail_h", avail.H))
}

func (s *Session) relayoutLocked(preserveMask bool) {
	display := geom.FitSize(s.natural, s.avail)
	dpr := s.opts.DevicePixelRatio
	if s.base == nil {
		s.base = layer.New(layer.Base, display, dpr)
		s.mask = layer.New(layer.Mask, display, dpr)
		s.overlay = layer.New(layer.Overlay, display, dpr)
	} else {
		s.base.Resize(display, dpr, false)
		s.mask.Resize(display, dpr, preserveMask)
		s.overlay.Resize(display, dpr, false)
	}
	s.base.DrawScaled(s.src)

	if s.painting {
		s.painting = false
		s.hist.Save(s.mask)
	}
	s.vp.SetLayout(display, display)
	s.crop.SetBounds(display)
	s.clearCropViewLocked()
	if s.tool == ToolZoomIn || s.tool == ToolZoomOut {
		s.tool = ToolPaint
	}
}

// Display returns the fitted un-zoomed image size.
func (s *Session) Display() geom.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.vp.State()
	return geom.Size{W: st.DisplayW, H: st.DisplayH}
}

// Viewport returns a copy of the viewport state.
func (s *Session) Viewport() viewport.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp.State()
}

func (s *Session) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp.Zoom()
}

func (s *Session) Offset() geom.Pt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp.Offset()
}

// ToImageSpace maps a container-relative point using the current viewport.
func (s *Session) ToImageSpace(sx, sy float64) geom.Pt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp.ToImageSpace(sx, sy)
}

// CropRect returns the applied crop rectangle, if any.
func (s *Session) CropRect() (geom.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crop.Rect()
}

// ClipInsets returns the clip applied to every layer while a crop is shown.
func (s *Session) ClipInsets() (geom.Insets, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crop.Clip()
}

func (s *Session) cropRectLocked() *geom.Rect {
	if r, ok := s.crop.Rect(); ok {
		return &r
	}
	return nil
}

func (s *Session) clearCropViewLocked() {
	s.crop.Clear()
	if s.overlay != nil {
		crop.DrawMarquee(s.overlay, nil)
	}
}

// BrushSize returns the brush diameter in layout units.
func (s *Session) BrushSize() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brush
}

// SetBrushSize sets the brush diameter, clamped to [MinBrushSize, MaxBrushSize].
func (s *Session) SetBrushSize(size float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brush = clampBrush(size)
}

func clampBrush(v float64) float64 { return geom.Clamp(v, MinBrushSize, MaxBrushSize) }

// Undo steps the mask back one stroke. It reports false when nothing changed.
func (s *Session) Undo() bool {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil || s.painting {
		return false
	}
	return s.hist.Undo(s.mask)
}

// Redo re-applies the next stroke. It reports false when nothing changed.
func (s *Session) Redo() bool {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil || s.painting {
		return false
	}
	return s.hist.Redo(s.mask)
}

// ClearMask erases the whole mask as one undoable step.
func (s *Session) ClearMask() error {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil {
		return ErrNoImage
	}
	s.painting = false
	if s.mask.IsEmpty() {
		return nil
	}
	s.mask.Clear()
	s.hist.Save(s.mask)
	return nil
}
