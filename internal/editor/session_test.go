/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"maskpaint/internal/geom"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func loaded(t *testing.T, w, h int, opts Options) *Session {
	t.Helper()
	s := New(opts)
	t.Cleanup(s.Close)
	if err := s.Load(solid(w, h, color.RGBA{0, 0, 255, 255}), geom.Size{W: float64(w), H: float64(h)}); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func tap(s *Session, kind Kind, x, y float64) {
	s.HandleEvent(Event{Kind: kind, PrimaryX: x, PrimaryY: y, PointerCount: 1})
}

func stroke(s *Session, x0, y0, x1, y1 float64) {
	tap(s, Down, x0, y0)
	tap(s, Move, x1, y1)
	tap(s, Up, x1, y1)
}

func maskAt(s *Session, x, y int) color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mask.Image().RGBAAt(x, y)
}

func TestLoadFitsAndResets(t *testing.T) {
	s := New(Options{})
	defer s.Close()
	if err := s.Load(solid(1000, 800, color.White), geom.Size{W: 900, H: 600}); err != nil {
		t.Fatal(err)
	}
	if d := s.Display(); d != (geom.Size{W: 750, H: 600}) {
		t.Fatalf("display = %+v", d)
	}
	st := s.Viewport()
	if st.Zoom != 1 || st.OffsetX != 0 || st.OffsetY != 0 {
		t.Fatalf("viewport not identity: %+v", st)
	}
	d := s.Debug()
	if d.HistoryLen != 1 || d.HistoryIndex != 0 {
		t.Fatalf("history = %d/%d, want 1/0", d.HistoryLen, d.HistoryIndex)
	}
	if s.Tool() != ToolPaint {
		t.Fatalf("tool = %v", s.Tool())
	}
}

func TestLoadRejectsEmptyImage(t *testing.T) {
	s := New(Options{})
	defer s.Close()
	if err := s.Load(nil, geom.Size{W: 10, H: 10}); err == nil {
		t.Fatal("expected error for nil image")
	}
	if err := s.Load(image.NewRGBA(image.Rect(0, 0, 0, 5)), geom.Size{W: 10, H: 10}); err == nil {
		t.Fatal("expected error for empty image")
	}
	if s.HasImage() {
		t.Fatal("session should still be empty")
	}
}

func TestEventsIgnoredWithoutImage(t *testing.T) {
	s := New(Options{})
	defer s.Close()
	tap(s, Down, 5, 5)
	if s.Painting() {
		t.Fatal("painting without image")
	}
	if s.Undo() || s.Redo() {
		t.Fatal("undo/redo should be no-ops")
	}
	if err := s.ClearMask(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("clear mask err = %v", err)
	}
	if err := s.ToggleCropTool(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("crop err = %v", err)
	}
	if _, ok := s.OutputDimensions(); ok {
		t.Fatal("dimensions reported without image")
	}
}

func TestStrokeUndoRedo(t *testing.T) {
	s := loaded(t, 100, 100, Options{BrushSize: 10})
	stroke(s, 20, 20, 60, 20)
	if c := maskAt(s, 40, 20); c != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("stroke pixel = %v", c)
	}
	if d := s.Debug(); d.HistoryLen != 2 || d.HistoryIndex != 1 {
		t.Fatalf("history after stroke = %d/%d", d.HistoryLen, d.HistoryIndex)
	}
	if !s.Undo() {
		t.Fatal("undo reported no change")
	}
	if c := maskAt(s, 40, 20); c.A != 0 {
		t.Fatalf("undo left %v", c)
	}
	if s.Undo() {
		t.Fatal("undo past the first entry should be a no-op")
	}
	if !s.Redo() {
		t.Fatal("redo reported no change")
	}
	if c := maskAt(s, 40, 20); c.A != 255 {
		t.Fatalf("redo lost stroke: %v", c)
	}
}

func TestNewStrokeDropsRedoBranch(t *testing.T) {
	s := loaded(t, 100, 100, Options{BrushSize: 4})
	for i := 0; i < 3; i++ {
		y := float64(10 + 20*i)
		stroke(s, 10, y, 80, y)
	}
	s.Undo()
	s.Undo()
	before := s.Debug().HistoryIndex
	stroke(s, 50, 90, 60, 90)
	d := s.Debug()
	if d.HistoryLen != before+2 {
		t.Fatalf("history len = %d, want %d", d.HistoryLen, before+2)
	}
	if s.Redo() {
		t.Fatal("redo branch should be gone")
	}
}

func TestLeaveCommitsAndCancelReverts(t *testing.T) {
	s := loaded(t, 100, 100, Options{BrushSize: 6})
	tap(s, Down, 10, 10)
	tap(s, Move, 30, 10)
	tap(s, Leave, 30, 10)
	if s.Debug().HistoryLen != 2 {
		t.Fatal("leave should commit the stroke")
	}
	tap(s, Down, 10, 50)
	tap(s, Move, 30, 50)
	tap(s, Cancel, 30, 50)
	if c := maskAt(s, 20, 50); c.A != 0 {
		t.Fatalf("cancelled stroke left %v", c)
	}
	if s.Debug().HistoryLen != 2 {
		t.Fatal("cancel should not add history")
	}
}

func TestSecondPointerStartsPinchAndRevertsStroke(t *testing.T) {
	s := loaded(t, 200, 200, Options{BrushSize: 6})
	tap(s, Down, 50, 50)
	tap(s, Move, 80, 50)
	s.HandleEvent(Event{Kind: Move, PrimaryX: 80, PrimaryY: 100, PointerCount: 2, SecondaryX: 120, SecondaryY: 100})
	if s.Painting() {
		t.Fatal("pinch should end painting")
	}
	if c := maskAt(s, 65, 50); c.A != 0 {
		t.Fatalf("stroke under pinch not reverted: %v", c)
	}
	s.HandleEvent(Event{Kind: Move, PrimaryX: 60, PrimaryY: 100, PointerCount: 2, SecondaryX: 140, SecondaryY: 100})
	if z := s.Zoom(); z != 2 {
		t.Fatalf("pinch zoom = %v, want 2", z)
	}
	// One finger lifts: the remaining one must not paint.
	tap(s, Move, 60, 100)
	if s.Painting() {
		t.Fatal("leftover pointer should not paint")
	}
}

func TestZoomToolClickZoomsWithoutPainting(t *testing.T) {
	s := loaded(t, 200, 200, Options{})
	s.SetZoomMode(ZoomIn)
	tap(s, Down, 100, 100)
	tap(s, Up, 100, 100)
	if z := s.Zoom(); z != 1.25 {
		t.Fatalf("zoom = %v", z)
	}
	if c := maskAt(s, 100, 100); c.A != 0 {
		t.Fatal("zoom click painted the mask")
	}
	s.ToggleZoomTool(ZoomIn)
	if s.ZoomMode() != ZoomNone {
		t.Fatal("toggling the active zoom mode should turn it off")
	}
	s.SetZoomMode(ZoomOut)
	tap(s, Down, 100, 100)
	if z := s.Zoom(); z != 1 {
		t.Fatalf("zoom out should stop at the minimum, got %v", z)
	}
}

func TestKeyboardZoom(t *testing.T) {
	s := loaded(t, 200, 200, Options{})
	if !s.HandleKey(KeyZoomIn) {
		t.Fatal("key not consumed")
	}
	if s.Zoom() != 1.25 {
		t.Fatalf("zoom = %v", s.Zoom())
	}
	s.HandleKey(KeyZoomOut)
	if s.Zoom() != 1 {
		t.Fatalf("zoom = %v", s.Zoom())
	}
	if s.HandleKey(Key(99)) {
		t.Fatal("unknown key consumed")
	}
}

func TestCropScenarioFillsViewport(t *testing.T) {
	s := loaded(t, 400, 400, Options{})
	if err := s.ToggleCropTool(); err != nil {
		t.Fatal(err)
	}
	if s.Tool() != ToolCrop {
		t.Fatalf("tool = %v", s.Tool())
	}
	tap(s, Down, 0, 0)
	tap(s, Move, 50, 50)
	tap(s, Up, 100, 100)
	r, ok := s.CropRect()
	if !ok || r != geom.R(0, 0, 100, 100) {
		t.Fatalf("crop = %+v %v", r, ok)
	}
	if z := s.Zoom(); z != 4 {
		t.Fatalf("zoom = %v, want 4", z)
	}
	if o := s.Offset(); o.X != 0 || o.Y != 0 {
		t.Fatalf("offset = %+v", o)
	}
	if s.Tool() != ToolPaint {
		t.Fatal("applying a crop should leave the crop tool")
	}
	in, ok := s.ClipInsets()
	if !ok || in.Right != 300 || in.Bottom != 300 {
		t.Fatalf("clip = %+v", in)
	}

	// Reset zoom removes the crop view.
	s.HandleKey(KeyZoomReset)
	if _, ok := s.CropRect(); ok {
		t.Fatal("reset should clear the crop")
	}
	if s.Zoom() != 1 {
		t.Fatal("reset should restore zoom")
	}
}

func overlayEmpty(s *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay.IsEmpty()
}

func TestSecondPointerCancelsCropDrag(t *testing.T) {
	s := loaded(t, 200, 200, Options{})
	_ = s.ToggleCropTool()
	tap(s, Down, 10, 10)
	tap(s, Move, 120, 80)
	if overlayEmpty(s) {
		t.Fatal("marquee not drawn during drag")
	}
	s.HandleEvent(Event{Kind: Move, PrimaryX: 120, PrimaryY: 80, PointerCount: 2, SecondaryX: 160, SecondaryY: 120})
	if st := s.Debug().CropState; st == "selecting" {
		t.Fatal("pinch should abandon the crop selection")
	}
	if !overlayEmpty(s) {
		t.Fatal("marquee left on the overlay")
	}
	if _, ok := s.CropRect(); ok {
		t.Fatal("crop applied by pinch")
	}
	tap(s, Up, 120, 80)
	if _, ok := s.CropRect(); ok {
		t.Fatal("crop applied after pinch release")
	}
}

func TestLeaveAbandonsCropDrag(t *testing.T) {
	s := loaded(t, 200, 200, Options{})
	_ = s.ToggleCropTool()
	tap(s, Down, 10, 10)
	tap(s, Move, 120, 80)
	tap(s, Leave, 120, 80)
	if st := s.Debug().CropState; st == "selecting" {
		t.Fatal("leave should abandon the crop selection")
	}
	if !overlayEmpty(s) {
		t.Fatal("marquee left on the overlay")
	}
	tap(s, Up, 120, 80)
	if _, ok := s.CropRect(); ok {
		t.Fatal("crop applied after leave")
	}
	if s.Tool() != ToolCrop {
		t.Fatal("tool should stay on crop")
	}
}

func TestDegenerateCropKeepsTool(t *testing.T) {
	s := loaded(t, 100, 100, Options{})
	_ = s.ToggleCropTool()
	tap(s, Down, 10, 10)
	tap(s, Up, 11, 40)
	if _, ok := s.CropRect(); ok {
		t.Fatal("degenerate crop applied")
	}
	if s.Tool() != ToolCrop {
		t.Fatal("tool should stay on crop after a discarded selection")
	}
	_ = s.ToggleCropTool()
	if s.Tool() != ToolPaint {
		t.Fatal("toggle should leave the crop tool")
	}
}

func TestZoomModeLeavesCropTool(t *testing.T) {
	s := loaded(t, 100, 100, Options{})
	_ = s.ToggleCropTool()
	s.SetZoomMode(ZoomIn)
	if s.Debug().CropActive {
		t.Fatal("crop tool still active")
	}
	if s.Tool() != ToolZoomIn {
		t.Fatalf("tool = %v", s.Tool())
	}
	s.ActivateCursorTool()
	if s.Tool() != ToolPaint {
		t.Fatalf("tool = %v", s.Tool())
	}
}

func TestClearMaskIsUndoable(t *testing.T) {
	s := loaded(t, 100, 100, Options{BrushSize: 8})
	stroke(s, 10, 10, 50, 10)
	if err := s.ClearMask(); err != nil {
		t.Fatal(err)
	}
	if c := maskAt(s, 30, 10); c.A != 0 {
		t.Fatal("mask not cleared")
	}
	s.Undo()
	if c := maskAt(s, 30, 10); c.A != 255 {
		t.Fatal("undo should restore the cleared stroke")
	}
}

func TestBrushSizeClamped(t *testing.T) {
	s := New(Options{})
	defer s.Close()
	s.SetBrushSize(0)
	if s.BrushSize() != MinBrushSize {
		t.Fatalf("brush = %v", s.BrushSize())
	}
	s.SetBrushSize(1e6)
	if s.BrushSize() != MaxBrushSize {
		t.Fatalf("brush = %v", s.BrushSize())
	}
}

func TestRelayoutPreservesMask(t *testing.T) {
	s := loaded(t, 200, 200, Options{BrushSize: 20})
	stroke(s, 100, 100, 100, 100)
	s.Relayout(geom.Size{W: 100, H: 100})
	if d := s.Display(); d != (geom.Size{W: 100, H: 100}) {
		t.Fatalf("display = %+v", d)
	}
	if c := maskAt(s, 50, 50); c.A != 255 {
		t.Fatalf("mask lost on relayout: %v", c)
	}
}

func TestResizeIsDebounced(t *testing.T) {
	s := loaded(t, 200, 100, Options{ResizeDebounce: 20 * time.Millisecond})
	s.Resize(geom.Size{W: 150, H: 150})
	s.Resize(geom.Size{W: 120, H: 120})
	s.Resize(geom.Size{W: 100, H: 100})
	if d := s.Display(); d.W != 200 {
		t.Fatalf("resize applied before the debounce window: %+v", d)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d := s.Display(); d == (geom.Size{W: 100, H: 50}) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("display = %+v, want 100x50", s.Display())
}

func TestOnChangeCalled(t *testing.T) {
	s := loaded(t, 50, 50, Options{})
	n := 0
	s.SetOnChange(func() { n++ })
	tap(s, Down, 10, 10)
	tap(s, Up, 10, 10)
	if n != 2 {
		t.Fatalf("onChange calls = %d", n)
	}
}

func TestExportNoImage(t *testing.T) {
	s := New(Options{})
	defer s.Close()
	if _, err := s.Export(context.Background()); !errors.Is(err, ErrNoImage) {
		t.Fatalf("err = %v", err)
	}
	if s.Exporting() {
		t.Fatal("busy flag left set")
	}
}

func TestExportCropDimensionsAndPrompt(t *testing.T) {
	s := loaded(t, 200, 200, Options{DevicePixelRatio: 2, BrushSize: 10})
	stroke(s, 20, 20, 40, 20)
	_ = s.ToggleCropTool()
	tap(s, Down, 10, 10)
	tap(s, Up, 60, 50)
	out, err := s.Export(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if out.Dimensions.Width != 100 || out.Dimensions.Height != 80 {
		t.Fatalf("dims = %+v", out.Dimensions)
	}
	img, err := png.Decode(bytes.NewReader(out.PNG))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
		t.Fatalf("png bounds = %v", b)
	}
	if out.Crop == nil || out.Crop.W != 50 || out.Crop.H != 40 {
		t.Fatalf("crop info = %+v", out.Crop)
	}
	if !strings.Contains(out.Prompt, "100×80") || !strings.Contains(out.Prompt, out.Filename) {
		t.Fatalf("prompt = %q", out.Prompt)
	}
	p, _ := s.Prompt()
	if p != out.Prompt {
		t.Fatal("Prompt() disagrees with export")
	}
}

func TestExportBusyAndRecovery(t *testing.T) {
	s := loaded(t, 20, 20, Options{})
	release := make(chan struct{})
	entered := make(chan struct{})
	s.encode = func(image.Image) ([]byte, error) {
		close(entered)
		<-release
		return []byte("png"), nil
	}
	done := make(chan error, 1)
	go func() {
		_, err := s.Export(context.Background())
		done <- err
	}()
	<-entered
	if _, err := s.Export(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("second export err = %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	s.encode = func(image.Image) ([]byte, error) { return nil, errors.New("disk full") }
	if _, err := s.Export(context.Background()); err == nil {
		t.Fatal("expected encode error")
	}
	if s.Exporting() {
		t.Fatal("busy flag not reset after failure")
	}
}

func TestExportCancelledContext(t *testing.T) {
	s := loaded(t, 20, 20, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Export(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestRenderViewShowsLayers(t *testing.T) {
	s := loaded(t, 40, 40, Options{BrushSize: 10})
	stroke(s, 20, 20, 20, 20)
	v := s.RenderView(40, 40)
	if c := v.RGBAAt(2, 2); c != (color.RGBA{0, 0, 255, 255}) {
		t.Fatalf("base pixel = %v", c)
	}
	if c := v.RGBAAt(20, 20); c != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("mask pixel = %v", c)
	}
	s.HandleKey(KeyZoomIn)
	s.HandleKey(KeyZoomIn)
	z := s.RenderView(40, 40)
	if c := z.RGBAAt(20, 20); c != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("zoomed centre = %v", c)
	}
	if empty := New(Options{}).RenderView(10, 10); empty.Bounds().Dx() != 10 {
		t.Fatal("empty session should still return a canvas")
	}
}

func TestRenderViewScaledDoublesResolution(t *testing.T) {
	s := loaded(t, 40, 40, Options{BrushSize: 10})
	stroke(s, 20, 20, 20, 20)
	v := s.RenderViewScaled(80, 80, 2)
	if c := v.RGBAAt(4, 4); c != (color.RGBA{0, 0, 255, 255}) {
		t.Fatalf("base pixel = %v", c)
	}
	if c := v.RGBAAt(40, 40); c != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("mask pixel at scaled centre = %v", c)
	}
	if c := v.RGBAAt(79, 79); c.A == 0 {
		t.Fatal("scaled view should cover the whole target")
	}
}
