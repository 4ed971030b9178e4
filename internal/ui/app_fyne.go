//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"maskpaint/internal/config"
	"maskpaint/internal/crash"
	"maskpaint/internal/editor"
	"maskpaint/internal/geom"
	"maskpaint/internal/imageio"
	applog "maskpaint/internal/log"
	"maskpaint/internal/outbox"
	"maskpaint/internal/telemetry"
	"maskpaint/internal/version"
	"maskpaint/internal/viewport"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Run starts the desktop editor. imagePath, when set, is opened immediately.
func Run(imagePath string) error {
	cfg, token, err := config.Load()
	if err != nil {
		applog.L().Warn("config load failed, using defaults", slog.Any("err", err))
	}
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	session := editor.New(cfg.EditorOptions())
	defer session.Close()
	defer func() { crash.Recover("", rescueFor(session)) }()

	fyneApp := app.NewWithID("maskpaint")
	w := fyneApp.NewWindow("MaskPaint")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 640 {
		winW = 640
	}
	if winH < 480 {
		winH = 480
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))
	session.SetBrushSize(prefs.FloatWithFallback("brush.size", session.BrushSize()))

	status := widget.NewLabel("Open an image to start.")
	mc := NewMaskCanvas(session, cfg.LayoutBudget())

	brush := widget.NewSlider(editor.MinBrushSize, editor.MaxBrushSize)
	brush.Step = 1
	brush.SetValue(session.BrushSize())
	brush.OnChanged = func(v float64) { session.SetBrushSize(v) }
	brushLabel := widget.NewLabel("")

	refreshStatus := func() {
		brushLabel.SetText(fmt.Sprintf("Brush %.0f", session.BrushSize()))
		if !session.HasImage() {
			return
		}
		msg := fmt.Sprintf("%s · zoom %.2f", session.Tool(), session.Zoom())
		if d, ok := session.OutputDimensions(); ok {
			msg += fmt.Sprintf(" · output %d×%d", d.Width, d.Height)
		}
		if session.Exporting() {
			msg += " · exporting…"
		}
		status.SetText(msg)
	}
	session.SetOnChange(func() {
		fyne.Do(func() {
			mc.Refresh()
			refreshStatus()
		})
	})
	refreshStatus()

	loadImage := func(img image.Image, format, name string) {
		if err := session.Load(img, mc.Avail()); err != nil {
			l.Error("load image failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		b := img.Bounds()
		telemetry.Event(telemetry.EventImageLoaded, map[string]any{
			"width": b.Dx(), "height": b.Dy(), "format": format, "surface": "ui",
		})
		w.SetTitle(fmt.Sprintf("MaskPaint - %s", name))
	}

	openImage := func() {
		d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			defer func() { _ = rc.Close() }()
			img, format, err := imageio.Decode(rc, imageio.DefaultMaxPixels)
			if err != nil {
				l.Error("decode failed", slog.String("uri", rc.URI().String()), slog.Any("err", err))
				dialog.ShowError(err, w)
				return
			}
			loadImage(img, format, rc.URI().Name())
		}, w)
		d.SetFilter(fstorage.NewExtensionFileFilter(imageExtensions))
		d.Show()
	}

	copyPrompt := func() {
		p, ok := session.Prompt()
		if !ok {
			status.SetText("Nothing to copy yet.")
			return
		}
		fyneApp.Clipboard().SetContent(p)
		status.SetText("Prompt copied to clipboard.")
	}

	exportImage := func() {
		if !session.HasImage() {
			dialog.ShowInformation("Export", "Open an image first.", w)
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			start := time.Now()
			rec, ex, err := submit(ctx, session, cfg.OutboxConfig(), token)
			fyne.Do(func() {
				if err != nil {
					if errors.Is(err, editor.ErrBusy) {
						status.SetText("Export already running.")
						return
					}
					l.Error("export failed", slog.Any("err", err))
					telemetry.Event(telemetry.EventExportFailed, map[string]any{"sink": cfg.Outbox.Kind, "surface": "ui"})
					dialog.ShowError(err, w)
					return
				}
				telemetry.Event(telemetry.EventExport, map[string]any{
					"width": ex.Dimensions.Width, "height": ex.Dimensions.Height, "bytes": len(ex.PNG),
					"sink": cfg.Outbox.Kind, "cropped": ex.Crop != nil,
					"took_ms": time.Since(start).Milliseconds(), "surface": "ui",
				})
				fyneApp.Clipboard().SetContent(ex.Prompt)
				dialog.ShowInformation("Export",
					fmt.Sprintf("Saved %s (%d×%d).\nPrompt copied to clipboard.\n\n%s", ex.Filename, ex.Dimensions.Width, ex.Dimensions.Height, rec.Location), w)
				refreshStatus()
			})
		}()
		refreshStatus()
	}

	undo := func() {
		if !session.Undo() {
			status.SetText("Nothing to undo.")
		}
	}
	redo := func() {
		if !session.Redo() {
			status.SetText("Nothing to redo.")
		}
	}
	clearMask := func() {
		if err := session.ClearMask(); err != nil {
			status.SetText(err.Error())
		}
	}
	toggleCrop := func() {
		if err := session.ToggleCropTool(); err != nil {
			status.SetText(err.Error())
		}
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), openImage),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), session.ActivateCursorTool),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { session.ToggleZoomTool(editor.ZoomIn) }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { session.ToggleZoomTool(editor.ZoomOut) }),
		widget.NewToolbarAction(theme.ContentCutIcon(), toggleCrop),
		widget.NewToolbarAction(theme.ZoomFitIcon(), session.ResetZoom),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), undo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), redo),
		widget.NewToolbarAction(theme.DeleteIcon(), clearMask),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), exportImage),
		widget.NewToolbarAction(theme.ContentCopyIcon(), copyPrompt),
	)
	brush.OnChangeEnded = func(float64) { refreshStatus() }
	top := container.NewBorder(nil, nil, nil, container.NewHBox(brushLabel, container.NewGridWrap(fyne.NewSize(180, brush.MinSize().Height), brush)), toolbar)
	w.SetContent(container.NewBorder(top, status, nil, nil, mc))

	// Menus
	openItem := fyne.NewMenuItem("Open Image…", openImage)
	exportItem := fyne.NewMenuItem("Export", exportImage)
	copyItem := fyne.NewMenuItem("Copy Prompt", copyPrompt)
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault}
	exportItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyE, Modifier: fyne.KeyModifierShortcutDefault}
	fileMenu := fyne.NewMenu("File", openItem, exportItem, copyItem)

	undoItem := fyne.NewMenuItem("Undo", undo)
	redoItem := fyne.NewMenuItem("Redo", redo)
	undoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}
	redoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift}
	editMenu := fyne.NewMenu("Edit", undoItem, redoItem, fyne.NewMenuItem("Clear Mask", clearMask))

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Paint", session.ActivateCursorTool),
		fyne.NewMenuItem("Zoom In Tool", func() { session.ToggleZoomTool(editor.ZoomIn) }),
		fyne.NewMenuItem("Zoom Out Tool", func() { session.ToggleZoomTool(editor.ZoomOut) }),
		fyne.NewMenuItem("Crop Tool", toggleCrop),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Reset Zoom", session.ResetZoom),
	)

	debugItem := fyne.NewMenuItem("Session Info", func() {
		b, _ := json.MarshalIndent(session.Debug(), "", "  ")
		dialog.ShowInformation("Session Info", string(b), w)
	})
	aboutItem := fyne.NewMenuItem("About", func() {
		dialog.ShowInformation("About", fmt.Sprintf("MaskPaint\nVersion: %s\n\nLicensed under the Apache License, Version 2.0.", version.String()), w)
	})
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, fyne.NewMenu("Help", debugItem, aboutItem)))

	// Zoom keys act without modifiers; Escape returns to the brush.
	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case '+', '=':
			session.HandleKey(editor.KeyZoomIn)
		case '-', '_':
			session.HandleKey(editor.KeyZoomOut)
		case '0':
			session.HandleKey(editor.KeyZoomReset)
		}
	})
	w.Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) {
		if e.Name == fyne.KeyEscape {
			session.ActivateCursorTool()
		}
	})

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		prefs.SetFloat("brush.size", session.BrushSize())
		w.Close()
	})

	if imagePath != "" {
		img, format, err := imageio.Load(imagePath, imageio.DefaultMaxPixels)
		if err != nil {
			l.Error("auto-open image failed", slog.String("path", imagePath), slog.Any("err", err))
			status.SetText(fmt.Sprintf("Could not open %s: %v", imagePath, err))
		} else {
			loadImage(img, format, filepath.Base(imagePath))
		}
	}

	telemetry.Event(telemetry.EventStarted, map[string]any{"surface": "ui"})
	w.ShowAndRun()
	telemetry.Flush(2 * time.Second)
	return nil
}

// submit exports the session and hands the result to the configured outbox.
func submit(ctx context.Context, s *editor.Session, oc outbox.Config, token string) (outbox.Receipt, editor.Export, error) {
	ex, err := s.Export(ctx)
	if err != nil {
		return outbox.Receipt{}, ex, err
	}
	sink, err := outbox.Open(ctx, oc, token)
	if err != nil {
		return outbox.Receipt{}, ex, err
	}
	defer func() { _ = sink.Close() }()
	rec, err := sink.Submit(ctx, outbox.NewSubmission(ex))
	return rec, ex, err
}

// rescueFor writes the current composite next to the crash report.
func rescueFor(s *editor.Session) crash.Rescue {
	return func(dir string) (string, error) {
		if !s.HasImage() {
			return "", nil
		}
		ex, err := s.Export(context.Background())
		if err != nil {
			return "", err
		}
		path := filepath.Join(dir, fmt.Sprintf("maskpaint-rescue-%s.png", time.Now().Format("20060102-150405")))
		if err := os.WriteFile(path, ex.PNG, 0o644); err != nil {
			return "", err
		}
		return path, nil
	}
}

// MaskCanvas shows a session centred in its area and feeds it pointer input.
type MaskCanvas struct {
	widget.BaseWidget
	session *editor.Session
	budget  geom.Budget

	// pointer state, container coordinates
	down bool
	last geom.Pt

	avail geom.Size
}

var (
	_ desktop.Mouseable = (*MaskCanvas)(nil)
	_ desktop.Hoverable = (*MaskCanvas)(nil)
	_ fyne.Draggable    = (*MaskCanvas)(nil)
	_ fyne.Scrollable   = (*MaskCanvas)(nil)
)

func NewMaskCanvas(s *editor.Session, b geom.Budget) *MaskCanvas {
	mc := &MaskCanvas{session: s, budget: b}
	mc.ExtendBaseWidget(mc)
	return mc
}

// PreferredSize is used before the first layout.
func (m *MaskCanvas) PreferredSize() fyne.Size { return fyne.NewSize(1000, 700) }

// Avail returns the display budget for the canvas' current size.
func (m *MaskCanvas) Avail() geom.Size {
	sz := m.Size()
	if sz.Width <= 0 || sz.Height <= 0 {
		sz = m.PreferredSize()
	}
	return geom.LayoutBudget(geom.Size{W: float64(sz.Width), H: float64(sz.Height)}, 0, m.budget)
}

// origin is the top-left of the displayed image inside the widget.
func (m *MaskCanvas) origin() fyne.Position {
	d := m.session.Display()
	sz := m.Size()
	return fyne.NewPos((sz.Width-float32(d.W))/2, (sz.Height-float32(d.H))/2)
}

func (m *MaskCanvas) toContainer(p fyne.Position) geom.Pt {
	o := m.origin()
	return viewport.ContainerRelative(float64(p.X), float64(p.Y), float64(o.X), float64(o.Y))
}

func (m *MaskCanvas) send(k editor.Kind, p geom.Pt) {
	m.last = p
	cropping := k == editor.Up && m.session.Tool() == editor.ToolCrop
	m.session.HandleEvent(editor.Event{Kind: k, PrimaryX: p.X, PrimaryY: p.Y, PointerCount: 1})
	if _, ok := m.session.CropRect(); cropping && ok {
		telemetry.Event(telemetry.EventCropApplied, map[string]any{"zoom": m.session.Zoom(), "surface": "ui"})
	}
}

func (m *MaskCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	m.down = true
	m.send(editor.Down, m.toContainer(e.Position))
}

func (m *MaskCanvas) MouseUp(e *desktop.MouseEvent) {
	if !m.down {
		return
	}
	m.down = false
	m.send(editor.Up, m.toContainer(e.Position))
}

func (m *MaskCanvas) Dragged(e *fyne.DragEvent) {
	p := m.toContainer(e.Position)
	if !m.down {
		m.down = true
		m.send(editor.Down, p)
		return
	}
	m.send(editor.Move, p)
}

func (m *MaskCanvas) DragEnd() {
	if !m.down {
		return
	}
	m.down = false
	m.send(editor.Up, m.last)
}

func (m *MaskCanvas) MouseIn(*desktop.MouseEvent)    {}
func (m *MaskCanvas) MouseMoved(*desktop.MouseEvent) {}

// MouseOut ends a stroke that leaves the widget.
func (m *MaskCanvas) MouseOut() {
	if !m.down {
		return
	}
	m.down = false
	m.send(editor.Leave, m.last)
}

// Scrolled zooms about the container centre like the keyboard shortcuts.
func (m *MaskCanvas) Scrolled(e *fyne.ScrollEvent) {
	switch {
	case e.Scrolled.DY > 0:
		m.session.HandleKey(editor.KeyZoomIn)
	case e.Scrolled.DY < 0:
		m.session.HandleKey(editor.KeyZoomOut)
	}
}

func (m *MaskCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	frame := canvas.NewRectangle(color.Transparent)
	frame.StrokeColor = color.RGBA{R: 90, G: 90, B: 96, A: 255}
	frame.StrokeWidth = 1
	view := canvas.NewRaster(func(w, h int) image.Image {
		d := m.session.Display()
		if d.W <= 0 {
			return image.NewRGBA(image.Rect(0, 0, w, h))
		}
		return m.session.RenderViewScaled(w, h, float64(w)/d.W)
	})
	view.ScaleMode = canvas.ImageScalePixels
	return &maskCanvasRenderer{mc: m, bg: bg, frame: frame, view: view, objects: []fyne.CanvasObject{bg, view, frame}}
}

type maskCanvasRenderer struct {
	mc      *MaskCanvas
	bg      *canvas.Rectangle
	frame   *canvas.Rectangle
	view    *canvas.Raster
	objects []fyne.CanvasObject
}

func (r *maskCanvasRenderer) Destroy()                     {}
func (r *maskCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *maskCanvasRenderer) MinSize() fyne.Size           { return fyne.NewSize(320, 240) }

func (r *maskCanvasRenderer) Refresh() {
	r.Layout(r.mc.Size())
	r.view.Refresh()
	canvas.Refresh(r.mc)
}

func (r *maskCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	d := r.mc.session.Display()
	o := r.mc.origin()
	ds := fyne.NewSize(float32(d.W), float32(d.H))
	r.view.Move(o)
	r.view.Resize(ds)
	r.frame.Move(o)
	r.frame.Resize(ds)
	if d.W <= 0 {
		r.view.Hide()
		r.frame.Hide()
	} else {
		r.view.Show()
		r.frame.Show()
	}

	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	if avail := r.mc.Avail(); avail != r.mc.avail {
		r.mc.avail = avail
		r.mc.session.Resize(avail)
	}
}
