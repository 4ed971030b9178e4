/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package replay

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"maskpaint/internal/editor"
	"maskpaint/internal/geom"
	applog "maskpaint/internal/log"
)

// Options returns base with the script's surface settings applied.
func (sc Script) Options(base editor.Options) editor.Options {
	if sc.DPR > 0 {
		base.DevicePixelRatio = sc.DPR
	}
	if sc.Brush > 0 {
		base.BrushSize = sc.Brush
	}
	return base
}

// Run loads img into s at the script's container size and applies every step
// in order. It stops at the first step that fails or when ctx is done.
func Run(ctx context.Context, s *editor.Session, img image.Image, sc Script) error {
	l := applog.WithOperation(applog.WithComponent("replay"), "run")
	if err := s.Load(img, geom.Size{W: sc.Container.W, H: sc.Container.H}); err != nil {
		return err
	}
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := apply(s, st); err != nil {
			return Error{Line: st.Line, Message: fmt.Sprintf("step %d (%s): %v", i+1, st.Action(), err)}
		}
		l.DebugContext(ctx, "step applied", slog.Int("step", i+1), slog.String("action", st.Action()))
	}
	d := s.Debug()
	l.InfoContext(ctx, "replay finished", slog.Int("steps", len(sc.Steps)), slog.Float64("zoom", d.Zoom), slog.Int("history", d.HistoryLen))
	return nil
}

func apply(s *editor.Session, st Step) error {
	switch {
	case st.Tool != "":
		return selectTool(s, st.Tool)
	case len(st.Stroke) > 0:
		drag(s, st.Stroke)
	case st.Click != nil:
		drag(s, []Point{*st.Click})
	case len(st.Crop) > 0:
		if err := selectTool(s, "crop"); err != nil {
			return err
		}
		drag(s, st.Crop)
	case st.Pinch != nil:
		p := st.Pinch
		s.HandleEvent(twoFinger(editor.Down, p.From))
		s.HandleEvent(twoFinger(editor.Move, p.To))
		s.HandleEvent(editor.Event{Kind: editor.Up, PrimaryX: p.To[0][0], PrimaryY: p.To[0][1], PointerCount: 1})
	case st.Key != "":
		s.HandleKey(map[string]editor.Key{
			"zoom-in":  editor.KeyZoomIn,
			"zoom-out": editor.KeyZoomOut,
			"reset":    editor.KeyZoomReset,
		}[st.Key])
	case st.Undo > 0:
		for i := 0; i < st.Undo; i++ {
			s.Undo()
		}
	case st.Redo > 0:
		for i := 0; i < st.Redo; i++ {
			s.Redo()
		}
	case st.Clear:
		return s.ClearMask()
	case st.Resize != nil:
		s.Relayout(geom.Size{W: st.Resize.W, H: st.Resize.H})
	case st.Brush > 0:
		s.SetBrushSize(st.Brush)
	}
	return nil
}

func selectTool(s *editor.Session, name string) error {
	switch name {
	case "paint":
		s.ActivateCursorTool()
	case "zoom-in":
		s.SetZoomMode(editor.ZoomIn)
	case "zoom-out":
		s.SetZoomMode(editor.ZoomOut)
	case "crop":
		if s.Tool() != editor.ToolCrop {
			return s.ToggleCropTool()
		}
	default:
		return fmt.Errorf("unknown tool %q", name)
	}
	return nil
}

// drag presses at the first point, moves through the rest and releases at
// the last.
func drag(s *editor.Session, pts []Point) {
	ev := func(k editor.Kind, p Point) editor.Event {
		return editor.Event{Kind: k, PrimaryX: p[0], PrimaryY: p[1], PointerCount: 1}
	}
	s.HandleEvent(ev(editor.Down, pts[0]))
	for _, p := range pts[1:] {
		s.HandleEvent(ev(editor.Move, p))
	}
	s.HandleEvent(ev(editor.Up, pts[len(pts)-1]))
}

func twoFinger(k editor.Kind, p [2]Point) editor.Event {
	return editor.Event{
		Kind:         k,
		PrimaryX:     p[0][0],
		PrimaryY:     p[0][1],
		PointerCount: 2,
		SecondaryX:   p[1][0],
		SecondaryY:   p[1][1],
	}
}
