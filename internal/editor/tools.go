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
	"log/slog"

	"maskpaint/internal/crop"
)

// Tool selects what a primary-pointer press does. Exactly one is active.
type Tool int

const (
	ToolPaint Tool = iota
	ToolZoomIn
	ToolZoomOut
	ToolCrop
)

func (t Tool) String() string {
	switch t {
	case ToolPaint:
		return "paint"
	case ToolZoomIn:
		return "zoom-in"
	case ToolZoomOut:
		return "zoom-out"
	case ToolCrop:
		return "crop"
	default:
		return "unknown"
	}
}

// ZoomMode is the click-to-zoom mode exposed to surfaces and debug hooks.
type ZoomMode string

const (
	ZoomNone ZoomMode = "none"
	ZoomIn   ZoomMode = "in"
	ZoomOut  ZoomMode = "out"
)

// ParseZoomMode maps free-form input to a mode. Unknown values mean none.
func ParseZoomMode(s string) ZoomMode {
	switch ZoomMode(s) {
	case ZoomIn:
		return ZoomIn
	case ZoomOut:
		return ZoomOut
	default:
		return ZoomNone
	}
}

func (s *Session) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

func (s *Session) ZoomMode() ZoomMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoomModeLocked()
}

func (s *Session) zoomModeLocked() ZoomMode {
	switch s.tool {
	case ToolZoomIn:
		return ZoomIn
	case ToolZoomOut:
		return ZoomOut
	default:
		return ZoomNone
	}
}

// SetZoomMode switches click-to-zoom on or off. Turning a zoom mode on leaves
// the crop tool; ZoomNone returns to painting.
func (s *Session) SetZoomMode(m ZoomMode) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setZoomModeLocked(m)
}

func (s *Session) setZoomModeLocked(m ZoomMode) {
	switch m {
	case ZoomIn, ZoomOut:
		s.commitStrokeLocked()
		s.exitCropToolLocked()
		if m == ZoomIn {
			s.tool = ToolZoomIn
		} else {
			s.tool = ToolZoomOut
		}
	default:
		if s.tool == ToolZoomIn || s.tool == ToolZoomOut {
			s.tool = ToolPaint
		}
	}
}

// ToggleZoomTool flips the given zoom mode: selecting the active one turns
// it off.
func (s *Session) ToggleZoomTool(m ZoomMode) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zoomModeLocked() == m {
		m = ZoomNone
	}
	s.setZoomModeLocked(m)
}

// ToggleCropTool enters crop selection, or leaves it when already active.
// Entering discards any applied crop.
func (s *Session) ToggleCropTool() error {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil {
		return ErrNoImage
	}
	if s.crop.Active() {
		s.exitCropToolLocked()
		return nil
	}
	s.commitStrokeLocked()
	s.crop.Enter()
	crop.DrawMarquee(s.overlay, nil)
	s.tool = ToolCrop
	s.log.Debug("crop tool entered")
	return nil
}

// ActivateCursorTool returns to painting from any other tool.
func (s *Session) ActivateCursorTool() {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitCropToolLocked()
	s.tool = ToolPaint
}

func (s *Session) exitCropToolLocked() {
	if !s.crop.Active() {
		return
	}
	s.crop.Exit()
	if s.overlay != nil {
		crop.DrawMarquee(s.overlay, nil)
	}
	if s.tool == ToolCrop {
		s.tool = ToolPaint
	}
}

// ResetZoom returns the viewport to identity, drops any zoom mode and removes
// the crop view.
func (s *Session) ResetZoom() {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetZoomLocked()
}

func (s *Session) resetZoomLocked() {
	s.vp.Reset()
	s.setZoomModeLocked(ZoomNone)
	s.clearCropViewLocked()
}

// Key is a keyboard shortcut understood by the session.
type Key int

const (
	KeyZoomIn Key = iota + 1
	KeyZoomOut
	KeyZoomReset
)

// HandleKey applies a zoom shortcut centred on the container. It reports
// whether the key was consumed.
func (s *Session) HandleKey(k Key) bool {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil {
		return false
	}
	st := s.vp.State()
	cx, cy := st.ContainerW/2, st.ContainerH/2
	switch k {
	case KeyZoomIn:
		s.vp.ZoomAt(s.opts.ZoomInFactor, cx, cy)
		s.setZoomModeLocked(ZoomNone)
	case KeyZoomOut:
		s.vp.ZoomAt(s.opts.ZoomOutFactor, cx, cy)
		s.setZoomModeLocked(ZoomNone)
	case KeyZoomReset:
		s.resetZoomLocked()
	default:
		return false
	}
	s.log.Debug("zoom key", slog.Int("key", int(k)), slog.Float64("zoom", s.vp.Zoom()))
	return true
}
