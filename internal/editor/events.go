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
	"maskpaint/internal/geom"
	"maskpaint/internal/layer"
)

// Kind is the phase of a pointer event.
type Kind int

const (
	Down Kind = iota
	Move
	Up
	Leave
	Cancel
)

func (k Kind) String() string {
	switch k {
	case Down:
		return "down"
	case Move:
		return "move"
	case Up:
		return "up"
	case Leave:
		return "leave"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Event is one pointer event from any input device. Coordinates are
// container-relative. PointerCount is the number of pointers currently down;
// the secondary position is only meaningful when it is 2 or more.
type Event struct {
	Kind         Kind
	PrimaryX     float64
	PrimaryY     float64
	PointerCount int
	SecondaryX   float64
	SecondaryY   float64
}

func (e Event) primary() geom.Pt   { return geom.Pt{X: e.PrimaryX, Y: e.PrimaryY} }
func (e Event) secondary() geom.Pt { return geom.Pt{X: e.SecondaryX, Y: e.SecondaryY} }

// HandleEvent routes a pointer event to pinch zoom, the active tool, or the
// brush. Events before an image is loaded are ignored.
func (s *Session) HandleEvent(e Event) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil {
		return
	}

	if e.PointerCount >= 2 {
		s.handlePinchLocked(e)
		return
	}
	if s.vp.Pinching() {
		s.vp.EndPinch()
		if e.Kind != Down {
			return
		}
	}

	p := s.vp.ToImageSpace(e.PrimaryX, e.PrimaryY)
	switch s.tool {
	case ToolCrop:
		s.handleCropLocked(e.Kind, p)
	case ToolZoomIn, ToolZoomOut:
		if e.Kind == Down {
			f := s.opts.ZoomInFactor
			if s.tool == ToolZoomOut {
				f = s.opts.ZoomOutFactor
			}
			s.vp.ZoomAt(f, e.PrimaryX, e.PrimaryY)
		}
	default:
		s.handlePaintLocked(e.Kind, p)
	}
}

func (s *Session) handlePinchLocked(e Event) {
	switch e.Kind {
	case Down, Move:
		if !s.vp.Pinching() {
			// A second finger turns whatever the first one started into a pinch.
			if s.painting {
				s.painting = false
				s.hist.Revert(s.mask)
			}
			if s.crop.State() == crop.Selecting {
				s.crop.Cancel()
				crop.DrawMarquee(s.overlay, nil)
			}
			s.vp.BeginPinch(e.primary(), e.secondary())
			return
		}
		s.vp.MovePinch(e.primary(), e.secondary())
	default:
		s.vp.EndPinch()
	}
}

func (s *Session) handleCropLocked(k Kind, p geom.Pt) {
	switch k {
	case Down:
		if s.crop.Begin(p) {
			r, _ := s.crop.Marquee()
			crop.DrawMarquee(s.overlay, &r)
		}
	case Move:
		if r, ok := s.crop.Move(p); ok {
			crop.DrawMarquee(s.overlay, &r)
		}
	case Up:
		r, ok := s.crop.Finish(p)
		crop.DrawMarquee(s.overlay, nil)
		if !ok {
			return
		}
		s.vp.FillRect(r)
		s.tool = ToolPaint
		s.log.Info("crop applied",
			slog.Float64("x", r.X), slog.Float64("y", r.Y),
			slog.Float64("w", r.W), slog.Float64("h", r.H),
			slog.Float64("zoom", s.vp.Zoom()))
	case Cancel, Leave:
		s.crop.Cancel()
		crop.DrawMarquee(s.overlay, nil)
	}
}

func (s *Session) handlePaintLocked(k Kind, p geom.Pt) {
	switch k {
	case Down:
		s.painting = true
		s.last = p
		s.mask.StrokeSegment(p, p, s.brush, layer.MaskRed)
	case Move:
		if !s.painting {
			return
		}
		s.mask.StrokeSegment(s.last, p, s.brush, layer.MaskRed)
		s.last = p
	case Up, Leave:
		s.commitStrokeLocked()
	case Cancel:
		if s.painting {
			s.painting = false
			s.hist.Revert(s.mask)
		}
	}
}

func (s *Session) commitStrokeLocked() {
	if !s.painting {
		return
	}
	s.painting = false
	s.hist.Save(s.mask)
}

// Painting reports whether a stroke is in progress.
func (s *Session) Painting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.painting
}
