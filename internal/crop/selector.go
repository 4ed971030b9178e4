/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crop implements the drag-to-select crop rectangle and the marquee
// drawn on the overlay layer while selecting.
package crop

import "maskpaint/internal/geom"

// State of the selector.
type State int

const (
	Idle State = iota
	Selecting
	Applied
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Applied:
		return "applied"
	default:
		return "unknown"
	}
}

// Selector tracks one crop selection. Active is the crop tool toggle and is
// independent of whether a rectangle is currently applied.
// All points are in image space.
type Selector struct {
	active bool
	state  State
	bounds geom.Size

	start   geom.Pt
	marquee geom.Rect
	rect    geom.Rect
}

func NewSelector() *Selector { return &Selector{} }

// SetBounds installs the display size used to clamp selections.
func (s *Selector) SetBounds(display geom.Size) { s.bounds = display }

func (s *Selector) Active() bool { return s.active }

func (s *Selector) State() State { return s.state }

// Enter turns the crop tool on and discards any applied rectangle.
func (s *Selector) Enter() {
	s.Clear()
	s.active = true
}

// Exit turns the crop tool off. An in-progress drag is abandoned; an applied
// rectangle is kept.
func (s *Selector) Exit() {
	s.active = false
	if s.state == Selecting {
		s.state = Idle
	}
}

// Begin starts a drag at p. It reports false when the tool is not active.
func (s *Selector) Begin(p geom.Pt) bool {
	if !s.active {
		return false
	}
	s.state = Selecting
	s.start = p
	s.marquee = geom.NormalizeRect(p, p, s.bounds)
	return true
}

// Move updates the live selection and returns the marquee rectangle.
func (s *Selector) Move(p geom.Pt) (geom.Rect, bool) {
	if s.state != Selecting {
		return geom.Rect{}, false
	}
	s.marquee = geom.NormalizeRect(s.start, p, s.bounds)
	return s.marquee, true
}

// Finish ends the drag at p. A selection no more than 1 unit wide or high is
// discarded and the tool stays active for another attempt. Otherwise the
// rectangle is applied, the tool exits and the rectangle is returned.
func (s *Selector) Finish(p geom.Pt) (geom.Rect, bool) {
	if s.state != Selecting {
		return geom.Rect{}, false
	}
	r := geom.NormalizeRect(s.start, p, s.bounds)
	s.marquee = geom.Rect{}
	if r.W <= 1 || r.H <= 1 {
		s.state = Idle
		return geom.Rect{}, false
	}
	s.rect = r
	s.state = Applied
	s.active = false
	return r, true
}

// Cancel abandons an in-progress drag.
func (s *Selector) Cancel() {
	if s.state == Selecting {
		s.state = Idle
		s.marquee = geom.Rect{}
	}
}

// Clear removes the applied rectangle unconditionally.
func (s *Selector) Clear() {
	s.rect = geom.Rect{}
	s.marquee = geom.Rect{}
	s.state = Idle
}

// Rect returns the applied crop rectangle.
func (s *Selector) Rect() (geom.Rect, bool) {
	if s.state != Applied {
		return geom.Rect{}, false
	}
	return s.rect, true
}

// Marquee returns the rectangle being dragged.
func (s *Selector) Marquee() (geom.Rect, bool) {
	if s.state != Selecting {
		return geom.Rect{}, false
	}
	return s.marquee, true
}

// Clip returns the insets that hide everything outside the applied rectangle.
func (s *Selector) Clip() (geom.Insets, bool) {
	r, ok := s.Rect()
	if !ok {
		return geom.Insets{}, false
	}
	return r.Complement(s.bounds.W, s.bounds.H), true
}
