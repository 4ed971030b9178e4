/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package viewport owns zoom and pan for the editing surface and converts
// between container-relative screen coordinates and image space.
package viewport

import "maskpaint/internal/geom"

// Limits are the zoom bounds. MaxZoom applies to interactive zoom, MaxAutoZoom
// to crop-to-fill, so very small crops can still fill the container.
type Limits struct {
	MinZoom     float64
	MaxZoom     float64
	MaxAutoZoom float64
}

func DefaultLimits() Limits { return Limits{MinZoom: 1, MaxZoom: 8, MaxAutoZoom: 32} }

// State is a read-only copy of the viewport.
// DisplayW/H is the fitted un-zoomed image size, ContainerW/H the visible area.
type State struct {
	Zoom       float64
	OffsetX    float64
	OffsetY    float64
	ContainerW float64
	ContainerH float64
	DisplayW   float64
	DisplayH   float64
}

type pinchState struct {
	active    bool
	startZoom float64
	startDist float64
}

// Viewport is not safe for concurrent use; the editor session serializes access.
type Viewport struct {
	st     State
	limits Limits
	pinch  pinchState
}

// New returns an identity viewport with the given limits. Zero limits fall back to defaults.
// MinZoom is capped at 1 so the identity zoom set by Reset is always legal.
func New(l Limits) *Viewport {
	d := DefaultLimits()
	if l.MinZoom <= 0 {
		l.MinZoom = d.MinZoom
	}
	l.MinZoom = min(l.MinZoom, 1)
	if l.MaxZoom < l.MinZoom {
		l.MaxZoom = d.MaxZoom
	}
	if l.MaxAutoZoom < l.MinZoom {
		l.MaxAutoZoom = d.MaxAutoZoom
	}
	return &Viewport{st: State{Zoom: 1}, limits: l}
}

// Limits returns the effective zoom limits after defaulting.
func (v *Viewport) Limits() Limits { return v.limits }

// State returns a copy of the current viewport.
func (v *Viewport) State() State { return v.st }

// Zoom returns the current zoom factor.
func (v *Viewport) Zoom() float64 { return v.st.Zoom }

// Offset returns the current pan translation.
func (v *Viewport) Offset() geom.Pt { return geom.Pt{X: v.st.OffsetX, Y: v.st.OffsetY} }

// SetLayout installs a new display and container size and resets to identity.
func (v *Viewport) SetLayout(display, container geom.Size) {
	v.st.DisplayW, v.st.DisplayH = display.W, display.H
	v.st.ContainerW, v.st.ContainerH = container.W, container.H
	v.pinch = pinchState{}
	v.Reset()
}

// SetContainer updates the visible area without touching zoom; pan is re-clamped.
func (v *Viewport) SetContainer(container geom.Size) {
	v.st.ContainerW, v.st.ContainerH = container.W, container.H
	v.ClampPan()
}

// Reset returns to zoom 1 with no pan.
func (v *Viewport) Reset() {
	v.st.Zoom = 1
	v.st.OffsetX = 0
	v.st.OffsetY = 0
	v.ClampPan()
}

// ClampPan keeps the zoomed image covering the container. Along an axis where
// the image is smaller than the container the offset is pinned to 0.
func (v *Viewport) ClampPan() {
	imgW := v.st.Zoom * v.st.DisplayW
	imgH := v.st.Zoom * v.st.DisplayH
	v.st.OffsetX = geom.Clamp(v.st.OffsetX, v.st.ContainerW-imgW, 0)
	v.st.OffsetY = geom.Clamp(v.st.OffsetY, v.st.ContainerH-imgH, 0)
}
