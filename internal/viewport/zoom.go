/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"math"

	"maskpaint/internal/geom"
)

// ZoomAt scales by factor. The image point under the anchor is moved to the
// container centre rather than kept under the anchor.
func (v *Viewport) ZoomAt(factor, anchorX, anchorY float64) {
	v.zoomTo(geom.Clamp(v.st.Zoom*factor, v.limits.MinZoom, v.limits.MaxZoom), anchorX, anchorY)
}

func (v *Viewport) zoomTo(newZoom, anchorX, anchorY float64) {
	p := v.ToImageSpace(anchorX, anchorY)
	v.st.OffsetX = v.st.ContainerW/2 - newZoom*p.X
	v.st.OffsetY = v.st.ContainerH/2 - newZoom*p.Y
	v.st.Zoom = newZoom
	v.ClampPan()
}

// FillRect zooms so r (image space) fills the container and centres it.
// The zoom ceiling is MaxAutoZoom.
func (v *Viewport) FillRect(r geom.Rect) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	fit := math.Min(v.st.ContainerW/r.W, v.st.ContainerH/r.H)
	z := geom.Clamp(fit, v.limits.MinZoom, v.limits.MaxAutoZoom)
	v.st.Zoom = z
	v.st.OffsetX = (v.st.ContainerW-r.W*z)/2 - r.X*z
	v.st.OffsetY = (v.st.ContainerH-r.H*z)/2 - r.Y*z
	v.ClampPan()
}

// BeginPinch remembers the zoom and finger distance at the start of a
// two-finger gesture.
func (v *Viewport) BeginPinch(a, b geom.Pt) {
	v.pinch = pinchState{active: true, startZoom: v.st.Zoom, startDist: geom.Dist(a, b)}
}

// MovePinch rescales relative to the pinch start, anchored on the live midpoint.
// A gesture that began with both fingers on one spot starts measuring from
// the first move that separates them.
func (v *Viewport) MovePinch(a, b geom.Pt) {
	if !v.pinch.active {
		return
	}
	if v.pinch.startDist <= 0 {
		if d := geom.Dist(a, b); d > 0 {
			v.pinch.startZoom = v.st.Zoom
			v.pinch.startDist = d
		}
		return
	}
	z := geom.Clamp(v.pinch.startZoom*geom.Dist(a, b)/v.pinch.startDist, v.limits.MinZoom, v.limits.MaxZoom)
	mid := geom.Mid(a, b)
	v.zoomTo(z, mid.X, mid.Y)
}

// EndPinch forgets the active pinch gesture.
func (v *Viewport) EndPinch() { v.pinch = pinchState{} }

// Pinching reports whether a pinch gesture is in progress.
func (v *Viewport) Pinching() bool { return v.pinch.active }
