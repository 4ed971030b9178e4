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

import "maskpaint/internal/geom"

// ContainerRelative translates client coordinates into the container's space
// by subtracting the container's on-screen origin.
func ContainerRelative(clientX, clientY, originX, originY float64) geom.Pt {
	return geom.Pt{X: clientX - originX, Y: clientY - originY}
}

// ToImageSpace maps a container-relative point to image space. Points outside
// the image are returned unclamped.
func (v *Viewport) ToImageSpace(sx, sy float64) geom.Pt {
	return geom.Pt{
		X: (sx - v.st.OffsetX) / v.st.Zoom,
		Y: (sy - v.st.OffsetY) / v.st.Zoom,
	}
}

// ToScreenSpace is the inverse of ToImageSpace.
func (v *Viewport) ToScreenSpace(p geom.Pt) geom.Pt {
	return geom.Pt{
		X: p.X*v.st.Zoom + v.st.OffsetX,
		Y: p.Y*v.st.Zoom + v.st.OffsetY,
	}
}
