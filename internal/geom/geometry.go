/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package geom holds the small float geometry shared by the editor core:
// points and rectangles in image space, crop normalization and fit sizing.
package geom

import (
	"image"
	"math"
)

// Pt is a 2D point in layout units.
type Pt struct{ X, Y float64 }

// Size is a width/height pair in layout units.
type Size struct{ W, H float64 }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt { return Pt{r.X + r.W, r.Y + r.H} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Pixels scales r by the device pixel ratio and rounds each component,
// matching how surfaces are sized.
func (r Rect) Pixels(dpr float64) image.Rectangle {
	x := int(math.Round(r.X * dpr))
	y := int(math.Round(r.Y * dpr))
	w := int(math.Round(r.W * dpr))
	h := int(math.Round(r.H * dpr))
	return image.Rect(x, y, x+w, y+h)
}

// Insets describes a clip as distances from each edge of a w×h area.
type Insets struct{ Top, Right, Bottom, Left float64 }

// Complement returns the insets that leave only r visible inside a w×h area.
func (r Rect) Complement(w, h float64) Insets {
	return Insets{
		Top:    r.Y,
		Right:  w - (r.X + r.W),
		Bottom: h - (r.Y + r.H),
		Left:   r.X,
	}
}

// Clamp bounds v to [lo, hi]. When lo > hi the upper bound wins.
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Dist returns the euclidean distance between a and b.
func Dist(a, b Pt) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// Mid returns the midpoint of a and b.
func Mid(a, b Pt) Pt { return Pt{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2} }

// NormalizeRect builds the rectangle spanned by two drag corners. Both corners
// are clamped into [0, bounds.W] × [0, bounds.H] first; width and height are
// floored at 1. The result does not depend on the order of a and b.
func NormalizeRect(a, b Pt, bounds Size) Rect {
	x1 := Clamp(a.X, 0, bounds.W)
	y1 := Clamp(a.Y, 0, bounds.H)
	x2 := Clamp(b.X, 0, bounds.W)
	y2 := Clamp(b.Y, 0, bounds.H)
	return Rect{
		X: math.Min(x1, x2),
		Y: math.Min(y1, y2),
		W: math.Max(1, math.Abs(x2-x1)),
		H: math.Max(1, math.Abs(y2-y1)),
	}
}
