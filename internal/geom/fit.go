/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package geom

import "math"

// FitSize scales a natural image size down to fit inside max, preserving the
// aspect ratio and never upscaling. Each side is rounded and at least 1.
func FitSize(natural, max Size) Size {
	nw := math.Max(1, natural.W)
	nh := math.Max(1, natural.H)
	scale := math.Min(math.Min(max.W/nw, max.H/nh), 1)
	if scale <= 0 || math.IsNaN(scale) {
		scale = 1 / math.Max(nw, nh)
	}
	return Size{
		W: math.Max(1, math.Round(nw*scale)),
		H: math.Max(1, math.Round(nh*scale)),
	}
}

// Budget controls how much of a window the fitted image may occupy.
type Budget struct {
	// ViewportScale is the share of the available width/height used (0.9).
	ViewportScale float64
	// SafeBottom is kept free below the image, in layout units.
	SafeBottom float64
	// MinAvailH is the height below which the budget falls back to a share of the window.
	MinAvailH float64
}

// DefaultBudget mirrors the editor's stock layout constants.
func DefaultBudget() Budget {
	return Budget{ViewportScale: 0.90, SafeBottom: 12, MinAvailH: 240}
}

// LayoutBudget computes the maximum display size for an image given the
// window size and the top edge (below toolbars) where the image area starts.
func LayoutBudget(window Size, top float64, b Budget) Size {
	if b.ViewportScale <= 0 {
		b = DefaultBudget()
	}
	maxW := math.Round(window.W * b.ViewportScale)
	availH := math.Max(0, window.H-top-b.SafeBottom)
	if availH < b.MinAvailH {
		availH = math.Min(math.Max(b.MinAvailH, window.H*0.6), window.H)
	}
	maxH := math.Round(availH * b.ViewportScale)
	return Size{W: math.Max(1, maxW), H: math.Max(1, maxH)}
}
