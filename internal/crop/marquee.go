/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crop

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"maskpaint/internal/geom"
	"maskpaint/internal/layer"
)

var (
	veilColor   = color.RGBA{A: 89} // black at 35%
	borderColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const (
	dashOn     = 6
	dashOff    = 4
	handleSize = 6
)

// DrawMarquee clears the overlay and, if r is non-nil, veils everything
// outside r and draws a dashed border with four corner handles.
func DrawMarquee(overlay *layer.Layer, r *geom.Rect) {
	overlay.Clear()
	if r == nil {
		return
	}
	img := overlay.Image()
	dpr := overlay.DPR()
	pr := r.Pixels(dpr)

	draw.Draw(img, img.Bounds(), &image.Uniform{C: veilColor}, image.Point{}, draw.Src)
	draw.Draw(img, pr, image.Transparent, image.Point{}, draw.Src)

	thick := max(1, int(math.Round(dpr)))
	on := max(1, int(math.Round(dashOn*dpr)))
	period := on + max(1, int(math.Round(dashOff*dpr)))
	dashedRect(img, pr, thick, on, period)

	s := max(1, int(math.Round(handleSize*dpr)))
	for _, c := range []image.Point{pr.Min, {pr.Max.X, pr.Min.Y}, {pr.Min.X, pr.Max.Y}, pr.Max} {
		h := image.Rect(c.X-s/2, c.Y-s/2, c.X-s/2+s, c.Y-s/2+s)
		draw.Draw(img, h, &image.Uniform{C: borderColor}, image.Point{}, draw.Src)
	}
}

func dashedRect(img *image.RGBA, r image.Rectangle, thick, on, period int) {
	b := img.Bounds()
	set := func(x, y int) {
		if (image.Point{X: x, Y: y}).In(b) {
			img.SetRGBA(x, y, borderColor)
		}
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		if (x-r.Min.X)%period >= on {
			continue
		}
		for t := 0; t < thick; t++ {
			set(x, r.Min.Y+t)
			set(x, r.Max.Y-1-t)
		}
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		if (y-r.Min.Y)%period >= on {
			continue
		}
		for t := 0; t < thick; t++ {
			set(r.Min.X+t, y)
			set(r.Max.X-1-t, y)
		}
	}
}
