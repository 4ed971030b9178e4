/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package layer

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"maskpaint/internal/geom"
)

// MaskRed is the solid paint colour of the removal mask.
var MaskRed = color.RGBA{R: 255, G: 0, B: 0, A: 255}

// coverage at or above this alpha becomes a painted pixel
const coverageThreshold = 0x80

// StrokeSegment paints a round-capped line from a to b (logical coordinates)
// of the given logical width. Pixels are written fully opaque so overlapping
// strokes never blend: the mask stays binary.
func (l *Layer) StrokeSegment(a, b geom.Pt, width float64, col color.RGBA) {
	pa, pb := l.ToPixels(a), l.ToPixels(b)
	r := math.Max(width*l.dpr/2, 0.75)

	minX := int(math.Floor(math.Min(pa.X, pb.X)-r)) - 1
	minY := int(math.Floor(math.Min(pa.Y, pb.Y)-r)) - 1
	maxX := int(math.Ceil(math.Max(pa.X, pb.X)+r)) + 1
	maxY := int(math.Ceil(math.Max(pa.Y, pb.Y)+r)) + 1
	box := image.Rect(minX, minY, maxX, maxY).Intersect(l.img.Bounds())
	if box.Empty() {
		return
	}

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	z.DrawOp = draw.Src
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	for i, p := range capsule(pa, pb, r) {
		x, y := float32(p.X-ox), float32(p.Y-oy)
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()

	cov := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	z.Draw(cov, cov.Bounds(), image.Opaque, image.Point{})
	for y := 0; y < box.Dy(); y++ {
		for x := 0; x < box.Dx(); x++ {
			if cov.AlphaAt(x, y).A >= coverageThreshold {
				l.img.SetRGBA(box.Min.X+x, box.Min.Y+y, col)
			}
		}
	}
}

// capsule returns the outline of a segment with semicircular caps as a single
// convex polygon. a == b yields a circle.
func capsule(a, b geom.Pt, r float64) []geom.Pt {
	theta := math.Atan2(b.Y-a.Y, b.X-a.X)
	n := min(64, max(8, int(r)))
	pts := make([]geom.Pt, 0, 2*(n+1))
	for i := 0; i <= n; i++ {
		t := theta - math.Pi/2 + math.Pi*float64(i)/float64(n)
		pts = append(pts, geom.Pt{X: b.X + r*math.Cos(t), Y: b.Y + r*math.Sin(t)})
	}
	for i := 0; i <= n; i++ {
		t := theta + math.Pi/2 + math.Pi*float64(i)/float64(n)
		pts = append(pts, geom.Pt{X: a.X + r*math.Cos(t), Y: a.Y + r*math.Sin(t)})
	}
	return pts
}
