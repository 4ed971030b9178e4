/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package layer provides the raster surfaces the editor paints on. A Layer has
// a logical size in layout units and a backing RGBA image scaled by a device
// pixel ratio; callers always draw in logical (image space) coordinates.
package layer

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"maskpaint/internal/geom"
)

// Names of the three editor layers.
const (
	Base    = "base"
	Mask    = "mask"
	Overlay = "overlay"
)

// Layer is a fixed-size raster surface.
type Layer struct {
	name    string
	logical geom.Size
	dpr     float64
	img     *image.RGBA
}

// PixelSize returns the backing pixel dimensions for a logical size at dpr.
func PixelSize(size geom.Size, dpr float64) image.Point {
	if dpr <= 0 {
		dpr = 1
	}
	return image.Pt(
		max(1, int(math.Round(size.W*dpr))),
		max(1, int(math.Round(size.H*dpr))),
	)
}

// New allocates a transparent layer.
func New(name string, size geom.Size, dpr float64) *Layer {
	if dpr <= 0 {
		dpr = 1
	}
	px := PixelSize(size, dpr)
	return &Layer{name: name, logical: size, dpr: dpr, img: image.NewRGBA(image.Rectangle{Max: px})}
}

// Name returns the layer label.
func (l *Layer) Name() string { return l.name }

// Size returns the logical (display) size.
func (l *Layer) Size() geom.Size { return l.logical }

// DPR returns the device pixel ratio of the backing store.
func (l *Layer) DPR() float64 { return l.dpr }

// Bounds returns the backing store rectangle in device pixels.
func (l *Layer) Bounds() image.Rectangle { return l.img.Bounds() }

// PixelSize returns the backing store dimensions in device pixels.
func (l *Layer) PixelSize() image.Point { return l.img.Bounds().Size() }

// Image exposes the backing store. Callers must not retain it across Resize.
func (l *Layer) Image() *image.RGBA { return l.img }

// ToPixels converts a logical point to device pixels.
func (l *Layer) ToPixels(p geom.Pt) geom.Pt { return geom.Pt{X: p.X * l.dpr, Y: p.Y * l.dpr} }

// Clear makes every pixel fully transparent.
func (l *Layer) Clear() {
	clear(l.img.Pix)
}

// IsEmpty reports whether no pixel carries any alpha.
func (l *Layer) IsEmpty() bool {
	for i := 3; i < len(l.img.Pix); i += 4 {
		if l.img.Pix[i] != 0 {
			return false
		}
	}
	return true
}

// Resize reallocates the surface. With preserve the old content is resampled
// nearest-neighbour into the new size so hard-edged content stays hard-edged.
func (l *Layer) Resize(size geom.Size, dpr float64, preserve bool) {
	if dpr <= 0 {
		dpr = 1
	}
	old := l.img
	px := PixelSize(size, dpr)
	l.img = image.NewRGBA(image.Rectangle{Max: px})
	l.logical = size
	l.dpr = dpr
	if preserve && old != nil {
		xdraw.NearestNeighbor.Scale(l.img, l.img.Bounds(), old, old.Bounds(), draw.Src, nil)
	}
}

// DrawScaled replaces the layer content with src scaled to fill it.
func (l *Layer) DrawScaled(src image.Image) {
	xdraw.BiLinear.Scale(l.img, l.img.Bounds(), src, src.Bounds(), draw.Src, nil)
}

// Snapshot returns an independent copy of the layer pixels.
func (l *Layer) Snapshot() *image.RGBA {
	cp := image.NewRGBA(l.img.Bounds())
	copy(cp.Pix, l.img.Pix)
	return cp
}

// Restore materializes snap into the layer. Snapshots taken at another size
// are resampled nearest-neighbour.
func (l *Layer) Restore(snap *image.RGBA) {
	if snap == nil {
		l.Clear()
		return
	}
	if snap.Bounds() == l.img.Bounds() && snap.Stride == l.img.Stride {
		copy(l.img.Pix, snap.Pix)
		return
	}
	xdraw.NearestNeighbor.Scale(l.img, l.img.Bounds(), snap, snap.Bounds(), draw.Src, nil)
}
