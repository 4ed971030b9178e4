/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package compose merges the base and mask layers into the export raster.
// It knows nothing about zoom or pan.
package compose

import (
	"image"
	"image/draw"

	"maskpaint/internal/geom"
	"maskpaint/internal/layer"
)

// DefaultFilename is the name the export is handed off under.
const DefaultFilename = "combined-image.png"

// Dimensions of an export raster in device pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// cropPixels maps an image-space crop rectangle to device pixels of base.
func cropPixels(base *layer.Layer, crop *geom.Rect) image.Rectangle {
	r := crop.Pixels(base.DPR())
	if r.Dx() < 1 {
		r.Max.X = r.Min.X + 1
	}
	if r.Dy() < 1 {
		r.Max.Y = r.Min.Y + 1
	}
	return r
}

// OutputSize reports the dimensions Render would produce.
func OutputSize(base *layer.Layer, crop *geom.Rect) Dimensions {
	if crop != nil {
		r := cropPixels(base, crop)
		return Dimensions{Width: r.Dx(), Height: r.Dy()}
	}
	sz := base.PixelSize()
	return Dimensions{Width: sz.X, Height: sz.Y}
}

// Render draws base, then mask on top, into a new surface the size of base.
// With a crop rectangle exactly that sub-rectangle is returned, origin at 0,0.
// Neither layer is modified.
func Render(base, mask *layer.Layer, crop *geom.Rect) *image.RGBA {
	full := image.NewRGBA(base.Bounds())
	draw.Draw(full, full.Bounds(), base.Image(), base.Bounds().Min, draw.Src)
	if mask != nil {
		draw.Draw(full, full.Bounds(), mask.Image(), mask.Bounds().Min, draw.Over)
	}
	if crop == nil {
		return full
	}
	sr := cropPixels(base, crop)
	out := image.NewRGBA(image.Rect(0, 0, sr.Dx(), sr.Dy()))
	// Areas of sr outside the base stay transparent.
	draw.Draw(out, out.Bounds(), full, sr.Min, draw.Src)
	return out
}
