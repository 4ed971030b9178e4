/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package compose

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"maskpaint/internal/geom"
	"maskpaint/internal/layer"
)

// gradientBase fills a base layer so every pixel encodes its coordinates.
func gradientBase(size geom.Size, dpr float64) *layer.Layer {
	l := layer.New(layer.Base, size, dpr)
	img := l.Image()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return l
}

func TestRenderFullSize(t *testing.T) {
	for _, dpr := range []float64{1, 1.5, 2} {
		base := gradientBase(geom.Size{W: 200, H: 150}, dpr)
		mask := layer.New(layer.Mask, geom.Size{W: 200, H: 150}, dpr)
		out := Render(base, mask, nil)
		want := image.Pt(int(200*dpr+0.5), int(150*dpr+0.5))
		if out.Bounds().Size() != want {
			t.Fatalf("dpr %v: size %v, want %v", dpr, out.Bounds().Size(), want)
		}
		if d := OutputSize(base, nil); d.Width != want.X || d.Height != want.Y {
			t.Fatalf("dpr %v: OutputSize %+v", dpr, d)
		}
	}
}

func TestRenderCropExtractsSubRect(t *testing.T) {
	base := gradientBase(geom.Size{W: 200, H: 150}, 1)
	mask := layer.New(layer.Mask, geom.Size{W: 200, H: 150}, 1)
	crop := geom.R(10, 10, 50, 40)
	out := Render(base, mask, &crop)
	if out.Bounds() != image.Rect(0, 0, 50, 40) {
		t.Fatalf("bounds = %v, want 50x40", out.Bounds())
	}
	if got := out.RGBAAt(0, 0); got.R != 10 || got.G != 10 {
		t.Fatalf("origin sourced from %d,%d, want 10,10", got.R, got.G)
	}
	if got := out.RGBAAt(49, 39); got.R != 59 || got.G != 49 {
		t.Fatalf("far corner sourced from %d,%d, want 59,49", got.R, got.G)
	}
	if d := OutputSize(base, &crop); d != (Dimensions{Width: 50, Height: 40}) {
		t.Fatalf("OutputSize = %+v", d)
	}
}

func TestRenderCropScalesByDPR(t *testing.T) {
	base := gradientBase(geom.Size{W: 100, H: 100}, 2)
	crop := geom.R(10, 5, 20, 30)
	out := Render(base, nil, &crop)
	if out.Bounds().Size() != image.Pt(40, 60) {
		t.Fatalf("size = %v, want 40x60", out.Bounds().Size())
	}
	if got := out.RGBAAt(0, 0); got.R != 20 || got.G != 10 {
		t.Fatalf("origin sourced from %d,%d, want 20,10", got.R, got.G)
	}
}

func TestMaskPaintedOverBase(t *testing.T) {
	base := gradientBase(geom.Size{W: 20, H: 20}, 1)
	mask := layer.New(layer.Mask, geom.Size{W: 20, H: 20}, 1)
	draw.Draw(mask.Image(), image.Rect(5, 5, 10, 10), &image.Uniform{C: layer.MaskRed}, image.Point{}, draw.Src)
	before := append([]byte(nil), base.Image().Pix...)
	out := Render(base, mask, nil)
	if got := out.RGBAAt(7, 7); got != layer.MaskRed {
		t.Fatalf("masked pixel = %v, want red", got)
	}
	if got := out.RGBAAt(12, 3); got.R != 12 || got.G != 3 {
		t.Fatalf("unmasked pixel changed: %v", got)
	}
	if !bytes.Equal(before, base.Image().Pix) {
		t.Fatalf("Render must not modify the base layer")
	}
}

func TestPNGBytesDecodes(t *testing.T) {
	base := gradientBase(geom.Size{W: 30, H: 20}, 1)
	b, err := PNGBytes(Render(base, nil, nil), ParseCompression("speed"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Width != 30 || cfg.Height != 20 {
		t.Fatalf("decoded size %dx%d", cfg.Width, cfg.Height)
	}
}

func TestParseCompression(t *testing.T) {
	cases := map[string]png.CompressionLevel{
		"":      png.DefaultCompression,
		"none":  png.NoCompression,
		"Speed": png.BestSpeed,
		"best":  png.BestCompression,
	}
	for in, want := range cases {
		if got := ParseCompression(in); got != want {
			t.Fatalf("ParseCompression(%q) = %v, want %v", in, got, want)
		}
	}
}
