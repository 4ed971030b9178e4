/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"maskpaint/internal/layer"
)

// RenderView draws what the user sees in a w×h container: the three layers
// under the current zoom and pan, clipped to the applied crop.
func (s *Session) RenderView(w, h int) *image.RGBA { return s.RenderViewScaled(w, h, 1) }

// RenderViewScaled is RenderView for a target measured in scale output
// pixels per container unit, such as a raster on a HiDPI canvas.
func (s *Session) RenderViewScaled(w, h int, scale float64) *image.RGBA {
	if scale <= 0 {
		scale = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil || w <= 0 || h <= 0 {
		return dst
	}
	st := s.vp.State()
	dpr := s.base.DPR()
	k := st.Zoom * scale / dpr
	s2d := f64.Aff3{k, 0, st.OffsetX * scale, 0, k, st.OffsetY * scale}

	sr := s.base.Bounds()
	if r, ok := s.crop.Rect(); ok {
		sr = r.Pixels(dpr).Intersect(sr)
	}
	for _, l := range []*layer.Layer{s.base, s.mask, s.overlay} {
		xdraw.NearestNeighbor.Transform(dst, s2d, l.Image(), sr, draw.Over, nil)
	}
	return dst
}

// DebugInfo is a snapshot of session internals for diagnostics.
type DebugInfo struct {
	Zoom         float64  `json:"zoom"`
	OffsetX      float64  `json:"offsetX"`
	OffsetY      float64  `json:"offsetY"`
	ZoomMode     ZoomMode `json:"zoomMode"`
	Tool         string   `json:"tool"`
	CropActive   bool     `json:"cropActive"`
	CropState    string   `json:"cropState"`
	Painting     bool     `json:"painting"`
	BrushSize    float64  `json:"brushSize"`
	DisplayW     float64  `json:"displayW"`
	DisplayH     float64  `json:"displayH"`
	HistoryLen   int      `json:"historyLen"`
	HistoryIndex int      `json:"historyIndex"`
	HistoryBytes int      `json:"historyBytes"`
}

func (s *Session) Debug() DebugInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.vp.State()
	bytes, n, idx := s.hist.Stats()
	return DebugInfo{
		Zoom:         st.Zoom,
		OffsetX:      st.OffsetX,
		OffsetY:      st.OffsetY,
		ZoomMode:     s.zoomModeLocked(),
		Tool:         s.tool.String(),
		CropActive:   s.crop.Active(),
		CropState:    s.crop.State().String(),
		Painting:     s.painting,
		BrushSize:    s.brush,
		DisplayW:     st.DisplayW,
		DisplayH:     st.DisplayH,
		HistoryLen:   n,
		HistoryIndex: idx,
		HistoryBytes: bytes,
	}
}
