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
	"context"
	"fmt"
	"log/slog"
	"time"

	"maskpaint/internal/compose"
	"maskpaint/internal/prompt"
)

// Export is one flattened result ready to hand to a sink.
type Export struct {
	Filename   string
	PNG        []byte
	Dimensions compose.Dimensions
	Prompt     string
	Crop       *CropInfo
	CreatedAt  time.Time
}

// CropInfo records the applied crop rectangle in layout units.
type CropInfo struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Export flattens base and mask, restricted to the applied crop, and encodes
// the result as PNG. Only one export may run at a time; a second call while
// one is in flight fails with ErrBusy.
func (s *Session) Export(ctx context.Context) (Export, error) {
	if !s.exporting.CompareAndSwap(false, true) {
		return Export{}, ErrBusy
	}
	defer s.exporting.Store(false)

	s.mu.Lock()
	if s.base == nil {
		s.mu.Unlock()
		return Export{}, ErrNoImage
	}
	s.commitStrokeLocked()
	cr := s.cropRectLocked()
	img := compose.Render(s.base, s.mask, cr)
	dims := compose.OutputSize(s.base, cr)
	name := s.opts.Filename
	encode := s.encode
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Export{}, err
	}
	start := time.Now()
	b, err := encode(img)
	if err != nil {
		s.log.Error("export failed", slog.Any("err", err))
		return Export{}, fmt.Errorf("encode %s: %w", name, err)
	}
	out := Export{
		Filename:   name,
		PNG:        b,
		Dimensions: dims,
		Prompt:     prompt.Build(name, dims.Width, dims.Height),
		CreatedAt:  time.Now().UTC(),
	}
	if cr != nil {
		out.Crop = &CropInfo{X: cr.X, Y: cr.Y, W: cr.W, H: cr.H}
	}
	s.log.Info("export ready",
		slog.String("file", name),
		slog.Int("width", dims.Width), slog.Int("height", dims.Height),
		slog.Int("bytes", len(b)), slog.Duration("took", time.Since(start)))
	return out, nil
}

// Exporting reports whether an export is in flight.
func (s *Session) Exporting() bool { return s.exporting.Load() }

// OutputDimensions returns the size, in device pixels, the next export would
// have. It reports false when no image is loaded.
func (s *Session) OutputDimensions() (compose.Dimensions, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil {
		return compose.Dimensions{}, false
	}
	return compose.OutputSize(s.base, s.cropRectLocked()), true
}

// Prompt returns the instruction text for the next export.
func (s *Session) Prompt() (string, bool) {
	d, ok := s.OutputDimensions()
	if !ok {
		return "", false
	}
	return prompt.Build(s.opts.Filename, d.Width, d.Height), true
}
