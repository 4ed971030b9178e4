/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package imageio decodes source images for the editor. PNG, JPEG, GIF, BMP,
// TIFF and WebP are recognised by content, not file extension.
package imageio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels bounds decoded images to keep layer allocations sane.
const DefaultMaxPixels = 64 << 20

var ErrUnsupported = errors.New("unsupported image format")

// ErrTooLarge is returned when an image exceeds the pixel limit.
var ErrTooLarge = errors.New("image too large")

// Decode reads an image and reports its format name. Images with more than
// maxPixels pixels are rejected before the full decode; maxPixels <= 0 means
// DefaultMaxPixels.
func Decode(r io.Reader, maxPixels int) (image.Image, string, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	br := bufio.NewReader(r)
	head, _ := br.Peek(512)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(head))
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupported
		}
		// Some headers do not fit in the peeked prefix; let the full decode judge.
		cfg = image.Config{}
	}
	if cfg.Width > 0 && cfg.Height > 0 && cfg.Width*cfg.Height > maxPixels {
		return nil, format, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, format, err := image.Decode(br)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupported
		}
		return nil, format, fmt.Errorf("decode %s: %w", format, err)
	}
	b := img.Bounds()
	if b.Dx()*b.Dy() > maxPixels {
		return nil, format, fmt.Errorf("%w: %dx%d", ErrTooLarge, b.Dx(), b.Dy())
	}
	return img, format, nil
}

// Load decodes the image file at path.
func Load(path string, maxPixels int) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	img, format, err := Decode(f, maxPixels)
	if err != nil {
		return nil, format, fmt.Errorf("%s: %w", path, err)
	}
	return img, format, nil
}
