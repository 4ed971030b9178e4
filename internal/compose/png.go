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
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
)

// ParseCompression maps a config value to a png.CompressionLevel.
// Accepted: default, none, speed, best.
func ParseCompression(s string) png.CompressionLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return png.NoCompression
	case "speed", "fast":
		return png.BestSpeed
	case "best":
		return png.BestCompression
	default:
		return png.DefaultCompression
	}
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image, level png.CompressionLevel) error {
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// PNGBytes encodes img into a new buffer. Nothing is returned on failure.
func PNGBytes(img image.Image, level png.CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img, level); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
