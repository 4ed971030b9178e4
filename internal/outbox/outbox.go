/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package outbox hands finished exports to their destination: a directory on
// disk, a local SQLite database or a shared Postgres database. Every
// submission carries a JSON manifest that is validated before anything is
// written.
package outbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"maskpaint/internal/editor"
)

// Submission is one export on its way out.
type Submission struct {
	Filename  string
	PNG       []byte
	Width     int
	Height    int
	Prompt    string
	Crop      *editor.CropInfo
	CreatedAt time.Time
}

// NewSubmission wraps an editor export.
func NewSubmission(e editor.Export) Submission {
	return Submission{
		Filename:  e.Filename,
		PNG:       e.PNG,
		Width:     e.Dimensions.Width,
		Height:    e.Dimensions.Height,
		Prompt:    e.Prompt,
		Crop:      e.Crop,
		CreatedAt: e.CreatedAt,
	}
}

// Digest returns the hex SHA-256 of the PNG payload.
func (s Submission) Digest() string {
	sum := sha256.Sum256(s.PNG)
	return hex.EncodeToString(sum[:])
}

func (s Submission) validate() error {
	if s.Filename == "" {
		return errors.New("submission: filename is required")
	}
	if len(s.PNG) == 0 {
		return errors.New("submission: empty image")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("submission: invalid size %dx%d", s.Width, s.Height)
	}
	return nil
}

// Receipt identifies where a submission ended up.
type Receipt struct {
	ID       string
	Location string
}

// Sink receives submissions. Implementations are safe for sequential use;
// the editor never runs two exports at once.
type Sink interface {
	Submit(ctx context.Context, s Submission) (Receipt, error)
	Close() error
}

// prepare validates the submission and builds its manifest.
func prepare(s Submission) (Manifest, []byte, error) {
	if err := s.validate(); err != nil {
		return Manifest{}, nil, err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m := NewManifest(s)
	b, err := m.JSON()
	if err != nil {
		return Manifest{}, nil, err
	}
	if err := ValidateManifest(b); err != nil {
		return Manifest{}, nil, err
	}
	return m, b, nil
}
