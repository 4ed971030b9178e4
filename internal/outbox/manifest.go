/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package outbox

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"maskpaint/internal/editor"
	"maskpaint/internal/version"
)

//go:embed schema/manifest.schema.json
var manifestSchema []byte

// ErrInvalidManifest is wrapped by ValidateManifest failures.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest describes a submission next to its image.
type Manifest struct {
	Filename  string           `json:"filename"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Bytes     int              `json:"bytes"`
	SHA256    string           `json:"sha256"`
	Prompt    string           `json:"prompt"`
	Crop      *editor.CropInfo `json:"crop,omitempty"`
	CreatedAt string           `json:"createdAt"`
	App       string           `json:"app"`
}

func NewManifest(s Submission) Manifest {
	ts := s.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return Manifest{
		Filename:  s.Filename,
		Width:     s.Width,
		Height:    s.Height,
		Bytes:     len(s.PNG),
		SHA256:    s.Digest(),
		Prompt:    s.Prompt,
		Crop:      s.Crop,
		CreatedAt: ts.UTC().Format(time.RFC3339),
		App:       "maskpaint " + version.String(),
	}
}

// JSON renders the manifest in indented form with a trailing newline.
func (m Manifest) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(b, '\n'), nil
}

// ValidateManifest checks raw manifest JSON against the embedded schema.
func ValidateManifest(doc []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(manifestSchema), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(msgs, "; "))
	}
	return nil
}
