/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package replay

import "fmt"

// Script is a recorded editing session: the surface it ran on and the
// ordered steps to replay against a freshly loaded image.
type Script struct {
	Container Size    `yaml:"container"`
	DPR       float64 `yaml:"dpr"`
	Brush     float64 `yaml:"brush"`
	Steps     []Step  `yaml:"steps"`
}

type Size struct {
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Point is a container-relative position written as [x, y].
type Point [2]float64

// Pinch moves two fingers from one pair of positions to another.
type Pinch struct {
	From [2]Point `yaml:"from"`
	To   [2]Point `yaml:"to"`
}

// Step holds exactly one action. Line is the 1-based source line.
type Step struct {
	Tool   string  `yaml:"tool,omitempty"`
	Stroke []Point `yaml:"stroke,omitempty"`
	Click  *Point  `yaml:"click,omitempty"`
	Crop   []Point `yaml:"crop,omitempty"`
	Pinch  *Pinch  `yaml:"pinch,omitempty"`
	Key    string  `yaml:"key,omitempty"`
	Undo   int     `yaml:"undo,omitempty"`
	Redo   int     `yaml:"redo,omitempty"`
	Clear  bool    `yaml:"clear,omitempty"`
	Resize *Size   `yaml:"resize,omitempty"`
	Brush  float64 `yaml:"brush,omitempty"`

	Line int `yaml:"-"`
}

// Error is a script problem with its source position.
type Error struct {
	Line    int
	Message string
}

func (e Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}
