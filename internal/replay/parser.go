/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package replay runs scripted editing sessions headlessly. A script is YAML:
//
//	container: {w: 900, h: 600}
//	dpr: 2
//	brush: 30
//	steps:
//	  - stroke: [[10, 10], [80, 40]]
//	  - crop: [[0, 0], [300, 200]]
//	  - key: reset
//	  - undo: 1
//
// Steps available: tool, stroke, click, crop, pinch, key, undo, redo, clear,
// resize and brush.
package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

var tools = map[string]bool{"paint": true, "zoom-in": true, "zoom-out": true, "crop": true}

var keys = map[string]bool{"zoom-in": true, "zoom-out": true, "reset": true}

// UnmarshalYAML records the step's line for error reporting.
func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	type plain Step
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*s = Step(p)
	s.Line = n.Line
	return nil
}

// Parse decodes and validates a script. All validation problems are
// returned, not just the first.
func Parse(data []byte) (Script, []Error) {
	var sc Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return sc, []Error{{Message: "empty script"}}
		}
		return sc, yamlErrors(err)
	}
	var errs []Error
	if sc.Container.W <= 0 || sc.Container.H <= 0 {
		errs = append(errs, Error{Message: fmt.Sprintf("container must be positive, got %gx%g", sc.Container.W, sc.Container.H)})
	}
	if sc.DPR < 0 {
		errs = append(errs, Error{Message: "dpr must not be negative"})
	}
	for _, st := range sc.Steps {
		if msg := st.validate(); msg != "" {
			errs = append(errs, Error{Line: st.Line, Message: msg})
		}
	}
	return sc, errs
}

func yamlErrors(err error) []Error {
	var te *yaml.TypeError
	if errors.As(err, &te) {
		out := make([]Error, 0, len(te.Errors))
		for _, m := range te.Errors {
			out = append(out, Error{Message: m})
		}
		return out
	}
	return []Error{{Message: err.Error()}}
}

// Action names the single action set on the step.
func (s Step) Action() string {
	var set []string
	add := func(ok bool, name string) {
		if ok {
			set = append(set, name)
		}
	}
	add(s.Tool != "", "tool")
	add(len(s.Stroke) > 0, "stroke")
	add(s.Click != nil, "click")
	add(len(s.Crop) > 0, "crop")
	add(s.Pinch != nil, "pinch")
	add(s.Key != "", "key")
	add(s.Undo > 0, "undo")
	add(s.Redo > 0, "redo")
	add(s.Clear, "clear")
	add(s.Resize != nil, "resize")
	add(s.Brush > 0, "brush")
	return strings.Join(set, ",")
}

func (s Step) validate() string {
	act := s.Action()
	switch {
	case act == "":
		return "step has no action"
	case strings.Contains(act, ","):
		return "step has more than one action: " + act
	}
	switch act {
	case "tool":
		if !tools[s.Tool] {
			return fmt.Sprintf("unknown tool %q", s.Tool)
		}
	case "key":
		if !keys[s.Key] {
			return fmt.Sprintf("unknown key %q", s.Key)
		}
	case "crop":
		if len(s.Crop) != 2 {
			return fmt.Sprintf("crop needs 2 points, got %d", len(s.Crop))
		}
	case "resize":
		if s.Resize.W <= 0 || s.Resize.H <= 0 {
			return "resize must be positive"
		}
	}
	return ""
}
