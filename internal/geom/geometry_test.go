/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package geom

import (
	"image"
	"testing"
)

func TestRectContainsAndComplement(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Complement(200, 150)
	if in.Top != 20 || in.Left != 10 || in.Right != 90 || in.Bottom != 80 {
		t.Fatalf("unexpected insets: %+v", in)
	}
}

func TestRectPixels(t *testing.T) {
	got := R(10, 10, 50, 40).Pixels(1.5)
	want := image.Rect(15, 15, 90, 75)
	if got != want {
		t.Fatalf("Pixels(1.5) = %v, want %v", got, want)
	}
}

func TestClampUpperBoundWins(t *testing.T) {
	if v := Clamp(-50, 20, 0); v != 0 {
		t.Fatalf("inverted bounds should yield hi, got %v", v)
	}
	if v := Clamp(5, 0, 10); v != 5 {
		t.Fatalf("in-range value changed: %v", v)
	}
}

func TestNormalizeRectOrderIndependent(t *testing.T) {
	bounds := Size{W: 200, H: 150}
	pts := []Pt{{-10, -10}, {0, 0}, {12.5, 80}, {199, 3}, {250, 400}, {100, 100}, {57, 57.25}}
	for _, a := range pts {
		for _, b := range pts {
			if NormalizeRect(a, b, bounds) != NormalizeRect(b, a, bounds) {
				t.Fatalf("NormalizeRect(%v,%v) depends on order", a, b)
			}
		}
	}
}

func TestNormalizeRectClampsAndFloors(t *testing.T) {
	bounds := Size{W: 200, H: 150}
	r := NormalizeRect(Pt{-20, 160}, Pt{250, 10}, bounds)
	if r != R(0, 10, 200, 140) {
		t.Fatalf("unexpected clamp: %+v", r)
	}
	r = NormalizeRect(Pt{30, 30}, Pt{30, 30}, bounds)
	if r.W != 1 || r.H != 1 {
		t.Fatalf("degenerate rect should floor at 1, got %+v", r)
	}
}

func TestFitSize(t *testing.T) {
	cases := []struct {
		name    string
		natural Size
		max     Size
		want    Size
	}{
		{"scale down capped by height", Size{1000, 800}, Size{900, 600}, Size{750, 600}},
		{"scale down capped by width", Size{2000, 500}, Size{900, 600}, Size{900, 225}},
		{"never upscale", Size{320, 200}, Size{900, 600}, Size{320, 200}},
		{"tiny result floors at 1", Size{10000, 10}, Size{100, 100}, Size{100, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FitSize(tc.natural, tc.max); got != tc.want {
				t.Fatalf("FitSize = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestLayoutBudget(t *testing.T) {
	b := DefaultBudget()
	got := LayoutBudget(Size{W: 1000, H: 900}, 100, b)
	// width 1000*0.9, height (900-100-12)*0.9
	if got.W != 900 || got.H != 709 {
		t.Fatalf("unexpected budget: %+v", got)
	}
	// Too little room below the toolbar: fall back to 60% of the window.
	got = LayoutBudget(Size{W: 1000, H: 500}, 400, b)
	if got.H != 270 {
		t.Fatalf("fallback budget height = %v, want 270", got.H)
	}
}
