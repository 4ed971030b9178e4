/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package prompt builds the instruction text that accompanies an export.
package prompt

import "fmt"

// Build returns the inpainting instructions for an export of w×h pixels
// handed off under filename.
func Build(filename string, w, h int) string {
	return fmt.Sprintf(`You are an expert image editing assistant.

I will upload ONE file: %[1]s (resolution: %[2]d×%[3]d px).
This image shows the original photo with SOLID RED (#ff0000) brush strokes drawn on top wherever content should be REMOVED/REPLACED.

Task:
- Remove ONLY the regions covered by the red strokes and synthesize realistic content consistent with nearby context.
- Preserve all unmarked areas exactly as in the original photo.
- Maintain scene lighting, perspective, textures, and edges.
- Output image must be %[2]d×%[3]d px.

IMPORTANT OUTPUT (no base64 wall):
- Return/attach the edited image as a rendered image preview or image file (PNG).
- Do NOT return a long base64 string in the message body.
- If your interface cannot render images, attach a PNG file instead of base64 text.`, filename, w, h)
}
