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
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// Sheet layout in points on an A4 portrait page.
const (
	sheetMargin = 36.0
	sheetFont   = 10.0
)

// WriteSheet renders a one-page PDF with the exported image scaled to the
// page width and the prompt text underneath.
func WriteSheet(path string, s Submission) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		SizeStr: "A4",
	})
	pdf.SetTitle(s.Filename, true)
	pdf.SetAuthor("maskpaint", false)
	pdf.SetMargins(sheetMargin, sheetMargin, sheetMargin)
	pdf.SetAutoPageBreak(true, sheetMargin)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	maxW := pageW - 2*sheetMargin
	maxH := (pageH - 2*sheetMargin) * 0.6
	w, h := float64(s.Width), float64(s.Height)
	k := math.Min(maxW/w, maxH/h)
	w, h = w*k, h*k

	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(s.Filename, opt, bytes.NewReader(s.PNG))
	pdf.ImageOptions(s.Filename, sheetMargin+(maxW-w)/2, sheetMargin, w, h, false, opt, 0, "")

	pdf.SetY(sheetMargin + h + 18)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(maxW, 16, fmt.Sprintf("%s  %dx%d px", s.Filename, s.Width, s.Height), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", sheetFont)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.MultiCell(maxW, sheetFont*1.3, tr(s.Prompt), "", "L", false)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render sheet: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure sheet dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}
	return nil
}
