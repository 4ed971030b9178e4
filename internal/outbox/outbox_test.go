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
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"maskpaint/internal/editor"
)

func sampleSubmission(t *testing.T) Submission {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetRGBA(2, 2, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return Submission{
		Filename:  "combined-image.png",
		PNG:       buf.Bytes(),
		Width:     8,
		Height:    6,
		Prompt:    "remove the red area",
		Crop:      &editor.CropInfo{X: 1, Y: 2, W: 8, H: 6},
		CreatedAt: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func TestManifestValidates(t *testing.T) {
	m := NewManifest(sampleSubmission(t))
	b, err := m.JSON()
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateManifest(b); err != nil {
		t.Fatalf("valid manifest rejected: %v", err)
	}
	if m.CreatedAt != "2025-03-04T05:06:07Z" {
		t.Fatalf("createdAt = %q", m.CreatedAt)
	}
}

func TestManifestRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"missing fields": `{"filename":"a.png"}`,
		"zero width":     `{"filename":"a.png","width":0,"height":1,"bytes":1,"sha256":"` + strings.Repeat("a", 64) + `","prompt":"","createdAt":"2025-01-01T00:00:00Z","app":"x"}`,
		"path filename":  `{"filename":"../a.png","width":1,"height":1,"bytes":1,"sha256":"` + strings.Repeat("a", 64) + `","prompt":"","createdAt":"2025-01-01T00:00:00Z","app":"x"}`,
		"extra field":    `{"filename":"a.png","width":1,"height":1,"bytes":1,"sha256":"` + strings.Repeat("a", 64) + `","prompt":"","createdAt":"2025-01-01T00:00:00Z","app":"x","mask":true}`,
	}
	for name, doc := range cases {
		if err := ValidateManifest([]byte(doc)); !errors.Is(err, ErrInvalidManifest) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestSubmissionValidation(t *testing.T) {
	s := sampleSubmission(t)
	s.PNG = nil
	d, err := NewDirSink(t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Submit(context.Background(), s); err == nil {
		t.Fatal("expected error for empty image")
	}
	if _, err := NewDirSink("  ", false); err == nil {
		t.Fatal("expected error for blank root")
	}
}

func TestDirSinkWritesFiles(t *testing.T) {
	root := t.TempDir()
	d, err := NewDirSink(root, true)
	if err != nil {
		t.Fatal(err)
	}
	s := sampleSubmission(t)
	rc, err := d.Submit(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(rc.ID, "20250304T050607Z-") {
		t.Fatalf("id = %q", rc.ID)
	}
	got, err := os.ReadFile(filepath.Join(rc.Location, s.Filename))
	if err != nil || !bytes.Equal(got, s.PNG) {
		t.Fatalf("png mismatch: %v", err)
	}
	p, _ := os.ReadFile(filepath.Join(rc.Location, PromptFileName))
	if strings.TrimSpace(string(p)) != s.Prompt {
		t.Fatalf("prompt = %q", p)
	}
	mb, _ := os.ReadFile(filepath.Join(rc.Location, ManifestFileName))
	if err := ValidateManifest(mb); err != nil {
		t.Fatalf("written manifest invalid: %v", err)
	}
	pdf, err := os.ReadFile(filepath.Join(rc.Location, SheetFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatal("sheet is not a PDF")
	}
	entries, _ := os.ReadDir(rc.Location)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestDirSinkHonoursCancelledContext(t *testing.T) {
	d, _ := NewDirSink(t.TempDir(), false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Submit(ctx, sampleSubmission(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestSQLiteSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox", "outbox.sqlite")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()
	ctx := context.Background()
	sub := sampleSubmission(t)
	if _, err := s.Submit(ctx, sub); err != nil {
		t.Fatal(err)
	}
	rc, err := s.Submit(ctx, sub)
	if err != nil {
		t.Fatal(err)
	}
	if rc.ID != "2" {
		t.Fatalf("id = %q", rc.ID)
	}
	n, err := s.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("count = %d, %v", n, err)
	}
	st, err := s.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(st.PNG, sub.PNG) || st.Manifest.SHA256 != sub.Digest() {
		t.Fatal("stored submission differs")
	}
	if st.Manifest.Crop == nil || st.Manifest.Crop.W != 8 {
		t.Fatalf("crop = %+v", st.Manifest.Crop)
	}

	// Reopening keeps data and does not fail on existing schema.
	_ = s.Close()
	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s2.Close() }()
	if n, _ := s2.Count(ctx); n != 2 {
		t.Fatalf("count after reopen = %d", n)
	}
}

func TestOpenSelectsSink(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(ctx, Config{Dir: dir}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*DirSink); !ok {
		t.Fatalf("default sink = %T", s)
	}
	s, err = Open(ctx, Config{Kind: "SQLite", SQLitePath: filepath.Join(dir, "o.sqlite")}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*SQLiteSink); !ok {
		t.Fatalf("sqlite sink = %T", s)
	}
	_ = s.Close()
	if _, err := Open(ctx, Config{Kind: "ftp"}, ""); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestWithPassword(t *testing.T) {
	got, err := withPassword("postgres://alice@db:5432/mp?sslmode=disable", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if got != "postgres://alice:s3cret@db:5432/mp?sslmode=disable" {
		t.Fatalf("dsn = %q", got)
	}
	if same, _ := withPassword("host=db user=alice", ""); same != "host=db user=alice" {
		t.Fatal("dsn without password should pass through")
	}
	if _, err := withPassword("host=db user=alice", "x"); err == nil {
		t.Fatal("keyword dsn cannot carry a stored credential")
	}
	if _, err := withPassword("", ""); err == nil {
		t.Fatal("empty dsn accepted")
	}
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("migrations/0007_add_index.sql")
	if err != nil || v != 7 {
		t.Fatalf("v=%d err=%v", v, err)
	}
	if _, err := parseVersion("init.sql"); err == nil {
		t.Fatal("expected error")
	}
}
