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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	applog "maskpaint/internal/log"
)

const (
	PromptFileName   = "prompt.txt"
	ManifestFileName = "manifest.json"
	SheetFileName    = "sheet.pdf"
)

// DirSink writes each submission into its own timestamped folder under Root:
// the PNG, the prompt text, the manifest and optionally a printable PDF sheet.
type DirSink struct {
	Root  string
	Sheet bool
}

func NewDirSink(root string, sheet bool) (*DirSink, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("outbox dir is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create outbox dir: %w", err)
	}
	return &DirSink{Root: root, Sheet: sheet}, nil
}

func (d *DirSink) Submit(ctx context.Context, s Submission) (Receipt, error) {
	l := applog.WithOperation(applog.WithComponent("outbox"), "dir_submit")
	m, manifest, err := prepare(s)
	if err != nil {
		return Receipt{}, err
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	id := submissionID(m)
	dir := filepath.Join(d.Root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Receipt{}, fmt.Errorf("create submission dir: %w", err)
	}
	files := []struct {
		name string
		data []byte
	}{
		{s.Filename, s.PNG},
		{PromptFileName, []byte(s.Prompt + "\n")},
		{ManifestFileName, manifest},
	}
	for _, f := range files {
		if err := writeAtomic(filepath.Join(dir, f.name), f.data); err != nil {
			l.Error("write failed", slog.String("file", f.name), slog.Any("err", err))
			return Receipt{}, fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	if d.Sheet {
		if err := WriteSheet(filepath.Join(dir, SheetFileName), s); err != nil {
			l.Error("sheet failed", slog.Any("err", err))
			return Receipt{}, err
		}
	}
	l.Info("submission written", slog.String("dir", dir), slog.Int("bytes", len(s.PNG)))
	return Receipt{ID: id, Location: dir}, nil
}

func (d *DirSink) Close() error { return nil }

// submissionID is the creation time plus a short digest prefix, so folders
// sort chronologically and identical re-exports collide on purpose.
func submissionID(m Manifest) string {
	stamp := strings.NewReplacer(":", "", "-", "").Replace(m.CreatedAt)
	return stamp + "-" + m.SHA256[:8]
}

// writeAtomic writes to a temp file in the same directory, syncs, then
// renames over the target.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return err
	}
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return err
	}
	return nil
}

func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
