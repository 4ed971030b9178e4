/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns an unrecovered panic into a readable report and gives
// the caller one chance to rescue in-progress work before the process exits.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "maskpaint/internal/log"
	"maskpaint/internal/telemetry"
	"maskpaint/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Rescue saves whatever work can still be saved into dir and returns the
// path it wrote.
type Rescue func(dir string) (string, error)

// Recover captures a panic, logs it with its stack, writes a crash report
// into dir (the temp dir when empty), runs rescue and exits with code 2.
//
// Usage: defer crash.Recover(dir, rescue)
func Recover(dir string, rescue Rescue) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(dir, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if rescue != nil {
		if path, err := runRescue(rescue, reportDir(dir)); err != nil {
			l.Error("rescue failed", slog.Any("err", err))
		} else if path != "" {
			l.Info("work rescued", slog.String("path", path))
			_, _ = fmt.Fprintf(os.Stderr, "Unsaved work was written to: %s\n", path)
		}
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	_ = applog.Close()
	exitFn(2)
}

// runRescue shields the crash path from a second panic inside rescue.
func runRescue(rescue Rescue, dir string) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rescue panicked: %v", r)
		}
	}()
	return rescue(dir)
}

func reportDir(dir string) string {
	if dir == "" {
		return os.TempDir()
	}
	return dir
}

func writeReport(dir string, panicVal any, stack []byte) (string, error) {
	dir = reportDir(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "MaskPaint Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintf(&buf, "Go: %s\n", runtime.Version())
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()

	// optionally upload the crash report (opt-in)
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
