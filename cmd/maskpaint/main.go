/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"maskpaint/internal/config"
	"maskpaint/internal/crash"
	"maskpaint/internal/editor"
	"maskpaint/internal/imageio"
	applog "maskpaint/internal/log"
	"maskpaint/internal/outbox"
	"maskpaint/internal/replay"
	"maskpaint/internal/telemetry"
	"maskpaint/internal/ui"
	"maskpaint/internal/version"
)

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "MaskPaint: mark image regions for inpainting")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  maskpaint version|-v|--version                   Show version")
	_, _ = fmt.Fprintln(w, "  maskpaint check <script.yaml>                    Validate a replay script")
	_, _ = fmt.Fprintln(w, "  maskpaint render <image> <script.yaml> [outDir]  Replay a script and submit the export")
	_, _ = fmt.Fprintln(w, "  maskpaint ui [<image>]                           Launch desktop editor (build with -tags fyne)")
}

func main() {
	cfg, token, cfgErr := config.Load()
	applog.Init(cfg.LogOptions())
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}
	telemetry.NewDefault(cfg.TelemetryConfig())

	var sess *editor.Session
	defer func() { crash.Recover("", rescueSession(sess)) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage(os.Stdout)
		return
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("MaskPaint")
		fmt.Println(version.String())
	case "check":
		if len(args) < 3 {
			fmt.Println("check requires <script.yaml>")
			usage(os.Stdout)
			os.Exit(2)
		}
		sc, err := loadScript(args[2], os.Stderr)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d step(s), container %gx%g\n", args[2], len(sc.Steps), sc.Container.W, sc.Container.H)
	case "render":
		if len(args) < 4 {
			fmt.Println("render requires <image> and <script.yaml>")
			usage(os.Stdout)
			os.Exit(2)
		}
		var outDir string
		if len(args) >= 5 {
			outDir = args[4]
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		rec, err := render(ctx, cfg, token, args[2], args[3], outDir, func(s *editor.Session) { sess = s })
		stop()
		telemetry.Flush(2 * time.Second)
		if err != nil {
			l.Error("render failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Printf("Submitted %s\n", rec.ID)
		if rec.Location != "" {
			fmt.Println("Location:", rec.Location)
		}
	case "ui":
		var img string
		if len(args) >= 3 {
			img = args[2]
		}
		if err := ui.Run(img); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	default:
		usage(os.Stdout)
		os.Exit(2)
	}
	_ = applog.Close()
}

// loadScript parses path and reports every script error to errOut.
func loadScript(path string, errOut io.Writer) (replay.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return replay.Script{}, err
	}
	sc, errs := replay.Parse(data)
	if len(errs) > 0 {
		for _, e := range errs {
			_, _ = fmt.Fprintf(errOut, "%s: %v\n", path, e)
		}
		return replay.Script{}, fmt.Errorf("%s: %d script error(s)", filepath.Base(path), len(errs))
	}
	return sc, nil
}

// render replays scriptPath over the image at imgPath and submits the export.
// outDir, when set, replaces the configured outbox with a directory sink.
func render(ctx context.Context, cfg config.AppConfig, token, imgPath, scriptPath, outDir string, started func(*editor.Session)) (outbox.Receipt, error) {
	l := applog.WithOperation(applog.WithComponent("cli"), "render")
	sc, err := loadScript(scriptPath, os.Stderr)
	if err != nil {
		return outbox.Receipt{}, err
	}
	img, format, err := imageio.Load(imgPath, imageio.DefaultMaxPixels)
	if err != nil {
		return outbox.Receipt{}, err
	}

	s := editor.New(sc.Options(cfg.EditorOptions()))
	defer s.Close()
	if started != nil {
		started(s)
	}
	ctx = applog.ContextWithSession(ctx, fmt.Sprintf("r%x", time.Now().UnixNano()))
	start := time.Now()
	if err := replay.Run(ctx, s, img, sc); err != nil {
		return outbox.Receipt{}, fmt.Errorf("%s: %w", filepath.Base(scriptPath), err)
	}
	b := img.Bounds()
	telemetry.Event(telemetry.EventReplay, map[string]any{
		"steps": len(sc.Steps), "width": b.Dx(), "height": b.Dy(), "format": format, "surface": "cli",
	})

	ex, err := s.Export(ctx)
	if err != nil {
		telemetry.Event(telemetry.EventExportFailed, map[string]any{"reason": "export", "surface": "cli"})
		return outbox.Receipt{}, err
	}

	if ex.Crop != nil {
		telemetry.Event(telemetry.EventCropApplied, map[string]any{"zoom": s.Zoom(), "surface": "cli"})
	}

	oc := cfg.OutboxConfig()
	if outDir != "" {
		oc = outbox.Config{Kind: outbox.KindDir, Dir: outDir, Sheet: cfg.Outbox.Sheet}
	}
	sink, err := outbox.Open(ctx, oc, token)
	if err != nil {
		telemetry.Event(telemetry.EventExportFailed, map[string]any{"reason": "open", "sink": oc.Kind, "surface": "cli"})
		return outbox.Receipt{}, err
	}
	defer func() { _ = sink.Close() }()
	rec, err := sink.Submit(ctx, outbox.NewSubmission(ex))
	if err != nil {
		telemetry.Event(telemetry.EventExportFailed, map[string]any{"reason": "submit", "sink": oc.Kind, "surface": "cli"})
		return outbox.Receipt{}, err
	}
	telemetry.Event(telemetry.EventExport, map[string]any{
		"width": ex.Dimensions.Width, "height": ex.Dimensions.Height, "bytes": len(ex.PNG),
		"sink": oc.Kind, "cropped": ex.Crop != nil, "took_ms": time.Since(start).Milliseconds(), "surface": "cli",
	})
	l.InfoContext(ctx, "submitted", slog.String("id", rec.ID), slog.String("sink", oc.Kind),
		slog.Int("width", ex.Dimensions.Width), slog.Int("height", ex.Dimensions.Height))
	return rec, nil
}

// rescueSession writes the in-progress composite when a panic ends the run.
func rescueSession(s *editor.Session) crash.Rescue {
	if s == nil {
		return nil
	}
	return func(dir string) (string, error) {
		if !s.HasImage() {
			return "", nil
		}
		ex, err := s.Export(context.Background())
		if err != nil {
			return "", err
		}
		path := filepath.Join(dir, "maskpaint-rescue-"+ex.Filename)
		if err := os.WriteFile(path, ex.PNG, 0o644); err != nil {
			return "", err
		}
		return path, nil
	}
}
