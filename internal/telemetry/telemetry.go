/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry provides a tiny, opt-in event sender for anonymous usage
// metrics and optional crash uploads.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	applog "maskpaint/internal/log"
	"maskpaint/internal/version"
)

// Event names emitted by the application.
const (
	EventStarted      = "started"
	EventImageLoaded  = "image_loaded"
	EventCropApplied  = "crop_applied"
	EventExport       = "export"
	EventExportFailed = "export_failed"
	EventReplay       = "replay"
)

// allowedProps lists the only property keys forwarded with an event. Anything
// else (file names, paths, prompts) is dropped before queueing.
var allowedProps = map[string]bool{
	"width": true, "height": true, "bytes": true, "format": true,
	"zoom": true, "dpr": true, "sink": true, "steps": true,
	"cropped": true, "took_ms": true, "surface": true, "reason": true,
}

// Config holds runtime configuration for telemetry and crash uploads.
// All telemetry is strictly opt-in and disabled by default.
//
// Environment variables (read by FromEnv):
// - MPT_TELEMETRY_OPT_IN: "1", "true", "yes" to enable metrics
// - MPT_TELEMETRY_URL: URL to POST JSON events to
// - MPT_CRASH_UPLOAD_URL: URL to POST crash reports to
// - MPT_TELEMETRY_TIMEOUT_MS: optional request timeout, default 1500ms
// - MPT_TELEMETRY_DEBUG: if set, logs event send attempts
//
// If no URLs are set, events are dropped even if opt-in is true.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("MPT_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("MPT_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("MPT_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("MPT_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("MPT_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Client is a minimal async sender; it drops events silently on errors.
// It never blocks the caller; the queue is bounded.
type Client struct {
	cfg     Config
	log     *slog.Logger
	cli     *http.Client
	q       chan map[string]any
	once    sync.Once
	closed  chan struct{}
	pending atomic.Int64 // queued or in-flight events
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// InitDefault initializes the package-level default client from env when first used.
func InitDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
}

// NewDefault creates and installs the default client with cfg, closing the previous one.
func NewDefault(cfg Config) {
	c := New(cfg)
	defaultMu.Lock()
	prev := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

func getDefault() *Client {
	InitDefault()
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultClient
}

// New constructs a client and starts its sender goroutine.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan map[string]any, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether anonymous telemetry is enabled and an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports whether anonymous telemetry is enabled using the default client.
func Enabled() bool { return getDefault().Enabled() }

// Event queues a small JSON event if enabled. Properties outside the
// allowlist are dropped. Safe to call from any goroutine.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		if allowedProps[k] {
			payload[k] = v
		}
	}
	c.pending.Add(1)
	select {
	case c.q <- payload:
	default:
		// drop if queue full
		c.pending.Add(-1)
	}
}

// Event using default client.
func Event(name string, props map[string]any) { getDefault().Event(name, props) }

// Flush waits until queued events are sent or ctx is done.
func (c *Client) Flush(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for c.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Flush using default client, bounded by timeout.
func Flush(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	getDefault().Flush(ctx)
}

// Close stops the background goroutine. Queued events are discarded.
func (c *Client) Close() { c.once.Do(func() { close(c.closed) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case item := <-c.q:
			c.send(item)
			c.pending.Add(-1)
		}
	}
}

func (c *Client) send(item map[string]any) {
	buf, err := json.Marshal(item)
	if err != nil {
		return
	}
	c.post(c.cfg.EventsURL, "application/json", buf, "telemetry event")
}

func (c *Client) post(url, contentType string, body []byte, what string) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", applog.AppName+"/"+version.String())
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug(what+" failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug(what+" sent", slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts an already-serialized crash report to the configured
// crash URL if opted in. It waits at most the client timeout.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", append([]byte(nil), report...), "crash upload")
}

// UploadCrash using default client.
func UploadCrash(report []byte) { getDefault().UploadCrash(report) }
