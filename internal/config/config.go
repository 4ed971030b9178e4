/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"maskpaint/internal/compose"
	"maskpaint/internal/editor"
	"maskpaint/internal/geom"
	applog "maskpaint/internal/log"
	"maskpaint/internal/outbox"
	"maskpaint/internal/telemetry"
	"maskpaint/internal/viewport"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	TelemetryURL   string `yaml:"telemetry_url"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
}

type EditorConfig struct {
	BrushSize        float64 `yaml:"brush_size"`
	HistoryLimit     int     `yaml:"history_limit"`
	ZoomInFactor     float64 `yaml:"zoom_in_factor"`
	ZoomOutFactor    float64 `yaml:"zoom_out_factor"`
	MinZoom          float64 `yaml:"min_zoom"`
	MaxZoom          float64 `yaml:"max_zoom"`
	MaxAutoZoom      float64 `yaml:"max_auto_zoom"`
	ResizeDebounceMs int     `yaml:"resize_debounce_ms"`
	ViewportScale    float64 `yaml:"viewport_scale"`
	SafeBottom       float64 `yaml:"safe_bottom"`
	MinAvailH        float64 `yaml:"min_avail_h"`
	DevicePixelRatio float64 `yaml:"device_pixel_ratio"`
}

type ExportConfig struct {
	Filename    string `yaml:"filename"`
	Compression string `yaml:"compression"` // "default" | "fast" | "best" | "none"
}

type OutboxConfig struct {
	Kind        string `yaml:"kind"` // "dir" | "sqlite" | "postgres"
	Dir         string `yaml:"dir"`
	Sheet       bool   `yaml:"sheet"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	// The database password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Editor        EditorConfig  `yaml:"editor"`
	Export        ExportConfig  `yaml:"export"`
	Outbox        OutboxConfig  `yaml:"outbox"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	vl := viewport.DefaultLimits()
	b := geom.DefaultBudget()
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Editor: EditorConfig{
			BrushSize:        40,
			HistoryLimit:     50,
			ZoomInFactor:     1.25,
			ZoomOutFactor:    0.8,
			MinZoom:          vl.MinZoom,
			MaxZoom:          vl.MaxZoom,
			MaxAutoZoom:      vl.MaxAutoZoom,
			ResizeDebounceMs: 100,
			ViewportScale:    b.ViewportScale,
			SafeBottom:       b.SafeBottom,
			MinAvailH:        b.MinAvailH,
			DevicePixelRatio: 1,
		},
		Export:  ExportConfig{Filename: compose.DefaultFilename, Compression: "default"},
		Outbox:  OutboxConfig{Kind: outbox.KindDir, Dir: defaultOutboxDir()},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath       = "MPT_CONFIG"
	EnvTelemetryOptIn   = "MPT_TELEMETRY_OPT_IN"
	EnvTelemetryURL     = "MPT_TELEMETRY_URL"
	EnvBrushSize        = "MPT_BRUSH_SIZE"
	EnvHistoryLimit     = "MPT_HISTORY_LIMIT"
	EnvDevicePixelRatio = "MPT_DPR"
	EnvExportFilename   = "MPT_EXPORT_FILENAME"
	EnvCompression      = "MPT_PNG_COMPRESSION"
	EnvOutboxKind       = "MPT_OUTBOX_KIND"
	EnvOutboxDir        = "MPT_OUTBOX_DIR"
	EnvPostgresDSN      = "MPT_PG_DSN"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "MPT_LOG_LEVEL"
	EnvLogFormat = "MPT_LOG_FORMAT"
	EnvLogSource = "MPT_LOG_SOURCE"
	EnvLogFile   = "MPT_LOG_FILE"
)

func appDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "MaskPaint")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "MaskPaint")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "maskpaint")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

func defaultOutboxDir() string {
	if d, err := appDir(); err == nil {
		return filepath.Join(d, "outbox")
	}
	return "outbox"
}

// ConfigPath returns the per-user config file path. MPT_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	base, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the outbox database password from the keyring (returned separately, never kept in the struct).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if strings.TrimSpace(src.General.TelemetryURL) != "" {
		dst.General.TelemetryURL = strings.TrimSpace(src.General.TelemetryURL)
	}
	// editor: only positive numbers replace defaults
	mergeFloat(&dst.Editor.BrushSize, src.Editor.BrushSize)
	mergeFloat(&dst.Editor.ZoomInFactor, src.Editor.ZoomInFactor)
	mergeFloat(&dst.Editor.ZoomOutFactor, src.Editor.ZoomOutFactor)
	mergeFloat(&dst.Editor.MinZoom, src.Editor.MinZoom)
	mergeFloat(&dst.Editor.MaxZoom, src.Editor.MaxZoom)
	mergeFloat(&dst.Editor.MaxAutoZoom, src.Editor.MaxAutoZoom)
	mergeFloat(&dst.Editor.ViewportScale, src.Editor.ViewportScale)
	mergeFloat(&dst.Editor.SafeBottom, src.Editor.SafeBottom)
	mergeFloat(&dst.Editor.MinAvailH, src.Editor.MinAvailH)
	mergeFloat(&dst.Editor.DevicePixelRatio, src.Editor.DevicePixelRatio)
	if src.Editor.HistoryLimit > 0 {
		dst.Editor.HistoryLimit = src.Editor.HistoryLimit
	}
	if src.Editor.ResizeDebounceMs > 0 {
		dst.Editor.ResizeDebounceMs = src.Editor.ResizeDebounceMs
	}
	// export
	if strings.TrimSpace(src.Export.Filename) != "" {
		dst.Export.Filename = strings.TrimSpace(src.Export.Filename)
	}
	if strings.TrimSpace(src.Export.Compression) != "" {
		dst.Export.Compression = strings.ToLower(strings.TrimSpace(src.Export.Compression))
	}
	// outbox
	if strings.TrimSpace(src.Outbox.Kind) != "" {
		dst.Outbox.Kind = strings.ToLower(strings.TrimSpace(src.Outbox.Kind))
	}
	if strings.TrimSpace(src.Outbox.Dir) != "" {
		dst.Outbox.Dir = strings.TrimSpace(src.Outbox.Dir)
	}
	dst.Outbox.Sheet = src.Outbox.Sheet
	if strings.TrimSpace(src.Outbox.SQLitePath) != "" {
		dst.Outbox.SQLitePath = strings.TrimSpace(src.Outbox.SQLitePath)
	}
	if strings.TrimSpace(src.Outbox.PostgresDSN) != "" {
		dst.Outbox.PostgresDSN = strings.TrimSpace(src.Outbox.PostgresDSN)
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func mergeFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryURL)); v != "" {
		cfg.General.TelemetryURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBrushSize)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Editor.BrushSize = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.HistoryLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDevicePixelRatio)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Editor.DevicePixelRatio = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportFilename)); v != "" {
		cfg.Export.Filename = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCompression)); v != "" {
		cfg.Export.Compression = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutboxKind)); v != "" {
		cfg.Outbox.Kind = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutboxDir)); v != "" {
		cfg.Outbox.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPostgresDSN)); v != "" {
		cfg.Outbox.PostgresDSN = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"general.telemetry_opt_in":  EnvTelemetryOptIn,
	"general.telemetry_url":     EnvTelemetryURL,
	"editor.brush_size":         EnvBrushSize,
	"editor.history_limit":      EnvHistoryLimit,
	"editor.device_pixel_ratio": EnvDevicePixelRatio,
	"export.filename":           EnvExportFilename,
	"export.compression":        EnvCompression,
	"outbox.kind":               EnvOutboxKind,
	"outbox.dir":                EnvOutboxDir,
	"outbox.postgres_dsn":       EnvPostgresDSN,
	"logging.level":             EnvLogLevel,
	"logging.format":            EnvLogFormat,
	"logging.source":            EnvLogSource,
	"logging.file":              EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// EditorOptions converts the editor and export sections into session options.
func (c AppConfig) EditorOptions() editor.Options {
	e := c.Editor
	return editor.Options{
		DevicePixelRatio: e.DevicePixelRatio,
		Limits:           viewport.Limits{MinZoom: e.MinZoom, MaxZoom: e.MaxZoom, MaxAutoZoom: e.MaxAutoZoom},
		ZoomInFactor:     e.ZoomInFactor,
		ZoomOutFactor:    e.ZoomOutFactor,
		BrushSize:        e.BrushSize,
		HistoryLimit:     e.HistoryLimit,
		ResizeDebounce:   time.Duration(e.ResizeDebounceMs) * time.Millisecond,
		Filename:         c.Export.Filename,
		Compression:      compose.ParseCompression(c.Export.Compression),
	}
}

// LayoutBudget returns the window-to-display budget used by desktop surfaces.
func (c AppConfig) LayoutBudget() geom.Budget {
	return geom.Budget{ViewportScale: c.Editor.ViewportScale, SafeBottom: c.Editor.SafeBottom, MinAvailH: c.Editor.MinAvailH}
}

// OutboxConfig converts the outbox section. A relative SQLite path lives under the outbox dir.
func (c AppConfig) OutboxConfig() outbox.Config {
	o := c.Outbox
	sp := o.SQLitePath
	if sp == "" {
		sp = "outbox.sqlite"
	}
	if !filepath.IsAbs(sp) {
		sp = filepath.Join(o.Dir, sp)
	}
	return outbox.Config{Kind: o.Kind, Dir: o.Dir, Sheet: o.Sheet, SQLitePath: sp, PostgresDSN: o.PostgresDSN}
}

// LogOptions converts the logging section for applog.Init.
func (c AppConfig) LogOptions() applog.Options {
	l := c.Logging
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

// TelemetryConfig merges the general section over the MPT_* telemetry env.
func (c AppConfig) TelemetryConfig() telemetry.Config {
	tc := telemetry.FromEnv()
	tc.OptIn = c.General.TelemetryOptIn
	if u := strings.TrimSpace(c.General.TelemetryURL); u != "" {
		tc.EventsURL = u
	}
	return tc
}
