/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history keeps a bounded linear undo/redo stack of full mask raster
// snapshots. One entry is recorded per completed stroke.
package history

import (
	"image"
	"sync"
	"time"
)

// DefaultMaxEntries is the stock cap on recorded snapshots.
const DefaultMaxEntries = 50

// Surface is a raster that can be captured and rematerialized.
type Surface interface {
	Snapshot() *image.RGBA
	Restore(snap *image.RGBA)
}

// Entry is an immutable snapshot of the mask at one point in time.
type Entry struct {
	Pix *image.RGBA
	TS  time.Time
}

// Config controls the depth cap.
type Config struct {
	// MaxEntries bounds the number of snapshots kept; the oldest are evicted.
	MaxEntries int
}

// Manager is a linear history: recording after an undo discards the redo branch.
// index points at the entry currently materialized in the surface.
// It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex

	entries []Entry
	index   int

	totalBytes int
	now        func() time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	return &Manager{cfg: cfg, index: -1, now: time.Now}
}

// Reset drops every entry and records the current (empty) state of s as entry 0.
func (m *Manager) Reset(s Surface) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.totalBytes = 0
	m.index = -1
	m.appendLocked(s.Snapshot())
}

// Save records the state of s after a completed stroke. Entries after the
// current index are discarded; the oldest entry is evicted past the cap.
func (m *Manager) Save(s Surface) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries[m.index+1:] {
		m.totalBytes -= len(e.Pix.Pix)
	}
	m.entries = m.entries[:m.index+1]
	m.appendLocked(s.Snapshot())
	for len(m.entries) > m.cfg.MaxEntries {
		m.totalBytes -= len(m.entries[0].Pix.Pix)
		m.entries[0] = Entry{}
		m.entries = m.entries[1:]
		m.index--
	}
}

func (m *Manager) appendLocked(pix *image.RGBA) {
	m.entries = append(m.entries, Entry{Pix: pix, TS: m.now()})
	m.totalBytes += len(pix.Pix)
	m.index = len(m.entries) - 1
}

// Undo steps back one entry and restores it into s. It reports false at the start.
func (m *Manager) Undo(s Surface) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index <= 0 {
		return false
	}
	m.index--
	s.Restore(m.entries[m.index].Pix)
	return true
}

// Redo steps forward one entry and restores it into s. It reports false at the end.
func (m *Manager) Redo(s Surface) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index < 0 || m.index >= len(m.entries)-1 {
		return false
	}
	m.index++
	s.Restore(m.entries[m.index].Pix)
	return true
}

// Revert rematerializes the current entry, discarding uncommitted paint.
func (m *Manager) Revert(s Surface) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index < 0 {
		return
	}
	s.Restore(m.entries[m.index].Pix)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manager) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

func (m *Manager) CanUndo() bool { return m.Index() > 0 }

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index >= 0 && m.index < len(m.entries)-1
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, entries int, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBytes, len(m.entries), m.index
}
