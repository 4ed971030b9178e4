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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	applog "maskpaint/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// sqliteSchemaVersion is bumped with every breaking change to the local schema.
const sqliteSchemaVersion = 1

// SQLiteSink stores submissions in a local SQLite file.
type SQLiteSink struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path in WAL mode and ensures
// the schema exists.
func OpenSQLite(path string) (*SQLiteSink, error) {
	l := applog.WithOperation(applog.WithComponent("outbox"), "sqlite_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("sqlite outbox ready")
	return &SQLiteSink{db: db, path: path}, nil
}

func ensureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id          INTEGER PRIMARY KEY,
			filename    TEXT    NOT NULL,
			width       INTEGER NOT NULL,
			height      INTEGER NOT NULL,
			sha256      TEXT    NOT NULL,
			prompt      TEXT    NOT NULL,
			manifest    TEXT    NOT NULL,
			png         BLOB    NOT NULL,
			created_at  TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, `INSERT INTO version(id, schema, created_at, updated_at) VALUES(1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET schema=excluded.schema, updated_at=excluded.updated_at`,
		sqliteSchemaVersion, now, now)
	if err != nil {
		return fmt.Errorf("seed version: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	m, manifest, err := prepare(sub)
	if err != nil {
		return Receipt{}, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO submissions(filename, width, height, sha256, prompt, manifest, png, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Filename, m.Width, m.Height, m.SHA256, m.Prompt, string(manifest), sub.PNG, m.CreatedAt)
	if err != nil {
		return Receipt{}, fmt.Errorf("insert submission: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Receipt{}, fmt.Errorf("submission id: %w", err)
	}
	applog.WithComponent("outbox").Info("submission stored", slog.String("db", s.path), slog.Int64("id", id))
	return Receipt{ID: strconv.FormatInt(id, 10), Location: s.path}, nil
}

// Stored is a row read back from a database sink.
type Stored struct {
	ID        int64
	Manifest  Manifest
	PNG       []byte
	CreatedAt string
}

// Latest returns the most recent submission.
func (s *SQLiteSink) Latest(ctx context.Context) (Stored, error) {
	return scanLatest(s.db.QueryRowContext(ctx,
		`SELECT id, manifest, png, created_at FROM submissions ORDER BY id DESC LIMIT 1`))
}

func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&n)
	return n, err
}

func (s *SQLiteSink) Close() error { return s.db.Close() }
